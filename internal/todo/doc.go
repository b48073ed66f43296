// Package todo stores, validates, and updates per-user checklists.
//
// The checklist file is a single JSON object keyed by user id:
//
//	{
//	  "123456789012345678": [
//	    {
//	      "task": "Submit report",
//	      "done": false,
//	      "priority": "High",
//	      "due": "2025-03-14 04:30 PM"
//	    }
//	  ]
//	}
//
// # Validation
//
// Every entry is checked against an embedded JSON Schema when the file is
// loaded. Entries that fail (not an object, missing task/done/priority, wrong
// types) are quarantined: they stay in the file untouched, are hidden from
// every operation, and are dropped by Store.Repair.
//
// # Priorities
//
//   - "High", "Medium", "Low" sort in that order
//   - any other value is allowed and sorts last
//
// # Due Dates
//
// Due values use the pattern YYYY-MM-DD hh:mm AM/PM in the host's local
// time zone. Stored values are canonical (zero padded, upper-case meridiem).
//
// # File Format
//
// When writing the checklist file, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - Sorted user keys
//   - Write to a temp file, then rename over the original
package todo
