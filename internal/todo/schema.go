package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/checklist-go/internal/utils"
)

// taskSchema describes a well-formed checklist entry.
const taskSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "checklist task",
  "type": "object",
  "required": ["task", "done", "priority"],
  "properties": {
    "task": {"type": "string", "minLength": 1},
    "done": {"type": "boolean"},
    "priority": {"type": "string"},
    "due": {"type": "string"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func entrySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("task.schema.json", taskSchema)
	})
	return compiledSchema, schemaErr
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results for a checklist file.
type ValidationResult struct {
	Valid       bool
	Users       int
	Tasks       int
	Quarantined int
	Errors      []error
}

// validateEntry checks a single raw entry against the task schema.
// Errors carry paths relative to prefix.
func validateEntry(raw json.RawMessage, prefix string) []error {
	schema, err := entrySchema()
	if err != nil {
		return []error{&ValidationError{Path: prefix, Err: fmt.Errorf("compile task schema: %w", err)}}
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []error{&ValidationError{Path: prefix, Err: fmt.Errorf("invalid JSON: %w", err)}}
	}

	if err := schema.Validate(doc); err != nil {
		var errs []error
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return []error{&ValidationError{Path: prefix, Err: err}}
		}
		collectSchemaErrors(&errs, ve, prefix)
		return errs
	}
	return nil
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError, prefix string) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		path := prefix
		if sub := utils.JSONPointerToPath(err.InstanceLocation); sub != "" {
			path = prefix + "." + sub
		}
		*errs = append(*errs, &ValidationError{
			Path: path,
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause, prefix)
	}
}

// ValidateFile checks every entry of the checklist file at path without
// loading it into a store. A missing file is valid and empty.
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	users, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result.Users = len(ids)

	for _, id := range ids {
		var entries []json.RawMessage
		if err := json.Unmarshal(users[id], &entries); err != nil {
			result.Valid = false
			result.Quarantined++
			result.Errors = append(result.Errors, &ValidationError{
				Path: id,
				Err:  fmt.Errorf("expected an array of tasks"),
			})
			continue
		}
		for i, entry := range entries {
			errs := validateEntry(entry, fmt.Sprintf("%s[%d]", id, i))
			if len(errs) == 0 {
				result.Tasks++
				continue
			}
			result.Valid = false
			result.Quarantined++
			result.Errors = append(result.Errors, errs...)
		}
	}

	return result, nil
}

// readRaw reads the checklist file as a map of raw user values.
// A missing file yields an empty map.
func readRaw(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read checklist file: %w", err)
	}

	users := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse checklist file: %w", err)
	}
	return users, nil
}
