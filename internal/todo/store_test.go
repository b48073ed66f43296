package todo

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readEntries(t *testing.T, path, userID string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var raw map[string][]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse file: %v", err)
	}
	return raw[userID]
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_checklists.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := s.Tasks("42"); len(got) != 0 {
		t.Errorf("Tasks: got %d, want 0", len(got))
	}
	if got := s.Users(); len(got) != 0 {
		t.Errorf("Users: got %v, want none", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Load should not create the file, stat err = %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{not json"},
		{"top level array", `[{"task": "x"}]`},
		{"top level string", `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.json")
			writeFile(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error for corrupt file")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewStore(path)

	if _, err := s.Add("1", Task{Task: "write report", Priority: "High", Due: "2025-03-14 04:30 PM"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add("1", Task{Task: "water plants", Priority: "Low"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add("2", Task{Task: "call mom", Priority: "Medium"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Toggle("1", 1); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Snapshot(), s.Snapshot()) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded.Snapshot(), s.Snapshot())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("saved file should end with a newline")
	}
	if !strings.Contains(string(data), "\n  \"1\": [") {
		t.Errorf("saved file should use 2-space indentation, got:\n%s", data)
	}
}

func TestAddAppendsWellFormedTask(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data.json"))

	for i, name := range []string{"one", "two", "three"} {
		if _, err := s.Add("u", Task{Task: name, Priority: "medium"}); err != nil {
			t.Fatalf("Add %q: %v", name, err)
		}
		tasks := s.Tasks("u")
		if len(tasks) != i+1 {
			t.Fatalf("after add %d: got %d tasks", i+1, len(tasks))
		}
		last := tasks[len(tasks)-1]
		if last.Task != name || last.Done || last.Priority != "Medium" || last.Due != "" {
			t.Errorf("unexpected task: %+v", last)
		}
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewStore(path)

	if _, err := s.Add("u", Task{Task: "   ", Priority: "High"}); !errors.Is(err, ErrEmptyTask) {
		t.Errorf("empty task: got %v, want ErrEmptyTask", err)
	}
	if _, err := s.Add("u", Task{Task: "x", Priority: "High", Due: "next week"}); !errors.Is(err, ErrInvalidDue) {
		t.Errorf("bad due: got %v, want ErrInvalidDue", err)
	}
	if got := s.Users(); len(got) != 0 {
		t.Errorf("rejected adds should not create users, got %v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("rejected adds should not write the file")
	}
}

func TestEdit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data.json"))
	if _, err := s.Add("u", Task{Task: "draft", Priority: "Low", Due: "2025-03-14 04:30 PM"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Toggle("u", 0); err != nil {
		t.Fatal(err)
	}

	t.Run("without due clears due", func(t *testing.T) {
		got, err := s.Edit("u", 1, Edit{Task: "final", Priority: "High"})
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		want := Task{Task: "final", Done: true, Priority: "High"}
		if got != want {
			t.Errorf("Edit returned %+v, want %+v", got, want)
		}
		if stored := s.Tasks("u")[0]; stored != want {
			t.Errorf("stored %+v, want %+v", stored, want)
		}
	})

	t.Run("with due sets due", func(t *testing.T) {
		if _, err := s.Edit("u", 1, Edit{Task: "final", Priority: "High", Due: "2025-04-01 09:00 AM"}); err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if got := s.Tasks("u")[0].Due; got != "2025-04-01 09:00 AM" {
			t.Errorf("Due = %q", got)
		}
	})

	t.Run("invalid due leaves task unchanged", func(t *testing.T) {
		before := s.Tasks("u")
		if _, err := s.Edit("u", 1, Edit{Task: "other", Priority: "Low", Due: "bogus"}); !errors.Is(err, ErrInvalidDue) {
			t.Fatalf("got %v, want ErrInvalidDue", err)
		}
		if after := s.Tasks("u"); !reflect.DeepEqual(before, after) {
			t.Errorf("store changed: %+v -> %+v", before, after)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		before := s.Tasks("u")
		for _, pos := range []int{0, 2, -1} {
			if _, err := s.Edit("u", pos, Edit{Task: "x", Priority: "Low"}); !errors.Is(err, ErrInvalidIndex) {
				t.Errorf("position %d: got %v, want ErrInvalidIndex", pos, err)
			}
		}
		if _, err := s.Edit("nobody", 1, Edit{Task: "x", Priority: "Low"}); !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("unknown user: got %v, want ErrInvalidIndex", err)
		}
		if after := s.Tasks("u"); !reflect.DeepEqual(before, after) {
			t.Errorf("store changed: %+v -> %+v", before, after)
		}
		for _, id := range s.Users() {
			if id == "nobody" {
				t.Error("failed edit created a user entry")
			}
		}
	})
}

func TestToggleAndDelete(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data.json"))
	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.Add("u", Task{Task: name, Priority: "Low"}); err != nil {
			t.Fatal(err)
		}
	}

	toggled, err := s.Toggle("u", 1)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.Task != "b" || !toggled.Done {
		t.Errorf("Toggle returned %+v", toggled)
	}
	toggled, err = s.Toggle("u", 1)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.Done {
		t.Error("second toggle should clear done")
	}

	removed, err := s.Delete("u", 0)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.Task != "a" {
		t.Errorf("Delete returned %+v", removed)
	}
	tasks := s.Tasks("u")
	if len(tasks) != 2 || tasks[0].Task != "b" || tasks[1].Task != "c" {
		t.Errorf("after delete: %+v", tasks)
	}

	before := s.Tasks("u")
	if _, err := s.Toggle("u", 2); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Toggle out of range: got %v", err)
	}
	if _, err := s.Delete("u", -1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Delete out of range: got %v", err)
	}
	if after := s.Tasks("u"); !reflect.DeepEqual(before, after) {
		t.Errorf("store changed: %+v -> %+v", before, after)
	}
}

func TestQuarantineAndRepair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeFile(t, path, `{
  "7": [
    {"task": "good", "done": false, "priority": "High"},
    {"task": "no priority", "done": false}
  ]
}`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Tasks("7"); len(got) != 1 || got[0].Task != "good" {
		t.Fatalf("Tasks: %+v", got)
	}
	if got := s.Quarantined("7"); got != 1 {
		t.Fatalf("Quarantined: got %d, want 1", got)
	}

	removed, err := s.Repair("7")
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if removed != 1 {
		t.Errorf("Repair removed %d, want 1", removed)
	}
	if got := s.Quarantined("7"); got != 0 {
		t.Errorf("Quarantined after repair: %d", got)
	}

	entries := readEntries(t, path, "7")
	if len(entries) != 1 || entries[0]["task"] != "good" {
		t.Errorf("file after repair: %+v", entries)
	}

	removed, err = s.Repair("7")
	if err != nil || removed != 0 {
		t.Errorf("second Repair: removed %d, err %v", removed, err)
	}
}

func TestQuarantinedEntriesSurviveSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeFile(t, path, `{
  "7": [
    "just a string",
    {"task": "ok", "done": true, "priority": "Low"},
    {"task": "", "done": false, "priority": "Low"},
    {"task": "bad done", "done": "yes", "priority": "Low"}
  ],
  "8": "not a list"
}`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Quarantined("7"); got != 3 {
		t.Errorf("user 7 quarantined: got %d, want 3", got)
	}
	if got := s.Quarantined("8"); got != 1 {
		t.Errorf("user 8 quarantined: got %d, want 1", got)
	}
	if got := s.Tasks("8"); len(got) != 0 {
		t.Errorf("user 8 tasks: %+v", got)
	}

	if _, err := s.Add("7", Task{Task: "new", Priority: "High"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Quarantined("7"); got != 3 {
		t.Errorf("user 7 quarantined after reload: got %d, want 3", got)
	}
	if got := reloaded.Tasks("7"); len(got) != 2 || got[0].Task != "ok" || got[1].Task != "new" {
		t.Errorf("user 7 tasks after reload: %+v", got)
	}
	if got := reloaded.Quarantined("8"); got != 1 {
		t.Errorf("user 8 quarantined after reload: got %d, want 1", got)
	}

	removed, err := reloaded.Repair("8")
	if err != nil || removed != 1 {
		t.Errorf("Repair(8): removed %d, err %v", removed, err)
	}
}

func TestFailedSaveRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "x")

	s := NewStore(filepath.Join(blocker, "data.json"))
	if _, err := s.Add("u", Task{Task: "x", Priority: "High"}); err == nil {
		t.Fatal("expected save error")
	}
	if got := s.Tasks("u"); len(got) != 0 {
		t.Errorf("failed add should not be kept, got %+v", got)
	}
	if got := s.Users(); len(got) != 0 {
		t.Errorf("failed add should not create a user, got %v", got)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "data.json"))
	for i := 0; i < 3; i++ {
		if _, err := s.Add("u", Task{Task: "t", Priority: "Low"}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if e.Name() == filepath.Base(lockPath(filepath.Join(dir, "data.json"))) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) != 1 || names[0] != "data.json" {
		t.Errorf("unexpected files in dir: %v", names)
	}
}

func TestAddReturnsStoredEntry(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data.json"))
	for i, name := range []string{"first", "second"} {
		got, err := s.Add("u", Task{Task: " " + name + " ", Priority: "low"})
		if err != nil {
			t.Fatal(err)
		}
		want := Entry{Index: i, Task: Task{Task: name, Priority: "Low"}}
		if got != want {
			t.Errorf("Add #%d = %+v, want %+v", i, got, want)
		}
	}
}

func TestTwoStoresShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeFile(t, path, `{"1": [{"task": "feed cat", "done": false, "priority": "High"}]}`)

	bot, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	tui, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tui.Toggle("1", 0); err != nil {
		t.Fatalf("tui Toggle: %v", err)
	}
	if got := bot.Tasks("1"); len(got) != 1 || !got[0].Done {
		t.Errorf("bot does not see the tui toggle: %+v", got)
	}

	if _, err := bot.Add("2", Task{Task: "buy milk", Priority: "Low"}); err != nil {
		t.Fatalf("bot Add: %v", err)
	}
	if _, err := tui.Delete("1", 0); err != nil {
		t.Fatalf("tui Delete: %v", err)
	}
	if _, err := bot.Add("2", Task{Task: "buy bread", Priority: "Low"}); err != nil {
		t.Fatalf("bot Add: %v", err)
	}

	final, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := final.Tasks("1"); len(got) != 0 {
		t.Errorf("tui delete was lost: %+v", got)
	}
	if got := final.Tasks("2"); len(got) != 2 {
		t.Errorf("user 2 tasks = %+v, want both bot adds", got)
	}
	if got := tui.Snapshot(); len(got["2"]) != 2 {
		t.Errorf("tui snapshot missing bot adds: %+v", got)
	}
}

func TestReadsKeepStateWhenFileBreaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewStore(path)
	if _, err := s.Add("u", Task{Task: "keep me", Priority: "High"}); err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "{broken")

	if got := s.Tasks("u"); len(got) != 1 {
		t.Errorf("Tasks after corrupt write = %+v, want last good state", got)
	}
	if _, err := s.Add("u", Task{Task: "x", Priority: "Low"}); err == nil {
		t.Error("Add over a corrupt file should fail")
	}
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeFile(t, path, `{
  "u1": [
    {"task": "a", "done": "no", "priority": "High"},
    {"task": "b", "done": false},
    {"task": "c", "done": false, "priority": "Low"}
  ],
  "u2": 5
}`)

	result, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid result")
	}
	if result.Users != 2 || result.Tasks != 1 || result.Quarantined != 3 {
		t.Errorf("counts: users=%d tasks=%d quarantined=%d", result.Users, result.Tasks, result.Quarantined)
	}

	joined := ""
	for _, e := range result.Errors {
		joined += e.Error() + "\n"
	}
	for _, want := range []string{"u1[0].done", "u1[1]", "u2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("errors missing %q:\n%s", want, joined)
		}
	}

	var ve *ValidationError
	if !errors.As(result.Errors[0], &ve) {
		t.Errorf("expected *ValidationError, got %T", result.Errors[0])
	}
}

func TestValidateFileMissing(t *testing.T) {
	result, err := ValidateFile(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if !result.Valid || result.Users != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}
