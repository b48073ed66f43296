package todo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Store holds every user's checklist in memory and persists it to a single
// JSON file after each mutation. All methods are safe for concurrent use.
//
// Several processes may share one file. Mutations hold an exclusive lock on
// a sibling lock file and re-read the file first when another process has
// replaced it since this store last saw it. Reads pick up such changes too.
type Store struct {
	mu    sync.Mutex
	path  string
	lock  *flock.Flock
	seen  os.FileInfo // file as last read or written; nil when absent
	lists map[string]*userList
}

// userList is one user's checklist. Quarantined entries failed validation
// on load and are written back verbatim after the valid tasks.
type userList struct {
	tasks      []Task
	quarantine []json.RawMessage
}

func (l *userList) clone() *userList {
	if l == nil {
		return &userList{}
	}
	c := &userList{
		tasks:      make([]Task, len(l.tasks)),
		quarantine: make([]json.RawMessage, len(l.quarantine)),
	}
	copy(c.tasks, l.tasks)
	copy(c.quarantine, l.quarantine)
	return c
}

// NewStore returns an empty store that saves to path.
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		lock:  flock.New(lockPath(path)),
		lists: make(map[string]*userList),
	}
}

// Load reads the checklist file at path. A missing file yields an empty
// store; a file that cannot be read or is not a JSON object is an error.
func Load(path string) (*Store, error) {
	s := NewStore(path)
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// lockPath returns the lock file guarding writes to path.
func lockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

func statFile(path string) os.FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return info
}

func sameFile(a, b os.FileInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return os.SameFile(a, b) && a.ModTime().Equal(b.ModTime()) && a.Size() == b.Size()
}

// reloadLocked re-reads the file when it differs from the one this store
// last read or wrote. The caller holds s.mu.
func (s *Store) reloadLocked() error {
	info := statFile(s.path)
	if sameFile(s.seen, info) {
		return nil
	}

	users, err := readRaw(s.path)
	if err != nil {
		return err
	}
	lists := make(map[string]*userList, len(users))
	for id, raw := range users {
		lists[id] = decodeList(id, raw)
	}
	s.lists = lists
	s.seen = info
	return nil
}

// refreshLocked is reloadLocked for readers: a file that no longer parses
// leaves the last good state in place. The caller holds s.mu.
func (s *Store) refreshLocked() {
	_ = s.reloadLocked()
}

// decodeList splits a raw user value into valid tasks and quarantined entries.
func decodeList(id string, raw json.RawMessage) *userList {
	list := &userList{}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		list.quarantine = append(list.quarantine, raw)
		return list
	}

	for i, entry := range entries {
		if errs := validateEntry(entry, fmt.Sprintf("%s[%d]", id, i)); len(errs) > 0 {
			list.quarantine = append(list.quarantine, entry)
			continue
		}
		var task Task
		if err := json.Unmarshal(entry, &task); err != nil {
			list.quarantine = append(list.quarantine, entry)
			continue
		}
		list.tasks = append(list.tasks, task)
	}
	return list
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Save writes the full store to disk, replacing whatever the file holds.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlock()
	return s.saveLocked()
}

// lockFile takes the cross-process write lock.
func (s *Store) lockFile() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("lock checklist file: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock checklist file: %w", err)
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func (s *Store) saveLocked() error {
	out := make(map[string][]any, len(s.lists))
	for id, list := range s.lists {
		entries := make([]any, 0, len(list.tasks)+len(list.quarantine))
		for _, task := range list.tasks {
			entries = append(entries, task)
		}
		for _, raw := range list.quarantine {
			entries = append(entries, raw)
		}
		out[id] = entries
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checklist file: %w", err)
	}

	// Add trailing newline
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("write checklist file: %w", err)
	}
	s.seen = statFile(s.path)
	return nil
}

// writeFileAtomic replaces path with data via a synced temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// mutate applies fn to a copy of the user's list and commits it only if the
// store saves successfully. The file is re-read first if another process
// replaced it.
func (s *Store) mutate(userID string, fn func(*userList) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.reloadLocked(); err != nil {
		return err
	}

	prev, existed := s.lists[userID]
	next := prev.clone()
	if err := fn(next); err != nil {
		return err
	}

	s.lists[userID] = next
	if err := s.saveLocked(); err != nil {
		if existed {
			s.lists[userID] = prev
		} else {
			delete(s.lists, userID)
		}
		return err
	}
	return nil
}

// Tasks returns a copy of the user's valid tasks in stored order.
// Reading never creates an entry.
func (s *Store) Tasks(userID string) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	list, ok := s.lists[userID]
	if !ok {
		return []Task{}
	}
	tasks := make([]Task, len(list.tasks))
	copy(tasks, list.tasks)
	return tasks
}

// Add appends a task to the user's list, creating the list if needed, and
// returns the stored entry.
func (s *Store) Add(userID string, task Task) (Entry, error) {
	task.Task = strings.TrimSpace(task.Task)
	task.Priority = NormalizePriority(task.Priority)
	if err := validateTask(task); err != nil {
		return Entry{}, err
	}
	var added Entry
	err := s.mutate(userID, func(l *userList) error {
		l.tasks = append(l.tasks, task)
		added = Entry{Index: len(l.tasks) - 1, Task: task}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return added, nil
}

// Edit replaces the task at the 1-based position. The due value is always
// replaced: an empty edit.Due removes it.
func (s *Store) Edit(userID string, position int, edit Edit) (Task, error) {
	updated := Task{
		Task:     strings.TrimSpace(edit.Task),
		Priority: NormalizePriority(edit.Priority),
		Due:      edit.Due,
	}
	err := s.mutate(userID, func(l *userList) error {
		if position < 1 || position > len(l.tasks) {
			return ErrInvalidIndex
		}
		if err := validateTask(updated); err != nil {
			return err
		}
		updated.Done = l.tasks[position-1].Done
		l.tasks[position-1] = updated
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return updated, nil
}

// Toggle flips the done flag of the task at the 0-based index.
func (s *Store) Toggle(userID string, index int) (Task, error) {
	var toggled Task
	err := s.mutate(userID, func(l *userList) error {
		if index < 0 || index >= len(l.tasks) {
			return ErrInvalidIndex
		}
		l.tasks[index].Done = !l.tasks[index].Done
		toggled = l.tasks[index]
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return toggled, nil
}

// Delete removes the task at the 0-based index and returns it.
func (s *Store) Delete(userID string, index int) (Task, error) {
	var removed Task
	err := s.mutate(userID, func(l *userList) error {
		if index < 0 || index >= len(l.tasks) {
			return ErrInvalidIndex
		}
		removed = l.tasks[index]
		l.tasks = append(l.tasks[:index], l.tasks[index+1:]...)
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return removed, nil
}

// Repair drops the user's quarantined entries and returns how many were
// removed. Nothing is written when there is nothing to remove.
func (s *Store) Repair(userID string) (int, error) {
	s.mu.Lock()
	s.refreshLocked()
	list, ok := s.lists[userID]
	pending := 0
	if ok {
		pending = len(list.quarantine)
	}
	s.mu.Unlock()
	if pending == 0 {
		return 0, nil
	}

	var removed int
	err := s.mutate(userID, func(l *userList) error {
		removed = len(l.quarantine)
		l.quarantine = nil
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Quarantined returns how many of the user's entries failed validation.
func (s *Store) Quarantined(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	if list, ok := s.lists[userID]; ok {
		return len(list.quarantine)
	}
	return 0
}

// Users returns the user ids present in the store, sorted.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	ids := make([]string, 0, len(s.lists))
	for id := range s.lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of every user's valid tasks.
func (s *Store) Snapshot() map[string][]Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	snap := make(map[string][]Task, len(s.lists))
	for id, list := range s.lists {
		tasks := make([]Task, len(list.tasks))
		copy(tasks, list.tasks)
		snap[id] = tasks
	}
	return snap
}
