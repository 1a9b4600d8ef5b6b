package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultStateFile is the file lists are saved to when no path is configured.
const DefaultStateFile = "todo_lists.json"

var ErrIndexOutOfRange = errors.New("index out of range")

// Task is an individual todo item.
type Task struct {
	Text      string     `json:"task"`
	Done      bool       `json:"done_status"`
	ID        uint64     `json:"id"`
	CreatedAt time.Time  `json:"date_added"`
	Deadline  *time.Time `json:"deadline"`
}

// NewTask builds an open task with a fresh id from ids.
func NewTask(ids *IDAllocator, text string, now time.Time) Task {
	return Task{
		Text:      text,
		Done:      false,
		ID:        ids.Next(),
		CreatedAt: now,
	}
}

// SetDeadline overwrites the deadline. Past timestamps are accepted.
func (t *Task) SetDeadline(deadline time.Time) {
	t.Deadline = &deadline
}

func (t *Task) ToggleDone() {
	t.Done = !t.Done
}

func (t *Task) Rename(text string) {
	t.Text = text
}

// HasDeadline reports whether a deadline was assigned.
func (t Task) HasDeadline() bool {
	return t.Deadline != nil
}

// DisplayField names one of the per-list column toggles.
type DisplayField int

const (
	DisplayID DisplayField = iota
	DisplayIDTitle
	DisplayName
	DisplayNameTitle
)

func (f DisplayField) String() string {
	switch f {
	case DisplayID:
		return "ID"
	case DisplayIDTitle:
		return "ID Title"
	case DisplayName:
		return "Name"
	case DisplayNameTitle:
		return "Name Title"
	default:
		return fmt.Sprintf("DisplayField(%d)", int(f))
	}
}

// DisplayOptions controls which task columns a list renders.
// They are display preferences only and are never written to disk.
type DisplayOptions struct {
	ID        bool
	IDTitle   bool
	Name      bool
	NameTitle bool
}

// DefaultDisplay shows every column.
func DefaultDisplay() DisplayOptions {
	return DisplayOptions{ID: true, IDTitle: true, Name: true, NameTitle: true}
}

func (d *DisplayOptions) Toggle(field DisplayField) {
	switch field {
	case DisplayID:
		d.ID = !d.ID
	case DisplayIDTitle:
		d.IDTitle = !d.IDTitle
	case DisplayName:
		d.Name = !d.Name
	case DisplayNameTitle:
		d.NameTitle = !d.NameTitle
	}
}

func (d DisplayOptions) Enabled(field DisplayField) bool {
	switch field {
	case DisplayID:
		return d.ID
	case DisplayIDTitle:
		return d.IDTitle
	case DisplayName:
		return d.Name
	case DisplayNameTitle:
		return d.NameTitle
	default:
		return false
	}
}

// ShowIDLabel reports whether the "ID:" title is rendered. A title never
// shows without its field.
func (d DisplayOptions) ShowIDLabel() bool {
	return d.ID && d.IDTitle
}

func (d DisplayOptions) ShowNameLabel() bool {
	return d.Name && d.NameTitle
}

// List is a named, insertion-ordered collection of tasks.
type List struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`

	// Draft holds the pending "new task" text typed for this list.
	Draft   string         `json:"-"`
	Display DisplayOptions `json:"-"`
}

func NewList(name string) List {
	return List{
		Name:    name,
		Tasks:   []Task{},
		Display: DefaultDisplay(),
	}
}

// AddTask appends a new task and clears the list draft.
func (l *List) AddTask(ids *IDAllocator, text string, now time.Time) Task {
	task := NewTask(ids, text, now)
	l.Tasks = append(l.Tasks, task)
	l.Draft = ""
	return task
}

func (l *List) RemoveTask(index int) error {
	if index < 0 || index >= len(l.Tasks) {
		return fmt.Errorf("%w: task %d of %d", ErrIndexOutOfRange, index, len(l.Tasks))
	}
	l.Tasks = append(l.Tasks[:index], l.Tasks[index+1:]...)
	return nil
}

// RemoveTasks deletes every task at the given indices in one batch.
// Nothing is removed unless all indices are valid.
func (l *List) RemoveTasks(indices []int) error {
	ordered, err := descendingUnique(indices, len(l.Tasks))
	if err != nil {
		return err
	}
	for _, idx := range ordered {
		l.Tasks = append(l.Tasks[:idx], l.Tasks[idx+1:]...)
	}
	return nil
}

// ListApp is the root aggregate persisted to disk.
type ListApp struct {
	Lists []List
}

func NewListApp() ListApp {
	return ListApp{Lists: []List{}}
}

func (a *ListApp) AddList(name string) List {
	list := NewList(name)
	a.Lists = append(a.Lists, list)
	return list
}

func (a *ListApp) RemoveList(index int) error {
	if index < 0 || index >= len(a.Lists) {
		return fmt.Errorf("%w: list %d of %d", ErrIndexOutOfRange, index, len(a.Lists))
	}
	a.Lists = append(a.Lists[:index], a.Lists[index+1:]...)
	return nil
}

func (a *ListApp) RemoveLists(indices []int) error {
	ordered, err := descendingUnique(indices, len(a.Lists))
	if err != nil {
		return err
	}
	for _, idx := range ordered {
		a.Lists = append(a.Lists[:idx], a.Lists[idx+1:]...)
	}
	return nil
}

// MaxTaskID returns the highest task id held by any list, or 0.
func (a ListApp) MaxTaskID() uint64 {
	var max uint64
	for _, l := range a.Lists {
		for _, t := range l.Tasks {
			if t.ID > max {
				max = t.ID
			}
		}
	}
	return max
}

// Clone returns a deep copy so callers can't alias the owned slices.
func (a ListApp) Clone() ListApp {
	lists := make([]List, len(a.Lists))
	for i, l := range a.Lists {
		lists[i] = l.Clone()
	}
	return ListApp{Lists: lists}
}

func (l List) Clone() List {
	out := l
	out.Tasks = make([]Task, len(l.Tasks))
	for i, t := range l.Tasks {
		out.Tasks[i] = t.Clone()
	}
	return out
}

func (t Task) Clone() Task {
	out := t
	if t.Deadline != nil {
		d := *t.Deadline
		out.Deadline = &d
	}
	return out
}

// descendingUnique validates indices against n and returns them deduplicated
// from highest to lowest, the only order in which they can be removed safely.
func descendingUnique(indices []int, n int) ([]int, error) {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, idx, n)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}
