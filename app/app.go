package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"mulist/model"
	"mulist/store"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrTaskNotFound = errors.New("task not found")
)

// Options tune a Service. The zero value is usable.
type Options struct {
	// IDs is the allocator shared by every list. A fresh one is created when nil.
	IDs *model.IDAllocator
	// Location is where deadline input is interpreted. Defaults to time.Local.
	Location *time.Location
	// Display is applied to lists on creation and after every load.
	// A nil pointer means model.DefaultDisplay().
	Display *model.DisplayOptions
	// MaxBackups is passed to store.SaveWithBackup.
	MaxBackups int
	Logger     *log.Logger
	Now        func() time.Time
}

// Service holds domain rules and the in-memory lists. It is the only thing
// the presentation layer mutates state through.
type Service struct {
	state      model.ListApp
	ids        *model.IDAllocator
	loc        *time.Location
	display    model.DisplayOptions
	maxBackups int
	logger     *log.Logger
	now        func() time.Time
}

// NewService creates a service owning a copy of lists. The id allocator is
// advanced past every task id already present.
func NewService(lists []model.List, opts Options) *Service {
	s := &Service{
		ids:        opts.IDs,
		loc:        opts.Location,
		display:    model.DefaultDisplay(),
		maxBackups: opts.MaxBackups,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.ids == nil {
		s.ids = &model.IDAllocator{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if opts.Display != nil {
		s.display = *opts.Display
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().Round(0) }
	}
	s.replace(lists)
	return s
}

// State returns a deep copy of the current lists.
func (s *Service) State() model.ListApp {
	return s.state.Clone()
}

// Lists returns all lists as a copy.
func (s *Service) Lists() []model.List {
	return s.state.Clone().Lists
}

func (s *Service) List(listIdx int) (model.List, error) {
	l, err := s.list(listIdx)
	if err != nil {
		return model.List{}, err
	}
	return l.Clone(), nil
}

func (s *Service) Task(listIdx, taskIdx int) (model.Task, error) {
	t, err := s.task(listIdx, taskIdx)
	if err != nil {
		return model.Task{}, err
	}
	return t.Clone(), nil
}

// Location returns the zone deadlines are parsed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) CreateList(name string) model.List {
	list := model.NewList(name)
	list.Display = s.display
	s.state.Lists = append(s.state.Lists, list)
	s.logger.Debug("list created", "list", name, "index", len(s.state.Lists)-1)
	return list.Clone()
}

func (s *Service) RemoveList(listIdx int) error {
	if err := s.state.RemoveList(listIdx); err != nil {
		return fmt.Errorf("%w: %w", ErrListNotFound, err)
	}
	s.logger.Debug("list removed", "index", listIdx)
	return nil
}

// RemoveLists deletes several lists at once. Either all indices are valid
// and every list goes, or nothing changes.
func (s *Service) RemoveLists(indices []int) error {
	if err := s.state.RemoveLists(indices); err != nil {
		return fmt.Errorf("%w: %w", ErrListNotFound, err)
	}
	s.logger.Debug("lists removed", "indices", indices)
	return nil
}

// SetTaskDraft stores the pending new-task text for a list.
func (s *Service) SetTaskDraft(listIdx int, text string) error {
	l, err := s.list(listIdx)
	if err != nil {
		return err
	}
	l.Draft = text
	return nil
}

func (s *Service) AddTask(listIdx int, text string) (model.Task, error) {
	l, err := s.list(listIdx)
	if err != nil {
		return model.Task{}, err
	}
	task := l.AddTask(s.ids, text, s.now())
	s.logger.Debug("task added", "list", l.Name, "id", task.ID)
	return task, nil
}

func (s *Service) RenameTask(listIdx, taskIdx int, text string) (model.Task, error) {
	t, err := s.task(listIdx, taskIdx)
	if err != nil {
		return model.Task{}, err
	}
	t.Rename(text)
	s.logger.Debug("task renamed", "id", t.ID)
	return t.Clone(), nil
}

func (s *Service) ToggleDone(listIdx, taskIdx int) (model.Task, error) {
	t, err := s.task(listIdx, taskIdx)
	if err != nil {
		return model.Task{}, err
	}
	t.ToggleDone()
	s.logger.Debug("task toggled", "id", t.ID, "done", t.Done)
	return t.Clone(), nil
}

// SetDeadline parses text as YYYY-MM-DD HH:MM in the service location and
// assigns it. The task is unchanged when parsing fails.
func (s *Service) SetDeadline(listIdx, taskIdx int, text string) (model.Task, error) {
	t, err := s.task(listIdx, taskIdx)
	if err != nil {
		return model.Task{}, err
	}
	deadline, err := model.ParseDeadline(text, s.loc)
	if err != nil {
		s.logger.Debug("deadline rejected", "id", t.ID, "err", err)
		return model.Task{}, err
	}
	t.SetDeadline(deadline)
	s.logger.Debug("deadline set", "id", t.ID, "deadline", deadline)
	return t.Clone(), nil
}

func (s *Service) RemoveTask(listIdx, taskIdx int) error {
	l, err := s.list(listIdx)
	if err != nil {
		return err
	}
	if err := l.RemoveTask(taskIdx); err != nil {
		return fmt.Errorf("%w: %w", ErrTaskNotFound, err)
	}
	s.logger.Debug("task removed", "list", l.Name, "index", taskIdx)
	return nil
}

// RemoveTasks deletes a batch of tasks from one list, highest index first.
func (s *Service) RemoveTasks(listIdx int, indices []int) error {
	l, err := s.list(listIdx)
	if err != nil {
		return err
	}
	if err := l.RemoveTasks(indices); err != nil {
		return fmt.Errorf("%w: %w", ErrTaskNotFound, err)
	}
	s.logger.Debug("tasks removed", "list", l.Name, "indices", indices)
	return nil
}

func (s *Service) ToggleDisplay(listIdx int, field model.DisplayField) (model.DisplayOptions, error) {
	l, err := s.list(listIdx)
	if err != nil {
		return model.DisplayOptions{}, err
	}
	l.Display.Toggle(field)
	return l.Display, nil
}

// Save writes every list to path, keeping a backup of the previous file.
func (s *Service) Save(path string) error {
	if err := store.SaveWithBackup(path, s.state.Lists, s.maxBackups); err != nil {
		s.logger.Error("save failed", "path", path, "err", err)
		return err
	}
	s.logger.Info("lists saved", "path", path, "lists", len(s.state.Lists))
	return nil
}

// Load replaces every list with the content of path. On any error the
// current lists are kept as they are.
func (s *Service) Load(path string) error {
	lists, err := store.Load(path)
	if err != nil {
		s.logger.Error("load failed", "path", path, "err", err)
		return err
	}
	s.replace(lists)
	s.logger.Info("lists loaded", "path", path, "lists", len(lists), "next_id", s.ids.Peek()+1)
	return nil
}

func (s *Service) replace(lists []model.List) {
	next := model.ListApp{Lists: lists}.Clone()
	for i := range next.Lists {
		next.Lists[i].Display = s.display
	}
	s.state = next
	s.ids.Observe(s.state.MaxTaskID())
}

func (s *Service) list(listIdx int) (*model.List, error) {
	if listIdx < 0 || listIdx >= len(s.state.Lists) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrListNotFound, listIdx, len(s.state.Lists))
	}
	return &s.state.Lists[listIdx], nil
}

func (s *Service) task(listIdx, taskIdx int) (*model.Task, error) {
	l, err := s.list(listIdx)
	if err != nil {
		return nil, err
	}
	if taskIdx < 0 || taskIdx >= len(l.Tasks) {
		return nil, fmt.Errorf("%w: index %d of %d in %q", ErrTaskNotFound, taskIdx, len(l.Tasks), l.Name)
	}
	return &l.Tasks[taskIdx], nil
}
