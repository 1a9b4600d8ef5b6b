package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mulist/app"
	"mulist/model"
	"mulist/store"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func newTestModel(t *testing.T, opts Options) (*Model, *app.Service) {
	t.Helper()
	svc := app.NewService(nil, app.Options{Location: time.UTC})
	if opts.StatePath == "" {
		opts.StatePath = filepath.Join(t.TempDir(), "todo_lists.json")
	}
	if opts.Copy == nil {
		opts.Copy = func(string) error { return nil }
	}
	m := NewModel(svc, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, svc
}

// withList creates a list and moves focus to its tasks.
func withList(t *testing.T, m *Model, name string, tasks ...string) {
	t.Helper()
	press(m, "a", name, "enter", "tab")
	for _, text := range tasks {
		press(m, "a", text, "enter")
	}
	if m.focus != focusTasks {
		t.Fatalf("expected focus on tasks, got %s", m.focus)
	}
}

func TestCreateListFromKeys(t *testing.T) {
	m, svc := newTestModel(t, Options{})

	press(m, "a", "Groceries", "enter")

	lists := svc.Lists()
	if len(lists) != 1 || lists[0].Name != "Groceries" {
		t.Fatalf("expected one list named Groceries, got %+v", lists)
	}
	if m.mode != modeNormal {
		t.Fatalf("expected normal mode after enter, got %d", m.mode)
	}
	if m.status != "List created" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestBlankListNameIsRefused(t *testing.T) {
	m, svc := newTestModel(t, Options{})

	press(m, "a", "   ", "enter")

	if len(svc.Lists()) != 0 {
		t.Fatalf("expected no list, got %d", len(svc.Lists()))
	}
	if !m.statusErr || m.mode != modeAddList {
		t.Fatalf("expected to stay in the prompt with an error, mode=%d status=%q", m.mode, m.status)
	}
}

func TestAddTasksAssignIncreasingIDs(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	withList(t, m, "Home", "milk", "eggs")

	l, err := svc.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(l.Tasks) != 2 || l.Tasks[0].ID != 1 || l.Tasks[1].ID != 2 {
		t.Fatalf("unexpected tasks %+v", l.Tasks)
	}
	if m.taskCursor != 1 {
		t.Fatalf("expected cursor on the new task, got %d", m.taskCursor)
	}
}

func TestDraftSurvivesCancel(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	withList(t, m, "Home")

	press(m, "a", "half typed", "esc")

	l, _ := svc.List(0)
	if l.Draft != "half typed" {
		t.Fatalf("expected draft to be kept, got %q", l.Draft)
	}

	press(m, "a")
	if got := m.input.Value(); got != "half typed" {
		t.Fatalf("expected input seeded from draft, got %q", got)
	}
	press(m, "enter")

	l, _ = svc.List(0)
	if l.Draft != "" || len(l.Tasks) != 1 || l.Tasks[0].Text != "half typed" {
		t.Fatalf("expected draft to become a task, got %+v", l)
	}
}

func TestInvalidDeadlineKeepsPromptOpen(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	withList(t, m, "Home", "taxes")

	press(m, "t", "2024-13-01 10:00", "enter")

	if m.mode != modeSetDeadline {
		t.Fatalf("expected deadline prompt to stay open, got mode %d", m.mode)
	}
	if !m.statusErr || !strings.Contains(m.status, "YYYY-MM-DD HH:MM") {
		t.Fatalf("expected format hint in status, got %q", m.status)
	}
	if tk, _ := svc.Task(0, 0); tk.Deadline != nil {
		t.Fatalf("expected no deadline, got %v", tk.Deadline)
	}

	m.input.SetValue("2024-07-01 10:00")
	press(m, "enter")

	tk, _ := svc.Task(0, 0)
	want := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	if tk.Deadline == nil || !tk.Deadline.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, tk.Deadline)
	}
	if m.mode != modeNormal {
		t.Fatalf("expected normal mode, got %d", m.mode)
	}
}

func TestToggleDoneAndRename(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	withList(t, m, "Home", "milk")

	press(m, "x")
	if tk, _ := svc.Task(0, 0); !tk.Done {
		t.Fatalf("expected task done")
	}

	press(m, "e")
	m.input.SetValue("oat milk")
	press(m, "enter")
	if tk, _ := svc.Task(0, 0); tk.Text != "oat milk" || !tk.Done {
		t.Fatalf("unexpected task after rename: %+v", tk)
	}
}

func TestDeleteMarkedTasks(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	withList(t, m, "Home", "a", "b", "c")

	press(m, "k", "k", " ", "j", "j", " ")
	if len(m.marked) != 2 {
		t.Fatalf("expected two marked tasks, got %v", m.marked)
	}

	press(m, "D")
	if m.mode != modeConfirm || m.confirm != confirmDeleteMarked {
		t.Fatalf("expected confirmation prompt, got mode=%d confirm=%d", m.mode, m.confirm)
	}
	press(m, "y")

	l, _ := svc.List(0)
	if len(l.Tasks) != 1 || l.Tasks[0].Text != "b" {
		t.Fatalf("expected only b to remain, got %+v", l.Tasks)
	}
	if len(m.marked) != 0 {
		t.Fatalf("expected marks to be cleared")
	}
}

func TestDeleteListNeedsConfirmation(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	press(m, "a", "One", "enter", "a", "Two", "enter")

	press(m, "d", "n")
	if len(svc.Lists()) != 2 {
		t.Fatalf("expected cancel to keep lists, got %d", len(svc.Lists()))
	}

	press(m, "d", "y")
	lists := svc.Lists()
	if len(lists) != 1 || lists[0].Name != "One" {
		t.Fatalf("expected only One to remain, got %+v", lists)
	}
	if m.listCursor != 0 {
		t.Fatalf("expected cursor clamped to 0, got %d", m.listCursor)
	}
}

func TestDeleteMarkedLists(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	press(m, "a", "One", "enter", "a", "Two", "enter", "a", "Three", "enter")

	press(m, " ", "k", "k", " ", "D", "y")

	lists := svc.Lists()
	if len(lists) != 1 || lists[0].Name != "Two" {
		t.Fatalf("expected only Two to remain, got %+v", lists)
	}
	if len(m.markedLists) != 0 {
		t.Fatalf("expected list marks to be cleared")
	}
}

func TestDisplayTogglesNeedOptionsOpen(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	press(m, "a", "Home", "enter")

	press(m, "1")
	if l, _ := svc.List(0); !l.Display.ID {
		t.Fatalf("expected toggle to be ignored while options are closed")
	}

	press(m, "o", "1", "4")
	l, _ := svc.List(0)
	if l.Display.ID || l.Display.NameTitle {
		t.Fatalf("expected ID and name title hidden, got %+v", l.Display)
	}
	if !l.Display.IDTitle || !l.Display.Name {
		t.Fatalf("expected other fields untouched, got %+v", l.Display)
	}
}

func TestCopyListToClipboard(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, Options{Copy: func(s string) error {
		copied = s
		return nil
	}})
	withList(t, m, "Home", "milk", "eggs")
	press(m, "k", "x")

	press(m, "y")
	want := "Home\n[x] milk\n[ ] eggs"
	if copied != want {
		t.Fatalf("expected %q, got %q", want, copied)
	}
}

func TestCopyFailureIsReported(t *testing.T) {
	m, _ := newTestModel(t, Options{Copy: func(string) error { return errors.New("no clipboard") }})
	withList(t, m, "Home", "milk")

	press(m, "y")
	if !m.statusErr || !strings.Contains(m.status, "no clipboard") {
		t.Fatalf("expected copy error in status, got %q", m.status)
	}
}

func TestAutosaveWritesAfterMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.json")
	m, _ := newTestModel(t, Options{StatePath: path, Autosave: true})

	press(m, "a", "Home", "enter")

	lists, err := store.Load(path)
	if err != nil {
		t.Fatalf("expected autosaved file: %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "Home" {
		t.Fatalf("unexpected saved lists %+v", lists)
	}
}

func TestSaveThenLoadReplacesLists(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	withList(t, m, "Home", "milk")

	press(m, "s")
	if m.statusErr {
		t.Fatalf("save failed: %s", m.status)
	}
	if _, err := os.Stat(m.statePath); err != nil {
		t.Fatalf("expected state file: %v", err)
	}

	press(m, "tab", "a", "Scratch", "enter")
	if len(svc.Lists()) != 2 {
		t.Fatalf("expected two lists before load")
	}

	press(m, "L", "y")
	lists := svc.Lists()
	if len(lists) != 1 || lists[0].Name != "Home" {
		t.Fatalf("expected saved lists back, got %+v", lists)
	}

	press(m, "tab", "a", "bread", "enter")
	tk, _ := svc.Task(0, 1)
	if tk.ID != 2 {
		t.Fatalf("expected id after load to continue at 2, got %d", tk.ID)
	}
}

func TestLoadMissingFileKeepsLists(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	press(m, "a", "Home", "enter")

	press(m, "L", "y")
	if !m.statusErr || !strings.Contains(m.status, "does not exist") {
		t.Fatalf("expected missing-file status, got %q", m.status)
	}
	if len(svc.Lists()) != 1 {
		t.Fatalf("expected lists kept after failed load")
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	cmd := press(m, "q")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestViewShowsTaskColumns(t *testing.T) {
	m, svc := newTestModel(t, Options{})
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	withList(t, m, "Home", "milk")
	press(m, "x")

	out := m.View()
	for _, want := range []string{"Complete", "ID: 1", "Name: milk", "Added on:", "No deadline set"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q", want)
		}
	}

	if _, err := svc.ToggleDisplay(0, model.DisplayIDTitle); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if strings.Contains(m.View(), "ID: 1") {
		t.Fatalf("expected ID title hidden")
	}
}
