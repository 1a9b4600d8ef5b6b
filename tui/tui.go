package tui

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"mulist/app"
	"mulist/model"
	"mulist/store"
)

type focusPane int

const (
	focusLists focusPane = iota
	focusTasks
)

func (f focusPane) String() string {
	if f == focusTasks {
		return "tasks"
	}
	return "lists"
}

type uiMode int

const (
	modeNormal uiMode = iota
	modeAddList
	modeAddTask
	modeRenameTask
	modeSetDeadline
	modeConfirm
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmDeleteList
	confirmDeleteTask
	confirmDeleteMarked
	confirmDeleteMarkedLists
	confirmLoad
)

// Options configures the terminal UI.
type Options struct {
	StatePath string
	Autosave  bool
	Status    string
	Logger    *log.Logger
	// Copy writes text to the system clipboard. Defaults to atotto/clipboard.
	Copy func(string) error
}

type Model struct {
	svc       *app.Service
	statePath string
	autosave  bool
	logger    *log.Logger
	copy      func(string) error

	focus      focusPane
	mode       uiMode
	listCursor int
	taskCursor int
	input      textinput.Model

	// listOptions holds which lists have their options row open, keyed by
	// list index. taskOptions opens the options row of the selected task.
	listOptions map[int]bool
	taskOptions bool
	// marked holds task indices of the active list queued for batch delete.
	marked      map[int]bool
	markedLists map[int]bool

	confirm     confirmKind
	confirmName string

	showHelp bool

	status    string
	statusErr bool

	width  int
	height int
}

func NewModel(svc *app.Service, opts Options) *Model {
	status := strings.TrimSpace(opts.Status)
	if status == "" {
		status = "Ready"
	}
	statePath := opts.StatePath
	if statePath == "" {
		statePath = model.DefaultStateFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cp := opts.Copy
	if cp == nil {
		cp = clipboard.WriteAll
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 256

	m := &Model{
		svc:         svc,
		statePath:   statePath,
		autosave:    opts.Autosave,
		logger:      logger,
		copy:        cp,
		focus:       focusLists,
		mode:        modeNormal,
		input:       input,
		listOptions: map[int]bool{},
		marked:      map[int]bool{},
		markedLists: map[int]bool{},
		status:      status,
	}
	m.ensureSelection()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch m.mode {
		case modeAddList, modeAddTask, modeRenameTask, modeSetDeadline:
			return m, m.updateInputMode(msg)
		case modeConfirm:
			m.updateConfirmMode(msg)
		default:
			if quit := m.updateNormalMode(msg); quit {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "ctrl+c", "q":
		return true
	case "tab":
		if m.focus == focusLists {
			m.focus = focusTasks
		} else {
			m.focus = focusLists
		}
		m.setStatus(fmt.Sprintf("Focus on %s", m.focus.String()), false)
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "enter":
		if m.focus == focusLists {
			m.focus = focusTasks
			m.setStatus("Focus on tasks", false)
			break
		}
		m.toggleTaskDone()
	case "a":
		m.startAdd()
	case "e":
		m.startRenameTask()
	case "t":
		m.startSetDeadline()
	case "x":
		m.toggleTaskDone()
	case " ", "space":
		m.toggleMark()
	case "d":
		m.startDeleteConfirm()
	case "D":
		m.startDeleteMarkedConfirm()
	case "o":
		m.toggleOptions()
	case "1":
		m.toggleDisplay(model.DisplayID)
	case "2":
		m.toggleDisplay(model.DisplayIDTitle)
	case "3":
		m.toggleDisplay(model.DisplayName)
	case "4":
		m.toggleDisplay(model.DisplayNameTitle)
	case "s":
		m.save("Lists saved to " + m.statePath)
	case "L":
		m.startLoadConfirm()
	case "y":
		m.copyActiveList()
	case "?":
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.setStatus("Shortcuts open (? or Esc to close)", false)
		} else {
			m.setStatus("Shortcuts hidden", false)
		}
	case "esc":
		if m.showHelp {
			m.showHelp = false
			m.setStatus("Shortcuts hidden", false)
			break
		}
		if len(m.marked) > 0 || len(m.markedLists) > 0 {
			m.marked = map[int]bool{}
			m.markedLists = map[int]bool{}
			m.setStatus("Selection cleared", false)
		}
	}

	m.ensureSelection()
	return false
}

func (m *Model) updateInputMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.endInput()
		m.setStatus("Cancelled", false)
		return nil
	case "enter":
		m.applyInput()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeAddTask {
		// The draft survives cancelling or switching lists, like a text box
		// that keeps its content.
		_ = m.svc.SetTaskDraft(m.listCursor, m.input.Value())
	}
	return cmd
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.applyConfirm()
	case "n", "esc", "enter":
		m.mode = modeNormal
		m.confirm = confirmNone
		m.confirmName = ""
		m.setStatus("Action cancelled", false)
	}
}

func (m *Model) beginInput(mode uiMode, value, placeholder string) {
	m.mode = mode
	m.input.Reset()
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) applyInput() {
	text := m.input.Value()
	switch m.mode {
	case modeAddList:
		// Blank names are refused here; the core accepts any name.
		if strings.TrimSpace(text) == "" {
			m.setStatus("List name must not be empty", true)
			return
		}
		m.svc.CreateList(text)
		m.listCursor = len(m.svc.Lists()) - 1
		m.taskCursor = 0
		m.marked = map[int]bool{}
		m.endInput()
		m.changed("List created")
	case modeAddTask:
		if strings.TrimSpace(text) == "" {
			m.setStatus("Task text must not be empty", true)
			return
		}
		if _, err := m.svc.AddTask(m.listCursor, text); err != nil {
			m.endInput()
			m.setStatus("Could not add task: "+err.Error(), true)
			return
		}
		m.endInput()
		if l, ok := m.activeList(); ok {
			m.taskCursor = len(l.Tasks) - 1
		}
		m.changed("Task added")
	case modeRenameTask:
		if _, err := m.svc.RenameTask(m.listCursor, m.taskCursor, text); err != nil {
			m.endInput()
			m.setStatus("Could not rename task: "+err.Error(), true)
			return
		}
		m.endInput()
		m.changed("Task renamed")
	case modeSetDeadline:
		task, err := m.svc.SetDeadline(m.listCursor, m.taskCursor, text)
		if err != nil {
			// Stay in the prompt so the input can be corrected.
			m.setStatus(deadlineErrorText(err), true)
			return
		}
		m.endInput()
		m.changed("Deadline set to " + model.FormatTimestamp(*task.Deadline))
	}
	m.ensureSelection()
}

func deadlineErrorText(err error) string {
	switch {
	case errors.Is(err, model.ErrDeadlineSyntax):
		return "Invalid date format. Use YYYY-MM-DD HH:MM."
	case errors.Is(err, model.ErrDeadlineLocalTime):
		return "Invalid date/time, cannot determine the timezone: " + err.Error()
	default:
		return "Could not set deadline: " + err.Error()
	}
}

func (m *Model) moveCursor(delta int) {
	if m.focus == focusLists {
		lists := m.svc.Lists()
		if len(lists) == 0 {
			return
		}
		old := m.listCursor
		m.listCursor = clamp(m.listCursor+delta, 0, len(lists)-1)
		if m.listCursor != old {
			m.taskCursor = 0
			m.taskOptions = false
			m.marked = map[int]bool{}
		}
		return
	}

	l, ok := m.activeList()
	if !ok || len(l.Tasks) == 0 {
		return
	}
	old := m.taskCursor
	m.taskCursor = clamp(m.taskCursor+delta, 0, len(l.Tasks)-1)
	if m.taskCursor != old {
		m.taskOptions = false
	}
}

func (m *Model) startAdd() {
	if m.focus == focusLists {
		m.beginInput(modeAddList, "", "list name")
		m.setStatus("New list: type a name and press Enter", false)
		return
	}
	l, ok := m.activeList()
	if !ok {
		m.setStatus("Create a list before adding tasks", true)
		return
	}
	m.beginInput(modeAddTask, l.Draft, "task")
	m.setStatus(fmt.Sprintf("New task in %q", l.Name), false)
}

func (m *Model) startRenameTask() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.beginInput(modeRenameTask, task.Text, "task")
	m.setStatus("Rename task", false)
}

func (m *Model) startSetDeadline() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	value := ""
	if task.Deadline != nil {
		value = task.Deadline.In(m.svc.Location()).Format(model.DeadlineLayout)
	}
	m.beginInput(modeSetDeadline, value, "YYYY-MM-DD HH:MM")
	m.setStatus("Set deadline (YYYY-MM-DD HH:MM)", false)
}

func (m *Model) toggleTaskDone() {
	if m.focus != focusTasks {
		return
	}
	task, err := m.svc.ToggleDone(m.listCursor, m.taskCursor)
	if err != nil {
		m.setStatus("No task selected", true)
		return
	}
	if task.Done {
		m.changed("Task completed")
		return
	}
	m.changed("Task reopened")
}

func (m *Model) toggleMark() {
	if m.focus == focusLists {
		if _, ok := m.activeList(); !ok {
			return
		}
		if m.markedLists[m.listCursor] {
			delete(m.markedLists, m.listCursor)
		} else {
			m.markedLists[m.listCursor] = true
		}
		m.setStatus(fmt.Sprintf("%d list(s) marked • D deletes them • Esc clears", len(m.markedLists)), false)
		return
	}
	if _, ok := m.selectedTask(); !ok {
		return
	}
	if m.marked[m.taskCursor] {
		delete(m.marked, m.taskCursor)
	} else {
		m.marked[m.taskCursor] = true
	}
	m.setStatus(fmt.Sprintf("%d task(s) marked • D deletes them • Esc clears", len(m.marked)), false)
}

func (m *Model) toggleOptions() {
	if m.focus == focusLists {
		if _, ok := m.activeList(); !ok {
			return
		}
		m.listOptions[m.listCursor] = !m.listOptions[m.listCursor]
		if m.listOptions[m.listCursor] {
			m.setStatus("List options: 1-4 toggle columns • d deletes the list", false)
		}
		return
	}
	if _, ok := m.selectedTask(); !ok {
		return
	}
	m.taskOptions = !m.taskOptions
}

func (m *Model) toggleDisplay(field model.DisplayField) {
	if !m.listOptions[m.listCursor] {
		m.setStatus("Press o on a list to open its display options", false)
		return
	}
	d, err := m.svc.ToggleDisplay(m.listCursor, field)
	if err != nil {
		m.setStatus("No list selected", true)
		return
	}
	state := "hidden"
	if d.Enabled(field) {
		state = "shown"
	}
	m.setStatus(fmt.Sprintf("%s %s", field, state), false)
}

func (m *Model) startDeleteConfirm() {
	if m.focus == focusLists {
		l, ok := m.activeList()
		if !ok {
			m.setStatus("No list selected", true)
			return
		}
		name := l.Name
		if n := len(l.Tasks); n > 0 {
			name = fmt.Sprintf("%s (%d tasks)", l.Name, n)
		}
		m.askConfirm(confirmDeleteList, name)
		return
	}
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.askConfirm(confirmDeleteTask, task.Text)
}

func (m *Model) startDeleteMarkedConfirm() {
	if m.focus == focusLists {
		if len(m.markedLists) == 0 {
			m.setStatus("No lists marked (space marks a list)", false)
			return
		}
		m.askConfirm(confirmDeleteMarkedLists, fmt.Sprintf("%d marked lists", len(m.markedLists)))
		return
	}
	if len(m.marked) == 0 {
		m.setStatus("No tasks marked (space marks a task)", false)
		return
	}
	m.askConfirm(confirmDeleteMarked, fmt.Sprintf("%d marked tasks", len(m.marked)))
}

func (m *Model) startLoadConfirm() {
	m.askConfirm(confirmLoad, m.statePath)
}

func (m *Model) askConfirm(kind confirmKind, name string) {
	m.mode = modeConfirm
	m.confirm = kind
	m.confirmName = name
}

func (m *Model) applyConfirm() {
	kind := m.confirm
	m.mode = modeNormal
	m.confirm = confirmNone
	m.confirmName = ""

	switch kind {
	case confirmDeleteList:
		if err := m.svc.RemoveList(m.listCursor); err != nil {
			m.setStatus("Could not delete list: "+err.Error(), true)
			break
		}
		m.listOptions = map[int]bool{}
		m.marked = map[int]bool{}
		m.markedLists = map[int]bool{}
		m.taskCursor = 0
		m.focus = focusLists
		m.changed("List deleted")
	case confirmDeleteTask:
		if err := m.svc.RemoveTask(m.listCursor, m.taskCursor); err != nil {
			m.setStatus("Could not delete task: "+err.Error(), true)
			break
		}
		m.marked = map[int]bool{}
		m.taskOptions = false
		m.changed("Task deleted")
	case confirmDeleteMarked:
		indices := sortedKeys(m.marked)
		if err := m.svc.RemoveTasks(m.listCursor, indices); err != nil {
			m.setStatus("Could not delete tasks: "+err.Error(), true)
			break
		}
		m.marked = map[int]bool{}
		m.taskOptions = false
		m.changed(fmt.Sprintf("%d tasks deleted", len(indices)))
	case confirmDeleteMarkedLists:
		indices := sortedKeys(m.markedLists)
		if err := m.svc.RemoveLists(indices); err != nil {
			m.setStatus("Could not delete lists: "+err.Error(), true)
			break
		}
		m.listOptions = map[int]bool{}
		m.markedLists = map[int]bool{}
		m.marked = map[int]bool{}
		m.taskCursor = 0
		m.changed(fmt.Sprintf("%d lists deleted", len(indices)))
	case confirmLoad:
		m.load()
	}
	m.ensureSelection()
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (m *Model) copyActiveList() {
	l, ok := m.activeList()
	if !ok {
		m.setStatus("No list selected", true)
		return
	}
	if len(l.Tasks) == 0 {
		m.setStatus("Nothing to copy", false)
		return
	}
	if err := m.copy(listAsText(l)); err != nil {
		m.setStatus("Copy failed: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("%d tasks copied to the clipboard", len(l.Tasks)), false)
}

func listAsText(l model.List) string {
	lines := make([]string, 0, len(l.Tasks)+1)
	lines = append(lines, l.Name)
	for _, t := range l.Tasks {
		check := "[ ]"
		if t.Done {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s", check, strings.TrimSpace(strings.ReplaceAll(t.Text, "\n", " ")))
		if t.Deadline != nil {
			line += " (due " + model.FormatTimestamp(*t.Deadline) + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// changed reports a successful mutation and saves when autosave is on.
func (m *Model) changed(success string) {
	if !m.autosave {
		m.setStatus(success, false)
		return
	}
	if err := m.svc.Save(m.statePath); err != nil {
		m.setStatus(success+", but saving failed: "+err.Error(), true)
		return
	}
	m.setStatus(success, false)
}

func (m *Model) save(success string) {
	if err := m.svc.Save(m.statePath); err != nil {
		m.setStatus("Save failed: "+err.Error(), true)
		return
	}
	m.setStatus(success, false)
}

func (m *Model) load() {
	if err := m.svc.Load(m.statePath); err != nil {
		switch {
		case errors.Is(err, store.ErrStateNotFound):
			m.setStatus("Nothing to load: "+m.statePath+" does not exist", true)
		case errors.Is(err, store.ErrMalformedState):
			m.setStatus("Load failed, file is not a valid list file; nothing changed", true)
		default:
			m.setStatus("Load failed: "+err.Error(), true)
		}
		return
	}
	m.listOptions = map[int]bool{}
	m.marked = map[int]bool{}
	m.markedLists = map[int]bool{}
	m.taskOptions = false
	m.listCursor = 0
	m.taskCursor = 0
	m.setStatus(fmt.Sprintf("Loaded %d lists from %s", len(m.svc.Lists()), m.statePath), false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
	if isErr {
		m.logger.Warn("ui", "status", text)
	}
}

func (m *Model) ensureSelection() {
	lists := m.svc.Lists()
	if len(lists) == 0 {
		m.listCursor = 0
		m.taskCursor = 0
		m.focus = focusLists
		return
	}
	m.listCursor = clamp(m.listCursor, 0, len(lists)-1)

	tasks := lists[m.listCursor].Tasks
	if len(tasks) == 0 {
		m.taskCursor = 0
		m.taskOptions = false
		return
	}
	m.taskCursor = clamp(m.taskCursor, 0, len(tasks)-1)
}

func (m *Model) activeList() (model.List, bool) {
	l, err := m.svc.List(m.listCursor)
	if err != nil {
		return model.List{}, false
	}
	return l, true
}

func (m *Model) selectedTask() (model.Task, bool) {
	if m.focus != focusTasks {
		return model.Task{}, false
	}
	t, err := m.svc.Task(m.listCursor, m.taskCursor)
	if err != nil {
		return model.Task{}, false
	}
	return t, true
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
