package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"mulist/model"
)

var (
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	markStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	title := lipgloss.NewStyle().Bold(true).Render("mulist")
	summary := fmt.Sprintf("focus: %s • lists: %d • file: %s", m.focus.String(), len(m.svc.Lists()), m.statePath)
	if m.autosave {
		summary += " • autosave"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		title,
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary),
	)

	viewW := m.viewportWidth()
	const paneGap = 1
	outerPaneW := viewW
	innerPaneW := outerPaneW - 2
	if innerPaneW < 20 {
		innerPaneW = outerPaneW
	}

	panelH := m.height - 6
	if panelH < 8 {
		panelH = 8
	}
	innerPaneH := panelH - 2
	if innerPaneH < 6 {
		innerPaneH = 6
	}

	leftW, rightW := m.paneWidths(innerPaneW, paneGap)
	split := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderListsPanel(leftW, innerPaneH),
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("│"),
		m.renderTasksPanel(rightW, innerPaneH),
	)

	frameColor := lipgloss.Color("240")
	if m.mode == modeNormal {
		frameColor = lipgloss.Color("39")
	}
	panes := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(innerPaneW).
		Height(panelH).
		Render(split)

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	rightHint := "? shortcuts"
	if m.showHelp {
		rightHint = "Esc/? close shortcuts"
	}
	footerLine := m.renderFooter(m.status, statusStyle, rightHint)

	promptLine := m.renderPrompt()
	if promptLine != "" {
		promptLine = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Width(viewW).Render(promptLine)
	}

	if m.showHelp {
		popupW := viewW - 8
		if popupW > 96 {
			popupW = 96
		}
		if popupW < 40 {
			popupW = viewW - 2
		}
		panes = lipgloss.Place(viewW, panelH, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay(popupW))
	}

	parts := []string{header, panes, footerLine}
	if promptLine != "" && !m.showHelp {
		parts = append(parts, promptLine)
	}
	parts = append(parts, hintStyle.Render(truncateRunes(m.contextualHelp(), viewW)))
	return strings.Join(parts, "\n")
}

func (m *Model) renderPrompt() string {
	switch m.mode {
	case modeAddList:
		return "New list: " + m.input.View()
	case modeAddTask:
		return "New task: " + m.input.View()
	case modeRenameTask:
		return "Rename task: " + m.input.View()
	case modeSetDeadline:
		return "Deadline (YYYY-MM-DD HH:MM): " + m.input.View()
	case modeConfirm:
		switch m.confirm {
		case confirmDeleteList:
			return fmt.Sprintf("Delete list %q? [y/N]", m.confirmName)
		case confirmDeleteTask:
			return fmt.Sprintf("Delete task %q? [y/N]", m.confirmName)
		case confirmDeleteMarked, confirmDeleteMarkedLists:
			return fmt.Sprintf("Delete %s? [y/N]", m.confirmName)
		case confirmLoad:
			return fmt.Sprintf("Replace all lists with the contents of %s? [y/N]", m.confirmName)
		}
	}
	return ""
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// Leave the last column free; some terminals wrap on it.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

func (m *Model) paneWidths(total, gap int) (int, int) {
	if total <= 0 {
		return 24, 30
	}
	if gap < 0 {
		gap = 0
	}

	minLeft := 20
	minRight := 30
	if total < minLeft+minRight+gap {
		left := total / 3
		if left < 12 {
			left = 12
		}
		right := total - left - gap
		if right < 12 {
			right = 12
			left = total - right - gap
			if left < 10 {
				left = 10
			}
		}
		return left, right
	}

	left := total / 4
	if left < 22 {
		left = 22
	}
	if left > 34 {
		left = 34
	}

	right := total - left - gap
	if right < minRight {
		right = minRight
		left = total - right - gap
	}
	if left < minLeft {
		left = minLeft
		right = total - left - gap
	}
	return left, right
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(statusText)
	right := strings.TrimSpace(rightHint)
	if left == "" {
		left = "Ready"
	}

	leftW := utf8.RuneCountInString(left)
	rightW := utf8.RuneCountInString(right)
	width := m.viewportWidth()

	if leftW+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
		}
		left = truncateRunes(left, maxLeft)
		leftW = utf8.RuneCountInString(left)
	}

	padding := width - leftW - rightW
	if padding < 1 {
		padding = 1
	}

	rightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + rightStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (m *Model) renderHelpOverlay(width int) string {
	title := lipgloss.NewStyle().Bold(true).Render("Shortcuts")
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	line := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	rows := []string{
		title,
		"",
		section.Render("Global"),
		line.Render("  Tab switch focus • j/k move • q quit"),
		line.Render("  s save • L load • y copy list • ? toggle shortcuts"),
		"",
		section.Render("Lists"),
		line.Render("  a new list • d delete • space mark • D delete marked"),
		line.Render("  Enter open tasks"),
		line.Render("  o options • 1 ID • 2 ID title • 3 name • 4 name title"),
		"",
		section.Render("Tasks"),
		line.Render("  a new task • e rename • t deadline • x/Enter done"),
		line.Render("  space mark • D delete marked • d delete • o options"),
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(1, 2)
	return style.Width(width).Render(strings.Join(rows, "\n"))
}

func (m *Model) contextualHelp() string {
	switch m.mode {
	case modeAddList, modeAddTask, modeRenameTask, modeSetDeadline:
		return "Type text • Enter confirm • Esc cancel"
	case modeConfirm:
		return "Confirm • y yes • n/Esc no"
	}
	if m.focus == focusLists {
		return "Lists • a new • o options • d delete • space mark • Enter tasks • Tab tasks • s save • q quit"
	}
	return "Tasks • a new • e rename • t deadline • x done • space mark • D delete marked • o options"
}

func (m *Model) renderListsPanel(width, height int) string {
	lists := m.svc.Lists()

	lines := make([]string, 0, len(lists)*2+2)
	lines = append(lines, panelTitleStyled("Lists", m.focus == focusLists))
	if len(lists) == 0 {
		lines = append(lines, hintStyle.Render("No lists. Press 'a' to create one."))
	}
	for i, l := range lists {
		cursor := " "
		if i == m.listCursor {
			cursor = "▸"
		}
		mark := " "
		if m.markedLists[i] {
			mark = "•"
		}
		line := fmt.Sprintf("%s%s %s (%d)", cursor, mark, truncateRunes(l.Name, width-9), len(l.Tasks))
		if i == m.listCursor {
			style := lipgloss.NewStyle().Bold(true)
			if m.focus == focusLists {
				style = style.Foreground(lipgloss.Color("229"))
			}
			line = style.Render(line)
		}
		lines = append(lines, line)
		if m.listOptions[i] {
			lines = append(lines, renderDisplayOptions(l.Display)...)
		}
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func renderDisplayOptions(d model.DisplayOptions) []string {
	fields := []model.DisplayField{model.DisplayID, model.DisplayIDTitle, model.DisplayName, model.DisplayNameTitle}
	out := make([]string, 0, len(fields))
	for i, f := range fields {
		box := "[ ]"
		if d.Enabled(f) {
			box = "[x]"
		}
		out = append(out, optionStyle.Render(fmt.Sprintf("    %d %s %s", i+1, box, f)))
	}
	return out
}

func (m *Model) renderTasksPanel(width, height int) string {
	list, hasList := m.activeList()

	title := "Tasks"
	if hasList {
		title = "Tasks — " + list.Name
	}
	lines := make([]string, 0, len(list.Tasks)+3)
	lines = append(lines, panelTitleStyled(title, m.focus == focusTasks))

	switch {
	case !hasList:
		lines = append(lines, hintStyle.Render("No list selected. Create one in Lists with 'a'."))
	case len(list.Tasks) == 0:
		lines = append(lines, hintStyle.Render("Empty list. Press 'a' to add a task."))
	default:
		now := time.Now()
		for i, t := range list.Tasks {
			selected := i == m.taskCursor
			lines = append(lines, m.renderTaskRow(list.Display, t, i, selected, now, width))
			if selected && m.taskOptions && m.focus == focusTasks {
				lines = append(lines, optionStyle.Render("    e rename • t deadline • x toggle done • d delete"))
			}
		}
	}
	if hasList && list.Draft != "" && m.mode != modeAddTask {
		lines = append(lines, "", hintStyle.Render("draft: "+truncateRunes(list.Draft, width-8)))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTaskRow(d model.DisplayOptions, t model.Task, idx int, selected bool, now time.Time, width int) string {
	cursor := " "
	if selected {
		cursor = "▸"
	}
	mark := " "
	if m.marked[idx] && m.focus == focusTasks {
		mark = markStyle.Render("•")
	}
	check := "[ ]"
	if t.Done {
		check = "[x]"
	}

	textStyle := lipgloss.NewStyle()
	if t.Done {
		textStyle = textStyle.Faint(true)
	}
	if selected {
		textStyle = textStyle.Bold(true)
		if m.focus == focusTasks {
			textStyle = textStyle.Foreground(lipgloss.Color("229"))
		}
	}

	cols := make([]string, 0, 6)
	if t.Done {
		cols = append(cols, completeStyle.Render("Complete"))
	}
	if d.ID {
		id := fmt.Sprintf("%d", t.ID)
		if d.ShowIDLabel() {
			id = "ID: " + id
		}
		cols = append(cols, id)
	}
	if d.Name {
		name := t.Text
		if d.ShowNameLabel() {
			name = "Name: " + name
		}
		cols = append(cols, textStyle.Render(truncateRunes(name, width/2)))
	}
	loc := m.svc.Location()
	cols = append(cols, hintStyle.Render("Added on: "+model.FormatTimestamp(t.CreatedAt.In(loc))))
	if t.Deadline == nil {
		cols = append(cols, hintStyle.Render("No deadline set"))
	} else {
		deadline := "Deadline: " + model.FormatTimestamp(t.Deadline.In(loc))
		if !t.Done && t.Deadline.Before(now) {
			cols = append(cols, overdueStyle.Render(deadline))
		} else {
			cols = append(cols, deadline)
		}
	}

	return fmt.Sprintf("%s%s %s %s", cursor, mark, check, strings.Join(cols, "  "))
}

func panelTitleStyled(title string, active bool) string {
	base := lipgloss.NewStyle().Bold(true)
	if !active {
		return base.Render(title)
	}
	text := base.Foreground(lipgloss.Color("229")).Render(title)
	marker := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("*")
	return lipgloss.JoinHorizontal(lipgloss.Left, text, " ", marker)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
