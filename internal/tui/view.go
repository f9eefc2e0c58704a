package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/layout"
	"github.com/javiermolinar/dayline/internal/session"
	"github.com/javiermolinar/dayline/internal/tui/input"
	"github.com/javiermolinar/dayline/internal/tui/view"
)

const (
	headerHeight    = 2
	footerFull      = 5
	footerCompact   = 2
	footerMinHeight = 14 // inner height needed for the full footer
)

// View renders the TUI.
func (m Model) View() string {
	return view.Render(m.viewState())
}

func (m Model) viewState() view.ViewState {
	showModal := m.mode == ModeModal && m.modal != ModalNone
	modal := ""
	if showModal {
		modal = m.renderModal()
	}
	return view.ViewState{
		Width:            m.width,
		Height:           m.height,
		BaseContent:      m.renderAppContent(),
		ModalContent:     modal,
		ShowModal:        showModal,
		ModalBg:          m.styles.ModalBgColor,
		EmptyPlaceholder: "Loading...",
	}
}

func (m Model) renderAppContent() string {
	innerW, innerH := m.width-4, m.height-2
	footerH := footerCompact
	if innerH >= footerMinHeight {
		footerH = footerFull
	}
	gridH := innerH - headerHeight - footerH
	if innerW <= view.LabelWidth || gridH <= 0 {
		return "Terminal too small"
	}

	slots := m.session.Layout()
	header := m.placeBox(innerW, headerHeight, lipgloss.Top, m.renderHeader(innerW))
	grid := view.RenderTimeline(view.TimelineViewState{
		Width:     innerW,
		Height:    gridH,
		Rows:      m.timelineRows(slots, gridH),
		FreeStyle: m.styles.FreeStyle,
		Bg:        m.styles.colorBg,
	})
	footer := view.RenderFooter(m.footerViewState(innerW, footerH))

	content := lipgloss.JoinVertical(lipgloss.Left, header, grid, footer)
	app := m.styles.AppStyle.Render(content)
	return view.FitLines(app, m.width, m.height, m.styles.colorBg)
}

// placeBox is a helper to render content in an explicit lipgloss box.
func (m Model) placeBox(w, h int, vAlign lipgloss.Position, content string) string {
	return view.PlaceBox(w, h, vAlign, content, m.styles.colorBg)
}

func (m Model) renderHeader(width int) string {
	date := m.session.Date()
	title := m.styles.TitleStyle.Render(date.Format("Monday 2 January 2006"))

	var notes []string
	if m.isToday() {
		notes = append(notes, "today")
	}
	if m.loading {
		notes = append(notes, "loading")
	}
	switch st := m.session.State(); st {
	case session.Idle, session.Committed:
	default:
		notes = append(notes, st.String())
	}
	line := title
	if len(notes) > 0 {
		line += m.styles.SubtitleStyle.Render("  " + strings.Join(notes, " · "))
	}
	if m.session.Stale() {
		line += m.styles.StaleStyle.Render("  stale, press g to reload")
	}
	sep := m.styles.SeparatorStyle.Render(strings.Repeat("─", width))
	return line + "\n" + sep
}

// dayRange returns the minutes covered by the grid: the working day widened
// to whole hours around every item and the cursor.
func (m Model) dayRange(slots []layout.Slot) (int, int) {
	start, end := m.dayStart, m.dayEnd
	for _, s := range slots {
		start = min(start, s.Item.Span.Start)
		end = max(end, s.Item.Span.End)
	}
	start = min(start, m.cursor)
	end = max(end, m.cursor+rowMinutes)

	start -= start % 60
	if end%60 != 0 {
		end += 60 - end%60
	}
	return start, min(end, item.MinutesPerDay)
}

// timelineRows builds the visible rows, scrolled so the cursor stays on screen.
func (m Model) timelineRows(slots []layout.Slot, height int) []view.TimelineRow {
	first, last := m.dayRange(slots)
	total := (last - first) / rowMinutes

	offset := 0
	if total > height {
		cursorRow := (m.cursor - first) / rowMinutes
		offset = max(0, min(cursorRow-height/3, total-height))
	}

	conflicts := m.session.ConflictIndex()
	alt := altShades(slots)
	nowMin, today := m.nowMinute()

	rows := make([]view.TimelineRow, 0, min(total, height))
	for r := offset; r < total && len(rows) < height; r++ {
		t := first + r*rowMinutes
		row := view.TimelineRow{LabelStyle: m.styles.TimeColumnStyle}
		if t%60 == 0 {
			row.Label = clockLabel(t)
			row.LabelStyle = m.styles.TimeHourStyle
		}
		if today && nowMin >= t && nowMin < t+rowMinutes {
			row.Label = clockLabel(nowMin)
			row.LabelStyle = m.styles.TimeNowStyle
		}
		if t == m.cursor {
			row.Label = "›" + row.Label
			row.LabelStyle = m.styles.CursorStyle
		}
		row.Lanes = m.lanes(slots, t, r == offset, conflicts, alt)
		rows = append(rows, row)
	}
	return rows
}

// lanes fills one row. An item's text is drawn on the row holding its start,
// or on the top row when it started above the viewport.
func (m Model) lanes(slots []layout.Slot, t int, top bool, conflicts map[string][]item.Item, alt map[string]bool) []*view.Block {
	rowSpan := item.Span{Start: t, End: t + rowMinutes}
	var (
		hits    []layout.Slot
		columns int
	)
	for _, s := range slots {
		if s.Item.Span.Overlaps(rowSpan) {
			hits = append(hits, s)
			columns = max(columns, s.Columns)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	// slots are in start order, so a later item sharing a column wins
	lanes := make([]*view.Block, columns)
	for _, s := range hits {
		block := &view.Block{Style: m.blockStyle(s.Item, conflicts, alt)}
		starts := s.Item.Span.Start >= t && s.Item.Span.Start < t+rowMinutes
		if starts || (top && s.Item.Span.Start < t) {
			block.Text = m.blockText(s.Item, conflicts)
		}
		lanes[s.Column] = block
	}
	return lanes
}

func (m Model) blockText(it item.Item, conflicts map[string][]item.Item) string {
	text := it.String()
	if it.Kind == item.KindTask {
		text = "☐ " + text
	}
	if m.session.IsLocked(it.ID) {
		text += " (saving)"
	} else if len(conflicts[it.ID]) > 0 {
		text += " !"
	}
	return text
}

func (m Model) blockStyle(it item.Item, conflicts map[string][]item.Item, alt map[string]bool) lipgloss.Style {
	s := m.styles
	switch {
	case m.gesture != nil && it.ID == m.gesture.ItemID():
		return s.PreviewStyle
	case m.session.IsLocked(it.ID):
		return s.LockedStyle
	case it.ID == m.focus:
		return s.SelectedStyle
	case len(conflicts[it.ID]) > 0:
		return s.ConflictStyle
	}

	past := m.isPast(it)
	switch {
	case it.Kind == item.KindTask && past:
		return s.TaskPastStyle
	case past:
		return s.EventPastStyle
	case it.Kind == item.KindTask && alt[it.ID]:
		return s.TaskAltStyle
	case it.Kind == item.KindTask:
		return s.TaskStyle
	case alt[it.ID]:
		return s.EventAltStyle
	default:
		return s.EventStyle
	}
}

// altShades marks every other item of each kind so neighbours stay apart.
func altShades(slots []layout.Slot) map[string]bool {
	alt := make(map[string]bool, len(slots))
	counts := make(map[item.Kind]int, 2)
	for _, s := range slots {
		alt[s.Item.ID] = counts[s.Item.Kind]%2 == 1
		counts[s.Item.Kind]++
	}
	return alt
}

func (m Model) isToday() bool {
	_, today := m.nowMinute()
	return today
}

// nowMinute returns the current minute of the day and whether the shown
// day is today.
func (m Model) nowMinute() (int, bool) {
	now := m.now()
	date := m.session.Date()
	today := now.Year() == date.Year() && now.YearDay() == date.YearDay()
	return now.Hour()*60 + now.Minute(), today
}

func (m Model) isPast(it item.Item) bool {
	now := m.now()
	date := m.session.Date()
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, date.Location())
	if date.Before(nowDay) {
		return true
	}
	nowMin, today := m.nowMinute()
	return today && it.Span != nil && it.Span.End <= nowMin
}

func clockLabel(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func (m Model) footerViewState(width, height int) view.FooterViewState {
	promptLine := ""
	if m.mode == ModePrompt {
		promptLine = m.styles.PromptKindStyle.Render(string(m.promptKind)) + " " + m.prompt.View()
	}

	return view.FooterViewState{
		InnerW:          width,
		FooterH:         height,
		FullFooter:      height >= footerFull,
		StatsLine:       m.renderStats(),
		UnscheduledLine: m.renderUnscheduled(width),
		PromptLine:      promptLine,
		StatusLine:      m.renderStatus(),
		HelpLine:        m.styles.HelpStyle.Render(m.helpText()),
		VAlign:          lipgloss.Bottom,
		Bg:              m.styles.colorBg,
	}
}

func (m Model) renderStats() string {
	items := m.session.Items()
	var events, tasks int
	for _, it := range items {
		if it.Kind == item.KindTask {
			tasks++
		} else {
			events++
		}
	}
	busy := item.NewDay(m.session.Date(), items).BusyMinutes()

	s := m.styles
	line := s.StatsEventStyle.Render(fmt.Sprintf("%d events", events)) +
		s.StatsStyle.Render("  ") +
		s.StatsTaskStyle.Render(fmt.Sprintf("%d tasks", tasks)) +
		s.StatsStyle.Render(fmt.Sprintf("  %s busy", formatMinutes(busy)))
	if n := len(m.session.ConflictIndex()); n > 0 {
		line += s.StatsStyle.Render("  ") + s.StatsConflictStyle.Render(fmt.Sprintf("%d overlapping", n))
	}
	return line
}

func (m Model) renderUnscheduled(width int) string {
	un := m.session.Unscheduled()
	if len(un) == 0 {
		return m.styles.UnscheduledStyle.Render("No unscheduled items")
	}
	titles := make([]string, len(un))
	for i, it := range un {
		titles[i] = it.Title
	}
	line := fmt.Sprintf("Unscheduled (%d): %s", len(un), strings.Join(titles, " · "))
	return m.styles.UnscheduledStyle.MaxWidth(width).Render(line)
}

func (m Model) renderStatus() string {
	if m.mode == ModePrompt {
		matches := input.PromptMatchingCommands(m.prompt.Value(), promptCommands)
		if len(matches) > 0 {
			parts := make([]string, len(matches))
			for i, c := range matches {
				parts[i] = c.Name + " " + c.Description
			}
			return m.styles.HelpStyle.Render(strings.Join(parts, "  "))
		}
	}
	if m.statusMsg != "" {
		return m.styles.StatusStyle.Render(m.statusMsg)
	}
	if it, ok := m.focused(); ok {
		return m.styles.SubtitleStyle.Render(fmt.Sprintf("%s (%s)", it, it.Kind))
	}
	return ""
}

func (m Model) helpText() string {
	switch m.mode {
	case ModeDrag:
		return "j/k ±5m  J/K ±30m  enter save  esc cancel"
	case ModePrompt:
		return "enter submit  tab kind/complete  esc cancel"
	case ModeModal:
		return ""
	default:
		return "j/k move  tab next  m move  r resize  n new  a add  d delete  h/l day  ? help  q quit"
	}
}

func (m Model) renderModal() string {
	s := m.styles
	styles := view.ModalStyles{
		ModalHeaderStyle:       s.ModalHeaderStyle,
		ModalTitleStyle:        s.ModalTitleStyle,
		ModalFooterStyle:       s.ModalFooterStyle,
		ModalStyle:             s.ModalStyle,
		ModalButtonStyle:       s.ModalButtonStyle,
		ModalButtonActiveStyle: s.ModalButtonActiveStyle,
		ModalBodyStyle:         s.ModalBodyStyle,
	}

	switch m.modal {
	case ModalConflict:
		var body strings.Builder
		if p, _, ok := m.session.Pending(); ok && p.Span != nil {
			body.WriteString(s.ModalBodyStyle.Render(fmt.Sprintf("%s %s", p.Span, p.Title)))
			body.WriteString("\n")
		}
		body.WriteString(s.ModalMetaStyle.Render("overlaps:"))
		for _, c := range m.conflicts {
			body.WriteString("\n")
			body.WriteString(s.ModalBodyStyle.Render("  " + c.String()))
		}
		footer := view.RenderModalButtons(styles, m.modalButton, "[c] Cancel", "[f] Save anyway")
		if m.waiting {
			footer = s.ModalMetaStyle.Render("Saving...")
		}
		return view.RenderModalFrame("Overlapping items", body.String(), footer, styles)

	case ModalConfirmDelete:
		body := s.ModalBodyStyle.Render(m.deleteTarget.String()) + "\n" +
			s.ModalMetaStyle.Render("It can be restored with u until the trash is purged.")
		footer := view.RenderModalButtons(styles, 0, "[y] Delete", "[n] Keep")
		return view.RenderModalFrame("Delete item?", body, footer, styles)

	default:
		return view.RenderModalFrame("Keys", s.ModalBodyStyle.Render(helpBody), s.ModalMetaStyle.Render("any key to close"), styles)
	}
}

const helpBody = `j/k        move the cursor (pgup/pgdown jump)
tab        next item in the row
m / r      move / resize the selected item
n          new item at the cursor
a or /     quick add ("9-10 standup", /task, /goto)
d          delete, u restores the last deleted
< / >      reschedule to the previous / next day
h / l / t  previous day, next day, today
g          reload`

func formatMinutes(minutes int) string {
	h, mm := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", mm)
	case mm == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, mm)
	}
}
