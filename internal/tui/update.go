package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		updated, cmd := m.handleKeyMsg(msg)
		return updated.(Model).settle(), cmd

	case tea.MouseMsg:
		updated, cmd := m.handleMouseMsg(msg)
		return updated.(Model).settle(), cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.geom = m.buildGeometry(m.width, m.height)
		m.help.Width = m.width
		// a resize abandons any gesture in progress
		m.syncView()
		m.mode = ModeNormal
		m.cursor.Minute = m.clampCursor(m.cursor.Minute)
		return m, nil

	case commands.WeekLoadedMsg:
		m.loading = false
		if msg.Week == nil || !interval.SameDate(msg.Week.StartDate, m.weekStart) {
			// the user moved on before the load finished
			return m, nil
		}
		m.applyWeek(msg.Week)
		return m, nil

	case commands.ErrMsg:
		m.loading = false
		m.log.Error("command failed", zap.Error(msg.Err))
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.Err), true)

	case commands.NoticeMsg:
		if m.saver == nil {
			return m, nil
		}
		next := commands.WaitForNotice(m.saver.Notices())
		n := msg.Notice
		switch {
		case n.Err != nil:
			return m, tea.Batch(next, m.setStatus(fmt.Sprintf("Save of %s failed (attempt %d): %v", n.Scope, n.Attempt, n.Err), true))
		case n.Attempt > 1:
			return m, tea.Batch(next, m.setStatus("Saved "+n.Scope, false))
		}
		return m, next

	case commands.CopiedMsg:
		return m, m.setStatus("Copied "+msg.What+" to clipboard", false)

	case commands.StatusMsgCmd:
		return m, m.setStatus(msg.Msg, false)

	case commands.ClearStatusMsg:
		if !m.now().Before(m.statusTime) {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil
	}

	return m, nil
}

// applyWeek loads stored intervals into the board. Days with unsaved edits
// or under an active gesture keep their in-memory state.
func (m *Model) applyWeek(w *interval.Week) {
	keep := m.ctrl.BusyScopes()
	if m.saver != nil {
		keep = append(keep, m.saver.Pending()...)
	}
	for _, d := range w.Days {
		if slices.Contains(keep, interval.ScopeKey(d.Date)) {
			m.log.Debug("keeping unsaved day", zap.String("date", interval.ScopeKey(d.Date)))
			continue
		}
		m.board.Load(d.Date, d.Intervals())
	}
}

// settle drops back to normal mode once the controller is idle.
func (m Model) settle() Model {
	if m.mode != ModeNormal && !m.ctrl.Active() {
		m.mode = ModeNormal
	}
	return m
}
