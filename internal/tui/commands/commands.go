// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/rocinante/internal/autosave"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// WeekLoadedMsg is sent when week data is loaded.
type WeekLoadedMsg struct {
	Week *interval.Week
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// NoticeMsg carries one autosave outcome.
type NoticeMsg struct {
	Notice autosave.Notice
}

// CopiedMsg is sent after text reached the clipboard.
type CopiedMsg struct {
	What string
}

// LoadWeek loads the intervals of the week starting at weekStart.
func LoadWeek(repo interval.Repository, weekStart time.Time) tea.Cmd {
	return func() tea.Msg {
		if repo == nil {
			return WeekLoadedMsg{Week: interval.NewWeek(weekStart)}
		}
		start := weekStart
		end := start.AddDate(0, 0, 6)

		ivs, err := repo.ListRange(context.Background(), start, end)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("loading week of %s: %w", start.Format("2006-01-02"), err)}
		}

		return WeekLoadedMsg{Week: interval.NewWeekFromIntervals(start, ivs)}
	}
}

// WaitForNotice blocks until the saver reports an outcome.
// It returns nil once the channel is closed.
func WaitForNotice(notices <-chan autosave.Notice) tea.Cmd {
	if notices == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-notices
		if !ok {
			return nil
		}
		return NoticeMsg{Notice: n}
	}
}

// CopyToClipboard writes text to the system clipboard.
func CopyToClipboard(what, text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return CopiedMsg{What: what}
	}
}

// ClearStatusAfter schedules a ClearStatusMsg.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
