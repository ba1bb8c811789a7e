package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/speakr/internal/history"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

const emptyHistory = "No recent generations yet"

// historyModel is the list of past generations, newest first.
type historyModel struct {
	entries      []history.Entry
	cursor       int
	confirmClear bool
}

func (h *historyModel) set(entries []history.Entry) {
	h.entries = entries
	h.cursor = max(0, min(h.cursor, len(entries)-1))
}

func (h historyModel) selected() (history.Entry, bool) {
	if len(h.entries) == 0 {
		return history.Entry{}, false
	}
	return h.entries[h.cursor], true
}

func (h *historyModel) move(delta int) {
	if len(h.entries) == 0 {
		return
	}
	h.cursor = max(0, min(len(h.entries)-1, h.cursor+delta))
}

// view renders up to rows entries around the cursor, two lines each.
func (h historyModel) view(focused bool, width, rows int, now time.Time) string {
	if len(h.entries) == 0 {
		return subtleStyle.Render(emptyHistory)
	}

	start := 0
	if rows > 0 && h.cursor >= rows {
		start = h.cursor - rows + 1
	}
	end := len(h.entries)
	if rows > 0 {
		end = min(end, start+rows)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		e := h.entries[i]
		if i > start {
			b.WriteByte('\n')
		}
		b.WriteString(historyItemView(e, width, now, focused && i == h.cursor))
	}
	return b.String()
}

// historyItemView renders one entry in width columns; both item styles take
// two of them.
func historyItemView(e history.Entry, width int, now time.Time, selected bool) string {
	when := history.TimeAgo(e.Timestamp, now)
	textWidth := max(width-runewidth.StringWidth(when)-3, 1)

	text := strings.Join(strings.Fields(e.Text), " ")
	text = truncate.StringWithTail(text, uint(textWidth), ellipsis) //nolint:gosec
	pad := max(width-2-runewidth.StringWidth(text)-runewidth.StringWidth(when), 1)

	line1 := text + strings.Repeat(" ", pad) + subtleStyle.Render(when)
	line2 := truncate.StringWithTail(e.Label(), uint(max(width-2, 1)), ellipsis) //nolint:gosec

	if selected {
		return selectedItemStyle.Render(lipgloss.JoinVertical(lipgloss.Left, line1, line2))
	}
	return itemStyle.Render(lipgloss.JoinVertical(lipgloss.Left, line1, subtleStyle.Render(line2)))
}
