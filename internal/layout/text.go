package layout

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/rocinante/internal/interval"
)

// DayText renders a day and its column assignment as plain text, one
// interval per line. Hidden intervals are listed with a "+" marker.
func DayText(day *interval.Day, res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", interval.WeekdayShortName(interval.WeekdayIndex(day.Date)), day.Date.Format("2006-01-02"))

	for _, iv := range day.Intervals() {
		slot, ok := res.Slot(iv.ID)
		col := "+"
		if ok {
			col = fmt.Sprintf("%d/%d", slot.ColumnIndex+1, slot.ColumnCount)
		}
		fmt.Fprintf(&b, "  %s-%s  %-4s %s", iv.StartTime(), iv.EndTime(), col, iv.Label)
		if iv.Category != "" && !strings.EqualFold(iv.Category, iv.Label) {
			fmt.Fprintf(&b, " [%s]", iv.Category)
		}
		b.WriteByte('\n')
	}

	stats := day.Stats()
	fmt.Fprintf(&b, "  %d blocks, %dh%02dm busy", stats.Blocks, stats.BusyMinutes/60, stats.BusyMinutes%60)
	if res.Overflow > 0 {
		fmt.Fprintf(&b, ", %d hidden", res.Overflow)
	}
	b.WriteByte('\n')
	return b.String()
}
