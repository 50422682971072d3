package sweep

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Summary describes one servo's measured response over a sweep. Midpoint is
// floor((Max+Min)/2), an estimate of the actuator's zero-speed bias. A servo
// that never produced a sample has Samples == 0 and no range values.
type Summary struct {
	ID       uint8
	Samples  int
	Min      int
	Max      int
	Midpoint int
}

// Summarize reduces a sweep session to per-servo summaries, in the given id
// order. It never touches the bus.
func Summarize(session *Session, ids []uint8) []Summary {
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		samples := session.Samples[id]
		s := Summary{ID: id, Samples: len(samples)}
		if len(samples) > 0 {
			min, max := samples[0], samples[0]
			for _, v := range samples[1:] {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			s.Min = min
			s.Max = max
			s.Midpoint = floorDiv(min+max, 2)
		}
		out = append(out, s)
	}
	return out
}

// floorDiv rounds toward negative infinity, unlike Go's built-in division,
// which truncates toward zero.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

var (
	reportTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	reportDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	reportHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	reportCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	reportNoDataStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

// Render formats the summaries as a console table, the run's only artifact.
func Render(session *Session, summaries []Summary) string {
	var sb strings.Builder
	sb.WriteString(reportTitleStyle.Render("Sweep Summary"))
	sb.WriteString("\n")
	sb.WriteString(reportDimStyle.Render(fmt.Sprintf(
		"Input command range: %d to %d (step %d)",
		session.MinCommand, session.MaxCommand, session.Step)))
	sb.WriteString("\n")

	rows := make([][]string, 0, len(summaries))
	noData := make([]bool, 0, len(summaries))
	for _, s := range summaries {
		if s.Samples == 0 {
			rows = append(rows, []string{
				fmt.Sprintf("%d", s.ID), "0", "no data", "no data", "no data",
			})
			noData = append(noData, true)
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			fmt.Sprintf("%d", s.Samples),
			fmt.Sprintf("%d", s.Min),
			fmt.Sprintf("%d", s.Max),
			fmt.Sprintf("%d", s.Midpoint),
		})
		noData = append(noData, false)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(reportDimStyle).
		Headers("Servo", "Samples", "Min", "Max", "Midpoint").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return reportHeaderStyle
			}
			if row >= 0 && row < len(noData) && noData[row] && col > 1 {
				return reportNoDataStyle
			}
			return reportCellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}
