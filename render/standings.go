package render

import (
	"fmt"
	"roachrace/engine"
	"roachrace/meta"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	finisherStyle = cellStyle.Foreground(lipgloss.Color("10"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Standings renders the ranking of a finished track as a table, one row
// per cockroach from first to last.
func Standings(track *engine.Track) string {
	if !track.Finished() {
		return titleStyle.Render("race not run yet")
	}

	world := track.World()
	cockroaches := world.Cockroaches()
	rows := make([][]string, 0, world.Len())
	finishers := make(map[int]bool)

	for place, i := range track.Standings() {
		x := cockroaches[i].State.Position.X
		status := "running"
		if x+meta.EPS >= world.Length() {
			status = "finished"
			finishers[place] = true
		}
		rows = append(rows, []string{
			strconv.Itoa(place + 1),
			strconv.Itoa(i),
			cockroaches[i].StrategyName,
			strconv.FormatFloat(x, 'f', 2, 64),
			status,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("place", "cockroach", "strategy", "distance", "status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case finishers[row]:
				return finisherStyle
			default:
				return cellStyle
			}
		})

	title := titleStyle.Render(fmt.Sprintf("standings over %.0f", world.Length()))
	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}
