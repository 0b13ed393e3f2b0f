package widget

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/viant/leaderboard/score"
)

const minNameWidth = 4

// Render writes board as aligned text rows, one per player.
func Render(w io.Writer, board *score.Board) error {
	if board == nil || len(board.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No scores yet")
		return err
	}
	width := minNameWidth
	for _, row := range board.Rows {
		if n := utf8.RuneCountInString(row.Name); n > width {
			width = n
		}
	}
	for _, row := range board.Rows {
		line := fmt.Sprintf("%-3s %-2s %-*s %6s", row.Label, row.Initials, width, row.Name, row.ScoreText)
		if marks := rowMarks(row); len(marks) > 0 {
			line += "  (" + strings.Join(marks, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if board.Toggle && !board.ShowAll {
		if _, err := fmt.Fprintf(w, "%d more not shown (use --all)\n", board.Total-len(board.Rows)); err != nil {
			return err
		}
	}
	return nil
}

func rowMarks(row score.Row) []string {
	var marks []string
	if row.DeltaText != "" {
		marks = append(marks, row.DeltaText)
	}
	if row.Tie {
		marks = append(marks, "tie")
	}
	if row.Me {
		marks = append(marks, "you")
	}
	if row.Updated {
		marks = append(marks, "updated")
	}
	return marks
}
