package game

import (
	"fmt"
	"strings"

	"github.com/sumito-ai/sumito/board"
)

// ToDisplayText draws the board with the turn counters and the last
// move beside it.
func (g *Game) ToDisplayText() string {
	lines := strings.Split(strings.TrimRight(g.board.ToDisplayText(), "\n"), "\n")
	hpad := "   "
	side := []string{
		fmt.Sprintf("layout: %s", g.layout.Name),
		fmt.Sprintf("%s (X): %d turns left, %d captured",
			board.Black, g.turnsLeft[board.Black], g.Captured(board.Black)),
		fmt.Sprintf("%s (O): %d turns left, %d captured",
			board.White, g.turnsLeft[board.White], g.Captured(board.White)),
	}
	if last, ok := g.LastMove(); ok {
		side = append(side, "last: "+last.String())
	}
	if g.GameOver() {
		if w, ok := g.Winner(); ok {
			side = append(side, fmt.Sprintf("game over, %s wins", w))
		} else {
			side = append(side, "game over, draw")
		}
	} else {
		side = append(side, fmt.Sprintf("%s to move", g.onturn))
	}
	width := 0
	for _, l := range lines {
		width = max(width, len(l))
	}
	for i, s := range side {
		if i >= len(lines) {
			break
		}
		lines[i] = lines[i] + strings.Repeat(" ", width-len(lines[i])) + hpad + s
	}
	return strings.Join(lines, "\n") + "\n"
}
