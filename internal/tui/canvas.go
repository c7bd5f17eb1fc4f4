package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/consumer"
)

// World size the server simulates in. Positions are scaled from it onto
// the terminal grid.
const (
	WorldWidth  = 800.0
	WorldHeight = 600.0
)

// Headings in 45 degree steps, starting east and turning clockwise as y
// grows downward.
var arrows = []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

type cell struct {
	r      rune
	style  lipgloss.Style
	styled bool
}

// Arrow returns the glyph for a heading in radians.
func Arrow(angle float64) rune {
	a := math.Mod(angle, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	idx := int(math.Round(a/(math.Pi/4))) % len(arrows)
	return arrows[idx]
}

// CellOf maps a world position onto a cols x rows grid. Positions outside
// the world are clamped to the edge.
func CellOf(x, y float64, cols, rows int) (int, int) {
	c := int(x / WorldWidth * float64(cols))
	r := int(y / WorldHeight * float64(rows))
	return clamp(c, 0, cols-1), clamp(r, 0, rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RenderField draws the snapshot into a cols x rows block. Agents are drawn
// over trail points.
func RenderField(snap consumer.FieldSnapshot, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, cols)
		for j := range grid[i] {
			grid[i][j].r = ' '
		}
	}

	maxAge := snap.MaxAge
	if maxAge <= 0 {
		maxAge = consumer.DefaultTrailAge
	}
	for _, p := range snap.Trail {
		c, r := CellOf(p.X, p.Y, cols, rows)
		band := p.Age * len(StyleTrail) / maxAge
		if band >= len(StyleTrail) {
			band = len(StyleTrail) - 1
		}
		// Trail is oldest first, so fresher points overwrite older ones.
		grid[r][c] = cell{r: '·', style: StyleTrail[band], styled: true}
	}

	for _, a := range snap.Agents {
		c, r := CellOf(a.X, a.Y, cols, rows)
		grid[r][c] = cell{r: Arrow(a.Angle), style: RoleStyle(a.Role), styled: true}
	}

	var b strings.Builder
	for i, row := range grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, cl := range row {
			if !cl.styled {
				b.WriteRune(cl.r)
				continue
			}
			b.WriteString(cl.style.Render(string(cl.r)))
		}
	}
	return b.String()
}
