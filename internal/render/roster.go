package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
)

// Card is the roster entry for one robot.
type Card struct {
	ID          int
	Title       string
	EnergyText  string
	EnergyColor color.RGBA
	// EnergyBarWidth is the filled share of the energy bar, in percent.
	EnergyBarWidth float64
	BorderColor    color.RGBA
	Status         string
}

// Summary is the fleet-wide stats block.
type Summary struct {
	ActiveTasks string
	Completed   string
	FleetSize   string
	FleetEnergy string
	EnergyColor color.Color
}

// EnergyColor is the colour used for an energy reading.
func EnergyColor(energy float64) color.RGBA {
	if energy < 20 {
		return Alert
	}
	return Healthy
}

// Roster builds one card per robot in snapshot order.
func Roster(s *fleet.Snapshot) []Card {
	if s == nil {
		return nil
	}
	cards := make([]Card, 0, len(s.Robots))
	for _, r := range s.Robots {
		border := Accent
		if !r.IsActive {
			border = Alert
		}
		cards = append(cards, Card{
			ID:             r.ID,
			Title:          fmt.Sprintf("ROBOT %d", r.ID),
			EnergyText:     humanize.Ftoa(r.Energy) + "%",
			EnergyColor:    EnergyColor(r.Energy),
			EnergyBarWidth: EnergyFraction(r.Energy) * 100,
			BorderColor:    border,
			Status:         "STATUS: " + strings.ToUpper(r.Status),
		})
	}
	return cards
}

// Summarize formats the fleet stats.
func Summarize(st fleet.FleetStats) Summary {
	var col color.Color = Label
	if st.LowEnergy() {
		col = Alert
	}
	return Summary{
		ActiveTasks: humanize.Comma(int64(st.ActiveTasks)),
		Completed:   humanize.Comma(int64(st.CompletedCount)),
		FleetSize:   humanize.Comma(int64(st.FleetSize)),
		FleetEnergy: humanize.Ftoa(st.AvgEnergy) + "%",
		EnergyColor: col,
	}
}

// Card layout in pixels.
const (
	cardHeight  = 58
	cardGap     = 6
	cardPadding = 8
	cardBorder  = 4
	cardBar     = 4
)

// DrawRoster draws the stats block and robot cards into the column at x of
// width w, from y down to the bottom of the canvas. Cards that do not fit
// are left out. It returns how many cards were drawn.
func DrawRoster(c Canvas, s *fleet.Snapshot, x, y, w float64) int {
	_, h := c.Size()
	stats := fleet.DefaultStats()
	if s != nil {
		stats = s.Stats
	}
	sum := Summarize(stats)

	c.FillRect(x, y, w, 4*LineHeight+2*cardPadding, PanelFill)
	line := y + cardPadding
	c.Text("ACTIVE TASKS  "+sum.ActiveTasks, x+cardPadding, line, Label)
	line += LineHeight
	c.Text("COMPLETED     "+sum.Completed, x+cardPadding, line, Label)
	line += LineHeight
	c.Text("FLEET SIZE    "+sum.FleetSize, x+cardPadding, line, Label)
	line += LineHeight
	c.Text("FLEET ENERGY  ", x+cardPadding, line, Label)
	c.Text(sum.FleetEnergy, x+cardPadding+14*GlyphWidth, line, sum.EnergyColor)

	top := y + 4*LineHeight + 2*cardPadding + cardGap
	inner := w - cardBorder - 2*cardPadding
	drawn := 0
	for _, card := range Roster(s) {
		if top+cardHeight > h {
			break
		}
		c.FillRect(x, top, w, cardHeight, PanelFill)
		c.FillRect(x, top, cardBorder, cardHeight, card.BorderColor)

		tx := x + cardBorder + cardPadding
		c.Text(card.Title, tx, top+cardPadding, Label)
		ew := float64(len(card.EnergyText)) * GlyphWidth
		c.Text(card.EnergyText, tx+inner-ew, top+cardPadding, card.EnergyColor)

		by := top + cardPadding + LineHeight + 4
		c.FillRect(tx, by, inner, cardBar, BarTrack)
		c.FillRect(tx, by, math.Max(0, inner*card.EnergyBarWidth/100), cardBar, card.EnergyColor)

		c.Text(truncate(card.Status, inner), tx, by+cardBar+4, Muted)

		top += cardHeight + cardGap
		drawn++
	}
	return drawn
}

// DrawLog draws log lines, newest first, in a panel at (x, y) of size w by h.
func DrawLog(c Canvas, title string, lines []string, x, y, w, h float64) {
	c.FillRect(x, y, w, h, PanelFill)
	c.Line(x, y, x+w, y, 1, PanelEdge)
	c.Text(title, x+cardPadding, y+4, Accent)

	top := y + 4 + LineHeight + 4
	for i, l := range lines {
		if top+LineHeight > y+h {
			break
		}
		col := Muted
		if i < 3 {
			col = Label
		}
		if strings.Contains(l, "[CRITICAL]") || strings.Contains(l, "[ERROR]") {
			col = Alert
		}
		c.Text(truncate(l, w-2*cardPadding), x+cardPadding, top, col)
		top += LineHeight
	}
}
