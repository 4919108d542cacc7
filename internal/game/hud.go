package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hako/durafmt"

	"github.com/Garsondee/Swarm-Control/internal/command"
	"github.com/Garsondee/Swarm-Control/internal/feed"
	"github.com/Garsondee/Swarm-Control/internal/mission"
	"github.com/Garsondee/Swarm-Control/internal/render"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// staleAfter is how old the held snapshot may get before the HUD says so.
const staleAfter = 3 * time.Second

// hudState is everything the HUD shows, gathered once per frame.
type hudState struct {
	Conn    feed.Connectivity
	Stale   time.Duration
	HasData bool
	Mode    command.Mode
	Toggles mission.Toggles
	Zoom    float64
	User    string
	Role    string
	Err     error
}

// errWidth caps the link error line, in glyphs.
const errWidth = 44

// connText is the connectivity badge, with how long data has been stale
// once that is worth mentioning.
func connText(s hudState) string {
	label := s.Conn.String()
	if s.HasData && s.Stale >= staleAfter {
		label += "  (no data for " + durafmt.Parse(s.Stale.Truncate(time.Second)).LimitFirstN(2).Format(shortUnits) + ")"
	}
	return label
}

func connColor(c feed.Connectivity) color.Color {
	switch c {
	case feed.Online:
		return render.Healthy
	case feed.Offline:
		return render.Alert
	default:
		return render.Muted
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// hudLines is the status block under the connectivity badge.
func hudLines(s hudState) []string {
	pause := "RUNNING"
	if s.Toggles.Paused {
		pause = "PAUSED"
	}
	lines := []string{
		"MODE: " + s.Mode.Label(),
		fmt.Sprintf("AUTO: %s   %s", onOff(s.Toggles.AutoTask), pause),
		fmt.Sprintf("zoom: %.2fx", s.Zoom),
	}
	if s.User != "" {
		lines = append(lines, fmt.Sprintf("operator: %s (%s)", s.User, s.Role))
	}
	if s.Err != nil && s.Conn == feed.Offline {
		msg := "link: " + s.Err.Error()
		if len(msg) > errWidth {
			msg = msg[:errWidth-1] + "~"
		}
		lines = append(lines, msg)
	}
	return lines
}

var helpLines = []string{
	"[M] toggle TASK / DEPLOY mode",
	"[Q] quick deploy at centre",
	"[N] random task",
	"[F] simulate failure",
	"[R] reset mission",
	"[X] clear tasks",
	"[A] auto-task on/off",
	"[P] pause / resume",
	"[+/-] zoom   drag=pan   wheel=zoom",
	"[L] copy mission log",
	"[H] toggle this help",
	"[Esc] log out",
}

// drawHUD draws the status block in the top-left of the map.
func drawHUD(c render.Canvas, s hudState, showHelp bool) {
	const pad = 8
	lines := hudLines(s)
	badge := connText(s)

	width := float64(len(badge)+2) * render.GlyphWidth
	for _, l := range lines {
		width = max(width, float64(len(l))*render.GlyphWidth)
	}
	height := float64(len(lines)+1) * render.LineHeight
	c.FillRect(pad, pad, width+2*pad, height+2*pad, render.PanelFill)

	col := connColor(s.Conn)
	c.FillCircle(2*pad+3, 2*pad+render.LineHeight/2, 4, col)
	c.Text(badge, 2*pad+2*render.GlyphWidth, 2*pad, col)
	for i, l := range lines {
		c.Text(l, 2*pad, 2*pad+float64(i+1)*render.LineHeight, render.Label)
	}

	if !showHelp {
		return
	}
	top := 2*pad + height + 3*pad
	hw := 0.0
	for _, l := range helpLines {
		hw = max(hw, float64(len(l))*render.GlyphWidth)
	}
	c.FillRect(pad, top-pad, hw+2*pad, float64(len(helpLines))*render.LineHeight+2*pad, render.PanelFill)
	for i, l := range helpLines {
		c.Text(l, 2*pad, top+float64(i)*render.LineHeight, render.Muted)
	}
}
