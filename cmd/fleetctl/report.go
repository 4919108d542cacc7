package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/Garsondee/Swarm-Control/internal/feed"
	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/mission"
	"github.com/Garsondee/Swarm-Control/internal/render"
	"github.com/Garsondee/Swarm-Control/internal/session"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

type styles struct {
	header   lipgloss.Style
	muted    lipgloss.Style
	alert    lipgloss.Style
	accent   lipgloss.Style
	healthy  lipgloss.Style
	voice    lipgloss.Style
	category map[mission.Category]lipgloss.Style
}

// newStyles renders for w, so pipes and buffers get plain text.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	alert := r.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)
	accent := r.NewStyle().Foreground(lipgloss.Color("#00d2ff"))
	muted := r.NewStyle().Foreground(lipgloss.Color("245"))
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d2ff")),
		muted:   muted,
		alert:   alert,
		accent:  accent,
		healthy: r.NewStyle().Foreground(lipgloss.Color("#00ff88")),
		voice:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("#ff8c00")),
		category: map[mission.Category]lipgloss.Style{
			mission.Critical: alert,
			mission.Error:    alert,
			mission.Mission:  accent,
			mission.Auth:     r.NewStyle().Foreground(lipgloss.Color("#00ff88")),
			mission.System:   muted,
		},
	}
}

func (s styles) entry(e mission.Entry) string {
	st, ok := s.category[e.Category]
	if !ok {
		return e.String()
	}
	return st.Render(e.String())
}

func (s styles) conn(c feed.Connectivity) string {
	switch c {
	case feed.Online:
		return s.healthy.Render("● " + c.String())
	case feed.Offline:
		return s.alert.Render("● " + c.String())
	}
	return s.muted.Render("● " + c.String())
}

// formatState renders a snapshot as a stats header, robot roster and task
// list.
func formatState(st styles, snap fleet.Snapshot) string {
	var b strings.Builder
	sum := render.Summarize(snap.Stats)
	energy := sum.FleetEnergy
	if snap.Stats.LowEnergy() {
		energy = st.alert.Render(energy)
	}
	fmt.Fprintf(&b, "%s  size %s  active tasks %s  completed %s  energy %s\n",
		st.header.Render("FLEET"), sum.FleetSize, sum.ActiveTasks, sum.Completed, energy)

	byID := map[int]fleet.Robot{}
	for _, r := range snap.Robots {
		byID[r.ID] = r
	}
	for _, card := range render.Roster(&snap) {
		r := byID[card.ID]
		line := fmt.Sprintf("  %-9s (%4.0f, %4.0f)  %5s  %s", card.Title, r.X, r.Y, card.EnergyText, card.Status)
		switch {
		case !r.IsActive:
			line = st.muted.Render(line)
		case r.LowEnergy():
			line = st.alert.Render(line)
		}
		fmt.Fprintln(&b, line)
	}

	if len(snap.Tasks) == 0 {
		fmt.Fprintln(&b, st.muted.Render("  no tasks"))
	}
	for _, t := range snap.Tasks {
		who := "unassigned"
		if t.AssignedTo != nil {
			who = fmt.Sprintf("-> R%d", *t.AssignedTo)
		}
		line := fmt.Sprintf("  TASK %-4d (%4.0f, %4.0f)  priority %d  %s", t.ID, t.X, t.Y, t.Priority, who)
		if t.High() {
			line = st.accent.Render(line)
		}
		fmt.Fprintln(&b, line)
	}

	if ev := snap.LastEvent; ev != nil {
		at := time.Unix(0, int64(ev.Time*float64(time.Second)))
		fmt.Fprintf(&b, "  last event: %s %s\n", ev.Type, humanize.Time(at))
	}
	return b.String()
}

// formatSummary is printed when a watch ends.
func formatSummary(st styles, s *session.Session, now time.Time) string {
	var b strings.Builder
	c := s.Sync.Counters()
	up := durafmt.Parse(s.Uptime(now).Truncate(time.Millisecond)).LimitFirstN(2).Format(shortUnits)
	fmt.Fprintf(&b, "%s uptime %s  snapshots %s  failed %s  stale %s  events %s\n",
		st.header.Render("SUMMARY"), up,
		humanize.Comma(int64(c.Applied)), humanize.Comma(int64(c.Failed)),
		humanize.Comma(int64(c.Dropped)), humanize.Comma(int64(c.Notified)))

	parts := make([]string, 0, len(summaryCategories))
	for _, cat := range summaryCategories {
		parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(string(cat)), s.Log.Count(cat)))
	}
	fmt.Fprintf(&b, "  log %s: %s\n", humanize.Comma(int64(s.Log.Len())), strings.Join(parts, "  "))

	if t, ok := s.Sync.LastEventTime(); ok {
		at := time.Unix(0, int64(t*float64(time.Second)))
		fmt.Fprintf(&b, "  last event %s\n", humanize.RelTime(at, now, "ago", "from now"))
	}
	if e, ok := s.Log.Last(); ok {
		fmt.Fprintf(&b, "  last line  %s\n", st.entry(e))
	}
	return b.String()
}

var summaryCategories = []mission.Category{
	mission.Critical, mission.Error, mission.Mission, mission.System, mission.Auth,
}
