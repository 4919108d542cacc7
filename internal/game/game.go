// Package game adapts a session to Ebitengine: it polls input, drives the
// session once per frame and draws the map, HUD, roster and mission log.
package game

import (
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/render"
	"github.com/Garsondee/Swarm-Control/internal/session"
)

// panelWidth is the width of the roster and log column on the right.
const panelWidth = 300

// logShare is the fraction of the panel height given to the mission log.
const logShare = 0.4

// logoutGrace lets the goodbye start before the window closes.
const logoutGrace = 500 * time.Millisecond

// Options configures a Game.
type Options struct {
	Width, Height int
	User, Role    string
	Logger        *zap.Logger
	Now           func() time.Time
	// Copy puts text on the system clipboard. Defaults to copyText.
	Copy func(string) error
}

type Game struct {
	sess     *session.Session
	face     text.Face
	width    int
	height   int
	user     string
	role     string
	showHelp bool
	quitAt   time.Time
	prevKeys map[ebiten.Key]bool
	input    *capture
	copy     func(string) error
	now      func() time.Time
	logger   *zap.Logger
}

// New returns a game drawing sess.
func New(sess *session.Session, opts Options) (*Game, error) {
	face, err := loadFace()
	if err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Copy == nil {
		opts.Copy = copyText
	}
	return &Game{
		sess:     sess,
		face:     face,
		width:    opts.Width,
		height:   opts.Height,
		user:     opts.User,
		role:     opts.Role,
		prevKeys: make(map[ebiten.Key]bool),
		input:    newCapture(),
		copy:     opts.Copy,
		now:      opts.Now,
		logger:   logging.OrNop(opts.Logger),
	}, nil
}

// mapSize is the map area in screen pixels; the panel takes the rest.
func (g *Game) mapSize() (float64, float64) {
	return float64(max(g.width-panelWidth, 1)), float64(g.height)
}

func (g *Game) Update() error {
	if g.quitting(g.now()) {
		return ebiten.Termination
	}
	g.sess.Pump()
	w, h := g.mapSize()
	g.sess.HandleInput(g.input.poll(w, h))
	if g.sess.View.Panning() {
		ebiten.SetCursorShape(ebiten.CursorShapeMove)
	} else {
		ebiten.SetCursorShape(ebiten.CursorShapeDefault)
	}
	g.handleKeys()
	return nil
}

func (g *Game) handleKeys() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(keys ...ebiten.Key) bool {
		hit := false
		for _, k := range keys {
			currentKeys[k] = ebiten.IsKeyPressed(k)
			if currentKeys[k] && !g.prevKeys[k] {
				hit = true
			}
		}
		return hit
	}
	w, h := g.mapSize()
	cmds := g.sess.Commands

	// M: switch between task injection and robot deployment.
	if pressed(ebiten.KeyM) {
		cmds.ToggleMode()
	}
	if pressed(ebiten.KeyQ) {
		cmds.QuickDeploy(g.sess.View.State(), w, h)
	}
	if pressed(ebiten.KeyN) {
		cmds.RandomTask(g.sess.View.State(), w, h)
	}
	if pressed(ebiten.KeyF) {
		cmds.Fail()
	}
	if pressed(ebiten.KeyR) {
		cmds.Reset()
	}
	if pressed(ebiten.KeyX) {
		cmds.ClearTasks()
	}
	if pressed(ebiten.KeyA) {
		cmds.ToggleAutoTask()
	}
	if pressed(ebiten.KeyP) {
		cmds.TogglePause()
	}

	// Zoom around the map centre.
	if pressed(ebiten.KeyEqual, ebiten.KeyKPAdd) {
		g.sess.ZoomStep(true, w, h)
	}
	if pressed(ebiten.KeyMinus, ebiten.KeyKPSubtract) {
		g.sess.ZoomStep(false, w, h)
	}

	// L: copy the mission log, newest first.
	if pressed(ebiten.KeyL) {
		g.copyLog()
	}
	// H: toggle the key legend.
	if pressed(ebiten.KeyH) {
		g.showHelp = !g.showHelp
	}
	// Escape: log out and close.
	if pressed(ebiten.KeyEscape) {
		g.logout()
	}

	g.prevKeys = currentKeys
}

func (g *Game) logout() {
	if !g.quitAt.IsZero() {
		return
	}
	g.sess.Notifier.Logout(g.user)
	g.quitAt = g.now().Add(logoutGrace)
	g.logger.Info("logging out", zap.String("user", g.user))
}

// quitting reports whether a logout has finished its grace period at now.
func (g *Game) quitting(now time.Time) bool {
	return !g.quitAt.IsZero() && !now.Before(g.quitAt)
}

func (g *Game) copyLog() {
	if err := g.copy(g.sess.Log.Text()); err != nil {
		g.logger.Warn("copy mission log", zap.Error(err))
		return
	}
	g.logger.Debug("mission log copied", zap.Int("entries", g.sess.Log.Len()))
}

func (g *Game) hud() hudState {
	sync := g.sess.Sync
	return hudState{
		Conn:    sync.Connectivity(),
		Stale:   sync.Staleness(g.now()),
		HasData: !sync.LastSuccess().IsZero(),
		Mode:    g.sess.Commands.Mode(),
		Toggles: *g.sess.Toggles,
		Zoom:    g.sess.View.State().Zoom,
		User:    g.user,
		Role:    g.role,
		Err:     sync.LastError(),
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(render.PanelFill)
	w, h := g.mapSize()

	// Map: a sub-image so nothing spills into the panel.
	mapImg := screen.SubImage(image.Rect(0, 0, int(w), int(h))).(*ebiten.Image)
	mc := newCanvas(mapImg, g.face)
	g.sess.Render(mc)
	drawHUD(mc, g.hud(), g.showHelp)

	// Panel: roster on top, mission log underneath.
	px := w
	pw := float64(g.width) - w
	logH := float64(g.height) * logShare
	rosterImg := screen.SubImage(image.Rect(int(px), 0, g.width, g.height-int(logH))).(*ebiten.Image)
	snap := g.sess.Snapshot()
	render.DrawRoster(newCanvas(rosterImg, g.face), &snap, px, 0, pw)

	pc := newCanvas(screen, g.face)
	pc.Line(px, 0, px, float64(g.height), 1, render.PanelEdge)
	render.DrawLog(pc, "MISSION LOG", g.sess.Log.Lines(), px, float64(g.height)-logH, pw, logH)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}
