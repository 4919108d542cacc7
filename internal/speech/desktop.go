package speech

import (
	"os"
	"runtime"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/logging"
)

// Desktop shows announcements as desktop notifications.
type Desktop struct {
	Title  string
	logger *zap.Logger
	notify func(title, body string) error
}

// NewDesktop returns a notifier using title for every notification.
func NewDesktop(title string, logger *zap.Logger) *Desktop {
	return &Desktop{
		Title:  title,
		logger: logging.OrNop(logger),
		notify: func(title, body string) error { return beeep.Notify(title, body, "") },
	}
}

// headless reports a Linux session with no display to notify on.
func headless() bool {
	return runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}

func (d *Desktop) Announce(text string) {
	if text == "" || headless() {
		return
	}
	go func() {
		if err := d.notify(d.Title, text); err != nil {
			d.logger.Debug("desktop notification failed", zap.Error(err))
		}
	}()
}
