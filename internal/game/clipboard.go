package game

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// copyText puts s on the system clipboard. On Linux this needs xclip,
// xsel or wl-clipboard.
func copyText(s string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unsupported on this system")
	}
	if s == "" {
		s = " "
	}
	if err := clipboard.WriteAll(s); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
