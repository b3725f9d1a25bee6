package console

import (
	"sync"

	"github.com/richinsley/goglitch/logger"
	"golang.design/x/clipboard"
)

// Clipboard supplies text for paste.
type Clipboard interface {
	ReadText() (string, bool)
}

// SystemClipboard reads the desktop clipboard. When the platform clipboard
// is unavailable it reports nothing instead of failing.
type SystemClipboard struct {
	once sync.Once
	ok   bool
}

func (c *SystemClipboard) ReadText() (string, bool) {
	c.once.Do(func() {
		if err := clipboard.Init(); err != nil {
			logger.Warn("clipboard unavailable: %v", err)
			return
		}
		c.ok = true
	})
	if !c.ok {
		return "", false
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}
