// Package notify renders notifications and the message cue on the desktop.
package notify

import (
	"io"
	"log"
	"sync"

	"github.com/gen2brain/beeep"

	"client_go/internal/domain"
)

const (
	cueFrequency = 800
	cueMillis    = 100
)

// Desktop implements domain.Notifier and domain.SoundPlayer. Both are best
// effort and run on their own goroutine, since the platform calls can shell
// out or block; failures are logged, never returned.
type Desktop struct {
	Enabled bool
	Sound   bool
	Icon    string
	Logger  *log.Logger

	notify func(title, body, icon string) error
	beep   func(freq float64, millis int) error
	wg     sync.WaitGroup
}

func NewDesktop(enabled, sound bool, logger *log.Logger) *Desktop {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Desktop{
		Enabled: enabled,
		Sound:   sound,
		Logger:  logger,
		notify:  beeep.Notify,
		beep:    beeep.Beep,
	}
}

// Notify raises a desktop notification. The tag is not supported by every
// platform so it only appears in the log.
func (d *Desktop) Notify(n domain.Notification) {
	if !d.Enabled {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.notify(n.Title, n.Body, d.Icon); err != nil {
			d.Logger.Printf("notify: %s (%s): %v", n.Kind, n.Tag, err)
		}
	}()
}

// PlayMessageCue plays a short 800 Hz tone.
func (d *Desktop) PlayMessageCue() {
	if !d.Sound {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.beep(cueFrequency, cueMillis); err != nil {
			d.Logger.Printf("notify: sound: %v", err)
		}
	}()
}

// Wait blocks until dispatched notifications and cues have finished.
func (d *Desktop) Wait() {
	d.wg.Wait()
}
