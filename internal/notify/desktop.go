package notify

import (
	"os"

	"codeberg.org/mutker/sysmond/internal/errors"
	"github.com/gen2brain/beeep"
)

// Desktop delivers through the native desktop notification channel.
// Buttons are not supported by the channel and are dropped.
type Desktop struct {
	// Icon is an optional path to a notification icon.
	Icon string
}

func NewDesktop() *Desktop {
	return &Desktop{}
}

func (d *Desktop) Deliver(n Notification) error {
	errFactory := errors.New()

	var err error
	if n.Urgency == UrgencyCritical {
		err = beeep.Alert(n.Title, n.Message, d.Icon)
	} else {
		err = beeep.Notify(n.Title, n.Message, d.Icon)
	}
	if err != nil {
		return errFactory.Wrap(errors.ErrUnavailable, err)
	}

	return nil
}

func (d *Desktop) Name() string {
	return "desktop"
}

func (d *Desktop) Available() bool {
	// Linux delivery goes over the session bus; without a session there is
	// nothing to deliver to.
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" && os.Getenv("DISPLAY") == "" {
		return false
	}

	return true
}
