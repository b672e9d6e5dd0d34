package notify

import "codeberg.org/mutker/sysmond/internal/logger"

// LogDelivery writes notifications to the process log. It is the fallback
// backend for headless machines where no desktop channel exists.
type LogDelivery struct{}

func NewLogDelivery() *LogDelivery {
	return &LogDelivery{}
}

func (l *LogDelivery) Deliver(n Notification) error {
	event := logger.Info()
	if n.Urgency == UrgencyCritical {
		event = logger.Warn()
	}
	event.
		Str("title", n.Title).
		Str("urgency", n.Urgency.String()).
		Msg(n.Message)

	return nil
}

func (l *LogDelivery) Name() string {
	return "log"
}

func (l *LogDelivery) Available() bool {
	return true
}
