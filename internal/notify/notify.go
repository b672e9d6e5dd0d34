package notify

// Urgency is the delivery priority of a notification.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// LogLevel maps urgency onto the audit-log level written for
// notification-originated lines.
func (u Urgency) LogLevel() string {
	if u == UrgencyCritical {
		return "CRITICAL"
	}

	return "INFO"
}

// Button is an optional action attached to a notification. Backends that
// cannot render buttons drop them.
type Button struct {
	Label   string
	OnClick func()
}

// Notification is one message to deliver.
type Notification struct {
	Title   string
	Message string
	Urgency Urgency
	Buttons []Button
}

// Delivery is the notification-delivery capability. Deliver is
// fire-and-forget: one attempt per call, no retry, and a failure must never
// take down the caller.
type Delivery interface {
	Deliver(n Notification) error

	// Name identifies the backend (e.g. "desktop", "log").
	Name() string

	// Available reports whether the backend can be used in the current
	// environment.
	Available() bool
}
