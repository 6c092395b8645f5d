package engine

// NotificationKind distinguishes the two alert styles the presentation
// layer knows how to show.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is emitted once per finished run. The presentation layer owns
// dismissal (the reference alert auto-dismisses after 3 seconds); the engine
// only reports the outcome.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	RunID   string           `json:"run_id"`
}

// Notifier receives run outcome notifications. Implementations must not
// block: Notify is called while the run is settling its final state.
type Notifier interface {
	Notify(notification Notification)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(notification Notification)

// Notify implements the Notifier interface.
func (fn NotifierFunc) Notify(notification Notification) {
	fn(notification)
}

var _ Notifier = (NotifierFunc)(nil)
