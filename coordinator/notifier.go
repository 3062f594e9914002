package coordinator

import (
	"coursehub/logger"
	"coursehub/ordering"
)

// Notifier surfaces outcomes to the user. Delivery is best effort.
type Notifier interface {
	Notify(res ordering.Result)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(res ordering.Result)

func (f NotifierFunc) Notify(res ordering.Result) { f(res) }

// LogNotifier writes outcomes to the application log.
type LogNotifier struct {
	Log *logger.Logger
}

func (n LogNotifier) Notify(res ordering.Result) {
	if res.OK() {
		n.Log.Info(res.Message, "status", res.Status)
		return
	}
	n.Log.Warn(res.Message, "status", res.Status, "kind", res.Kind)
}
