package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that logs every event an engine handles.
type EventLogger struct {
	Logger *log.Logger
}

// NewEventLogger creates an EventLogger that writes into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func logs the event before it is handled.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if named, ok := evt.Handler().(Named); ok {
		h.Logger.Printf("%.10f, %s -> %s",
			evt.Time(), reflect.TypeOf(evt), named.Name())
		return
	}

	h.Logger.Printf("%.10f, %s", evt.Time(), reflect.TypeOf(evt))
}
