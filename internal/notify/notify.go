// Package notify tells external systems that a waybill changed. Delivery is
// best effort: failures are logged and never reach the caller.
package notify

import (
	"context"
	"log"

	"waybilltrack/backend/internal/domain"
)

type Sink interface {
	Name() string
	Send(ctx context.Context, event domain.WaybillEvent) error
}

type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	active := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &Dispatcher{sinks: active}
}

// Publish sends event to every sink in order. It does not retry.
func (d *Dispatcher) Publish(ctx context.Context, event domain.WaybillEvent) {
	for _, sink := range d.sinks {
		if err := sink.Send(ctx, event); err != nil {
			log.Printf("[notify] ERROR: %s delivery failed for waybill %s (%s): %v", sink.Name(), event.IncomingID, event.Event, err)
		}
	}
}

func (d *Dispatcher) Sinks() int {
	return len(d.sinks)
}
