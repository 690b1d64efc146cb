// internal/dispatch/dispatcher.go
package dispatch

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dekaustubh/matchpoint/internal/events"
	"github.com/dekaustubh/matchpoint/internal/session"
)

// Dispatcher fans a typed event out to a resolved target set through the
// session registry. Delivery is fire-and-forget per target: a target with no
// live connections means "nothing to deliver", and a failed target never
// aborts delivery to the rest. There is no retry, no ack, and no ordering
// guarantee across different targets.
type Dispatcher struct {
	registry *session.Registry
	log      *logrus.Logger
}

func New(registry *session.Registry, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// Dispatch serializes ev once and queues it on every target's connections,
// skipping the actor. It never returns an error: the triggering state change
// is already persisted, so delivery problems are only logged.
func (d *Dispatcher) Dispatch(actor uuid.UUID, targets []uuid.UUID, ev events.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.log.Errorf("dispatch: failed to marshal %s event: %v", ev.Kind(), err)
		return
	}

	sent := 0
	for _, target := range targets {
		if target == actor {
			continue
		}
		if n := d.registry.SendTo(target, payload); n > 0 {
			sent++
		} else {
			d.log.Debugf("dispatch: %s event had no live connections for user %s", ev.Kind(), target)
		}
	}
	d.log.Debugf("dispatch: %s event delivered to %d of %d targets", ev.Kind(), sent, len(targets))
}
