package flow

import (
	"encoding/json"
	"fmt"
	"sort"

	"identhub/internal/domain"
)

// EventDecoder maps wire event names to constructors of a screen's event type.
type EventDecoder[E any] map[string]func(payload json.RawMessage) (E, error)

// As decodes payload into P and returns it as the event interface E.
// P must implement E.
func As[P any, E any]() func(json.RawMessage) (E, error) {
	return func(payload json.RawMessage) (E, error) {
		var p P
		var zero E
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &p); err != nil {
				return zero, domain.NewAPIError(domain.KindMalformedJSON, &domain.ErrorDetail{Detail: err.Error()})
			}
		}
		e, ok := any(p).(E)
		if !ok {
			return zero, fmt.Errorf("event payload %T is not a %T", p, zero)
		}
		return e, nil
	}
}

// Names returns the event names in stable order.
func (d EventDecoder[E]) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrUnknownEvent is returned by Dispatch for names the screen does not accept.
type ErrUnknownEvent struct {
	Screen string
	Event  string
}

func (e ErrUnknownEvent) Error() string {
	return fmt.Sprintf("screen %s does not accept event %q", e.Screen, e.Event)
}
