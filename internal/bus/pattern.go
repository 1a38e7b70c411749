package bus

import (
	"strings"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// Pattern describes which tracked events a subscriber wants. Empty slices
// match everything for that dimension; entity and event types combine into
// the "entityType.eventType" routing key, and an entity type alone matches
// any key with that prefix.
type Pattern struct {
	EntityTypes      []string
	EventTypes       []string
	ClientIDs        []string
	Sources          []string
	DetailTypePrefix string
}

// Matches reports whether an event satisfies every constrained dimension.
func (p *Pattern) Matches(event *domain.TrackedEvent) bool {
	if !matchesAny(p.EntityTypes, event.EntityType) {
		return false
	}
	if !matchesAny(p.EventTypes, event.EventType) {
		return false
	}
	if !matchesAny(p.ClientIDs, event.ClientID) {
		return false
	}
	if !matchesAny(p.Sources, event.Source) {
		return false
	}
	if p.DetailTypePrefix != "" && !strings.HasPrefix(event.RoutingKey(), p.DetailTypePrefix) {
		return false
	}
	return true
}

func matchesAny(accepted []string, value string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, a := range accepted {
		if a == value {
			return true
		}
	}
	return false
}
