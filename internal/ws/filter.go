package ws

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Filter narrows what a single client receives. The zero Filter passes
// every message.
type Filter struct {
	Types       map[MessageType]bool
	MinSeverity models.Severity
}

// ParseFilter reads the "types" (comma separated message types) and
// "min_severity" query parameters of a stream request.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	if raw := q.Get("types"); raw != "" {
		f.Types = make(map[MessageType]bool)
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if !knownType(MessageType(t)) {
				return Filter{}, fmt.Errorf("unknown message type %q", t)
			}
			f.Types[MessageType(t)] = true
		}
	}
	if raw := q.Get("min_severity"); raw != "" {
		sev, err := models.ParseSeverity(raw)
		if err != nil {
			return Filter{}, err
		}
		f.MinSeverity = sev
	}
	return f, nil
}

// Allows reports whether msg passes the filter. The severity floor only
// applies to alert messages.
func (f Filter) Allows(msg Message) bool {
	if len(f.Types) > 0 && !f.Types[msg.Type] {
		return false
	}
	if f.MinSeverity != 0 {
		if alert, ok := msg.Data.(*models.Alert); ok && alert.Severity < f.MinSeverity {
			return false
		}
	}
	return true
}

func knownType(t MessageType) bool {
	switch t {
	case MessageAlertCreated, MessageAlertAcknowledged, MessageAlertResolved,
		MessageAlertEscalated, MessageQualitySnapshot:
		return true
	}
	return false
}
