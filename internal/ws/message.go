package ws

import (
	"strings"
	"time"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageAlertCreated      MessageType = "alert.created"
	MessageAlertAcknowledged MessageType = "alert.acknowledged"
	MessageAlertResolved     MessageType = "alert.resolved"
	MessageAlertEscalated    MessageType = "alert.escalated"
	MessageQualitySnapshot   MessageType = "quality.snapshot"
)

// Message is the envelope for all WebSocket messages. Data is a
// *models.Alert for alert messages and a models.QualitySnapshot for
// quality.snapshot.
type Message struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// alertMessageType maps "alerts.alert.created" to "alert.created".
func alertMessageType(topic string) MessageType {
	return MessageType(strings.TrimPrefix(topic, "alerts."))
}
