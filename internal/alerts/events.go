package alerts

// Event topics published by the alerts module. The payload is *models.Alert.
const (
	TopicAlertCreated      = "alerts.alert.created"
	TopicAlertAcknowledged = "alerts.alert.acknowledged"
	TopicAlertResolved     = "alerts.alert.resolved"
	TopicAlertEscalated    = "alerts.alert.escalated"
)
