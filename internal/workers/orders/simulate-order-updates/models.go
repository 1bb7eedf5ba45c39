package simulateorderupdates

import "encoding/json"

type Input struct {
	UserID           string          `json:"userId"`
	NotificationData json.RawMessage `json:"notificationData"`
}

type Output struct {
	RunID     string   `json:"simulationRunId"`
	OrderID   string   `json:"orderId"`
	StartedAt string   `json:"startedAt"` // ISO 8601
	Completed bool     `json:"simulationCompleted"`
	Cancelled bool     `json:"simulationCancelled"`
	Fired     []string `json:"firedEvents,omitempty"`
}
