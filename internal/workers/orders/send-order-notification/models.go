package sendordernotification

import "encoding/json"

// Input is read from the job variables.
type Input struct {
	Event            string          `json:"event"`
	UserID           string          `json:"userId"`
	NotificationData json.RawMessage `json:"notificationData"`
}

// Output is merged back into the process instance.
type Output struct {
	Event        string   `json:"event"`
	OrderID      string   `json:"orderId"`
	Suppressed   bool     `json:"suppressed"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	RecordIDs    []string `json:"recordIds"`
	Skipped      []string `json:"skipped,omitempty"` // "<channel>:<reason>"
	DispatchedAt string   `json:"dispatchedAt"`      // ISO 8601
}
