package booking

import "time"

// SyncResult is the outcome of one delivery attempt: Success or Failure.
type SyncResult interface {
	isSyncResult()
}

// Success means the booking system accepted the submission.
type Success struct{}

// Failure carries the reason a submission was not accepted.
type Failure struct {
	Reason string
}

func (Success) isSyncResult() {}
func (Failure) isSyncResult() {}

// Outcome flattens r into a success flag and a failure reason.
func Outcome(r SyncResult) (bool, string) {
	switch v := r.(type) {
	case Success:
		return true, ""
	case Failure:
		return false, v.Reason
	default:
		return false, "unknown sync result"
	}
}

// SessionPayload is the body of a completed-session submission. Durations
// are milliseconds; consumables are raw quantities, pricing is done remotely.
type SessionPayload struct {
	PropertyID     string         `json:"propertyId"`
	RecordID       string         `json:"recordId,omitempty"`
	Duration       int64          `json:"duration"`
	HelperDuration int64          `json:"helperDuration"`
	Consumables    map[string]int `json:"consumables"`
}

// ReportPayload is the body of a lost property or maintenance report.
type ReportPayload struct {
	ReportID    string         `json:"reportId"`
	Kind        string         `json:"kind"`
	PropertyID  string         `json:"propertyId"`
	RecordID    string         `json:"recordId,omitempty"`
	CleanerID   string         `json:"cleanerId"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	Photos      []PhotoPayload `json:"photos,omitempty"`
}

// PhotoPayload is an inline photo attachment; Data is base64 encoded by encoding/json.
type PhotoPayload struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// apiResponse is the booking system's reply envelope.
type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
