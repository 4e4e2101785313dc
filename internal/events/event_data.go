package events

import (
	"github.com/folioworks/folio/internal/domain"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// Owned is implemented by event data that belongs to a single user's
// portfolio. Data without an owner is system-wide.
type Owned interface {
	Owner() string
}

// VisibleTo reports whether userID may receive the event. An empty userID
// (authentication disabled) sees everything; an authenticated user only
// sees events owned by them.
func VisibleTo(event Event, userID string) bool {
	if userID == "" {
		return true
	}
	owned, ok := event.Data.(Owned)
	return ok && owned.Owner() == userID
}

// PriceUpdatedData contains data for PriceUpdated events
type PriceUpdatedData struct {
	Prices  map[string]float64 `json:"prices"`
	Updated int                `json:"updated"`
	Failed  []string           `json:"failed,omitempty"`
}

// EventType returns the event type for PriceUpdatedData
func (d *PriceUpdatedData) EventType() EventType {
	return PriceUpdated
}

// RiskAlertData contains data for RiskAlert events
type RiskAlertData struct {
	PortfolioID string                      `json:"portfolioId"`
	Alerts      []domain.ConcentrationAlert `json:"alerts"`
	UserID      string                      `json:"-"`
}

// Owner returns the user owning the portfolio
func (d *RiskAlertData) Owner() string {
	return d.UserID
}

// EventType returns the event type for RiskAlertData
func (d *RiskAlertData) EventType() EventType {
	return RiskAlert
}

// PortfolioChangedData contains data for PortfolioChanged events
type PortfolioChangedData struct {
	PortfolioID string `json:"portfolioId"`
	Change      string `json:"change"` // created, deleted, holding_added, holding_removed, target_changed
	HoldingID   string `json:"holdingId,omitempty"`
	UserID      string `json:"-"`
}

// Owner returns the user owning the portfolio
func (d *PortfolioChangedData) Owner() string {
	return d.UserID
}

// EventType returns the event type for PortfolioChangedData
func (d *PortfolioChangedData) EventType() EventType {
	return PortfolioChanged
}

// ValuesRecordedData contains data for ValuesRecorded events
type ValuesRecordedData struct {
	Portfolios int `json:"portfolios"`
}

// EventType returns the event type for ValuesRecordedData
func (d *ValuesRecordedData) EventType() EventType {
	return ValuesRecorded
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"sizeBytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
