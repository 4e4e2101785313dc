// Package events provides event management functionality.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	PriceUpdated     EventType = "PRICE_UPDATED"
	RiskAlert        EventType = "RISK_ALERT"
	PortfolioChanged EventType = "PORTFOLIO_CHANGED"
	ValuesRecorded   EventType = "VALUES_RECORDED"
	BackupCompleted  EventType = "BACKUP_COMPLETED"
	ErrorOccurred    EventType = "ERROR_OCCURRED"
)

// Event is a single emitted event as delivered to subscribers
type Event struct {
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}
