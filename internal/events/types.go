// Package events provides an in-process event bus for holdings and sync
// notifications.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// EstimatesUpdated fires after a bulk estimate sync wrote at least one overlay
	EstimatesUpdated EventType = "ESTIMATES_UPDATED"
	// HistorySynced fires when new confirmed NAV records were stored for a fund
	HistorySynced EventType = "HISTORY_SYNCED"
	// HoldingsChanged fires on create, update, delete and import
	HoldingsChanged EventType = "HOLDINGS_CHANGED"
)

// AllTypes lists every event type the bus carries
var AllTypes = []EventType{
	EstimatesUpdated,
	HistorySynced,
	HoldingsChanged,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Module    string                 `json:"module"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
