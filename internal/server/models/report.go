// Package models defines relay data models persisted in the database.
package models

import "time"

// Report is one image report received by the relay.
type Report struct {
	ID      string
	ImageID string
	// UserID and Username identify the reporting Nekos API account.
	UserID   string
	Username string
	Message  string
	// Delivered is set once the webhook accepted the report.
	Delivered bool
	CreatedAt time.Time
}
