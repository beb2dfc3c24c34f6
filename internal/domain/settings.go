package domain

import (
	"time"
)

// Settings holds one user's application settings. It is stored as a single
// document keyed by the owning identity's UID, so a settings record and its
// identity always share an ID.
type Settings struct {
	Budget       float64   `json:"budget" firestore:"budget"`
	Currency     string    `json:"currency" firestore:"currency"`
	NumberFormat string    `json:"numberFormat,omitempty" firestore:"numberFormat,omitempty"`
	AppTitle     string    `json:"appTitle,omitempty" firestore:"appTitle,omitempty"`
	LastActivity time.Time `json:"lastActivity" firestore:"lastActivity"`
}
