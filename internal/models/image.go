package models

import "time"

// Image is the metadata row for one uploaded photograph. Token is the opaque
// 32-character identifier exposed to clients and embedded as a prefix in
// every derived blob key (original, thumbnail, xlsx export, csv export).
// Tabular holds the cached structured table from the last successful
// extraction, or nil when no table has been extracted.
type Image struct {
	ID         string
	Token      string
	UserID     string
	Filename   string
	NumColumns *int
	Tabular    *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
