package sync

import "time"

const (
	EventCreate = "catalog.create"
	EventUpdate = "catalog.update"
	EventDelete = "catalog.delete"
	EventImport = "catalog.import"
)

type CatalogEvent struct {
	Type         string    `json:"type"`
	ID           int       `json:"id,omitempty"`
	InternalCode string    `json:"internal_code,omitempty"`
	Count        int       `json:"count,omitempty"` // rows inserted by an import
	At           time.Time `json:"at"`
}
