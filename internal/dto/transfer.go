package dto

import (
	"time"

	"github.com/ccc-church/evaluation-api/internal/models"
)

// Import modes accepted by the bulk import endpoint.
const (
	ImportModeAdd     = "add"
	ImportModeReplace = "replace"
)

// PurgeConfirmationPhrase must be typed verbatim to purge the store.
const PurgeConfirmationPhrase = "DELETE ALL"

// BackupMetadata describes a backup archive.
type BackupMetadata struct {
	BackupDate   time.Time `json:"backupDate"`
	TotalRecords int       `json:"totalRecords"`
	AppVersion   string    `json:"appVersion"`
	Format       string    `json:"format"`
}

// BackupPayload is the JSON backup archive: metadata plus every
// response in full.
type BackupPayload struct {
	Metadata  BackupMetadata    `json:"metadata"`
	Responses []models.Response `json:"responses"`
}

// ImportResult summarises a completed import.
type ImportResult struct {
	Mode          string `json:"mode"`
	ImportedCount int    `json:"importedCount"`
	SkippedCount  int    `json:"skippedCount"`
	DeletedCount  int    `json:"deletedCount,omitempty"`
}

// PurgeRequest carries the double confirmation for deleting all data.
type PurgeRequest struct {
	Confirmation string `json:"confirmText" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// PurgeResult reports how many records were removed.
type PurgeResult struct {
	DeletedCount int       `json:"deletedCount"`
	PurgedAt     time.Time `json:"purgedAt"`
}
