// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	configDomain "github.com/allisson/controlplane/internal/configstore/domain"
)

// ConfigEntryResponse represents a config entry in API responses.
// The value is base64-encoded in JSON.
type ConfigEntryResponse struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Environment string    `json:"environment"`
	Value       []byte    `json:"value"`
	Version     uint      `json:"version"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConfigRevisionResponse represents a single entry in a config entry's history.
type ConfigRevisionResponse struct {
	Version   uint      `json:"version"`
	Value     []byte    `json:"value,omitempty"`
	Deleted   bool      `json:"deleted"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// ConfigHistoryResponse represents the full append-only history of a config entry.
type ConfigHistoryResponse struct {
	Key         string                   `json:"key"`
	Environment string                   `json:"environment"`
	Revisions   []ConfigRevisionResponse `json:"revisions"`
}

// ListConfigsResponse represents a paginated list of config entries in API responses.
type ListConfigsResponse struct {
	Data []ConfigEntryResponse `json:"data"`
}

// MapConfigEntryToResponse converts a domain config entry to an API response.
func MapConfigEntryToResponse(entry *configDomain.ConfigEntry) ConfigEntryResponse {
	return ConfigEntryResponse{
		ID:          entry.ID.String(),
		Key:         entry.Key,
		Environment: entry.Environment,
		Value:       entry.Value,
		Version:     entry.Version,
		CreatedBy:   entry.CreatedBy,
		UpdatedBy:   entry.UpdatedBy,
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
}

// MapRevisionsToHistoryResponse converts a revision slice to a history response.
func MapRevisionsToHistoryResponse(
	key, environment string,
	revisions []*configDomain.ConfigRevision,
) ConfigHistoryResponse {
	data := make([]ConfigRevisionResponse, 0, len(revisions))
	for _, revision := range revisions {
		data = append(data, ConfigRevisionResponse{
			Version:   revision.Version,
			Value:     revision.Value,
			Deleted:   revision.Deleted,
			ChangedBy: revision.ChangedBy,
			ChangedAt: revision.ChangedAt,
		})
	}

	return ConfigHistoryResponse{
		Key:         key,
		Environment: environment,
		Revisions:   data,
	}
}

// MapConfigEntriesToListResponse converts a slice of domain entries to a list response.
func MapConfigEntriesToListResponse(entries []*configDomain.ConfigEntry) ListConfigsResponse {
	data := make([]ConfigEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, MapConfigEntryToResponse(entry))
	}

	return ListConfigsResponse{
		Data: data,
	}
}
