// Package model defines the core entities of the enrichment pipeline.
package model

import (
	"strings"
	"time"
)

// Record is one business entity to enrich. It is read from the record
// source and never mutated; enrichment produces an EnrichmentResult.
type Record struct {
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	CUIT      string `json:"cuit,omitempty"`
	LegalName string `json:"legal_name,omitempty"`

	// SequenceNumber is the record's position in the source, used only
	// to write results back to the right row.
	SequenceNumber int `json:"sequence_number"`
}

// Valid reports whether the record can be enqueued for enrichment.
// Records with an empty name are skipped before they reach the slot pool.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Name) != ""
}

// ContactInfo holds contact details discovered for a record. All fields
// are optional; presence drives the status classification.
type ContactInfo struct {
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Empty reports whether no field is set.
func (c ContactInfo) Empty() bool {
	return c.Website == "" && c.Email == "" && c.Phone == "" && c.Address == ""
}

// Merge combines two extraction passes with first-non-empty-wins
// precedence per field. The receiver's Website is always preserved.
func (c ContactInfo) Merge(other ContactInfo) ContactInfo {
	merged := c
	if merged.Email == "" {
		merged.Email = other.Email
	}
	if merged.Phone == "" {
		merged.Phone = other.Phone
	}
	if merged.Address == "" {
		merged.Address = other.Address
	}
	return merged
}

// LocationData holds an optional geolocation lookup result. It augments a
// record but never affects status classification.
type LocationData struct {
	Address   string  `json:"address,omitempty"`
	MapsURL   string  `json:"maps_url,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	PlaceID   string  `json:"place_id,omitempty"`
}

// Status is the terminal outcome of one enrichment attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusPartial Status = "PARTIAL"
	StatusFailed  Status = "FAILED"
)

// Classify applies the outcome rule to a ContactInfo: all of email,
// phone and website present means SUCCESS; at least one present means
// PARTIAL; none means FAILED.
func Classify(c ContactInfo) Status {
	hasEmail := c.Email != ""
	hasPhone := c.Phone != ""
	hasWebsite := c.Website != ""

	switch {
	case hasEmail && hasPhone && hasWebsite:
		return StatusSuccess
	case hasEmail || hasPhone || hasWebsite:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// EnrichmentResult is the outcome of one enrichment attempt for one
// record. Created exactly once per attempt and immutable afterwards.
type EnrichmentResult struct {
	Record      Record        `json:"record"`
	ContactInfo ContactInfo   `json:"contact_info"`
	Location    *LocationData `json:"location,omitempty"`
	Status      Status        `json:"status"`
	ProcessedAt time.Time     `json:"processed_at"`
	Errors      []string      `json:"errors,omitempty"`
}
