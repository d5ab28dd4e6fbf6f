package domain

import "time"

// Team represents a sub-group of staff within an organization.
type Team struct {
	ID             string
	OrganizationID string
	Name           string
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
