package domain

import "time"

// Organization is the tenant boundary. Tickets, staff, knowledge passages and
// notifications never cross it.
type Organization struct {
	ID        string
	Name      string
	Slug      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
