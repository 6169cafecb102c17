// Package models defines the persisted entities of the launch dashboard.
//
// All entity identifiers are opaque strings assigned by the external launch
// source and are globally unique per entity kind.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Launch represents one flight event as reported by the external source.
//
// Success is a tri-state flag: nil means the outcome is unknown, which is
// distinct from a failed launch. Rocket and Pad references are nullable but,
// when set, always point at a row that exists in the store (a real record or
// a placeholder created during synchronization).
type Launch struct {
	bun.BaseModel `bun:"table:launches,alias:l"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name" json:"name"`
	DateUTC     time.Time `bun:"date_utc,nullzero" json:"dateUtc"`
	Success     *bool     `bun:"success" json:"success"`
	Details     string    `bun:"details,type:text" json:"details,omitempty"`
	RocketID    *string   `bun:"rocket_id" json:"-"`
	LaunchPadID *string   `bun:"launch_pad_id" json:"-"`

	Rocket   *Rocket    `bun:"rel:belongs-to,join:rocket_id=id" json:"rocket,omitempty"`
	Pad      *LaunchPad `bun:"rel:belongs-to,join:launch_pad_id=id" json:"launchPad,omitempty"`
	Payloads []*Payload `bun:"rel:has-many,join:id=launch_id" json:"payloads"`
}

// Year returns the calendar year of the launch in the system time zone.
func (l *Launch) Year() int {
	return l.DateUTC.In(time.Local).Year()
}

// Payload is owned by exactly one Launch. Saving a Launch replaces its entire
// owned payload set; the rows are deleted when the owning launch row goes away.
type Payload struct {
	bun.BaseModel `bun:"table:payloads,alias:p"`

	ID       string   `bun:"id,pk" json:"id"`
	LaunchID string   `bun:"launch_id,notnull" json:"-"`
	Name     string   `bun:"name" json:"name,omitempty"`
	Type     string   `bun:"type" json:"type,omitempty"`
	MassKg   *float64 `bun:"mass_kg" json:"massKg,omitempty"`
	Orbit    string   `bun:"orbit" json:"orbit,omitempty"`
	Customer string   `bun:"customer" json:"customer,omitempty"`
}
