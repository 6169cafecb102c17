package models

import "github.com/uptrace/bun"

// Placeholder names used when the external source cannot be reached for a
// referenced record. Placeholders keep referential integrity intact so the
// launch referencing them can still be saved.
const (
	PlaceholderRocketName    = "Unknown Rocket"
	PlaceholderRocketType    = "Unknown"
	PlaceholderLaunchPadName = "Unknown Launch Pad"
)

// Rocket is immutable once fetched; the only mutation this system performs is
// never re-writing an existing row (save-if-absent), so a placeholder persists
// until an operator purges it.
type Rocket struct {
	bun.BaseModel `bun:"table:rockets,alias:r"`

	ID      string `bun:"id,pk" json:"id"`
	Name    string `bun:"name" json:"name"`
	Type    string `bun:"type" json:"type,omitempty"`
	Active  bool   `bun:"active" json:"active"`
	Country string `bun:"country" json:"country,omitempty"`
	Company string `bun:"company" json:"company,omitempty"`
}

// IsPlaceholder reports whether the rocket row was synthesized locally.
func (r *Rocket) IsPlaceholder() bool {
	return r.Name == PlaceholderRocketName
}

// NewPlaceholderRocket builds the minimal stand-in row for an unreachable rocket id.
func NewPlaceholderRocket(id string) *Rocket {
	return &Rocket{
		ID:     id,
		Name:   PlaceholderRocketName,
		Type:   PlaceholderRocketType,
		Active: false,
	}
}

// LaunchPad is a launch site. Latitude and longitude may be absent for
// placeholder rows.
type LaunchPad struct {
	bun.BaseModel `bun:"table:launch_pads,alias:lp"`

	ID        string   `bun:"id,pk" json:"id"`
	Name      string   `bun:"name" json:"name"`
	Locality  string   `bun:"locality" json:"locality,omitempty"`
	Region    string   `bun:"region" json:"region,omitempty"`
	Latitude  *float64 `bun:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `bun:"longitude" json:"longitude,omitempty"`
}

// IsPlaceholder reports whether the pad row was synthesized locally.
func (p *LaunchPad) IsPlaceholder() bool {
	return p.Name == PlaceholderLaunchPadName
}

// NewPlaceholderLaunchPad builds the minimal stand-in row for an unreachable pad id.
func NewPlaceholderLaunchPad(id string) *LaunchPad {
	return &LaunchPad{
		ID:   id,
		Name: PlaceholderLaunchPadName,
	}
}
