package config

import (
	"fmt"
	"time"
)

// SiteConfig describes the observatory the queue schedules for. The
// coordinates feed the default horizon-model oracle; the timezone anchors
// night boundaries and observation date parsing.
type SiteConfig struct {
	Name string `json:"name"`
	// LatitudeDeg is geodetic latitude in degrees, north positive.
	LatitudeDeg float64 `json:"latitude_deg"`
	// LongitudeDeg is longitude in degrees, east positive.
	LongitudeDeg float64 `json:"longitude_deg"`
	// ElevationM is the height above sea level in meters.
	ElevationM float64 `json:"elevation_m"`
	// Timezone is an IANA zone name such as "Pacific/Honolulu".
	Timezone string `json:"timezone"`
}

// SetDefaults applies sane defaults.
func (c *SiteConfig) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Validate checks coordinate ranges and that the timezone resolves.
func (c SiteConfig) Validate() error {
	if c.LatitudeDeg < -90 || c.LatitudeDeg > 90 {
		return fmt.Errorf("latitude_deg %v out of range [-90, 90]", c.LatitudeDeg)
	}
	if c.LongitudeDeg < -180 || c.LongitudeDeg > 180 {
		return fmt.Errorf("longitude_deg %v out of range [-180, 180]", c.LongitudeDeg)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
