package model

import (
	"fmt"
	"time"
)

// obsDateFormats lists the accepted observing date spellings, most precise
// first.
var obsDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
	"2006-01-02",
}

// ParseObsDate parses an observing date in the site timezone. Times may be
// given to second, minute or hour precision, or as a bare date.
func ParseObsDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range obsDateFormats {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable observing date %q, want YYYY-MM-DD[ HH[:MM[:SS]]]", s)
}
