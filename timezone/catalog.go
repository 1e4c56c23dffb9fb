// Package timezone holds the catalog of greeted time zones, the per-zone
// greeting scheduler and the greeting message composer.
package timezone

import (
	"fmt"
	"strings"
	"sync"
	"time"

	// Embedded zone database so the catalog resolves on hosts without zoneinfo.
	_ "time/tzdata"
)

// Zone is a catalog entry: an IANA zone and the name used in greetings.
type Zone struct {
	Location *time.Location
	Name     string // IANA identifier, e.g. "Europe/Berlin"
	Display  string // Human-readable name, e.g. "Berlin"
}

// displayOverrides corrects names the default rule gets wrong.
var displayOverrides = map[string]string{
	"America/Curacao":           "Curaçao",
	"America/Godthab":           "Nuuk",
	"America/Port-au-Prince":    "Port-au-Prince",
	"America/St_Johns":          "St John's",
	"Antarctica/Casey":          "Casey Island",
	"Antarctica/DumontDUrville": "Dumont d'Urville",
	"Atlantic/Canary":           "Canary Islands",
	"Atlantic/Faroe":            "Faroe Islands",
	"Australia/Lord_Howe":       "Lord Howe Island",
	"Europe/Kiev":               "Kyiv",
	"Indian/Christmas":          "Christmas Island",
	"Indian/Cocos":              "Cocos Islands",
	"Pacific/Chatham":           "Chatham Islands",
	"Pacific/Easter":            "Easter Island",
	"Pacific/Enderbury":         "Enderbury Island",
	"Pacific/Gambier":           "Gambier Islands",
	"Pacific/Marquesas":         "Marquesas Islands",
}

// DisplayName returns the greeting name for an IANA zone identifier.
// Without an override it is the last path segment with underscores as spaces.
func DisplayName(name string) string {
	if display, ok := displayOverrides[name]; ok {
		return display
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}

// NewZones resolves the given zone identifiers in order.
func NewZones(names []string) ([]Zone, error) {
	zones := make([]Zone, 0, len(names))
	for _, name := range names {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("load location %q: %w", name, err)
		}
		zones = append(zones, Zone{
			Location: loc,
			Name:     name,
			Display:  DisplayName(name),
		})
	}
	return zones, nil
}

var catalog = sync.OnceValue(func() []Zone {
	zones, err := NewZones(zoneNames)
	if err != nil {
		// Unreachable with the embedded tzdata.
		panic(err)
	}
	return zones
})

// Zones returns the fixed catalog of greeted zones in catalog order.
// The returned slice is a copy.
func Zones() []Zone {
	zones := catalog()
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}
