// Package geocode defines the geocoding capability consumed by the location
// converter. The actual lookup is an external network service; this package
// only specifies the contract and the token-resolution strategy on top of it.
package geocode

import (
	"context"
	"fmt"
	"strings"
)

// Resolution is the administrative level a geocoding match resolves to.
type Resolution string

const (
	ResolutionCountry Resolution = "Country"
	ResolutionAdmin1  Resolution = "Admin1"
	ResolutionAdmin2  Resolution = "Admin2"
	ResolutionAdmin3  Resolution = "Admin3"
	ResolutionPoint   Resolution = "Point"
)

// Location is one geocoding match.
type Location struct {
	Name       string
	Country    string
	Admin1     string
	Admin2     string
	Locality   string
	Latitude   float64
	Longitude  float64
	Resolution Resolution
}

// Geocoder is the pluggable lookup capability. Suggest returns every match
// for the query at the requested resolution.
type Geocoder interface {
	Suggest(ctx context.Context, query string, resolution Resolution) ([]Location, error)
}

// NoMatchError reports that no strategy produced a match for the tokens.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no geocoding match for %q", e.Query)
}

// AmbiguousError reports that a strategy produced more than one match.
type AmbiguousError struct {
	Query      string
	Resolution Resolution
	Matches    int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous geocoding result for %q at %s: %d matches", e.Query, e.Resolution, e.Matches)
}

// Resolve disambiguates 1-3 free-text tokens (locality, admin region,
// country) by trying resolution-specific strategies in precedence order. A
// strategy with exactly one match wins; more than one match is ambiguous and
// stops the search.
func Resolve(ctx context.Context, g Geocoder, tokens []string) (Location, error) {
	trimmed := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if t := strings.TrimSpace(token); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 || len(trimmed) > 3 {
		return Location{}, fmt.Errorf("geocode: expected 1-3 location tokens, got %d", len(trimmed))
	}

	var strategies []Resolution
	switch len(trimmed) {
	case 1:
		strategies = []Resolution{ResolutionCountry, ResolutionAdmin1, ResolutionAdmin2, ResolutionPoint}
	case 2:
		strategies = []Resolution{ResolutionAdmin1, ResolutionAdmin2, ResolutionPoint}
	case 3:
		strategies = []Resolution{ResolutionAdmin2, ResolutionAdmin3, ResolutionPoint}
	}

	query := strings.Join(trimmed, ", ")
	for _, resolution := range strategies {
		matches, err := g.Suggest(ctx, query, resolution)
		if err != nil {
			return Location{}, err
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return Location{}, &AmbiguousError{Query: query, Resolution: resolution, Matches: len(matches)}
		}
	}
	return Location{}, &NoMatchError{Query: query}
}
