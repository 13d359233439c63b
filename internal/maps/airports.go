// README: Location support checks; a city is bookable when Google Places finds an airport for it.
package maps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"googlemaps.github.io/maps"
)

// AirportService answers whether a place name is served by an airport.
type AirportService struct {
	client *maps.Client

	mu    sync.RWMutex
	known map[string]bool
}

// NewAirportService creates a new AirportService with the given API key.
// Extra options (a base URL for tests, a rate limit) are passed to the client.
func NewAirportService(apiKey string, opts ...maps.ClientOption) (*AirportService, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &AirportService{client: client, known: make(map[string]bool)}, nil
}

// Supported reports whether a text search for an airport near name finds one.
// Answers are memoised per name for the life of the service.
func (s *AirportService) Supported(ctx context.Context, name string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return false, nil
	}

	s.mu.RLock()
	ok, hit := s.known[key]
	s.mu.RUnlock()
	if hit {
		return ok, nil
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    "airport near " + name,
		Type:     maps.PlaceTypeAirport,
		Language: "en",
	})
	if err != nil {
		return false, fmt.Errorf("places api error: %w", err)
	}

	ok = false
	for _, r := range resp.Results {
		if hasType(r.Types, string(maps.PlaceTypeAirport)) {
			ok = true
			break
		}
	}

	s.mu.Lock()
	s.known[key] = ok
	s.mu.Unlock()
	return ok, nil
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// StaticChecker supports exactly the configured cities, compared case-insensitively.
// An empty list supports everything.
type StaticChecker struct {
	allowed map[string]bool
}

func NewStaticChecker(cities []string) *StaticChecker {
	allowed := make(map[string]bool, len(cities))
	for _, c := range cities {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			allowed[c] = true
		}
	}
	return &StaticChecker{allowed: allowed}
}

func (s *StaticChecker) Supported(_ context.Context, name string) (bool, error) {
	if len(s.allowed) == 0 {
		return true, nil
	}
	return s.allowed[strings.ToLower(strings.TrimSpace(name))], nil
}
