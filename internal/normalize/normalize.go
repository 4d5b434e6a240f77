// Package normalize defines the contract every provider normalizer satisfies and
// the helpers shared by them.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// Normalizer turns one provider-specific raw fixture into a models.Fixture.
// Implementations must be pure: the same input always yields the same fixture
// and the raw bytes are never modified.
type Normalizer interface {
	Provider() models.Provider
	NormalizeFixture(raw json.RawMessage) (models.Fixture, error)
}

// All normalizes each raw item. Items that fail to decode are skipped and reported
// through skipped; a malformed element never drops its siblings.
func All(n Normalizer, items []json.RawMessage) (fixtures []models.Fixture, skipped int) {
	fixtures = make([]models.Fixture, 0, len(items))
	for _, item := range items {
		f, err := n.NormalizeFixture(item)
		if err != nil {
			skipped++
			continue
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, skipped
}

// GroupByLeague groups fixtures by league id in order of first appearance.
func GroupByLeague(fixtures []models.Fixture) []models.League {
	index := make(map[string]int)
	leagues := make([]models.League, 0)

	for _, f := range fixtures {
		i, ok := index[f.League.ID]
		if !ok {
			name := f.League.Name
			if name == "" {
				name = models.UnknownLeague
			}
			leagues = append(leagues, models.League{
				ID:      f.League.ID,
				Name:    name,
				Country: f.League.Country,
				Logo:    f.League.Logo,
			})
			i = len(leagues) - 1
			index[f.League.ID] = i
		}
		leagues[i].Fixtures = append(leagues[i].Fixtures, f)
	}

	return leagues
}

// DecodeError classifies a per-fixture decode failure as a malformed response.
func DecodeError(provider models.Provider, err error) error {
	return &sportsapi.Error{
		Kind:     sportsapi.KindMalformedResponse,
		Op:       "normalize fixture",
		Provider: string(provider),
		Err:      fmt.Errorf("decode: %w", err),
	}
}

// TeamName returns name, or the placeholder when the provider left it empty.
func TeamName(name, placeholder string) string {
	if name == "" {
		return placeholder
	}
	return name
}
