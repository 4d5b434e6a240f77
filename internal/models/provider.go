// Package models defines the core domain entities for the bettips service.
// These models represent normalized fixtures and leagues, the odds attached to them,
// and the BTTS picks derived from those odds.
//
// Terminology:
//   - Provider: an external sports-data vendor with its own JSON schema.
//   - Fixture: a single scheduled, in-progress or finished match.
//   - BTTS: "Both Teams To Score", the market the picks are ranked on.
package models

import (
	"fmt"
	"strings"
)

// Provider identifies a sports-data vendor.
type Provider string

const (
	ProviderSportmonks Provider = "sportmonks"
	ProviderTheOddsAPI Provider = "theOddsApi"
)

// AllProviders returns the fixed list of supported providers in display order.
func AllProviders() []Provider {
	return []Provider{ProviderSportmonks, ProviderTheOddsAPI}
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	for _, known := range AllProviders() {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProvider converts a provider name into a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.TrimSpace(name))
	if !p.Valid() {
		return "", fmt.Errorf("provider %q is not supported", name)
	}
	return p, nil
}

// Sport selects which competition family a fetch targets.
type Sport string

const (
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportBaseball   Sport = "baseball"
)

// ParseSport converts a sport name into a Sport. An empty name means football.
func ParseSport(name string) (Sport, error) {
	switch Sport(strings.ToLower(strings.TrimSpace(name))) {
	case "", SportFootball, "soccer":
		return SportFootball, nil
	case SportBasketball:
		return SportBasketball, nil
	case SportBaseball:
		return SportBaseball, nil
	}
	return "", fmt.Errorf("sport %q is not supported", name)
}
