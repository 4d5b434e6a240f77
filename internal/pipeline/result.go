package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// Result is what every pipeline operation returns instead of a routine error.
// Kind is KindNone on success and KindMissingData when the provider simply had
// nothing; both leave Err nil. Presentation code decides what to show.
type Result struct {
	RunID      string              `json:"run_id"`
	Provider   models.Provider     `json:"provider"`
	Generation uint64              `json:"generation"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Leagues    []models.League     `json:"leagues,omitempty"`
	Picks      []models.BTTSGame   `json:"picks,omitempty"`
	Player     *models.PlayerStat  `json:"player,omitempty"`
	Kind       sportsapi.ErrorKind `json:"error_kind,omitempty"`
	Message    string              `json:"message,omitempty"`
	Mock       bool                `json:"mock,omitempty"`

	err error
}

// Err returns the underlying failure. Empty data is not a failure.
func (r Result) Err() error {
	switch r.Kind {
	case sportsapi.KindNone, sportsapi.KindMissingData:
		return nil
	}
	if r.err == nil {
		return sportsapi.NewError(r.Kind, "pipeline", errors.New(r.Message))
	}
	return r.err
}

// Failed reports whether the operation hit an error other than empty data.
func (r Result) Failed() bool {
	return r.Err() != nil
}

// Empty reports whether the result carries no fixtures, picks or player.
func (r Result) Empty() bool {
	return len(r.Leagues) == 0 && len(r.Picks) == 0 && r.Player == nil
}

// WithMockFallback replaces failed or credential-less pick results with the
// sample picks. Empty provider data is left alone.
func (r Result) WithMockFallback() Result {
	if !r.Failed() || len(r.Picks) > 0 {
		return r
	}
	r.Picks = MockPicks()
	r.Mock = true
	return r
}

func (r *Result) fail(err error) {
	r.Kind = sportsapi.KindOf(err)
	r.err = err
	r.Message = userMessage(r.Kind, r.Provider)
}

func (r *Result) empty(what string) {
	r.Kind = sportsapi.KindMissingData
	r.Message = fmt.Sprintf("No %s available.", what)
}

func userMessage(kind sportsapi.ErrorKind, provider models.Provider) string {
	switch kind {
	case sportsapi.KindNetwork:
		return fmt.Sprintf("Unable to reach %s. Please try again later.", provider)
	case sportsapi.KindMalformedResponse:
		return fmt.Sprintf("%s returned an unexpected response.", provider)
	case sportsapi.KindMissingCredential:
		return fmt.Sprintf("API token for %s is not configured.", provider)
	case sportsapi.KindMissingData:
		return "No fixtures available."
	case sportsapi.KindUnsupportedProvider:
		return fmt.Sprintf("Provider %s is not supported.", provider)
	}
	return ""
}
