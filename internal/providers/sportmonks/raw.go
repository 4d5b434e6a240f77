package sportmonks

import (
	"bytes"
	"encoding/json"

	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// list decodes either a bare array or the v2-style {"data": [...]} wrapper.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		var wrapper struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return err
		}
		*l = wrapper.Data
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// lenient decodes like list but skips elements that do not fit T. A value that
// is not a list at all decodes as empty.
type lenient[T any] []T

func (l *lenient[T]) UnmarshalJSON(data []byte) error {
	var items list[json.RawMessage]
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// object decodes either a bare object or a {"data": {...}} wrapper.
type object[T any] struct {
	Value T
	Set   bool
}

func (o *object[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = object[T]{}
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if inner, ok := fields["data"]; ok && len(fields) == 1 {
		data = inner
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = object[T]{Value: v, Set: true}
	return nil
}

type rawFixture struct {
	ID           sportsapi.FlexString `json:"id"`
	Name         string               `json:"name"`
	StartingAt   string               `json:"starting_at"`
	StateID      sportsapi.FlexInt    `json:"state_id"`
	State        object[rawState]     `json:"state"`
	League       object[rawLeague]    `json:"league"`
	Participants list[rawParticipant] `json:"participants"`
	Scores       list[rawScore]       `json:"scores"`
	Periods      list[rawPeriod]      `json:"periods"`
	Odds         lenient[rawOdd]      `json:"odds"`
}

type rawState struct {
	ID        sportsapi.FlexInt `json:"id"`
	State     string            `json:"state"`
	ShortName string            `json:"short_name"`
	Name      string            `json:"name"`
}

type rawCountry struct {
	ID   sportsapi.FlexString `json:"id"`
	Name string               `json:"name"`
}

type rawLeague struct {
	ID        sportsapi.FlexString `json:"id"`
	Name      string               `json:"name"`
	ImagePath string               `json:"image_path"`
	CountryID sportsapi.FlexString `json:"country_id"`
	Country   object[rawCountry]   `json:"country"`
}

type rawParticipant struct {
	ID        sportsapi.FlexString `json:"id"`
	Name      string               `json:"name"`
	ImagePath string               `json:"image_path"`
	Meta      struct {
		Location string `json:"location"`
	} `json:"meta"`
}

type rawScore struct {
	Description   string               `json:"description"`
	ParticipantID sportsapi.FlexString `json:"participant_id"`
	Score         struct {
		Goals       sportsapi.FlexInt `json:"goals"`
		Participant string            `json:"participant"`
	} `json:"score"`
}

type rawPeriod struct {
	Minutes sportsapi.FlexInt `json:"minutes"`
	Ticking bool              `json:"ticking"`
}

// rawOdd covers both the flat v3 odd (one outcome per entry) and the nested
// v2 shape where an entry is a market holding a list of outcomes.
type rawOdd struct {
	ID                sportsapi.FlexString `json:"id"`
	MarketID          sportsapi.FlexInt    `json:"market_id"`
	BookmakerID       sportsapi.FlexString `json:"bookmaker_id"`
	Label             string               `json:"label"`
	Name              string               `json:"name"`
	ValueID           sportsapi.FlexString `json:"value_id"`
	MarketDescription string               `json:"market_description"`
	Market            object[rawNamed]     `json:"market"`
	Bookmaker         object[rawNamed]     `json:"bookmaker"`
	Value             json.RawMessage      `json:"value"`
	Values            lenient[rawOutcome]  `json:"values"`
}

type rawNamed struct {
	ID   sportsapi.FlexString `json:"id"`
	Name string               `json:"name"`
}

// rawOutcome.Value is either the price or, in the round payload, an object
// naming the outcome while the price sits under "odds".
type rawOutcome struct {
	Label   string               `json:"label"`
	Name    string               `json:"name"`
	ValueID sportsapi.FlexString `json:"value_id"`
	Value   json.RawMessage      `json:"value"`
	Odds    sportsapi.FlexString `json:"odds"`
}

type rawLeagueDay struct {
	rawLeague
	Today list[json.RawMessage] `json:"today"`
}

type rawPlayer struct {
	ID          sportsapi.FlexString `json:"id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Team        object[rawNamed]     `json:"team"`
	Stats       json.RawMessage      `json:"stats"`
}
