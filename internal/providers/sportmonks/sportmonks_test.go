package sportmonks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rewired-gh/bettips/internal/btts"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

type fakeGetter struct {
	body     string
	err      error
	requests []sportsapi.Request
}

func (f *fakeGetter) Get(_ context.Context, req sportsapi.Request) ([]byte, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *fakeGetter) Provider() string { return "sportmonks" }

const liveFixture = `{
	"id": 19135003,
	"starting_at": "2025-04-27 15:30:00",
	"state_id": 2,
	"state": {"id": 2, "state": "INPLAY_1ST_HALF", "short_name": "1st"},
	"league": {"id": 8, "name": "Premier League", "image_path": "https://cdn/8.png", "country_id": 462},
	"participants": [
		{"id": 8, "name": "Liverpool", "image_path": "https://cdn/lfc.png", "meta": {"location": "home"}},
		{"id": 6, "name": "Tottenham Hotspur", "meta": {"location": "away"}}
	],
	"scores": [
		{"description": "1ST_HALF", "participant_id": 8, "score": {"goals": 1, "participant": "home"}},
		{"description": "CURRENT", "participant_id": 8, "score": {"goals": 2, "participant": "home"}},
		{"description": "CURRENT", "participant_id": 6, "score": {"goals": 1, "participant": "away"}}
	],
	"periods": [
		{"minutes": 45, "ticking": false},
		{"minutes": 63, "ticking": true}
	],
	"odds": [
		{"id": 1, "market_id": 14, "bookmaker_id": 2, "label": "No", "value": "2.05"},
		{"id": 2, "market_id": 14, "bookmaker_id": 2, "label": "Yes", "value": "1.70"}
	]
}`

func TestNormalizeFixture_Full(t *testing.T) {
	f, err := Normalizer{}.NormalizeFixture(json.RawMessage(liveFixture))
	if err != nil {
		t.Fatalf("NormalizeFixture() error = %v", err)
	}

	if f.ID != "19135003" || f.Provider != models.ProviderSportmonks {
		t.Errorf("unexpected id/provider: %s/%s", f.ID, f.Provider)
	}
	if f.HomeTeam.Name != "Liverpool" || f.HomeTeam.ID != "8" || f.HomeTeam.Logo == "" {
		t.Errorf("unexpected home team: %+v", f.HomeTeam)
	}
	if f.AwayTeam.Name != "Tottenham Hotspur" {
		t.Errorf("unexpected away team: %+v", f.AwayTeam)
	}
	if *f.Score.Home != 2 || *f.Score.Away != 1 {
		t.Errorf("score = %d-%d, want 2-1", *f.Score.Home, *f.Score.Away)
	}
	if f.League.ID != "8" || f.League.Name != "Premier League" || f.League.Country != "462" {
		t.Errorf("unexpected league: %+v", f.League)
	}
	if len(f.Odds) != 2 || f.Odds[1].Market != "Both Teams To Score" || f.Odds[1].Value != "1.70" {
		t.Errorf("unexpected odds: %+v", f.Odds)
	}
	if f.Status.State != models.StateLive || f.Status.Elapsed == nil || *f.Status.Elapsed != 63 {
		t.Errorf("unexpected status: %+v", f.Status)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("normalized fixture invalid: %v", err)
	}
}

func TestNormalizeFixture_StatusFromStateID(t *testing.T) {
	tests := []struct {
		body    string
		state   models.FixtureState
		code    string
		elapsed *int
	}{
		{`{"state_id": 1}`, models.StateUpcoming, StatusScheduled, nil},
		{`{"state_id": 2, "periods": [{"minutes": 12, "ticking": true}]}`, models.StateLive, StatusLive, models.IntPtr(12)},
		{`{"state_id": 3}`, models.StateFinished, StatusFinished, nil},
		{`{"state_id": 5}`, models.StateFinished, StatusFinished, nil},
		{`{"state": {"short_name": "HT"}}`, models.StateLive, StatusLive, nil},
		{`{"state": {"short_name": "PST"}}`, models.StateUpcoming, StatusPostponed, nil},
		{`{"state": {"short_name": "XYZ"}}`, models.StateUpcoming, "XYZ", nil},
		{`{}`, models.StateUpcoming, StatusScheduled, nil},
	}

	for _, tt := range tests {
		f, err := Normalizer{}.NormalizeFixture(json.RawMessage(tt.body))
		if err != nil {
			t.Fatalf("NormalizeFixture(%s) error = %v", tt.body, err)
		}
		if f.Status.State != tt.state || f.Status.Code != tt.code {
			t.Errorf("%s: status = %+v, want %s/%s", tt.body, f.Status, tt.state, tt.code)
		}
		if (f.Status.Elapsed == nil) != (tt.elapsed == nil) ||
			(tt.elapsed != nil && *f.Status.Elapsed != *tt.elapsed) {
			t.Errorf("%s: elapsed = %v, want %v", tt.body, f.Status.Elapsed, tt.elapsed)
		}
	}
}

func TestNormalizeFixture_PlaceholdersAndDefaultScores(t *testing.T) {
	bodies := []string{
		`{"id": 1}`,
		`{"id": 2, "participants": []}`,
		`{"id": 3, "participants": [{"id": 8, "name": "Liverpool", "meta": {"location": "home"}}]}`,
		`{"id": 4, "participants": [{"id": 9, "name": "Neutral", "meta": {}}]}`,
	}

	for _, body := range bodies {
		f, err := Normalizer{}.NormalizeFixture(json.RawMessage(body))
		if err != nil {
			t.Fatalf("NormalizeFixture(%s) error = %v", body, err)
		}
		if f.AwayTeam.Name != models.PlaceholderAwayTeam {
			t.Errorf("%s: away = %q, want placeholder", body, f.AwayTeam.Name)
		}
		if f.HomeTeam.Name == "" {
			t.Errorf("%s: home team name must not be empty", body)
		}
		if f.Score.Home == nil || *f.Score.Home != 0 || f.Score.Away == nil || *f.Score.Away != 0 {
			t.Errorf("%s: scores should default to 0", body)
		}
		if f.League.Name != models.UnknownLeague {
			t.Errorf("%s: league = %q", body, f.League.Name)
		}
		if err := f.Validate(); err != nil {
			t.Errorf("%s: %v", body, err)
		}
	}
}

func TestNormalizeFixture_FirstParticipantWins(t *testing.T) {
	body := `{"participants": [
		{"id": 1, "name": "First", "meta": {"location": "home"}},
		{"id": 2, "name": "Second", "meta": {"location": "home"}}
	]}`
	f, err := Normalizer{}.NormalizeFixture(json.RawMessage(body))
	if err != nil {
		t.Fatal(err)
	}
	if f.HomeTeam.Name != "First" {
		t.Errorf("home = %q, want First", f.HomeTeam.Name)
	}
}

func TestNormalizeFixture_Pure(t *testing.T) {
	raw := json.RawMessage(liveFixture)
	before := string(raw)

	a, err := Normalizer{}.NormalizeFixture(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Normalizer{}.NormalizeFixture(raw)

	if string(raw) != before {
		t.Error("input was modified")
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("same input produced different fixtures")
	}
}

func TestNormalizeFixture_NestedOdds(t *testing.T) {
	body := `{"odds": {"data": [
		{"id": 7, "name": "Both Teams To Score", "bookmaker": {"data": {"id": 2, "name": "bet365"}},
		 "value": [{"label": "Both Teams To Score - Yes", "value": 1.8}, {"label": "No", "value": "2.0"}]},
		{"market_description": "Fulltime Result", "label": "Home", "value": "1.5"}
	]}}`
	f, err := Normalizer{}.NormalizeFixture(json.RawMessage(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Odds) != 3 {
		t.Fatalf("expected 3 flattened entries, got %+v", f.Odds)
	}
	first := f.Odds[0]
	if first.Market != "Both Teams To Score" || first.Bookmaker != "bet365" || first.Value != "1.8" {
		t.Errorf("unexpected nested entry: %+v", first)
	}
	if f.Odds[2].Market != "Fulltime Result" {
		t.Errorf("unexpected flat entry: %+v", f.Odds[2])
	}
}

func TestParseFixtures_RoundOddsShape(t *testing.T) {
	body := `{"data": {"fixtures": {"data": [{
		"id": 19135003,
		"starting_at": "2025-04-27 15:30:00",
		"participants": {"data": [
			{"id": 8, "name": "Liverpool", "meta": {"location": "home"}},
			{"id": 6, "name": "Tottenham Hotspur", "meta": {"location": "away"}}
		]},
		"odds": {"data": [{
			"market": {"name": "Both Teams To Score"},
			"bookmaker": {"name": "bet365"},
			"values": {"data": [
				{"value_id": 1, "value": {"name": "Yes"}, "odds": "1.70"},
				{"value_id": 2, "value": {"name": "No"}, "odds": "2.10"}
			]}
		}]}
	}]}}}`

	fixtures, err := New(&fakeGetter{}, Config{}).ParseFixtures([]byte(body))
	if err != nil {
		t.Fatalf("ParseFixtures() error = %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}

	yes := fixtures[0].Odds[0]
	if yes.Label != "Yes" || yes.Value != "1.70" || yes.ValueID != "1" || yes.Bookmaker != "bet365" {
		t.Errorf("unexpected yes entry: %+v", yes)
	}

	games := btts.Derive(fixtures, nil)
	if len(games) != 1 || games[0].Probability != 59 {
		t.Fatalf("expected one pick at 59, got %+v", games)
	}
	if games[0].Home != "Liverpool" || games[0].Away != "Tottenham Hotspur" {
		t.Errorf("unexpected teams: %+v", games[0])
	}
}

func TestNormalizeFixture_BadOddsEntryKeepsFixture(t *testing.T) {
	body := `{
		"participants": [
			{"id": 8, "name": "Liverpool", "meta": {"location": "home"}},
			{"id": 6, "name": "Tottenham Hotspur", "meta": {"location": "away"}}
		],
		"odds": [
			{"market": "not an object", "label": "Yes", "value": "1.5"},
			{"market_description": "Both Teams To Score", "values": [
				{"value": ["broken"], "odds": {"x": 1}},
				{"value_id": 1, "value": {"name": "Yes"}, "odds": 1.8}
			]}
		]
	}`
	f, err := Normalizer{}.NormalizeFixture(json.RawMessage(body))
	if err != nil {
		t.Fatalf("NormalizeFixture() error = %v", err)
	}
	if f.HomeTeam.Name != "Liverpool" {
		t.Errorf("unexpected home team: %+v", f.HomeTeam)
	}
	if len(f.Odds) != 1 || f.Odds[0].Label != "Yes" || f.Odds[0].Value != "1.8" {
		t.Errorf("expected only the valid outcome, got %+v", f.Odds)
	}
}

func TestNormalizeFixture_Malformed(t *testing.T) {
	_, err := Normalizer{}.NormalizeFixture(json.RawMessage(`{"participants": "nope"}`))
	if sportsapi.KindOf(err) != sportsapi.KindMalformedResponse {
		t.Errorf("expected malformed response, got %v", err)
	}
}

func TestMapStatus(t *testing.T) {
	tests := map[string]string{
		"NS":   StatusScheduled,
		"ft":   StatusFinished,
		"AET":  StatusFinished,
		"SUSP": StatusSuspended,
		"CANC": StatusCancelled,
		"WO":   StatusWalkover,
		"TBA":  "TBA",
	}
	for in, want := range tests {
		if got := MapStatus(in); got != want {
			t.Errorf("MapStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLiveFixtures(t *testing.T) {
	g := &fakeGetter{body: `{"data": [` + liveFixture + `, {"id": 5, "league": {"id": 564, "name": "La Liga"}}]}`}
	src := New(g, Config{})

	leagues, err := src.LiveFixtures(context.Background(), models.SportFootball)
	if err != nil {
		t.Fatalf("LiveFixtures() error = %v", err)
	}
	if len(leagues) != 2 || leagues[0].Name != "Premier League" || len(leagues[0].Fixtures) != 1 {
		t.Errorf("unexpected leagues: %+v", leagues)
	}

	req := g.requests[0]
	if req.Endpoint != "/football/livescores/inplay" || !req.BypassCache {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.Query.Get("include") != defaultLiveInclude {
		t.Errorf("include = %q", req.Query.Get("include"))
	}
}

func TestLiveFixtures_OtherSports(t *testing.T) {
	g := &fakeGetter{}
	leagues, err := New(g, Config{}).LiveFixtures(context.Background(), models.SportBasketball)
	if err != nil || len(leagues) != 0 || len(g.requests) != 0 {
		t.Errorf("basketball should be empty without a request, got %v %v", leagues, err)
	}
}

func TestFixturesByDate(t *testing.T) {
	g := &fakeGetter{body: `{"data": [
		{"id": 8, "name": "Premier League", "country_id": 462, "today": [` + liveFixture + `]},
		{"id": 9, "name": "Championship", "today": []}
	]}`}

	leagues, err := New(g, Config{}).FixturesByDate(context.Background(), models.SportFootball, "2025-04-27")
	if err != nil {
		t.Fatalf("FixturesByDate() error = %v", err)
	}
	if len(leagues) != 1 || leagues[0].ID != "8" || len(leagues[0].Fixtures) != 1 {
		t.Fatalf("unexpected leagues: %+v", leagues)
	}
	if leagues[0].Fixtures[0].League.Name != "Premier League" {
		t.Error("fixtures should carry the parent league")
	}
	if g.requests[0].Endpoint != "/football/leagues/date/2025-04-27" {
		t.Errorf("endpoint = %s", g.requests[0].Endpoint)
	}
}

func TestParseFixtures_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr sportsapi.ErrorKind
	}{
		{"data list", `{"data": [{"id": 1}, {"id": 2}]}`, 2, sportsapi.KindNone},
		{"round", `{"data": {"id": 339269, "fixtures": {"data": [{"id": 1}]}}}`, 1, sportsapi.KindNone},
		{"export", `{"fixtures": [{"id": 1}, {"id": 2}, {"id": 3}]}`, 3, sportsapi.KindNone},
		{"empty", `{"data": []}`, 0, sportsapi.KindMissingData},
		{"absent", `{"meta": {}}`, 0, sportsapi.KindMissingData},
		{"not json", `oops`, 0, sportsapi.KindMalformedResponse},
	}

	src := New(&fakeGetter{}, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixtures, err := src.ParseFixtures([]byte(tt.body))
			if got := sportsapi.KindOf(err); got != tt.wantErr {
				t.Fatalf("KindOf(err) = %v, want %v", got, tt.wantErr)
			}
			if len(fixtures) != tt.want {
				t.Errorf("got %d fixtures, want %d", len(fixtures), tt.want)
			}
		})
	}
}

func TestOddsFixtures_Filters(t *testing.T) {
	g := &fakeGetter{body: `{"data": [` + liveFixture + `]}`}
	src := New(g, Config{BookmakerID: "2"})

	fixtures, err := src.OddsFixtures(context.Background(), "2025-04-27", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}
	req := g.requests[0]
	if req.Query.Get("filters") != "markets:14;bookmakers:2" || !req.BypassCache {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestPlayerStats(t *testing.T) {
	g := &fakeGetter{body: `{"data": {"id": 184798, "display_name": "Mohamed Salah",
		"team": {"id": 8, "name": "Liverpool"}, "stats": [{"season_id": 21646, "goals": 29}]}}`}

	stat, err := New(g, Config{}).PlayerStats(context.Background(), "184798")
	if err != nil {
		t.Fatal(err)
	}
	if stat.PlayerName != "Mohamed Salah" || stat.TeamName != "Liverpool" || stat.TeamID != "8" {
		t.Errorf("unexpected stat: %+v", stat)
	}
	if _, ok := stat.Stats["seasons"]; !ok {
		t.Errorf("season list should be kept, got %+v", stat.Stats)
	}

	g.body = `{"data": null}`
	if _, err := New(g, Config{}).PlayerStats(context.Background(), "1"); !errors.Is(err, sportsapi.ErrMissingData) {
		t.Errorf("expected missing data, got %v", err)
	}
}
