package theoddsapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

type fakeGetter struct {
	body     string
	requests []sportsapi.Request
}

func (f *fakeGetter) Get(_ context.Context, req sportsapi.Request) ([]byte, error) {
	f.requests = append(f.requests, req)
	return []byte(f.body), nil
}

func (f *fakeGetter) Provider() string { return "theOddsApi" }

const bttsEvent = `{
	"id": "e912304de2b2ce35b473ce2ecd3d1502",
	"sport_key": "soccer_epl",
	"sport_title": "EPL",
	"commence_time": "2025-04-26T14:00:00Z",
	"home_team": "Brighton and Hove Albion",
	"away_team": "West Ham United",
	"bookmakers": [
		{"key": "williamhill", "title": "William Hill", "markets": [
			{"key": "btts", "outcomes": [{"name": "Yes", "price": 1.66}, {"name": "No", "price": 2.1}]}
		]},
		{"key": "paddypower", "title": "Paddy Power", "markets": [
			{"key": "btts", "outcomes": [{"name": "Yes", "price": 1.62}]}
		]}
	]
}`

func TestNormalizeFixture(t *testing.T) {
	f, err := Normalizer{}.NormalizeFixture(json.RawMessage(bttsEvent))
	if err != nil {
		t.Fatalf("NormalizeFixture() error = %v", err)
	}
	if f.HomeTeam.ID != "Brighton and Hove Albion" || f.HomeTeam.Name != f.HomeTeam.ID {
		t.Errorf("team names should double as ids: %+v", f.HomeTeam)
	}
	if f.League.ID != "soccer_epl" || f.League.Name != "EPL" {
		t.Errorf("unexpected league: %+v", f.League)
	}
	if f.Status.State != models.StateUpcoming || f.Score.Home != nil || f.Score.Away != nil {
		t.Errorf("event without scores should be upcoming with nil scores: %+v %+v", f.Status, f.Score)
	}
	if len(f.Odds) != 3 {
		t.Fatalf("expected 3 odds entries, got %d", len(f.Odds))
	}
	if f.Odds[0].Market != "Both Teams To Score" || f.Odds[0].Bookmaker != "William Hill" || f.Odds[0].Value != "1.66" {
		t.Errorf("unexpected first entry: %+v", f.Odds[0])
	}
}

func TestNormalizeFixture_Status(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		state models.FixtureState
		home  *int
	}{
		{"completed", `{"home_team":"A","away_team":"B","completed":true,"scores":[{"name":"A","score":"3"},{"name":"B","score":"1"}]}`, models.StateFinished, models.IntPtr(3)},
		{"in play", `{"home_team":"A","away_team":"B","completed":false,"scores":[{"name":"A","score":"0"}]}`, models.StateLive, models.IntPtr(0)},
		{"not started", `{"home_team":"A","away_team":"B","completed":false,"scores":null}`, models.StateUpcoming, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Normalizer{}.NormalizeFixture(json.RawMessage(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if f.Status.State != tt.state {
				t.Errorf("state = %s, want %s", f.Status.State, tt.state)
			}
			if (f.Score.Home == nil) != (tt.home == nil) || (tt.home != nil && *f.Score.Home != *tt.home) {
				t.Errorf("home score = %v, want %v", f.Score.Home, tt.home)
			}
		})
	}
}

func TestNormalizeFixture_Placeholders(t *testing.T) {
	f, err := Normalizer{}.NormalizeFixture(json.RawMessage(`{"id":"x","sport_key":"basketball_nba"}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.HomeTeam.Name != models.PlaceholderHomeTeam || f.AwayTeam.Name != models.PlaceholderAwayTeam {
		t.Errorf("expected placeholders, got %q / %q", f.HomeTeam.Name, f.AwayTeam.Name)
	}
	if f.League.Name != "NBA" {
		t.Errorf("league = %q, want NBA", f.League.Name)
	}
}

func TestFixturesByDate(t *testing.T) {
	g := &fakeGetter{body: `[` + bttsEvent + `,
		{"id":"other","sport_key":"soccer_epl","commence_time":"2025-04-27T23:30:00-02:00","home_team":"C","away_team":"D"},
		{"id":"bad","commence_time":"soon","home_team":"E","away_team":"F"}]`}
	src := New(g, Config{})

	leagues, err := src.FixturesByDate(context.Background(), models.SportFootball, "2025-04-26")
	if err != nil {
		t.Fatal(err)
	}
	if len(leagues) != 1 || len(leagues[0].Fixtures) != 1 || leagues[0].Fixtures[0].ID != "e912304de2b2ce35b473ce2ecd3d1502" {
		t.Fatalf("unexpected leagues: %+v", leagues)
	}

	leagues, _ = src.FixturesByDate(context.Background(), models.SportFootball, "2025-04-28")
	if len(leagues) != 1 || leagues[0].Fixtures[0].ID != "other" {
		t.Errorf("offset start time should be compared in UTC: %+v", leagues)
	}

	req := g.requests[0]
	if req.Endpoint != "/sports/soccer/odds" || req.Query.Get("markets") != "h2h" || req.Query.Get("regions") != "uk,eu" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestLiveFixtures(t *testing.T) {
	g := &fakeGetter{body: `[
		{"id":"1","sport_key":"basketball_nba","home_team":"A","away_team":"B","completed":false,"scores":[{"name":"A","score":"54"},{"name":"B","score":"50"}]},
		{"id":"2","sport_key":"basketball_nba","home_team":"C","away_team":"D","completed":true,"scores":[{"name":"C","score":"101"}]},
		{"id":"3","sport_key":"basketball_nba","home_team":"E","away_team":"F","completed":false,"scores":null}
	]`}

	leagues, err := New(g, Config{}).LiveFixtures(context.Background(), models.SportBasketball)
	if err != nil {
		t.Fatal(err)
	}
	if len(leagues) != 1 || len(leagues[0].Fixtures) != 1 || leagues[0].Fixtures[0].ID != "1" {
		t.Fatalf("unexpected leagues: %+v", leagues)
	}
	if g.requests[0].Endpoint != "/sports/basketball_nba/scores" || !g.requests[0].BypassCache {
		t.Errorf("unexpected request: %+v", g.requests[0])
	}
}

func TestOddsFixtures(t *testing.T) {
	g := &fakeGetter{body: `[` + bttsEvent + `]`}
	fixtures, err := New(g, Config{Regions: "uk"}).OddsFixtures(context.Background(), "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}
	q := g.requests[0].Query
	if q.Get("markets") != BTTSMarketKey || q.Get("oddsFormat") != "decimal" || q.Get("regions") != "uk" {
		t.Errorf("unexpected query: %v", q)
	}
}

func TestParseFixtures_Empty(t *testing.T) {
	src := New(&fakeGetter{}, Config{})
	for _, body := range []string{`[]`, `{"data": []}`, `{"message": "ok"}`} {
		_, err := src.ParseFixtures([]byte(body))
		if !sportsapi.IsEmpty(err) {
			t.Errorf("%s: expected missing data, got %v", body, err)
		}
	}
}

func TestPlayerStatsPlaceholder(t *testing.T) {
	g := &fakeGetter{}
	stat, err := New(g, Config{}).PlayerStats(context.Background(), "42")
	if err != nil {
		t.Fatal(err)
	}
	if stat.PlayerID != "42" || stat.PlayerName != "Player information not available" {
		t.Errorf("unexpected placeholder: %+v", stat)
	}
	if len(g.requests) != 0 {
		t.Error("placeholder must not hit the API")
	}
}
