package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/pipeline"
	"github.com/rewired-gh/bettips/internal/refresher"
	"github.com/rewired-gh/bettips/internal/selector"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

type fakePipeline struct {
	picks    pipeline.Result
	leagues  pipeline.Result
	player   pipeline.Result
	err      error
	lastOpts pipeline.PickOptions
	calls    int
}

func (f *fakePipeline) LiveFixtures(_ context.Context, _ models.Sport) (pipeline.Result, error) {
	f.calls++
	return f.leagues, f.err
}

func (f *fakePipeline) FixturesByDate(_ context.Context, _ models.Sport, _ string) (pipeline.Result, error) {
	f.calls++
	return f.leagues, f.err
}

func (f *fakePipeline) BTTSPicks(_ context.Context, opts pipeline.PickOptions) (pipeline.Result, error) {
	f.calls++
	f.lastOpts = opts
	return f.picks, f.err
}

func (f *fakePipeline) PlayerStats(_ context.Context, _ string) (pipeline.Result, error) {
	f.calls++
	return f.player, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type fakeReplier struct{}

func (fakeReplier) Reply(_ context.Context, msg string) string { return "echo: " + msg }

func newTestServer(t *testing.T, p *fakePipeline, board *refresher.Board, mock bool) (http.Handler, *selector.Selector) {
	t.Helper()
	sel, err := selector.New(context.Background(), nil, models.ProviderSportmonks)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Config{UseMockFallback: mock}, Deps{
		Pipeline:  p,
		Selector:  sel,
		Board:     board,
		Assistant: fakeReplier{},
	})
	return srv.Handler(), sel
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, &fakePipeline{}, nil, false)
	rec := do(t, h, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestSwitchProvider(t *testing.T) {
	h, sel := newTestServer(t, &fakePipeline{}, nil, false)

	rec := do(t, h, "PUT", "/api/v1/providers/active", `{"provider":"theOddsApi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if sel.Active() != models.ProviderTheOddsAPI {
		t.Errorf("provider not switched: %s", sel.Active())
	}

	rec = do(t, h, "PUT", "/api/v1/providers/active", `{"provider":"espn"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported provider status = %d", rec.Code)
	}
	if sel.Active() != models.ProviderTheOddsAPI {
		t.Error("failed switch must keep the previous provider")
	}

	rec = do(t, h, "GET", "/api/v1/providers", "")
	var body struct {
		Active    string   `json:"active"`
		Available []string `json:"available"`
	}
	decode(t, rec, &body)
	if body.Active != "theOddsApi" || len(body.Available) != 2 {
		t.Errorf("unexpected providers body: %+v", body)
	}
}

func TestBTTSPicksQuery(t *testing.T) {
	p := &fakePipeline{picks: pipeline.Result{Picks: []models.BTTSGame{{Home: "Liverpool", Away: "Tottenham Hotspur", Probability: 59}}}}
	h, _ := newTestServer(t, p, nil, false)

	rec := do(t, h, "GET", "/api/v1/btts?min_probability=55&date=2025-04-27&refresh=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if p.lastOpts.MinProbability == nil || *p.lastOpts.MinProbability != 55 || p.lastOpts.Date != "2025-04-27" || !p.lastOpts.Refresh {
		t.Errorf("options not passed through: %+v", p.lastOpts)
	}

	for _, target := range []string{"/api/v1/btts?min_probability=abc", "/api/v1/btts?min_probability=101", "/api/v1/btts?date=27-04-2025"} {
		if rec := do(t, h, "GET", target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestBTTSPicksFailure(t *testing.T) {
	failed := pipeline.Result{Provider: models.ProviderSportmonks, Kind: sportsapi.KindNetwork, Message: "Unable to reach sportmonks."}

	h, _ := newTestServer(t, &fakePipeline{picks: failed}, nil, false)
	rec := do(t, h, "GET", "/api/v1/btts", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("network failure status = %d, want 502", rec.Code)
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["error_kind"] != "network_error" {
		t.Errorf("error kind not reported: %v", body)
	}

	h, _ = newTestServer(t, &fakePipeline{picks: failed}, nil, true)
	rec = do(t, h, "GET", "/api/v1/btts", "")
	var res pipeline.Result
	decode(t, rec, &res)
	if rec.Code != http.StatusOK || !res.Mock || len(res.Picks) != 4 {
		t.Errorf("mock fallback not applied: %d %+v", rec.Code, res)
	}
}

func TestEmptyIsOK(t *testing.T) {
	p := &fakePipeline{leagues: pipeline.Result{Kind: sportsapi.KindMissingData, Message: "No fixtures available."}}
	h, _ := newTestServer(t, p, nil, false)

	rec := do(t, h, "GET", "/api/v1/fixtures?date=2025-04-27&sport=basketball", "")
	if rec.Code != http.StatusOK {
		t.Errorf("empty data status = %d, want 200", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/v1/fixtures/live?sport=curling", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown sport status = %d", rec.Code)
	}
}

func TestUnsupportedProviderError(t *testing.T) {
	p := &fakePipeline{err: sportsapi.NewError(sportsapi.KindUnsupportedProvider, "resolve provider", nil)}
	h, _ := newTestServer(t, p, nil, false)

	if rec := do(t, h, "GET", "/api/v1/btts", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestBoardServesDefaultPicks(t *testing.T) {
	p := &fakePipeline{}
	board := refresher.NewBoard(nil)
	board.StorePicks(pipeline.Result{Picks: []models.BTTSGame{{Home: "Everton", Away: "Fulham", Probability: 61}}})
	h, _ := newTestServer(t, p, board, false)

	rec := do(t, h, "GET", "/api/v1/btts", "")
	var res pipeline.Result
	decode(t, rec, &res)
	if len(res.Picks) != 1 || p.calls != 0 {
		t.Errorf("default request should be served from the board: %+v (calls %d)", res, p.calls)
	}

	do(t, h, "GET", "/api/v1/btts?refresh=1", "")
	if p.calls != 1 {
		t.Error("refresh should bypass the board")
	}
}

func TestLiveFixturesBoardMatchesSport(t *testing.T) {
	nba := pipeline.Result{Leagues: []models.League{{ID: "basketball_nba", Name: "NBA"}}}
	p := &fakePipeline{leagues: pipeline.Result{Leagues: []models.League{{ID: "8", Name: "Premier League"}}}}
	board := refresher.NewBoard(nil)
	board.StoreLive(models.SportBasketball, nba)
	h, _ := newTestServer(t, p, board, false)

	var res pipeline.Result
	decode(t, do(t, h, "GET", "/api/v1/fixtures/live?sport=football", ""), &res)
	if len(res.Leagues) != 1 || res.Leagues[0].Name != "Premier League" || p.calls != 1 {
		t.Errorf("football request answered with %+v (calls %d)", res.Leagues, p.calls)
	}

	decode(t, do(t, h, "GET", "/api/v1/fixtures/live?sport=basketball", ""), &res)
	if len(res.Leagues) != 1 || res.Leagues[0].Name != "NBA" || p.calls != 1 {
		t.Errorf("basketball request should be served from the board: %+v (calls %d)", res.Leagues, p.calls)
	}
}

func TestPlayerStats(t *testing.T) {
	p := &fakePipeline{player: pipeline.Result{Player: &models.PlayerStat{PlayerID: "1", PlayerName: "Salah"}}}
	h, _ := newTestServer(t, p, nil, false)

	if rec := do(t, h, "GET", "/api/v1/players/1", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/v1/players/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d", rec.Code)
	}
}

func TestAssistant(t *testing.T) {
	h, _ := newTestServer(t, &fakePipeline{}, nil, false)

	rec := do(t, h, "POST", "/api/v1/assistant", `{"message":"any BTTS today?"}`)
	var body map[string]string
	decode(t, rec, &body)
	if body["intent"] != "btts" || body["reply"] != "echo: any BTTS today?" {
		t.Errorf("unexpected assistant body: %v", body)
	}

	if rec := do(t, h, "POST", "/api/v1/assistant", `{"message":"  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d", rec.Code)
	}
}

func TestPerformance(t *testing.T) {
	h, _ := newTestServer(t, &fakePipeline{}, nil, false)
	rec := do(t, h, "GET", "/api/v1/performance", "")
	var body struct {
		Leaderboard []struct {
			Name string `json:"name"`
		} `json:"leaderboard"`
	}
	decode(t, rec, &body)
	if len(body.Leaderboard) == 0 || body.Leaderboard[0].Name != "BetMaster" {
		t.Errorf("unexpected performance body: %+v", body)
	}
}

func TestRecovery(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	if rec := do(t, h, "GET", "/", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestLoggingMiddlewareFlushes(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("Flush() error = %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sportmonks/fixtures", nil))
	if !rec.Flushed {
		t.Error("flush did not reach the underlying writer")
	}
}

func TestHealthReportsCache(t *testing.T) {
	sel, err := selector.New(context.Background(), nil, models.ProviderSportmonks)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Config{}, Deps{
		Pipeline: &fakePipeline{},
		Selector: sel,
		Cache:    failingPinger{},
	})

	rec := do(t, srv.Handler(), "GET", "/health", "")
	var body map[string]interface{}
	decode(t, rec, &body)
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "degraded" || body["cache"] != "connection refused" {
		t.Errorf("unexpected health response %d: %v", rec.Code, body)
	}
}

func TestUnencodableResultIsServerError(t *testing.T) {
	p := &fakePipeline{picks: pipeline.Result{Picks: []models.BTTSGame{{Home: "A", Away: "B", Probability: math.Inf(1)}}}}
	h, _ := newTestServer(t, p, nil, false)

	rec := do(t, h, "GET", "/api/v1/btts?refresh=true", "")
	var body map[string]interface{}
	decode(t, rec, &body)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, body %v", rec.Code, body)
	}
}

func TestSportmonksProxy(t *testing.T) {
	var gotPath, gotToken, gotAuth, gotInclude string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("api_token")
		gotInclude = r.URL.Query().Get("include")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer upstream.Close()

	proxy, err := NewSportmonksProxy(upstream.URL+"/v3", "secret-token-1234")
	if err != nil {
		t.Fatal(err)
	}
	sel, _ := selector.New(context.Background(), nil, models.ProviderSportmonks)
	h := NewServer(Config{}, Deps{Pipeline: &fakePipeline{}, Selector: sel, Proxy: proxy}).Handler()

	rec := do(t, h, "GET", "/api/sportmonks/football/rounds/339269?include=fixtures", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(`"data"`)) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if gotPath != "/v3/football/rounds/339269" {
		t.Errorf("prefix not rewritten, got %s", gotPath)
	}
	if gotToken != "secret-token-1234" || gotAuth != "Bearer secret-token-1234" || gotInclude != "fixtures" {
		t.Errorf("token or query not forwarded: token=%q auth=%q include=%q", gotToken, gotAuth, gotInclude)
	}
}

func TestSportmonksProxyWithoutToken(t *testing.T) {
	proxy, err := NewSportmonksProxy("https://api.sportmonks.com/v3", "")
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(t, proxy, "GET", "/api/sportmonks/football/fixtures", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if _, err := NewSportmonksProxy("not a url", "x"); err == nil {
		t.Error("expected invalid base url error")
	}
}
