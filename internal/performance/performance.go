// Package performance serves the fixed tipster performance figures shown next
// to the picks. Nothing here is computed from real results.
package performance

// Summary is the record over one period.
type Summary struct {
	SuccessRate float64 `json:"success_rate"`
	WinCount    int     `json:"win_count"`
	LossCount   int     `json:"loss_count"`
	TotalTips   int     `json:"total_tips"`
	ProfitLoss  float64 `json:"profit_loss"`
	Streak      int     `json:"streak"`
	StreakType  string  `json:"streak_type"`
}

// Periods groups the summaries by period.
type Periods struct {
	Weekly  Summary `json:"weekly"`
	Monthly Summary `json:"monthly"`
	AllTime Summary `json:"all_time"`
}

// TrendPoint is one week of the trend series.
type TrendPoint struct {
	Date         string  `json:"date"`
	WinRate      float64 `json:"win_rate"`
	ProfitMargin float64 `json:"profit_margin"`
}

// SportShare is one slice of the tips-by-sport distribution.
type SportShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// OddsBand is the success rate of tips within an odds range.
type OddsBand struct {
	Range       string  `json:"range"`
	SuccessRate float64 `json:"success_rate"`
}

// Tipster is one leaderboard row.
type Tipster struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Avatar       string  `json:"avatar"`
	WinRate      float64 `json:"win_rate"`
	ProfitMargin float64 `json:"profit_margin"`
	TipCount     int     `json:"tip_count"`
	Streak       int     `json:"streak"`
	StreakType   string  `json:"streak_type"`
}

// Report bundles everything the performance endpoint returns.
type Report struct {
	Periods      Periods      `json:"periods"`
	Trend        []TrendPoint `json:"trend"`
	Distribution []SportShare `json:"sport_distribution"`
	OddsAnalysis []OddsBand   `json:"odds_analysis"`
	Leaderboard  []Tipster    `json:"leaderboard"`
}

// Get returns the full report.
func Get() Report {
	return Report{
		Periods:      Summaries(),
		Trend:        Trend(),
		Distribution: Distribution(),
		OddsAnalysis: OddsAnalysis(),
		Leaderboard:  Leaderboard(),
	}
}

func Summaries() Periods {
	return Periods{
		Weekly:  Summary{SuccessRate: 68, WinCount: 17, LossCount: 8, TotalTips: 25, ProfitLoss: 124.5, Streak: 3, StreakType: "win"},
		Monthly: Summary{SuccessRate: 72, WinCount: 65, LossCount: 25, TotalTips: 90, ProfitLoss: 342.75, Streak: 3, StreakType: "win"},
		AllTime: Summary{SuccessRate: 70, WinCount: 210, LossCount: 90, TotalTips: 300, ProfitLoss: 1250.25, Streak: 3, StreakType: "win"},
	}
}

func Trend() []TrendPoint {
	return []TrendPoint{
		{"Jan 1", 60, 5.2},
		{"Jan 8", 65, 7.1},
		{"Jan 15", 62, 6.8},
		{"Jan 22", 70, 9.3},
		{"Jan 29", 68, 8.5},
		{"Feb 5", 72, 10.2},
		{"Feb 12", 75, 12.5},
		{"Feb 19", 69, 9.8},
		{"Feb 26", 73, 11.3},
		{"Mar 5", 70, 10.5},
	}
}

func Distribution() []SportShare {
	return []SportShare{
		{"Football", 45, "#8884d8"},
		{"Basketball", 25, "#82ca9d"},
		{"Tennis", 15, "#ffc658"},
		{"Hockey", 10, "#ff8042"},
		{"Baseball", 5, "#0088fe"},
	}
}

func OddsAnalysis() []OddsBand {
	return []OddsBand{
		{"1.01-1.50", 85},
		{"1.51-2.00", 72},
		{"2.01-3.00", 58},
		{"3.01-5.00", 42},
		{"5.01+", 25},
	}
}

const avatarBase = "https://api.dicebear.com/7.x/avataaars/svg?seed="

func Leaderboard() []Tipster {
	return []Tipster{
		{"1", "BetMaster", avatarBase + "BetMaster", 78, 15.3, 245, 8, "win"},
		{"2", "SportGuru", avatarBase + "SportGuru", 75, 14.2, 312, 5, "win"},
		{"3", "OddsWizard", avatarBase + "OddsWizard", 72, 12.8, 189, 3, "win"},
		{"4", "PredictionPro", avatarBase + "PredictionPro", 70, 11.5, 276, 2, "loss"},
		{"5", "BettingExpert", avatarBase + "BettingExpert", 68, 10.9, 203, 4, "win"},
	}
}
