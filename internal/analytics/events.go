// Package analytics captures executed search queries and derives the
// reporting used for relevance tuning. Capture is strictly best-effort:
// a telemetry failure must never degrade a search response.
package analytics

import "time"

// RequestMeta is the requester context recorded with each search.
type RequestMeta struct {
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent"`
	Referrer  string `json:"referrer"`
}

// Event is one executed search. Rows are append-only and never mutated.
type Event struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	ClientIP    string    `json:"client_ip"`
	UserAgent   string    `json:"user_agent"`
	Referrer    string    `json:"referrer"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// QueryStat is an aggregated per-query row for the dashboard.
type QueryStat struct {
	Query      string  `json:"query"`
	Count      int     `json:"count"`
	AvgResults float64 `json:"avg_results,omitempty"`
}

// DailyCount is the query volume for one calendar day (UTC).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardData is the aggregated view over the trailing window.
type DashboardData struct {
	PopularSearches    []QueryStat  `json:"popular_searches"`
	ZeroResultSearches []QueryStat  `json:"zero_result_searches"`
	DailyVolume        []DailyCount `json:"daily_volume"`
	TotalSearches      int          `json:"total_searches"`
	AvgResults         float64      `json:"avg_results"`
	ZeroResultRate     float64      `json:"zero_result_rate"`
}
