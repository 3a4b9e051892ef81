package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// DashboardData aggregates the trailing-days window of events into the
// relevance-tuning dashboard. A days value <= 0 falls back to the
// configured window.
func (r *Recorder) DashboardData(ctx context.Context, days int) (*DashboardData, error) {
	if days <= 0 {
		days = r.cfg.WindowDays
	}
	since := r.now().UTC().AddDate(0, 0, -days)
	events, err := r.store.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading analytics window: %w", err)
	}
	return aggregate(events, r.cfg.PopularTopN, r.cfg.ZeroTopN), nil
}

// aggregate computes the dashboard from raw events. The zero-result rate
// is the share of distinct zero-result query strings over total searches,
// a ratio of counts, not of raw event counts.
func aggregate(events []Event, popularN, zeroN int) *DashboardData {
	data := &DashboardData{
		TotalSearches: len(events),
	}

	type queryAgg struct {
		count        int
		totalResults int
		zeroCount    int
	}
	byQuery := make(map[string]*queryAgg)
	byDay := make(map[string]int)
	totalResults := 0

	for _, e := range events {
		agg, ok := byQuery[e.Query]
		if !ok {
			agg = &queryAgg{}
			byQuery[e.Query] = agg
		}
		agg.count++
		agg.totalResults += e.ResultCount
		if e.ResultCount == 0 {
			agg.zeroCount++
		}
		byDay[e.OccurredAt.UTC().Format("2006-01-02")]++
		totalResults += e.ResultCount
	}

	distinctZero := 0
	for query, agg := range byQuery {
		data.PopularSearches = append(data.PopularSearches, QueryStat{
			Query:      query,
			Count:      agg.count,
			AvgResults: round1(float64(agg.totalResults) / float64(agg.count)),
		})
		if agg.zeroCount > 0 {
			distinctZero++
			data.ZeroResultSearches = append(data.ZeroResultSearches, QueryStat{
				Query: query,
				Count: agg.zeroCount,
			})
		}
	}

	sortStats(data.PopularSearches)
	sortStats(data.ZeroResultSearches)
	if len(data.PopularSearches) > popularN {
		data.PopularSearches = data.PopularSearches[:popularN]
	}
	if len(data.ZeroResultSearches) > zeroN {
		data.ZeroResultSearches = data.ZeroResultSearches[:zeroN]
	}

	for day, count := range byDay {
		data.DailyVolume = append(data.DailyVolume, DailyCount{Date: day, Count: count})
	}
	sort.Slice(data.DailyVolume, func(i, j int) bool {
		return data.DailyVolume[i].Date < data.DailyVolume[j].Date
	})

	if data.TotalSearches > 0 {
		data.AvgResults = round1(float64(totalResults) / float64(data.TotalSearches))
		data.ZeroResultRate = round1(float64(distinctZero) / float64(data.TotalSearches) * 100)
	}
	return data
}

func sortStats(stats []QueryStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Query < stats[j].Query
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
