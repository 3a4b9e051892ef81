package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralcms/sitesearch/pkg/config"
)

func eventAt(query string, results int, occurredAt time.Time) Event {
	return Event{Query: query, ResultCount: results, OccurredAt: occurredAt}
}

func TestAggregateZeroResultRateCountsDistinctQueries(t *testing.T) {
	now := time.Now().UTC()
	var events []Event
	// 10 distinct queries with no results, each searched twice, plus 80
	// successful searches: 100 events total.
	for i := 0; i < 10; i++ {
		q := fmt.Sprintf("unfindable-%d", i)
		events = append(events, eventAt(q, 0, now), eventAt(q, 0, now))
	}
	for i := 0; i < 40; i++ {
		events = append(events, eventAt("apples", 5, now))
		events = append(events, eventAt("pears", 2, now))
	}

	data := aggregate(events, 20, 10)

	assert.Equal(t, 100, data.TotalSearches)
	// 10 distinct zero-result queries over 100 searches, not 20 events
	// over 100.
	assert.Equal(t, 10.0, data.ZeroResultRate)
	assert.Equal(t, 2.8, data.AvgResults)
	assert.Len(t, data.ZeroResultSearches, 10)
}

func TestAggregatePopularSearchesTopN(t *testing.T) {
	now := time.Now().UTC()
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events, eventAt("apples", 4, now))
	}
	for i := 0; i < 3; i++ {
		events = append(events, eventAt("pears", 1, now))
	}
	events = append(events, eventAt("plums", 2, now))

	data := aggregate(events, 2, 10)

	require.Len(t, data.PopularSearches, 2)
	assert.Equal(t, "apples", data.PopularSearches[0].Query)
	assert.Equal(t, 5, data.PopularSearches[0].Count)
	assert.Equal(t, 4.0, data.PopularSearches[0].AvgResults)
	assert.Equal(t, "pears", data.PopularSearches[1].Query)
}

func TestAggregateAvgResultsRounding(t *testing.T) {
	now := time.Now().UTC()
	events := []Event{
		eventAt("apples", 1, now),
		eventAt("apples", 2, now),
		eventAt("apples", 2, now),
	}

	data := aggregate(events, 10, 10)

	require.Len(t, data.PopularSearches, 1)
	// 5/3 rounds to one decimal.
	assert.Equal(t, 1.7, data.PopularSearches[0].AvgResults)
}

func TestAggregateDailyVolumeSorted(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	events := []Event{
		eventAt("apples", 1, day2),
		eventAt("apples", 1, day1),
		eventAt("pears", 1, day1),
	}

	data := aggregate(events, 10, 10)

	require.Len(t, data.DailyVolume, 2)
	assert.Equal(t, DailyCount{Date: "2026-08-01", Count: 2}, data.DailyVolume[0])
	assert.Equal(t, DailyCount{Date: "2026-08-02", Count: 1}, data.DailyVolume[1])
}

func TestAggregateEmptyWindow(t *testing.T) {
	data := aggregate(nil, 10, 10)

	assert.Equal(t, 0, data.TotalSearches)
	assert.Equal(t, 0.0, data.ZeroResultRate)
	assert.Empty(t, data.PopularSearches)
}

func TestDashboardDataUsesConfiguredWindow(t *testing.T) {
	store := NewMemoryEventStore()
	recorder := NewRecorder(store, nil, config.AnalyticsConfig{
		BufferSize:  16,
		WindowDays:  30,
		PopularTopN: 20,
		ZeroTopN:    10,
	}, nil)

	now := time.Now().UTC()
	require.NoError(t, store.Insert(context.Background(), eventAt("recent", 3, now.AddDate(0, 0, -1))))
	require.NoError(t, store.Insert(context.Background(), eventAt("stale", 3, now.AddDate(0, 0, -45))))

	data, err := recorder.DashboardData(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, 1, data.TotalSearches)
	require.Len(t, data.PopularSearches, 1)
	assert.Equal(t, "recent", data.PopularSearches[0].Query)
}
