package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

func TestBuildDailySeries_WindowShape(t *testing.T) {
	points := BuildDailySeries(nil, nil, testNow, testOpts)

	require.Len(t, points, 7)
	expected := []string{
		"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07",
		"2024-03-08", "2024-03-09", "2024-03-10",
	}
	for i, p := range points {
		assert.Equal(t, expected[i], p.Date)
	}
	assert.Equal(t, "Mar 4", points[0].Label)
	assert.Equal(t, "Mar 10", points[6].Label)
}

func TestBuildDailySeries_CalendarDayTruncation(t *testing.T) {
	startOfToday := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	credentials := []domain.Credential{
		{ID: "morning", IssuedAt: startOfToday.Add(1 * time.Hour)},
		{ID: "evening", IssuedAt: startOfToday.Add(23*time.Hour + 59*time.Minute)},
		{ID: "late-yesterday", IssuedAt: startOfToday.Add(-time.Second)},
		{ID: "too-old", IssuedAt: startOfToday.AddDate(0, 0, -7)},
		{ID: "future", IssuedAt: startOfToday.AddDate(0, 0, 1)},
	}
	events := []domain.AuditLogEvent{
		{ID: "v1", Action: domain.ActionVerified, CreatedAt: startOfToday.Add(2 * time.Hour)},
		{ID: "v2", Action: domain.ActionVerified, CreatedAt: startOfToday.Add(20 * time.Hour)},
		{ID: "i1", Action: domain.ActionIssued, CreatedAt: startOfToday.Add(3 * time.Hour)},
		{ID: "v3", Action: domain.ActionVerified, CreatedAt: startOfToday.AddDate(0, 0, -6)},
	}

	points := BuildDailySeries(credentials, events, testNow, testOpts)
	require.Len(t, points, 7)

	assert.Equal(t, 2, points[6].Issued)
	assert.Equal(t, 2, points[6].Verified)
	assert.Equal(t, 1, points[5].Issued)
	assert.Equal(t, 1, points[0].Verified)

	totalIssued := 0
	for _, p := range points {
		totalIssued += p.Issued
	}
	assert.Equal(t, 3, totalIssued)
}

func TestBuildDailySeries_UsesLocation(t *testing.T) {
	// 23:30 UTC 9 марта = 08:30 10 марта в Токио
	loc := time.FixedZone("JST", 9*60*60)
	issued := time.Date(2024, time.March, 9, 23, 30, 0, 0, time.UTC)
	credentials := []domain.Credential{{ID: "1", IssuedAt: issued}}

	utcPoints := BuildDailySeries(credentials, nil, testNow, Options{Location: time.UTC})
	assert.Equal(t, 1, utcPoints[5].Issued)
	assert.Equal(t, 0, utcPoints[6].Issued)

	jstPoints := BuildDailySeries(credentials, nil, testNow, Options{Location: loc})
	assert.Equal(t, "2024-03-11", jstPoints[6].Date)
	assert.Equal(t, 1, jstPoints[5].Issued)
	assert.Equal(t, "2024-03-10", jstPoints[5].Date)
}

func TestBuildDailySeries_DateOnlyIssueNotShiftedByZone(t *testing.T) {
	// 07:30 10 марта по PST, issue_date = DATE '2024-03-10'
	pst := time.FixedZone("PST", -8*60*60)
	credentials := []domain.Credential{
		{ID: "date", IssuedAt: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), IssuedDateOnly: true},
		{ID: "ts", IssuedAt: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)},
	}

	points := BuildDailySeries(credentials, nil, testNow, Options{Location: pst})
	require.Len(t, points, 7)
	assert.Equal(t, "2024-03-10", points[6].Date)
	assert.Equal(t, 1, points[6].Issued)
	// Момент времени 00:00 UTC по PST - еще 9 марта
	assert.Equal(t, 1, points[5].Issued)
}

func TestBuildDailySeries_AlwaysSevenDays(t *testing.T) {
	// Записи за месяц не расширяют ряд
	var credentials []domain.Credential
	for i := 0; i < 30; i++ {
		credentials = append(credentials, domain.Credential{ID: fmt.Sprint(i), IssuedAt: daysAgo(i)})
	}

	for _, loc := range []*time.Location{time.UTC, time.FixedZone("PST", -8*60*60), time.FixedZone("JST", 9*60*60)} {
		points := BuildDailySeries(credentials, nil, testNow, Options{Location: loc})
		require.Len(t, points, 7)

		total := 0
		for _, p := range points {
			total += p.Issued
		}
		assert.Equal(t, 7, total)
	}

	snap := Aggregate(credentials, nil, testNow, testOpts)
	require.Len(t, snap.WeeklyData, 7)
	assert.Equal(t, "2024-03-04", snap.WeeklyData[0].Date)
	assert.Equal(t, "2024-03-10", snap.WeeklyData[6].Date)
}

func TestBuildDailySeries_OnlyVerifiedCounted(t *testing.T) {
	events := []domain.AuditLogEvent{
		{ID: "1", Action: domain.ActionIssued, CreatedAt: testNow},
		{ID: "2", Action: domain.ActionShared, CreatedAt: testNow},
		{ID: "3", Action: "unknown", CreatedAt: testNow},
	}

	points := BuildDailySeries(nil, events, testNow, testOpts)
	for _, p := range points {
		assert.Zero(t, p.Verified)
	}
}
