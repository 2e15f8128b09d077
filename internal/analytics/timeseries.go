package analytics

import (
	"time"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

const (
	DateLayout  = "2006-01-02"
	LabelLayout = "Jan 2"
)

// BuildDailySeries раскладывает записи по календарным дням: ровно WindowDays
// корзин с today-(N-1) по today включительно, от старых к новым.
// Дни без записей дают нулевые счетчики.
func BuildDailySeries(credentials []domain.Credential, events []domain.AuditLogEvent, now time.Time, opts Options) []domain.DailyPoint {
	opts = opts.withDefaults()
	today := startOfDay(now, opts.Location)

	points := make([]domain.DailyPoint, 0, WindowDays)
	for i := WindowDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		p := domain.DailyPoint{
			Date:  day.Format(DateLayout),
			Label: day.Format(LabelLayout),
		}

		for _, c := range credentials {
			if y, m, d := c.IssueDay(opts.Location); isDay(y, m, d, day) {
				p.Issued++
			}
		}
		for _, e := range events {
			if e.Action == domain.ActionVerified && sameDay(e.CreatedAt, day, opts.Location) {
				p.Verified++
			}
		}

		points = append(points, p)
	}
	return points
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// sameDay сравнивает только календарную дату в зоне loc, время суток отбрасывается.
func sameDay(t, day time.Time, loc *time.Location) bool {
	y, m, d := t.In(loc).Date()
	return isDay(y, m, d, day)
}

func isDay(y int, m time.Month, d int, day time.Time) bool {
	y2, m2, d2 := day.Date()
	return y == y2 && m == m2 && d == d2
}
