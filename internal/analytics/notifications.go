package analytics

import (
	"slices"
	"time"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

// MaxNotifications - не больше одного уведомления на каждый тип действия.
const MaxNotifications = 3

type notificationRule struct {
	action   domain.AuditAction
	idSuffix string // Разводит id, если у событий разных типов совпал исходный id
	title    string
	severity domain.Severity
	describe func(domain.AuditLogEvent) string
}

// Порядок правил = порядок уведомлений в ленте, независимо от времени событий.
var notificationRules = []notificationRule{
	{
		action:   domain.ActionIssued,
		title:    "CREDENTIAL ISSUED",
		severity: domain.SeveritySuccess,
		describe: func(e domain.AuditLogEvent) string {
			return "New credential issued: " + e.Metadata.CredentialTitle()
		},
	},
	{
		action:   domain.ActionVerified,
		idSuffix: "_verify",
		title:    "CREDENTIAL VERIFIED",
		severity: domain.SeverityInfo,
		describe: func(domain.AuditLogEvent) string {
			return "A credential was successfully verified by a third party"
		},
	},
	{
		action:   domain.ActionShared,
		idSuffix: "_share",
		title:    "CREDENTIAL SHARED",
		severity: domain.SeverityInfo,
		describe: func(domain.AuditLogEvent) string {
			return "A student shared their credential with an organization"
		},
	},
}

// RankNotifications выбирает самое свежее событие каждого типа в фиксированном
// порядке issued -> verified -> shared.
//
// Предусловие: источник отдает события от новых к старым. Если порядок нарушен,
// ранжирование идет по стабильно пересортированной копии, входной слайс не трогаем.
func RankNotifications(events []domain.AuditLogEvent, loc *time.Location) []domain.Notification {
	if loc == nil {
		loc = time.Local
	}
	ordered := newestFirst(events)

	out := make([]domain.Notification, 0, MaxNotifications)
	for _, rule := range notificationRules {
		for _, e := range ordered {
			if e.Action != rule.action {
				continue
			}
			out = append(out, domain.Notification{
				ID:          e.ID + rule.idSuffix,
				Title:       rule.title,
				Description: rule.describe(e),
				Timestamp:   e.CreatedAt.In(loc).Format(DateLayout),
				Type:        rule.severity,
				OccurredAt:  e.CreatedAt,
			})
			break
		}
	}

	if len(out) > MaxNotifications {
		out = out[:MaxNotifications]
	}
	return out
}

// IsNewestFirst проверяет контракт источника: время создания не возрастает.
func IsNewestFirst(events []domain.AuditLogEvent) bool {
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt.After(events[i-1].CreatedAt) {
			return false
		}
	}
	return true
}

func newestFirst(events []domain.AuditLogEvent) []domain.AuditLogEvent {
	if IsNewestFirst(events) {
		return events
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b domain.AuditLogEvent) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sorted
}
