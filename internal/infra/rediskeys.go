package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "credo"
)

// Ключи
const (
	RedisKeyDashboardSnapshot = RedisNamespace + ":dashboard:snapshot"
)

// Каналы Pub/Sub
const (
	// RedisChanDashboardUpdated - сигнал репликам консоли, что в Redis лежит свежий снимок.
	RedisChanDashboardUpdated = RedisNamespace + ":dashboard:updated"
)

// SnapshotKey Генератор ключей для снимков отдельных окружений (staging, demo)
func SnapshotKey(scope string) string {
	if scope == "" {
		return RedisKeyDashboardSnapshot
	}
	return fmt.Sprintf("%s:dashboard:%s:snapshot", RedisNamespace, scope)
}
