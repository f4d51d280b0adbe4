package redis

import "fmt"

const ns = "sellbook:v1"

// KeyStatistics caches the totals for one statistics window.
func KeyStatistics(window string) string {
	return fmt.Sprintf("%s:statistics:%s", ns, window)
}

// KeyStatisticsGeneration counts statistics invalidations.
func KeyStatisticsGeneration() string {
	return ns + ":statistics-gen"
}

// KeyLoginAttempts holds recent login attempts; scope is "client" or
// "account".
func KeyLoginAttempts(scope, id string) string {
	return fmt.Sprintf("%s:login:%s:%s", ns, scope, id)
}

// KeyCreateReplay holds the outcome of a ticket create sent with an
// Idempotency-Key.
func KeyCreateReplay(subject, idemKey string) string {
	return fmt.Sprintf("%s:replay:sell:%s:%s", ns, subject, idemKey)
}

// ChannelChanges carries Change messages between API instances.
func ChannelChanges() string {
	return ns + ":changes"
}
