package redisx

import "fmt"

const ns = "eventbooker:v1"

func KeyEventList() string {
	return ns + ":events:list"
}

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyAnalyticsBundle() string {
	return ns + ":analytics:bundle"
}

// KeyRateLimitPrefix is the limiter's key prefix; the limiter appends the
// caller identity.
func KeyRateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelReservationsChanged() string {
	return ns + ":reservations:changed"
}
