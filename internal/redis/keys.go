package redisx

import "fmt"

const ns = "rides:v1"

func KeyTripsAvailable() string {
	return ns + ":trips:available"
}

func KeyTripSummary(tripID int64) string {
	return fmt.Sprintf("%s:trip:%d:summary", ns, tripID)
}

// KeyRateLimit is the limiter key prefix for a scope; the limiter
// appends the caller identity.
func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelTripsChanged() string {
	return ns + ":trips:changed"
}
