package clientdata

import "time"

// TTL constants for cached data.
// These are added to the current time when storing to calculate expires_at.
const (
	// TTLQuote keeps a quote fresh between scheduled refreshes
	TTLQuote = 5 * time.Minute

	// MaxQuoteStaleness bounds how long an expired quote is kept as a fallback
	MaxQuoteStaleness = 7 * 24 * time.Hour
)
