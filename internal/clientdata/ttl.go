package clientdata

import "time"

// TTL constants for cached upstream responses.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLFundEstimate bounds how long a realtime estimate is reused.
	// The upstream refreshes intraday estimates roughly once a minute.
	TTLFundEstimate = time.Minute
)
