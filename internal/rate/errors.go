package rate

import "errors"

// ErrRateLimited is returned when an identifier or IP exceeds its attempt budget.
var ErrRateLimited = errors.New("rate limited")

// ErrRedisUnavailable is returned when the limiter backend cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")
