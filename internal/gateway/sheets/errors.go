package sheets

import "errors"

// ErrUnavailable covers missing credentials, network failures and remote
// errors other than throttling. ErrRateLimited is the store saying back
// off. Neither is retried here; callers decide whether to retry.
var (
	ErrUnavailable = errors.New("sheet store unavailable")
	ErrRateLimited = errors.New("sheet store rate limited")
)
