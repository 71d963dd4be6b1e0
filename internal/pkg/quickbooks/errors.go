package quickbooks

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned before any remote call when no access token is stored.
var ErrNotAuthenticated = errors.New("quickbooks: not authenticated")

// TokenExchangeError reports a failed authorization-code exchange.
type TokenExchangeError struct {
	StatusCode int
	Err        error
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange failed: status=%d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// TokenRefreshError reports a failed refresh-token grant.
type TokenRefreshError struct {
	StatusCode int
	Err        error
}

func (e *TokenRefreshError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token refresh failed: status=%d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }

// InvalidCallbackError reports a callback request that cannot be processed.
type InvalidCallbackError struct {
	Reason string
	Err    error
}

func (e *InvalidCallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid callback: %s: %v", e.Reason, e.Err)
	}
	return "invalid callback: " + e.Reason
}

func (e *InvalidCallbackError) Unwrap() error { return e.Err }

// RemoteFetchError reports a failed page query. StatusCode is 0 for transport errors.
type RemoteFetchError struct {
	Entity        Entity
	StartPosition int
	StatusCode    int
	Err           error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s at position %d: status=%d: %v", e.Entity, e.StartPosition, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s at position %d: %v", e.Entity, e.StartPosition, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }
