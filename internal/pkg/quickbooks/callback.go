package quickbooks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// Continuation kinds carried in the OAuth state parameter.
const (
	StateBills     = "bills"
	StateCustomers = "customers"
	StateFetchAll  = "fetch_all"
	StateAuthFlow  = "auth_flow"
)

const (
	RouteHome            = "/"
	RouteFetchAllWorker  = "/fetch-all-worker"
	RouteBillsWorker     = "/fetch-bills-worker"
	RouteCustomersWorker = "/fetch-customers-worker"
)

// CallbackState is the decoded "kind:fetch_count:qb_start_position:display_count:display_start"
// continuation. The numeric fields are only meaningful for bills and customers.
type CallbackState struct {
	Kind            string
	FetchCount      int
	QBStartPosition int
	DisplayCount    int
	DisplayStart    int
}

// String encodes the state for the authorization URL.
func (s CallbackState) String() string {
	switch s.Kind {
	case StateBills, StateCustomers:
		return fmt.Sprintf("%s:%d:%d:%d:%d", s.Kind, s.FetchCount, s.QBStartPosition, s.DisplayCount, s.DisplayStart)
	default:
		return s.Kind
	}
}

// ParseCallbackState decodes a state string. Unknown kinds are accepted and
// lead back home; a bills or customers state must carry four integers.
func ParseCallbackState(state string) (CallbackState, error) {
	parts := strings.Split(state, ":")
	cs := CallbackState{Kind: parts[0]}
	if cs.Kind != StateBills && cs.Kind != StateCustomers {
		return cs, nil
	}
	if len(parts) != 5 {
		return cs, &InvalidCallbackError{Reason: fmt.Sprintf("state %q must have 5 fields", state)}
	}

	fields := []*int{&cs.FetchCount, &cs.QBStartPosition, &cs.DisplayCount, &cs.DisplayStart}
	for i, dst := range fields {
		v, err := strconv.Atoi(parts[i+1])
		if err != nil {
			return cs, &InvalidCallbackError{Reason: fmt.Sprintf("state field %d is not an integer", i+1), Err: err}
		}
		*dst = v
	}
	return cs, nil
}

// RedirectTarget is where the browser goes after the callback. Error is set
// when the callback failed; it is also carried in the "error" query parameter.
type RedirectTarget struct {
	Path  string
	Query url.Values
	Error string
}

// URL renders the target as a relative URL.
func (t RedirectTarget) URL() string {
	if len(t.Query) == 0 {
		return t.Path
	}
	return t.Path + "?" + t.Query.Encode()
}

// Target returns where a successfully authenticated callback continues.
func (s CallbackState) Target() RedirectTarget {
	switch s.Kind {
	case StateBills, StateCustomers:
		path := RouteBillsWorker
		if s.Kind == StateCustomers {
			path = RouteCustomersWorker
		}
		q := url.Values{}
		q.Set("fetch_count", strconv.Itoa(s.FetchCount))
		q.Set("qb_start_position", strconv.Itoa(s.QBStartPosition))
		q.Set("display_count", strconv.Itoa(s.DisplayCount))
		q.Set("display_start", strconv.Itoa(s.DisplayStart))
		return RedirectTarget{Path: path, Query: q}
	case StateFetchAll:
		return RedirectTarget{Path: RouteFetchAllWorker}
	default:
		return RedirectTarget{Path: RouteHome}
	}
}

func homeWithError(err error) RedirectTarget {
	q := url.Values{}
	q.Set("error", err.Error())
	return RedirectTarget{Path: RouteHome, Query: q, Error: err.Error()}
}

// HandleCallback completes the authorization: it exchanges code, stores the
// token set, and maps state to the next route. Every failure becomes a home
// redirect with an error message.
func (c *OAuthClient) HandleCallback(ctx context.Context, code, state string, store TokenStore) RedirectTarget {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		err := &InvalidCallbackError{Reason: "code and state are required"}
		log.Warnf("[QuickBooks] %v", err)
		return homeWithError(err)
	}

	tok, err := c.ExchangeCode(ctx, code)
	if err != nil {
		log.Errorf("[QuickBooks] %v", err)
		return homeWithError(err)
	}
	if err := store.Set(ctx, *tok); err != nil {
		log.Errorf("[QuickBooks] Failed to store token: %v", err)
		return homeWithError(fmt.Errorf("failed to store token: %w", err))
	}

	// the token is kept even when the continuation is unusable
	cs, err := ParseCallbackState(state)
	if err != nil {
		log.Warnf("[QuickBooks] %v", err)
		return homeWithError(err)
	}

	log.Infof("[QuickBooks] Authorized, continuing with state %q", cs.Kind)
	return cs.Target()
}
