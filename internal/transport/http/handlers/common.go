package handlers

import (
	"net/http"

	"peopledesk/internal/domain/authz"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/middleware"
	"peopledesk/internal/transport/http/shared"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// listResponse is the shape of every list endpoint: the page of records,
// an aggregation block and pagination metadata.
type listResponse struct {
	Records any             `json:"records"`
	Stats   any             `json:"stats"`
	Meta    shared.PageMeta `json:"pagination"`
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.FailWith(w, authz.ErrUnauthenticated, requestctx.GetRequestID(r.Context()))
		return authz.Principal{}, false
	}
	return principal, true
}

func failWith(w http.ResponseWriter, r *http.Request, err error) {
	api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
}

// emptyIfNil keeps list payloads as [] rather than null when a page has
// no rows.
func emptyIfNil[T any](records []T) []T {
	if records == nil {
		return []T{}
	}
	return records
}
