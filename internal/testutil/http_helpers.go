package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// NewRequestWithURLParams builds a request whose chi route context carries params,
// so handlers reading chi.URLParam can be called without a router.
func NewRequestWithURLParams(method, path string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return withURLParams(req, params)
}

// NewAccountRequest builds a request for an /api/account/{uuid} route with the
// uuid parameter set, the given query string and an optional body.
//
//	req := testutil.NewAccountRequest(http.MethodGet, account.ID, map[string]string{
//	    "start_date": "2023-01-01",
//	}, nil)
func NewAccountRequest(method, accountID string, query map[string]string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, "/api/account/"+accountID, body)
	if len(query) > 0 {
		values := url.Values{}
		for key, value := range query {
			values.Set(key, value)
		}
		req.URL.RawQuery = values.Encode()
	}
	return withURLParams(req, map[string]string{"uuid": accountID})
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return req
	}
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
