// Package apiclienttest provides test doubles for apiclient.Doer.
package apiclienttest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stretchr/testify/mock"

	"shop-admin/internal/apiclient"
)

// MockDoer is a testify mock of apiclient.Doer. Expectations match on the
// request method and path; use Req to build the matcher.
type MockDoer struct {
	mock.Mock
}

// Do records the call.
func (m *MockDoer) Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apiclient.Response), args.Error(1)
}

// Req matches a request by method and path.
func Req(method, path string) any {
	return mock.MatchedBy(func(r apiclient.Request) bool {
		m := r.Method
		if m == "" {
			m = http.MethodGet
		}
		return m == method && r.Path == path
	})
}

// JSON builds a 200 response with v encoded as the body.
func JSON(v any) *apiclient.Response {
	return Status(http.StatusOK, v)
}

// Raw builds a 200 response with a literal body.
func Raw(body string) *apiclient.Response {
	return &apiclient.Response{Status: http.StatusOK, Body: []byte(body)}
}

// Status builds a response with the given status and v encoded as the body.
func Status(status int, v any) *apiclient.Response {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &apiclient.Response{Status: status, Body: body}
}
