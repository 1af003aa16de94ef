package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("tab %q: %w", "nope", ErrNotFound), http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("title: %w", ErrValidation), http.StatusUnprocessableEntity},
		{fmt.Errorf("job queue unreachable: %w", ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
		assert.Equal(t, tc.status, problem.Status)
	}
}

func TestRespondErrorKeepsWrappedDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("unknown tab %q: %w", "nope", ErrNotFound))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, "Not Found", problem.Title)
	assert.Equal(t, `unknown tab "nope": not found`, problem.Detail)
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("dial tcp 10.0.0.5:5432: refused"))
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestWantsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, WantsJSON(req))
	req.Header.Set("Accept", "application/json, text/plain")
	assert.True(t, WantsJSON(req))
}
