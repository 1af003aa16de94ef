package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

type request struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []request
	handler  http.HandlerFunc
}

func newFakeBackend(t *testing.T, handler http.HandlerFunc) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, request{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: string(body)})
		fb.mu.Unlock()
		fb.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

type observed struct {
	resource, method string
	status           int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observed
}

func (o *recordingObserver) ObserveBackend(resource, method string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{resource, method, status})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestResourceListAttachesBearerToken(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"1","name":"Ringlock"},{"id":"2","name":"Cuplock"}]`)
	})
	obs := &recordingObserver{}
	client := NewClient(srv.URL+"/", time.Second, WithObserver(obs))
	res := NewResource[widget](client, "widgets", "/api/widgets")

	items, err := res.List(WithToken(context.Background(), "tok-1"))
	require.NoError(t, err)
	assert.Equal(t, []widget{{ID: "1", Name: "Ringlock"}, {ID: "2", Name: "Cuplock"}}, items)

	require.Len(t, fb.requests, 1)
	assert.Equal(t, http.MethodGet, fb.requests[0].Method)
	assert.Equal(t, "/api/widgets/", fb.requests[0].Path)
	assert.Equal(t, "Bearer tok-1", fb.requests[0].Auth)
	assert.Equal(t, []observed{{"widgets", http.MethodGet, http.StatusOK}}, obs.calls)
}

func TestResourceMutationPaths(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"ok"}`)
	})
	res := NewResource[widget](NewClient(srv.URL, time.Second), "widgets", "/api/widgets")
	ctx := WithToken(context.Background(), "tok")

	require.NoError(t, res.Create(ctx, map[string]string{"name": "Ringlock"}))
	require.NoError(t, res.Update(ctx, "w 1", map[string]string{"name": "Cuplock"}))
	require.NoError(t, res.Delete(ctx, "w1"))
	require.NoError(t, res.Approve(ctx, "w1"))
	require.NoError(t, res.Reject(ctx, "w1"))

	got := make([][2]string, 0, len(fb.requests))
	for _, req := range fb.requests {
		got = append(got, [2]string{req.Method, req.Path})
	}
	assert.Equal(t, [][2]string{
		{http.MethodPost, "/api/widgets/"},
		{http.MethodPut, "/api/widgets/w 1"},
		{http.MethodDelete, "/api/widgets/w1"},
		{http.MethodPut, "/api/widgets/w1/approve"},
		{http.MethodPut, "/api/widgets/w1/reject"},
	}, got)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(fb.requests[0].Body), &body))
	assert.Equal(t, "Ringlock", body["name"])
}

func TestResourceSplitPaths(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, `[]`)
			return
		}
		writeJSON(w, http.StatusOK, `{"message":"ok"}`)
	})
	res := NewResource[widget](NewClient(srv.URL, time.Second), "quotations", "/api/sales/quotations",
		ListFrom("/api/admin/quotations/pending"), GateAt("/api/admin/quotations"))
	ctx := WithToken(context.Background(), "tok")

	_, err := res.List(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Update(ctx, "QT-1", map[string]string{}))
	require.NoError(t, res.Approve(ctx, "QT-1"))
	require.NoError(t, res.Reject(ctx, "QT-1"))

	got := make([][2]string, 0, len(fb.requests))
	for _, req := range fb.requests {
		got = append(got, [2]string{req.Method, req.Path})
	}
	assert.Equal(t, [][2]string{
		{http.MethodGet, "/api/admin/quotations/pending"},
		{http.MethodPut, "/api/sales/quotations/QT-1"},
		{http.MethodPut, "/api/admin/quotations/QT-1/approve"},
		{http.MethodPut, "/api/admin/quotations/QT-1/reject"},
	}, got)
}

func TestMissingTokenSendsNothing(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	res := NewResource[widget](NewClient(srv.URL, time.Second), "widgets", "/api/widgets")

	_, err := res.List(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Empty(t, fb.requests)
}

func TestAPIErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Customer with this email already exists"}`, "Customer with this email already exists"},
		{"detail string", `{"detail":"Only admin can create customers"}`, "Only admin can create customers"},
		{"detail list", `{"detail":[{"msg":"field required"},{"msg":"value is not a valid email address"}]}`, "field required; value is not a valid email address"},
		{"empty body", ``, ""},
		{"not json", `<html>bad gateway</html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, tc.body)
			})
			res := NewResource[widget](NewClient(srv.URL, time.Second), "widgets", "/api/widgets")

			err := res.Create(WithToken(context.Background(), "tok"), map[string]string{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, tc.want, MessageOf(err))
		})
	}
}

func TestUnauthorizedIsDetectable(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	})
	res := NewResource[widget](NewClient(srv.URL, time.Second), "widgets", "/api/widgets")

	_, err := res.List(WithToken(context.Background(), "expired"))
	assert.True(t, IsUnauthorized(err))
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":     `[{"id":`,
		"missing id":    `[{"name":"no id"}]`,
		"wrong shape":   `{"id":"1"}`,
		"wrong id type": `[{"id": 5}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			res := NewResource[widget](NewClient(srv.URL, time.Second), "widgets", "/api/widgets")

			_, err := res.List(WithToken(context.Background(), "tok"))
			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "got %v", err)
		})
	}
}

func TestTransportError(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	res := NewResource[widget](NewClient(url, time.Second, WithObserver(obs)), "widgets", "/api/widgets")
	_, err := res.List(WithToken(context.Background(), "tok"))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, IsTransport(err))
	assert.Empty(t, MessageOf(err))
	assert.Equal(t, []observed{{"widgets", http.MethodGet, 0}}, obs.calls)
}

func TestLoginIsAnonymous(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"jwt","token_type":"bearer"}`)
	})
	client := NewClient(srv.URL, time.Second)

	tok, err := client.Login(context.Background(), "admin@rental.ae", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.AccessToken)
	require.Len(t, fb.requests, 1)
	assert.Equal(t, "/api/auth/login", fb.requests[0].Path)
	assert.Empty(t, fb.requests[0].Auth)
	assert.JSONEq(t, `{"username":"admin@rental.ae","password":"secret123"}`, fb.requests[0].Body)
}

func TestLoginRequiresAccessToken(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token_type":"bearer"}`)
	})
	_, err := NewClient(srv.URL, time.Second).Login(context.Background(), "a", "b")
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestSummaryKeepsScalars(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"totalRevenue":36600,"recentInvoices":[{"id":"x"}],"label":"Q4","active":true,"nested":{"a":1}}`)
	})
	out, err := NewClient(srv.URL, time.Second).Summary(WithToken(context.Background(), "tok"), "finance")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"totalRevenue": 36600.0, "label": "Q4", "active": true}, out)
	assert.Equal(t, "/api/finance/dashboard", fb.requests[0].Path)
}
