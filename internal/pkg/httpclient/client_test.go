package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"hrgateway/internal/pkg/logger"
	"hrgateway/internal/pkg/metrics"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func newTestClient(timeout time.Duration) (*Client, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewClient(otel.Tracer("test"), timeout, 4, m), m
}

func TestClientDoSuccess(t *testing.T) {
	var gotMethod, gotQuery, gotBody, gotType, gotRequestID string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(logger.RequestIDHeader)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer backend.Close()

	c, m := newTestClient(time.Second)
	ctx := logger.WithRequest(context.Background(), "req-1", "")
	resp, err := c.Do(ctx, Request{
		Backend: "inclusion",
		Method:  http.MethodPost,
		URL:     backend.URL + "/employee",
		Query:   url.Values{"id": {"7"}},
		Body:    []byte(`{"ID":7}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "id=7", gotQuery)
	assert.Equal(t, `{"ID":7}`, gotBody)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("inclusion", http.MethodPost, "success")))
}

func TestClientDoErrors(t *testing.T) {
	tt := []struct {
		test    string
		handler http.HandlerFunc
		want    error
		outcome string
	}{
		{
			"backend error status",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"boom"}`))
			},
			ErrBadStatus,
			"bad_status",
		},
		{
			"backend not found",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			ErrBadStatus,
			"bad_status",
		},
		{
			"backend body not JSON",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			},
			ErrInvalidResponse,
			"invalid_response",
		},
		{
			"backend empty body",
			func(w http.ResponseWriter, r *http.Request) {},
			ErrInvalidResponse,
			"invalid_response",
		},
		{
			"backend hangs",
			func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			ErrBackendTimeout,
			"timeout",
		},
	}
	for _, tc := range tt {
		t.Run(tc.test, func(t *testing.T) {
			backend := httptest.NewServer(tc.handler)
			defer backend.Close()

			c, m := newTestClient(100 * time.Millisecond)
			_, err := c.Do(context.Background(), Request{Backend: "fetch", Method: http.MethodGet, URL: backend.URL + "/employee"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), err.Error())
			assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("fetch", http.MethodGet, tc.outcome)))
		})
	}
}

func TestClientDoResponseTooLarge(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"`))
		w.Write([]byte(strings.Repeat("a", maxResponseBytes)))
		w.Write([]byte(`"`))
	}))
	defer backend.Close()

	c, m := newTestClient(5 * time.Second)
	_, err := c.Do(context.Background(), Request{Backend: "fetch", Method: http.MethodGet, URL: backend.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponseTooLarge), err.Error())
	assert.False(t, errors.Is(err, ErrInvalidResponse))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("fetch", http.MethodGet, "too_large")))
}

func TestClientDoStatusErrorKeepsBody(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"exists"}`))
	}))
	defer backend.Close()

	c, _ := newTestClient(time.Second)
	_, err := c.Do(context.Background(), Request{Backend: "inclusion", Method: http.MethodPost, URL: backend.URL})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Equal(t, "inclusion", statusErr.Backend)
	assert.JSONEq(t, `{"detail":"exists"}`, string(statusErr.Body))
}

func TestClientDoUnavailable(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	addr := backend.URL
	backend.Close()

	c, _ := newTestClient(time.Second)
	_, err := c.Do(context.Background(), Request{Backend: "delete", Method: http.MethodDelete, URL: addr + "/employee"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendUnavailable), err.Error())
}

func TestClientDoCallerCanceled(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	c, _ := newTestClient(5 * time.Second)
	_, err := c.Do(ctx, Request{Backend: "fetch", Method: http.MethodGet, URL: backend.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), err.Error())
	assert.False(t, errors.Is(err, ErrBackendTimeout))
}
