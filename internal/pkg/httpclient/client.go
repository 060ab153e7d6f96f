// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hrgateway/internal/pkg/logger"
	"hrgateway/internal/pkg/metrics"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes 限制单个后端响应体的大小
const maxResponseBytes = 10 << 20

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendTimeout     = errors.New("backend timed out")
	ErrBadStatus          = errors.New("backend returned error status")
	ErrInvalidResponse    = errors.New("backend returned invalid JSON")
	ErrResponseTooLarge   = errors.New("backend response too large")
)

// StatusError 表示后端返回了非 2xx 状态码
type StatusError struct {
	Backend    string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Backend, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrBadStatus }

// Response 是后端的原始 JSON 响应
type Response struct {
	StatusCode int
	Body       []byte
}

// Request 描述一次出站调用
type Request struct {
	Backend string // 用于 span 名和指标标签
	Method  string
	URL     string
	Query   url.Values
	Body    []byte // 非空时以 application/json 发送
}

// Client 是一个可追踪的、进程内共享的 HTTP 客户端
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	Timeout    time.Duration
	Metrics    *metrics.Metrics
}

// NewClient 创建一个新的客户端实例。
// http.Client 本身不设置 Timeout，每次调用的期限由 ctx 和 c.Timeout 共同决定。
func NewClient(tracer trace.Tracer, timeout time.Duration, maxIdlePerHost int, m *metrics.Metrics) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        maxIdlePerHost * 4,
			MaxIdleConnsPerHost: maxIdlePerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
		Timeout:    timeout,
		Metrics:    m,
	}
}

// Do 发起一次调用，返回后端的 2xx JSON 响应。
// 其他情况返回的错误满足 errors.Is(err, ErrBackendUnavailable / ErrBackendTimeout / ErrBadStatus / ErrInvalidResponse / ErrResponseTooLarge)，
// 或者在调用方已取消时返回 context.Canceled。
func (c *Client) Do(ctx context.Context, in Request) (*Response, error) {
	start := time.Now()
	resp, outcome, err := c.do(ctx, in)
	if c.Metrics != nil {
		c.Metrics.ObserveBackend(in.Backend, in.Method, outcome, time.Since(start))
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, in Request) (*Response, string, error) {
	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return nil, "bad_request", errors.Wrapf(err, "parse backend url %s", in.URL)
	}
	if len(in.Query) > 0 {
		q := parsedURL.Query()
		for key, values := range in.Query {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		parsedURL.RawQuery = q.Encode()
	}

	ctx, span := c.Tracer.Start(ctx, "call-"+in.Backend, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	callCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body io.Reader
	if in.Body != nil {
		body = bytes.NewReader(in.Body)
	}
	req, err := http.NewRequestWithContext(callCtx, in.Method, parsedURL.String(), body)
	if err != nil {
		span.RecordError(err)
		return nil, "bad_request", errors.Wrap(err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if in.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	span.SetAttributes(
		attribute.String("http.url", parsedURL.String()),
		attribute.String("http.method", in.Method),
		attribute.String("backend.name", in.Backend),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		outcome, err := c.fail(span, ctx, callCtx, in, err)
		return nil, outcome, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		outcome, err := c.fail(span, ctx, callCtx, in, err)
		return nil, outcome, err
	}
	if len(raw) > maxResponseBytes {
		err := errors.Wrapf(ErrResponseTooLarge, "backend %s exceeded %d bytes", in.Backend, maxResponseBytes)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "too_large", err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{Backend: in.Backend, StatusCode: resp.StatusCode, Body: raw}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "bad_status", err
	}
	if !json.Valid(raw) {
		err := errors.Wrapf(ErrInvalidResponse, "backend %s", in.Backend)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "invalid_response", err
	}
	return &Response{StatusCode: resp.StatusCode, Body: raw}, "success", nil
}

// fail 把传输层错误归类为取消 / 超时 / 不可达
func (c *Client) fail(span trace.Span, parent, callCtx context.Context, in Request, cause error) (string, error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return "canceled", errors.Wrapf(context.Canceled, "call %s: %v", in.Backend, cause)
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return "timeout", errors.Wrapf(ErrBackendTimeout, "call %s after %s: %v", in.Backend, c.Timeout, cause)
	default:
		return "unavailable", errors.Wrapf(ErrBackendUnavailable, "call %s: %v", in.Backend, cause)
	}
}
