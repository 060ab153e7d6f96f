package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"hrgateway/internal/pkg/httpclient"
	"hrgateway/internal/pkg/logger"
	"hrgateway/internal/pkg/metrics"
	"hrgateway/internal/pkg/resp"
	"hrgateway/internal/pkg/tracing"
	"hrgateway/internal/service/gateway/application"
	"hrgateway/internal/service/gateway/domain"
	"hrgateway/internal/service/gateway/port"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "api-gateway"

// maxBodyBytes 限制入站请求体的大小
const maxBodyBytes = 1 << 20

// GatewayHandler 封装了网关的 HTTP 处理器
type GatewayHandler struct {
	service        *application.GatewayService
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	tracer         trace.Tracer
}

// NewGatewayHandler 创建一个新的 HTTP 处理器实例。metricsHandler 为空时不注册 /metrics。
func NewGatewayHandler(service *application.GatewayService, m *metrics.Metrics, metricsHandler http.Handler) *GatewayHandler {
	return &GatewayHandler{
		service:        service,
		metrics:        m,
		metricsHandler: metricsHandler,
		tracer:         otel.Tracer(serviceName),
	}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *GatewayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /readyz", h.readyzHandler)
	if h.metricsHandler != nil {
		mux.Handle("GET /metrics", h.metricsHandler)
	}

	h.handle(mux, "GET /{$}", h.homeHandler)

	h.handle(mux, "POST /employee", h.withBody(h.service.CreateEmployee))
	h.handle(mux, "POST /promotion", h.withBody(h.service.CreatePromotion))
	h.handle(mux, "PUT /employee", h.withBody(h.service.UpdateEmployee))

	h.handle(mux, "GET /employee", h.proxy(func(r *http.Request) (*port.Reply, error) {
		return h.service.ListEmployees(r.Context())
	}))
	h.handle(mux, "GET /promotion", h.proxy(func(r *http.Request) (*port.Reply, error) {
		return h.service.ListPromotions(r.Context())
	}))
	h.handle(mux, "GET /employee/salary/{salary}", h.proxy(func(r *http.Request) (*port.Reply, error) {
		return h.service.EmployeesBySalary(r.Context(), r.PathValue("salary"))
	}))
	h.handle(mux, "GET /employee/filter/sd", h.proxy(func(r *http.Request) (*port.Reply, error) {
		return h.service.FilterEmployees(r.Context(), r.URL.Query())
	}))
	h.handle(mux, "GET /employee/order/fields", h.proxy(func(r *http.Request) (*port.Reply, error) {
		return h.service.OrderedEmployees(r.Context())
	}))
	h.handle(mux, "DELETE /employee/{id}", h.proxy(func(r *http.Request) (*port.Reply, error) {
		return h.service.DeleteEmployee(r.Context(), r.PathValue("id"))
	}))
}

// handle 注册一个路由，并为它加上 trace、请求 ID、logger、访问日志和指标
func (h *GatewayHandler) handle(mux *http.ServeMux, pattern string, next http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := h.tracer.Start(ctx, "api-gateway "+pattern, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		requestID := r.Header.Get(logger.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(logger.RequestIDHeader, requestID)
		ctx = logger.WithRequest(ctx, requestID, tracing.GetTraceIDFromContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", pattern),
			attribute.String("request.id", requestID),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		if h.metrics != nil {
			h.metrics.ObserveHTTP(pattern, r.Method, rec.status, elapsed)
		}
		zlog.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", pattern).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request handled")
	})
}

func (h *GatewayHandler) homeHandler(w http.ResponseWriter, r *http.Request) {
	resp.JSON(w, http.StatusOK, map[string]string{"message": "API Gateway Running"})
}

// proxy 调用 call 并把后端响应原样写回
func (h *GatewayHandler) proxy(call func(r *http.Request) (*port.Reply, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply, err := call(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Raw(w, reply.StatusCode, reply.Body)
	}
}

// withBody 读取请求体后交给 call 校验和转发
func (h *GatewayHandler) withBody(call func(ctx context.Context, body []byte) (*port.Reply, error)) http.HandlerFunc {
	return h.proxy(func(r *http.Request) (*port.Reply, error) {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
		if err != nil {
			return nil, errors.Wrap(err, "read request body")
		}
		return call(r.Context(), body)
	})
}

func (h *GatewayHandler) readyzHandler(w http.ResponseWriter, r *http.Request) {
	failed := h.service.Readiness(r.Context())
	if len(failed) > 0 {
		zlog.Warn().Strs("backends", application.FailedNames(failed)).Msg("readiness check failed")
		resp.Fail(w, http.StatusServiceUnavailable, &resp.Exception{
			Code:    http.StatusServiceUnavailable * 100,
			Message: "Downstream services not ready",
			Errors:  failed,
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// upstreamError 是后端返回错误状态时放进 errors 字段的内容
type upstreamError struct {
	Backend        string          `json:"backend"`
	UpstreamStatus int             `json:"upstream_status"`
	UpstreamBody   json.RawMessage `json:"upstream_body,omitempty"`
}

// writeError 根据错误类型返回不同的 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := zlog.Ctx(r.Context())

	var validationErr *domain.ValidationError
	var statusErr *httpclient.StatusError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErr):
		log.Info().Err(err).Msg("request rejected")
		resp.UnprocessableEntity(w, "Request validation failed", validationErr.Fields)
	case errors.As(err, &maxBytesErr):
		resp.Fail(w, http.StatusRequestEntityTooLarge, &resp.Exception{
			Code:    http.StatusRequestEntityTooLarge * 100,
			Message: "Request body too large",
		})
	case errors.As(err, &statusErr):
		log.Warn().Err(err).Int("upstream_status", statusErr.StatusCode).Msg("backend returned error status")
		detail := upstreamError{Backend: statusErr.Backend, UpstreamStatus: statusErr.StatusCode}
		if json.Valid(statusErr.Body) {
			detail.UpstreamBody = statusErr.Body
		}
		resp.BadGateway(w, "Backend returned an error", detail)
	case errors.Is(err, httpclient.ErrBackendTimeout):
		log.Error().Err(err).Msg("backend timed out")
		resp.GatewayTimeout(w, "Backend did not respond in time")
	case errors.Is(err, httpclient.ErrBackendUnavailable):
		log.Error().Err(err).Msg("backend unavailable")
		resp.BadGateway(w, "Backend unavailable", nil)
	case errors.Is(err, httpclient.ErrResponseTooLarge):
		log.Error().Err(err).Msg("backend response too large")
		resp.BadGateway(w, "Backend response too large", nil)
	case errors.Is(err, httpclient.ErrInvalidResponse):
		log.Error().Err(err).Msg("backend returned invalid JSON")
		resp.BadGateway(w, "Backend returned an invalid response", nil)
	case errors.Is(err, context.Canceled):
		log.Info().Err(err).Msg("client went away")
		resp.Fail(w, resp.StatusClientClosedRequest, &resp.Exception{
			Code:    resp.CodeCanceled,
			Message: "Request canceled",
		})
	default:
		log.Error().Err(err).Msg("unexpected gateway error")
		resp.ServerError(w, "Internal gateway error")
	}
}

// statusRecorder 记录写回的状态码，供日志和指标使用
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
