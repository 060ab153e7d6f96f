// Package logger 配置全局 zerolog，并提供按请求派生 logger 的辅助函数。
package logger

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// RequestIDHeader 是在网关与后端之间透传的请求 ID 头
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Setup 设置全局 logger 的级别和 service 字段
func Setup(serviceName, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()
}

// WithRequest 派生一个带 request_id / trace_id 的 logger，并把它和 request id 一起放进 ctx
func WithRequest(ctx context.Context, requestID, traceID string) context.Context {
	lc := zlog.With().Str("request_id", requestID)
	if traceID != "" {
		lc = lc.Str("trace_id", traceID)
	}
	l := lc.Logger()
	ctx = context.WithValue(ctx, requestIDKey{}, requestID)
	return l.WithContext(ctx)
}

// RequestIDFromContext 返回 WithRequest 存入的 request id
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
