// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"hrgateway/internal/pkg/logger"
	"hrgateway/internal/pkg/tracing"

	zlog "github.com/rs/zerolog/log"
)

type AppCtx struct {
	Mux    *http.ServeMux
	Config *Config
}

// AppInfo 包含了启动一个服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	RegisterHandlers func(appCtx AppCtx) // 允许服务注册自己的 HTTP 路由
}

// StartService 封装了通用的启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()
	logger.Setup(info.ServiceName, cfg.Log.Level)

	// 1. Tracer
	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to initialize tracer provider")
		}
		shutdownTracer = tp.Shutdown
	} else {
		tracing.InitPropagator()
	}

	// 2. HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Server.Port), Handler: mux}
	go func() {
		zlog.Info().Int("port", cfg.Server.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 3. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// 先停止接收请求，再把缓冲的 span 刷出去
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("Error shutting down http server")
	} else {
		zlog.Info().Msg("HTTP server shut down.")
	}
	if err := shutdownTracer(ctx); err != nil {
		zlog.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	zlog.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}
