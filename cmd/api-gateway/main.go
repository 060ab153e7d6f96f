package main

import (
	"hrgateway/internal/pkg/bootstrap"
	"hrgateway/internal/pkg/httpclient"
	"hrgateway/internal/pkg/metrics"
	"hrgateway/internal/service/gateway/application"
	"hrgateway/internal/service/gateway/infrastructure/adapter"
	"hrgateway/internal/service/gateway/interfaces"
	"hrgateway/internal/service/gateway/port"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const (
	serviceName = "api-gateway"
)

// main 函数是应用的"组装根" (Composition Root)
func main() {
	bootstrap.Init()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Config
			m := metrics.New(prometheus.DefaultRegisterer)

			// 所有后端共享同一个连接池
			client := httpclient.NewClient(otel.Tracer(serviceName), cfg.HTTPClient.Timeout, cfg.HTTPClient.MaxIdleConnsPerHost, m)

			inclusion := adapter.NewInclusionHTTPAdapter(cfg.Backends.Inclusion, client)
			fetch := adapter.NewFetchHTTPAdapter(cfg.Backends.Fetch, client)
			del := adapter.NewDeleteHTTPAdapter(cfg.Backends.Delete, client)
			update := adapter.NewUpdateHTTPAdapter(cfg.Backends.Update, client)

			service := application.NewGatewayService(application.Backends{
				Inclusion: inclusion,
				Fetch:     fetch,
				Delete:    del,
				Update:    update,
				Probes:    []port.Pinger{inclusion, fetch, del, update},
			})

			interfaces.NewGatewayHandler(service, m, promhttp.Handler()).RegisterRoutes(appCtx.Mux)
		},
	})
}
