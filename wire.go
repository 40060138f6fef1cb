//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"graphsink/ioc"
	"graphsink/pkg/server"
)

func InitApp(ctx context.Context) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.InitConfig,
		ioc.InitLogger,
		ioc.InitAppService,
		ioc.InitSinkHandler,
		ioc.InitMetrics,
		ioc.InitGinEngine,
		ioc.InitScheduler,
		ioc.InitStatsLogger,
		server.NewHTTPServer,
	))
}
