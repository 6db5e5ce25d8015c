// Code scaffolded in the teacher's goctl style. Safe to edit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/config"
	"github.com/cedros/core/internal/handler"
	"github.com/cedros/core/internal/svc"
)

var configFile = flag.String("f", "etc/server.yaml", "the config file")

// shutdownGrace bounds how long main waits for the outbox worker to
// drain once a termination signal arrives.
const shutdownGrace = 10 * time.Second

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	httpx.SetErrorHandlerCtx(func(ctx context.Context, err error) (int, interface{}) {
		appErr := apperr.As(err)
		return apperr.HTTPStatus(appErr.Kind), map[string]string{
			"code":  string(appErr.Kind),
			"error": appErr.Message,
		}
	})

	server := rest.MustNewServer(c.RestConf, rest.WithCors("*"))
	defer server.Stop()

	ctx := svc.NewServiceContext(c)
	handler.RegisterHandlers(server, ctx)

	outboxCtx, cancelOutbox := context.WithCancel(context.Background())
	outboxDone := make(chan struct{})
	go func() {
		ctx.Outbox.Run(outboxCtx)
		close(outboxDone)
	}()

	go func() {
		fmt.Printf("Starting server at %s:%d...\n", c.Host, c.Port)
		server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logx.Info("shutdown signal received, draining outbox worker")
	cancelOutbox()

	select {
	case <-outboxDone:
	case <-time.After(shutdownGrace):
		logx.Error("shutdown grace period elapsed before outbox worker drained")
	}
}
