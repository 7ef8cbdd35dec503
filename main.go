package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/handler"
	"github.com/dmorgan81/imagestudio/internal/inject"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load(os.Getenv)
	logger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel))
	ctx := log.NewContext(context.Background(), logger)

	injector := inject.Setup(ctx, cfg)
	h := do.MustInvoke[*handler.Handler](injector)
	routes := h.Routes(ctx)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		fn := &handler.FunctionURL{Handler: routes}
		lambda.StartWithOptions(fn.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return
	}

	if !cfg.Provider.Configured() && cfg.Provider.APIKeyParam == "" {
		logger.Warn("image provider is not configured", "endpoint", cfg.Provider.Endpoint != "")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(sctx), injector.Shutdown())
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
