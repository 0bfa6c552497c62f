package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devmarkh/converso/internal/app"
	"github.com/devmarkh/converso/internal/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("startup failed: %v", err)
	}
	defer application.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(application.Server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return application.Server.Shutdown(shutdownCtx)
	})

	logrus.Info("Converso is running; DB connected and bootstrapped.")
	if err := g.Wait(); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
	logrus.Info("shutdown complete")
}
