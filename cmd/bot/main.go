package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"antrianbot/internal/app"
	"antrianbot/internal/config"
)

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", config.DefaultPath, "path to config yaml/json (optional)")
	flag.StringVar(&envPath, "env", ".env", "path to .env file (optional)")
	flag.Parse()

	if err := config.LoadDotEnv(envPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal: .env:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		_ = a.Stop(context.Background(), app.StopFatalError)
		os.Exit(1)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
		if ctx.Err() != nil {
			reason = app.StopSignal
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if err := a.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "exited with error:", err)
		os.Exit(1)
	}
}
