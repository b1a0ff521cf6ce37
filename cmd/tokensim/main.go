package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TokenSim/internal/calculator"
	"TokenSim/internal/config"
	"TokenSim/internal/engine"
	"TokenSim/internal/metrics"
	"TokenSim/internal/recorder"
	"TokenSim/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TokenSim starting...")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/tokensim.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	setup, err := engine.FromConfig(cfg)
	if err != nil {
		log.Fatalf("[FATAL] build setup: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Metrics endpoint
	m := metrics.Simulation()
	if cfg.Metrics.Listen != "" {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
		defer srv.Close()
		log.Printf("[INFO] metrics listening on %s", cfg.Metrics.Listen)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runner := engine.NewRunner(setup, rec, m)
	sched := scheduler.NewScheduler(ctx, runner, cfg.Simulation.Runs, cfg.Simulation.Workers)
	sched.OnBatch = summarize

	if cfg.Schedule.Cron == "" {
		done := make(chan []engine.Result, 1)
		go func() { done <- sched.RunNow() }()

		var results []engine.Result
		select {
		case results = <-done:
		case <-sigCh:
			log.Println("[INFO] shutdown signal received, stopping...")
			cancel()
			results = <-done
		}
		if allFailed(results) {
			log.Println("[ERROR] every run failed")
			rec.Close()
			os.Exit(1)
		}
		log.Println("[INFO] TokenSim finished")
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing batch now")
		go sched.RunNow()
	}

	log.Println("[INFO] TokenSim is running. Press Ctrl+C to stop.")
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TokenSim stopped")
}

func summarize(results []engine.Result) {
	for _, r := range results {
		if r.Err != nil {
			log.Printf("[INFO] run %s: status=%s timestep=%d error=%v", r.RunID, r.Status(), r.Final.Timestep, r.Err)
			continue
		}
		high, low, err := calculator.CalculatePriceRange(r.Prices)
		if err != nil {
			log.Printf("[INFO] run %s: status=%s no prices", r.RunID, r.Status())
			continue
		}
		log.Printf("[INFO] run %s: status=%s final=%.6f high=%.6f low=%.6f drawdown=%.2f%% volatility=%.2f%%",
			r.RunID, r.Status(), r.Final.Pool.Price, high, low,
			calculator.CalculateDrawdown(r.Prices), r.Final.Pool.Volatility)
	}
}

func allFailed(results []engine.Result) bool {
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}
