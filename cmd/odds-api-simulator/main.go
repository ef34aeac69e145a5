package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/odds-api-simulator/sim"
	"github.com/radieske/nba-betting-engine/internal/shared/config"
	"github.com/radieske/nba-betting-engine/internal/shared/logger"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
)

func main() {
	games := flag.Int("games", 8, "number of simulated games")
	first := flag.Duration("first", 5*time.Minute, "delay until the first tip-off")
	spacing := flag.Duration("spacing", 30*time.Minute, "interval between tip-offs")
	tick := flag.Duration("tick", 30*time.Second, "odds repricing interval")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "odds-api-simulator"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// a API real envia odds e pontos como números JSON
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := sim.New(cfg.OddsAPISport, time.Now().Add(*first), *games, *spacing, *seed)
	sim.RegisterMetrics(prometheus.DefaultRegisterer)

	// Reprecifica periodicamente os jogos que ainda não começaram
	go func() {
		t := time.NewTicker(*tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Tick()
			}
		}
	}()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	if cfg.OddsAPIKey == "" {
		log.Warn("ODDS_API_KEY not set, accepting any key")
	}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           s.Handler(cfg.OddsAPIKey),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("odds api simulator running",
		zap.String("addr", srv.Addr),
		zap.String("sport", cfg.OddsAPISport),
		zap.Int("games", *games),
		zap.Int64("seed", *seed),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("public server error", zap.Error(err))
	}
}
