// Worker assíncrono: drena a fila de votos do ledger Redis para o Postgres e varre códigos legados.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/app/codes"
	"github.com/marcelojr/obra-tokens/internal/app/directory"
	"github.com/marcelojr/obra-tokens/internal/app/worker"
	"github.com/marcelojr/obra-tokens/internal/platform/clock"
	"github.com/marcelojr/obra-tokens/internal/platform/config"
	"github.com/marcelojr/obra-tokens/internal/platform/health"
	"github.com/marcelojr/obra-tokens/internal/platform/ids"
	"github.com/marcelojr/obra-tokens/internal/platform/logger"
	"github.com/marcelojr/obra-tokens/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/obra-tokens/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/obra-tokens/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(), postgresstorage.Options{MaxOpenConns: cfg.PostgresMaxConns})
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Com ledger postgres não há fila a drenar; o worker fica só com a varredura.
	var redisClient *redis.Client
	if cfg.LedgerBackend == config.LedgerRedis {
		redisClient, err = redisstorage.NewClient(ctx, redisstorage.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Fatal("falha ao conectar no redis", "err", err)
		}
		defer redisClient.Close()
	}

	catalogo, err := codes.NewCatalogo(cfg.ProjectPrefixes)
	if err != nil {
		logger.Fatal("catalogo de projetos invalido", "err", err)
	}

	clockSystem := clock.NewSystemClock()
	trabalhadorRepo := postgresstorage.NewTrabalhadorRepository(db)
	diretorio := directory.NewService(trabalhadorRepo, postgresstorage.NewEmpresaRepository(db), catalogo, clockSystem, ids.NewGenerator(), cfg.MigrateOnRead)
	checker := health.NewChecker(sqlDB, redisClient)

	if cfg.WorkerMetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		mux.HandleFunc("GET /healthz", checker.LiveHandler())
		mux.HandleFunc("GET /readyz", checker.ReadyHandler())
		srv := &http.Server{Addr: cfg.WorkerMetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if redisClient == nil && cfg.MigrationSweepInterval <= 0 {
		logger.Warn("worker sem tarefas: ledger postgres e varredura desligada")
		return
	}

	var wg sync.WaitGroup

	if redisClient != nil {
		fila := redisstorage.NewFila(redisClient, cfg.FilaKeyPrefix)
		processor := worker.NewVoteProcessor(postgresstorage.NewVotoRepository(db), clockSystem, logger.L())
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("dreno da fila iniciado", "fila", fila.Key())
			if err := processor.Drenar(ctx, fila); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("dreno da fila finalizado com erro", "err", err)
			}
		}()
	}

	if cfg.MigrationSweepInterval > 0 {
		sweeper := worker.NewMigrationSweeper(trabalhadorRepo, diretorio, cfg.MigrationSweepBatch, cfg.MigrationSweepInterval, logger.L())
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("varredura de legados iniciada", "intervalo", cfg.MigrationSweepInterval.String())
			if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("varredura finalizada com erro", "err", err)
			}
		}()
	}

	wg.Wait()
	logger.Info("worker finalizado")
}
