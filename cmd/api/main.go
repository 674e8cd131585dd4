// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/app/codes"
	"github.com/marcelojr/obra-tokens/internal/app/directory"
	"github.com/marcelojr/obra-tokens/internal/app/httpapi"
	"github.com/marcelojr/obra-tokens/internal/app/summary"
	"github.com/marcelojr/obra-tokens/internal/app/timekeys"
	"github.com/marcelojr/obra-tokens/internal/app/voting"
	"github.com/marcelojr/obra-tokens/internal/domain"
	"github.com/marcelojr/obra-tokens/internal/platform/antifraude"
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

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(), postgresstorage.Options{
		MaxOpenConns: cfg.PostgresMaxConns,
		Debug:        cfg.LogLevel == "debug",
	})
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

	empresaRepo := postgresstorage.NewEmpresaRepository(db)
	if len(cfg.SeedCompanies) > 0 {
		seed := make([]domain.Empresa, 0, len(cfg.SeedCompanies))
		for _, c := range cfg.SeedCompanies {
			seed = append(seed, domain.Empresa{ID: c.ID, Nome: c.Name})
		}
		if err := empresaRepo.Seed(ctx, seed); err != nil {
			logger.Fatal("falha ao semear empresas", "err", err)
		}
	}

	// Redis só é obrigatório com ledger redis ou rate limit ligado.
	var redisClient *redis.Client
	if cfg.LedgerBackend == config.LedgerRedis || cfg.RateLimitEnabled {
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
	chaves, err := timekeys.New(cfg.VoteTimezone)
	if err != nil {
		logger.Fatal("fuso de votacao invalido", "err", err)
	}

	clockSystem := clock.NewSystemClock()
	idGen := ids.NewGenerator()
	trabalhadorRepo := postgresstorage.NewTrabalhadorRepository(db)
	votoRepo := postgresstorage.NewVotoRepository(db)

	var ledger domain.VotoLedger = postgresstorage.NewVotoLedger(db)
	if cfg.LedgerBackend == config.LedgerRedis {
		ledger = redisstorage.NewVotoLedger(
			redisClient,
			redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix),
			redisstorage.NewFila(redisClient, cfg.FilaKeyPrefix),
		)
	}

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, cfg.RateLimitWindow(), cfg.RateLimitKeyPrefix)
	}

	diretorio := directory.NewService(trabalhadorRepo, empresaRepo, catalogo, clockSystem, idGen, cfg.MigrateOnRead)
	votacao := voting.NewService(diretorio, ledger, antifraudeSvc, chaves, clockSystem, idGen, voting.Config{
		Limites: domain.Limites{
			Diario:        cfg.DailyTokenCap,
			MensalEmpresa: cfg.CompanyMonthlyTokenCap,
		},
		EmpresaPrivilegiadaID: cfg.PrivilegedCompanyID,
	})
	resumo := summary.NewService(votoRepo, trabalhadorRepo, empresaRepo, cfg.AdminMaxRows)

	mux := http.NewServeMux()
	checker := health.NewChecker(sqlDB, redisClient)
	api := httpapi.New(votacao, diretorio, resumo, logger.L())
	api.Register(mux)
	mux.HandleFunc("GET /healthz", checker.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           httpapi.Handler(mux, cfg.CORSOrigin, logger.L()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "ledger", cfg.LedgerBackend, "timezone", cfg.VoteTimezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
