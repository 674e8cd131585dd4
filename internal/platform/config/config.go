// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
)

// Config agrega todos os parâmetros necessários para API e worker.
type Config struct {
	HTTPAddress string
	CORSOrigin  string
	LogLevel    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresMaxConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FilaKeyPrefix     string
	ContadorKeyPrefix string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	AutoMigrate bool

	VoteTimezone           string
	DailyTokenCap          int64
	CompanyMonthlyTokenCap int64
	PrivilegedCompanyID    string
	ProjectPrefixes        map[string]string
	LedgerBackend          string
	MigrateOnRead          bool
	MigrationSweepInterval time.Duration
	MigrationSweepBatch    int
	AdminMaxRows           int
	SeedCompanies          []Company

	WorkerMetricsAddress string
}

type Company struct {
	ID   string
	Name string
}

func Load() (Config, error) {
	// .env é opcional; variáveis já exportadas têm precedência.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: ler .env: %w", err)
	}

	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		CORSOrigin:             getEnv("CORS_ORIGIN", "*"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "obra"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "obra"),
		PostgresDB:             getEnv("POSTGRES_DB", "obra_tokens"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresMaxConns:       getEnvAsInt("POSTGRES_MAX_CONNS", 25),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		FilaKeyPrefix:          getEnv("REDIS_QUEUE_PREFIX", "fila:votos"),
		ContadorKeyPrefix:      getEnv("REDIS_COUNTER_PREFIX", "contador"),
		RateLimitEnabled:       getEnvAsBool("ANTIFRAUDE_RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:    getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_MAX", 20),
		RateLimitWindowSeconds: getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:     getEnv("ANTIFRAUDE_RATE_LIMIT_PREFIX", "ratelimit"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		VoteTimezone:           getEnv("VOTE_TIMEZONE", "America/New_York"),
		PrivilegedCompanyID:    getEnv("PRIVILEGED_COMPANY_ID", "walsh"),
		LedgerBackend:          strings.ToLower(getEnv("LEDGER_BACKEND", LedgerPostgres)),
		MigrateOnRead:          getEnvAsBool("MIGRATE_ON_READ", true),
		MigrationSweepBatch:    getEnvAsInt("MIGRATION_SWEEP_BATCH", 200),
		AdminMaxRows:           getEnvAsInt("ADMIN_MAX_ROWS", 5000),
		WorkerMetricsAddress:   getEnv("WORKER_METRICS_ADDRESS", ":9090"),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	if cfg.DailyTokenCap, err = parsePositivo("DAILY_TOKEN_CAP", 3); err != nil {
		return Config{}, err
	}
	if cfg.CompanyMonthlyTokenCap, err = parsePositivo("COMPANY_MONTHLY_TOKEN_CAP", 30); err != nil {
		return Config{}, err
	}
	if cfg.MigrationSweepInterval, err = time.ParseDuration(getEnv("MIGRATION_SWEEP_INTERVAL", "10m")); err != nil {
		return Config{}, fmt.Errorf("config: MIGRATION_SWEEP_INTERVAL invalido: %w", err)
	}
	if cfg.ProjectPrefixes, err = parsePrefixos(getEnv("PROJECT_PREFIXES", "NBK=NBK,JP=JP")); err != nil {
		return Config{}, err
	}
	if cfg.SeedCompanies, err = parseEmpresas(os.Getenv("SEED_COMPANIES")); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if _, err := time.LoadLocation(c.VoteTimezone); err != nil {
		return fmt.Errorf("config: VOTE_TIMEZONE invalido %q: %w", c.VoteTimezone, err)
	}
	switch c.LedgerBackend {
	case LedgerPostgres, LedgerRedis:
	default:
		return fmt.Errorf("config: LEDGER_BACKEND deve ser %q ou %q, veio %q", LedgerPostgres, LedgerRedis, c.LedgerBackend)
	}
	if c.PrivilegedCompanyID == "" {
		return errors.New("config: PRIVILEGED_COMPANY_ID vazio")
	}
	if c.MigrationSweepInterval < 0 {
		return errors.New("config: MIGRATION_SWEEP_INTERVAL negativo")
	}
	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// parsePrefixos lê "NBK=NBK,JP=JP" (prefixo=projeto).
func parsePrefixos(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, par := range strings.Split(raw, ",") {
		par = strings.TrimSpace(par)
		if par == "" {
			continue
		}
		prefixo, projeto, ok := strings.Cut(par, "=")
		if !ok || strings.TrimSpace(prefixo) == "" || strings.TrimSpace(projeto) == "" {
			return nil, fmt.Errorf("config: PROJECT_PREFIXES entrada invalida %q", par)
		}
		out[strings.ToUpper(strings.TrimSpace(prefixo))] = strings.TrimSpace(projeto)
	}
	if len(out) == 0 {
		return nil, errors.New("config: PROJECT_PREFIXES vazio")
	}
	return out, nil
}

// parseEmpresas lê "walsh:Walsh,acme:Acme Concrete".
func parseEmpresas(raw string) ([]Company, error) {
	var out []Company
	for _, par := range strings.Split(raw, ",") {
		par = strings.TrimSpace(par)
		if par == "" {
			continue
		}
		id, nome, ok := strings.Cut(par, ":")
		id, nome = strings.TrimSpace(id), strings.TrimSpace(nome)
		if !ok || id == "" || nome == "" {
			return nil, fmt.Errorf("config: SEED_COMPANIES entrada invalida %q", par)
		}
		out = append(out, Company{ID: id, Name: nome})
	}
	return out, nil
}

func parsePositivo(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: %s deve ser inteiro positivo, veio %q", key, value)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
