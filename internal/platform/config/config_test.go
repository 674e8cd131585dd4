package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SemVariaveis_DeveUsarPadroes(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.DailyTokenCap)
	assert.Equal(t, int64(30), cfg.CompanyMonthlyTokenCap)
	assert.Equal(t, "walsh", cfg.PrivilegedCompanyID)
	assert.Equal(t, "America/New_York", cfg.VoteTimezone)
	assert.Equal(t, LedgerPostgres, cfg.LedgerBackend)
	assert.Equal(t, map[string]string{"NBK": "NBK", "JP": "JP"}, cfg.ProjectPrefixes)
	assert.Equal(t, 10*time.Minute, cfg.MigrationSweepInterval)
	assert.True(t, cfg.MigrateOnRead)
	assert.Equal(t, 5000, cfg.AdminMaxRows)
	assert.Empty(t, cfg.SeedCompanies)
}

func TestLoad_ComVariaveis_DeveSobrescrever(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DAILY_TOKEN_CAP", "5")
	t.Setenv("LEDGER_BACKEND", "Redis")
	t.Setenv("PROJECT_PREFIXES", "nbk=NBK, jp = JP ,SV=Seaview")
	t.Setenv("SEED_COMPANIES", "walsh:Walsh, acme:Acme Concrete")
	t.Setenv("MIGRATE_ON_READ", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.DailyTokenCap)
	assert.Equal(t, LedgerRedis, cfg.LedgerBackend)
	assert.Equal(t, "Seaview", cfg.ProjectPrefixes["SV"])
	assert.Equal(t, "JP", cfg.ProjectPrefixes["JP"])
	assert.Equal(t, []Company{{ID: "walsh", Name: "Walsh"}, {ID: "acme", Name: "Acme Concrete"}}, cfg.SeedCompanies)
	assert.False(t, cfg.MigrateOnRead)
}

func TestLoad_QuandoValorInvalido_DeveFalhar(t *testing.T) {
	casos := map[string]string{
		"VOTE_TIMEZONE":             "Mars/Olympus",
		"DAILY_TOKEN_CAP":           "0",
		"COMPANY_MONTHLY_TOKEN_CAP": "muitos",
		"LEDGER_BACKEND":            "mongo",
		"PROJECT_PREFIXES":          "NBK",
		"SEED_COMPANIES":            "walsh",
		"MIGRATION_SWEEP_INTERVAL":  "dez minutos",
		"REDIS_DB":                  "x",
	}
	for chave, valor := range casos {
		t.Run(chave, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(chave, valor)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{PostgresUser: "u", PostgresPassword: "p", PostgresHost: "db", PostgresPort: "5432", PostgresDB: "obra", PostgresSSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@db:5432/obra?sslmode=disable", cfg.PostgresDSN())
}
