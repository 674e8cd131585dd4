package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRun_DeveCriarTabelasEPermitirReexecucao(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	for _, tabela := range []string{"companies", "workers", "votes", "vote_counters", "worker_migrations"} {
		assert.True(t, db.Migrator().HasTable(tabela), tabela)
	}
}

func TestRun_QuandoDBNulo_DeveFalhar(t *testing.T) {
	assert.Error(t, Run(nil))
}
