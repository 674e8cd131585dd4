// Pacote postgres implementa a camada de persistência no Postgres via GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

type Options struct {
	MaxOpenConns int
	Debug        bool
}

func Open(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	nivel := logger.Warn
	if opts.Debug {
		nivel = logger.Info
	}
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(nivel),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres gorm: abrir conexao: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres gorm: obter sql.DB: %w", err)
	}

	maxConns := opts.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 25
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctxPing); err != nil {
		return nil, fmt.Errorf("postgres gorm: ping falhou: %w", err)
	}

	return gormDB, nil
}

// traduzirNaoEncontrado mantém gorm fora das camadas de cima.
func traduzirNaoEncontrado(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
