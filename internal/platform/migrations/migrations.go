// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

func lista() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202407010001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.Empresa{},
					&domain.Trabalhador{},
					&domain.Voto{},
					&domain.ContadorVoto{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("vote_counters", "votes", "workers", "companies")
			},
		},
		{
			ID: "202407150001_worker_migrations",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.MigracaoTrabalhador{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("worker_migrations")
			},
		},
	}
}

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, lista())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
