package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

type EmpresaRepository struct {
	db *gorm.DB
}

func NewEmpresaRepository(db *gorm.DB) *EmpresaRepository {
	return &EmpresaRepository{db: db}
}

func (r *EmpresaRepository) List(ctx context.Context) ([]domain.Empresa, error) {
	lista := []domain.Empresa{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&lista).Error; err != nil {
		return nil, fmt.Errorf("gorm empresas: listar: %w", err)
	}
	return lista, nil
}

func (r *EmpresaRepository) FindByID(ctx context.Context, id string) (domain.Empresa, error) {
	var e domain.Empresa
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error; err != nil {
		err = traduzirNaoEncontrado(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Empresa{}, err
		}
		return domain.Empresa{}, fmt.Errorf("gorm empresas: buscar %s: %w", id, err)
	}
	return e, nil
}

// Seed grava a lista de empresas; reexecutar só atualiza os nomes.
func (r *EmpresaRepository) Seed(ctx context.Context, empresas []domain.Empresa) error {
	if len(empresas) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(&empresas).Error; err != nil {
		return fmt.Errorf("gorm empresas: seed: %w", err)
	}
	return nil
}

var _ domain.EmpresaRepository = (*EmpresaRepository)(nil)
