package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

// VotoRepository guarda o log imutável de votos e expõe a leitura por período.
type VotoRepository struct {
	db *gorm.DB
}

func NewVotoRepository(db *gorm.DB) *VotoRepository {
	return &VotoRepository{db: db}
}

// Registrar ignora um ID já gravado: o worker pode reprocessar a mesma mensagem da fila.
func (r *VotoRepository) Registrar(ctx context.Context, voto domain.Voto) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&voto).Error; err != nil {
		return fmt.Errorf("gorm votos: inserir: %w", err)
	}
	return nil
}

// ListByPeriodo filtra por mês e, opcionalmente, por dia; mais recentes primeiro.
func (r *VotoRepository) ListByPeriodo(ctx context.Context, monthKey, dayKey string, limite int) ([]domain.Voto, error) {
	q := r.db.WithContext(ctx).Where("month_key = ?", monthKey)
	if dayKey != "" {
		q = q.Where("day_key = ?", dayKey)
	}
	if limite > 0 {
		q = q.Limit(limite)
	}

	votos := []domain.Voto{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&votos).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: listar periodo %s/%s: %w", monthKey, dayKey, err)
	}
	return votos, nil
}

var _ domain.VotoRepository = (*VotoRepository)(nil)
