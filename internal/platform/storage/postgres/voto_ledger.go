package postgres

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

// VotoLedger aplica os tetos com SELECT ... FOR UPDATE nos dois baldes e grava o voto na mesma transação.
type VotoLedger struct {
	db *gorm.DB
}

func NewVotoLedger(db *gorm.DB) *VotoLedger {
	return &VotoLedger{db: db}
}

func baldes(voto domain.Voto) []domain.ContadorVoto {
	lista := []domain.ContadorVoto{
		{
			ID:            domain.CounterKeyVoterDaily(voto.CodigoEleitor, voto.DayKey),
			Tipo:          domain.KindVoterDaily,
			CodigoEleitor: voto.CodigoEleitor,
			DayKey:        voto.DayKey,
			AtualizadoEm:  voto.CriadoEm,
		},
		{
			ID:           domain.CounterKeyCompanyMonthly(voto.EmpresaEleitorID, voto.MonthKey),
			Tipo:         domain.KindCompanyMonthly,
			EmpresaID:    voto.EmpresaEleitorID,
			MonthKey:     voto.MonthKey,
			AtualizadoEm: voto.CriadoEm,
		},
	}
	// Ordem fixa de travamento evita deadlock entre transações concorrentes.
	sort.Slice(lista, func(i, j int) bool { return lista[i].ID < lista[j].ID })
	return lista
}

func (l *VotoLedger) RegistrarToken(ctx context.Context, voto domain.Voto, limites domain.Limites) (domain.Contagem, error) {
	chaveDia := domain.CounterKeyVoterDaily(voto.CodigoEleitor, voto.DayKey)
	chaveMes := domain.CounterKeyCompanyMonthly(voto.EmpresaEleitorID, voto.MonthKey)

	var contagem domain.Contagem
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		novos := baldes(voto)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&novos).Error; err != nil {
			return fmt.Errorf("gorm ledger: criar contadores: %w", err)
		}

		var atuais []domain.ContadorVoto
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", []string{novos[0].ID, novos[1].ID}).
			Order("id ASC").
			Find(&atuais).Error; err != nil {
			return fmt.Errorf("gorm ledger: travar contadores: %w", err)
		}

		usados := make(map[string]int64, len(atuais))
		for _, c := range atuais {
			usados[c.ID] = c.Total
		}
		if usados[chaveDia] >= limites.Diario {
			return domain.ErrLimiteDiario
		}
		if usados[chaveMes] >= limites.MensalEmpresa {
			return domain.ErrLimiteMensalEmpresa
		}

		if err := tx.Create(&voto).Error; err != nil {
			return fmt.Errorf("gorm ledger: inserir voto: %w", err)
		}
		if err := tx.Model(&domain.ContadorVoto{}).
			Where("id IN ?", []string{chaveDia, chaveMes}).
			Updates(map[string]any{
				"count":      gorm.Expr("count + 1"),
				"updated_at": voto.CriadoEm,
			}).Error; err != nil {
			return fmt.Errorf("gorm ledger: incrementar contadores: %w", err)
		}

		contagem = domain.Contagem{Diario: usados[chaveDia] + 1, MensalEmpresa: usados[chaveMes] + 1}
		return nil
	})
	if err != nil {
		return domain.Contagem{}, err
	}
	return contagem, nil
}

func (l *VotoLedger) RegistrarGoodCatch(ctx context.Context, voto domain.Voto) error {
	if err := l.db.WithContext(ctx).Create(&voto).Error; err != nil {
		return fmt.Errorf("gorm ledger: inserir good catch: %w", err)
	}
	return nil
}

func (l *VotoLedger) Contagem(ctx context.Context, codigoEleitor, empresaID, dayKey, monthKey string) (domain.Contagem, error) {
	chaveDia := domain.CounterKeyVoterDaily(codigoEleitor, dayKey)
	chaveMes := domain.CounterKeyCompanyMonthly(empresaID, monthKey)

	var atuais []domain.ContadorVoto
	if err := l.db.WithContext(ctx).
		Where("id IN ?", []string{chaveDia, chaveMes}).
		Find(&atuais).Error; err != nil {
		return domain.Contagem{}, fmt.Errorf("gorm ledger: ler contadores: %w", err)
	}

	var c domain.Contagem
	for _, balde := range atuais {
		switch balde.ID {
		case chaveDia:
			c.Diario = balde.Total
		case chaveMes:
			c.MensalEmpresa = balde.Total
		}
	}
	return c, nil
}

var _ domain.VotoLedger = (*VotoLedger)(nil)
