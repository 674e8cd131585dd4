package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelojr/obra-tokens/internal/app/codes"
	"github.com/marcelojr/obra-tokens/internal/domain"
)

const loteVarreduraPadrao = 200

// Migrador é a parte do diretório que a varredura usa.
type Migrador interface {
	Migrar(ctx context.Context, legado, canonico, origem string) (domain.Trabalhador, bool, error)
}

// MigrationSweeper leva para o formato canônico os registros legados que ninguém leu.
type MigrationSweeper struct {
	trabalhadores domain.TrabalhadorRepository
	migrador      Migrador
	lote          int
	intervalo     time.Duration
	logger        *slog.Logger
}

func NewMigrationSweeper(trabalhadores domain.TrabalhadorRepository, migrador Migrador, lote int, intervalo time.Duration, logger *slog.Logger) *MigrationSweeper {
	if lote <= 0 {
		lote = loteVarreduraPadrao
	}
	return &MigrationSweeper{
		trabalhadores: trabalhadores,
		migrador:      migrador,
		lote:          lote,
		intervalo:     intervalo,
		logger:        logger,
	}
}

// ResultadoVarredura resume uma passada completa. Conflitos são legados cujo
// canônico já existe; ficam para revisão manual.
type ResultadoVarredura struct {
	Migrados  int
	Conflitos int
	Falhas    int
}

// Varrer percorre todos os legados em páginas de s.lote e migra um por um.
// Erro de um registro não interrompe a passada; erro de listagem sim.
func (s *MigrationSweeper) Varrer(ctx context.Context) (ResultadoVarredura, error) {
	var res ResultadoVarredura
	depois := ""
	for {
		legados, err := s.trabalhadores.ListLegados(ctx, depois, s.lote)
		if err != nil {
			return res, fmt.Errorf("worker: listar legados: %w", err)
		}

		for _, legado := range legados {
			s.migrarUm(ctx, legado, &res)
		}

		if len(legados) < s.lote {
			return res, nil
		}
		depois = legados[len(legados)-1].Codigo
	}
}

func (s *MigrationSweeper) migrarUm(ctx context.Context, legado domain.Trabalhador, res *ResultadoVarredura) {
	canonico, err := codes.NormalizarEstrito(legado.Codigo)
	if err != nil {
		s.logger.Warn("codigo legado irreconhecivel", "codigo", legado.Codigo, "err", err)
		res.Falhas++
		return
	}

	_, migrado, err := s.migrador.Migrar(ctx, legado.Codigo, canonico, domain.OrigemMigracaoVarredura)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Migrado por outra instância entre a listagem e agora.
	case err != nil:
		s.logger.Error("falha ao migrar legado", "codigo", legado.Codigo, "canonico", canonico, "err", err)
		res.Falhas++
	case migrado:
		res.Migrados++
	default:
		s.logger.Warn("canonico ja existe para legado", "codigo", legado.Codigo, "canonico", canonico)
		res.Conflitos++
	}
}

// Run varre na partida e depois a cada intervalo; intervalo zero faz uma passada só.
func (s *MigrationSweeper) Run(ctx context.Context) error {
	s.passada(ctx)
	if s.intervalo <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.intervalo)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.passada(ctx)
		}
	}
}

func (s *MigrationSweeper) passada(ctx context.Context) {
	inicio := time.Now()
	res, err := s.Varrer(ctx)
	if err != nil {
		s.logger.Error("varredura de legados interrompida", "err", err)
		return
	}
	s.logger.Info("varredura de legados concluida",
		"migrados", res.Migrados,
		"conflitos", res.Conflitos,
		"falhas", res.Falhas,
		"duration_ms", time.Since(inicio).Milliseconds(),
	)
}
