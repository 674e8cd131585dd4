// Pacote worker contém o processamento assíncrono: dreno da fila de votos e varredura de códigos legados.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelojr/obra-tokens/internal/domain"
	"github.com/marcelojr/obra-tokens/internal/platform/ids"
	"github.com/marcelojr/obra-tokens/internal/platform/metrics"
)

const (
	esperaInicial = 500 * time.Millisecond
	esperaMaxima  = 30 * time.Second
)

// VoteProcessor grava no Postgres os votos que o ledger Redis já aceitou.
type VoteProcessor struct {
	repo   domain.VotoRepository
	clock  domain.Clock
	logger *slog.Logger
}

func NewVoteProcessor(repo domain.VotoRepository, clock domain.Clock, logger *slog.Logger) *VoteProcessor {
	return &VoteProcessor{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Process é idempotente: reentregar o mesmo voto não gera linha duplicada.
func (p *VoteProcessor) Process(ctx context.Context, voto domain.Voto) error {
	if voto.ID == "" {
		p.logger.Warn("voto sem id descartado", "eleitor", voto.CodigoEleitor, "alvo", voto.CodigoAlvo)
		return nil
	}
	// O ledger sempre carimba; isto só cobre mensagens antigas sem horário.
	if voto.CriadoEm.IsZero() {
		voto.CriadoEm = p.instante(voto.ID)
	}

	if err := p.repo.Registrar(ctx, voto); err != nil {
		return fmt.Errorf("worker: registrar voto %s: %w", voto.ID, err)
	}

	metrics.IncVoteLogProcessed()
	return nil
}

// instante prefere o carimbo embutido no ULID; id fora do formato usa o relógio.
func (p *VoteProcessor) instante(id domain.VotoID) time.Time {
	if t, err := ids.Instante(string(id)); err == nil {
		return t
	}
	return p.clock.Agora()
}

// Drenar consome a fila até o contexto acabar. Uma falha de gravação devolve o voto
// para a fila e o consumo recomeça depois de uma espera crescente.
func (p *VoteProcessor) Drenar(ctx context.Context, fila domain.Fila) error {
	espera := esperaInicial
	for {
		err := fila.ConsumirVotos(ctx, p.Process)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			espera = esperaInicial
			continue
		}

		p.logger.Error("falha ao drenar fila de votos", "err", err, "retry_in", espera.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(espera):
		}
		espera = min(espera*2, esperaMaxima)
	}
}
