package antifraude

import (
	"context"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

// Noop representa uma estratégia de antifraude desabilitada.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Validar(context.Context, domain.PedidoVoto) error {
	return nil
}

var _ domain.Antifraude = Noop{}
