package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/obra-tokens/internal/domain"
	"github.com/marcelojr/obra-tokens/internal/platform/ids"
)

func setupLedger(t *testing.T) (*VotoLedger, *Fila) {
	client, _ := setupRedis(t)
	fila := NewFila(client, "fila:votos")
	return NewVotoLedger(client, NewContador(client, "contador"), fila), fila
}

func TestVotoLedger_RegistrarToken_QuandoTetoDiario_DeveRecusarQuarto(t *testing.T) {
	ledger, fila := setupLedger(t)
	ctx := context.Background()
	gen := ids.NewGenerator()
	limites := domain.Limites{Diario: 3, MensalEmpresa: 30}

	// Act + Assert
	for i := int64(1); i <= 3; i++ {
		contagem, err := ledger.RegistrarToken(ctx, votoDeTeste(gen, "NBK0001"), limites)
		require.NoError(t, err)
		assert.Equal(t, domain.Contagem{Diario: i, MensalEmpresa: i}, contagem)
	}

	_, err := ledger.RegistrarToken(ctx, votoDeTeste(gen, "NBK0001"), limites)
	assert.ErrorIs(t, err, domain.ErrLimiteDiario)

	pendentes, err := fila.Pendentes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pendentes)
}

func TestVotoLedger_RegistrarToken_QuandoTetoMensal_NaoDeveIncrementarNada(t *testing.T) {
	ledger, fila := setupLedger(t)
	ctx := context.Background()
	gen := ids.NewGenerator()
	limites := domain.Limites{Diario: 3, MensalEmpresa: 1}

	_, err := ledger.RegistrarToken(ctx, votoDeTeste(gen, "NBK0001"), limites)
	require.NoError(t, err)

	_, err = ledger.RegistrarToken(ctx, votoDeTeste(gen, "NBK0003"), limites)
	assert.ErrorIs(t, err, domain.ErrLimiteMensalEmpresa)

	contagem, err := ledger.Contagem(ctx, "NBK0003", "acme", "2024-07-10", "2024-07")
	require.NoError(t, err)
	assert.Equal(t, domain.Contagem{Diario: 0, MensalEmpresa: 1}, contagem)
	pendentes, err := fila.Pendentes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pendentes)
}

func TestVotoLedger_RegistrarToken_QuandoConcorrente_NuncaUltrapassaTeto(t *testing.T) {
	ledger, fila := setupLedger(t)
	ctx := context.Background()
	gen := ids.NewGenerator()
	limites := domain.Limites{Diario: 3, MensalEmpresa: 30}

	// Act
	var wg sync.WaitGroup
	erros := make([]error, 10)
	for i := range erros {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, erros[i] = ledger.RegistrarToken(ctx, votoDeTeste(gen, "NBK0001"), limites)
		}(i)
	}
	wg.Wait()

	// Assert
	var aceitos int
	for _, err := range erros {
		if err == nil {
			aceitos++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrLimiteDiario)
	}
	assert.Equal(t, 3, aceitos)
	pendentes, err := fila.Pendentes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pendentes)
}

func TestVotoLedger_RegistrarGoodCatch_DeveIrParaFilaSemContador(t *testing.T) {
	ledger, fila := setupLedger(t)
	ctx := context.Background()

	voto := votoDeTeste(ids.NewGenerator(), "NBK0003")
	voto.Tipo = domain.TipoGoodCatch
	voto.EmpresaEleitorID = "walsh"

	require.NoError(t, ledger.RegistrarGoodCatch(ctx, voto))

	contagem, err := ledger.Contagem(ctx, "NBK0003", "walsh", "2024-07-10", "2024-07")
	require.NoError(t, err)
	assert.Equal(t, domain.Contagem{}, contagem)
	pendentes, err := fila.Pendentes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pendentes)
}
