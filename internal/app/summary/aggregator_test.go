package summary

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

func voto(id, eleitor, alvo, empEleitor, empAlvo string, tipo domain.TipoVoto, dia string) domain.Voto {
	return domain.Voto{
		ID:               domain.VotoID(id),
		CodigoEleitor:    eleitor,
		CodigoAlvo:       alvo,
		EmpresaEleitorID: empEleitor,
		EmpresaAlvoID:    empAlvo,
		Projeto:          "NBK",
		Tipo:             tipo,
		CriadoEm:         time.Date(2024, 7, 10, 15, 0, 0, 0, time.UTC),
		DayKey:           dia,
		MonthKey:         dia[:7],
	}
}

func votosDeTeste() []domain.Voto {
	return []domain.Voto{
		voto("01", "NBK0001", "NBK0002", "acme", "bolt", domain.TipoToken, "2024-07-10"),
		voto("02", "NBK0001", "NBK0002", "acme", "bolt", domain.TipoToken, "2024-07-10"),
		voto("03", "NBK0004", "NBK0003", "acme", "walsh", domain.TipoToken, "2024-07-11"),
		voto("04", "NBK0003", "NBK0002", "walsh", "bolt", domain.TipoGoodCatch, "2024-07-11"),
		voto("05", "NBK0009", "NBK0002", "", "bolt", domain.TipoToken, "2024-07-11"),
	}
}

func TestDobrar_DeveSepararTokensDeGoodCatch(t *testing.T) {
	nomes := map[string]string{"NBK0001": "Ana Souza", "NBK0002": "Bruno Lima", "NBK0003": "Carla Dias"}
	empresas := map[string]string{"acme": "Acme Concrete", "bolt": "Bolt Electric", "walsh": "Walsh"}

	rel := Dobrar(votosDeTeste(), nomes, empresas)

	require.Len(t, rel.Linhas, 5)
	assert.Equal(t, []domain.TotalDia{
		{DayKey: "2024-07-10", Tokens: 2},
		{DayKey: "2024-07-11", Tokens: 2, GoodCatches: 1},
	}, rel.PorDia)

	require.Len(t, rel.Tokens.PorAlvo, 2)
	assert.Equal(t, domain.Grupo{Projeto: "NBK", Chave: "NBK0002", Nome: "Bruno Lima", Total: 3}, rel.Tokens.PorAlvo[0])
	assert.Equal(t, "NBK0003", rel.Tokens.PorAlvo[1].Chave)

	require.Len(t, rel.Tokens.PorEmpresaEleitor, 2)
	assert.Equal(t, "acme", rel.Tokens.PorEmpresaEleitor[0].Chave)
	assert.Equal(t, int64(3), rel.Tokens.PorEmpresaEleitor[0].Total)
	assert.Equal(t, NomeDesconhecido, rel.Tokens.PorEmpresaEleitor[1].Nome)

	require.Len(t, rel.GoodCatch.PorAlvo, 1)
	assert.Equal(t, int64(1), rel.GoodCatch.PorAlvo[0].Total)
	assert.Equal(t, "Walsh", rel.GoodCatch.PorEmpresaEleitor[0].Nome)
	assert.Equal(t, "Bolt Electric", rel.GoodCatch.PorEmpresaAlvo[0].Nome)
}

func TestDobrar_QuandoNomeAusente_DeveCairNoID(t *testing.T) {
	rel := Dobrar(votosDeTeste()[4:], nil, nil)

	require.Len(t, rel.Linhas, 1)
	assert.Equal(t, "NBK0009", rel.Linhas[0].NomeEleitor)
	assert.Equal(t, NomeDesconhecido, rel.Linhas[0].EmpresaEleitor)
	assert.Equal(t, "bolt", rel.Linhas[0].EmpresaAlvo)
}

func TestDobrar_QuandoSemVotos_DeveDevolverListasVazias(t *testing.T) {
	rel := Dobrar(nil, nil, nil)

	assert.NotNil(t, rel.Linhas)
	assert.NotNil(t, rel.PorDia)
	assert.Empty(t, rel.Tokens.PorAlvo)
}

func TestResumo_DeveValidarMesEDia(t *testing.T) {
	service := NewService(&fakeVotos{}, fakeTrabalhadores{}, fakeEmpresas{}, 10)
	ctx := context.Background()

	_, err := service.Resumo(ctx, "2024-13", "")
	assert.Equal(t, domain.CodeInvalidMonth, domain.CodigoDoErro(err))

	_, err = service.Resumo(ctx, "2024-07", "2024-08-01")
	assert.Equal(t, domain.CodeInvalidMonth, domain.CodigoDoErro(err))
}

func TestResumo_QuandoPassaDoTeto_DeveMarcarTruncado(t *testing.T) {
	votos := &fakeVotos{lista: votosDeTeste()}
	service := NewService(votos, fakeTrabalhadores{}, fakeEmpresas{}, 3)

	rel, err := service.Resumo(context.Background(), "2024-07", "")

	require.NoError(t, err)
	assert.True(t, rel.Truncado)
	assert.Len(t, rel.Linhas, 3)
	assert.Equal(t, 4, votos.ultimoLimite)
	assert.Equal(t, "2024-07", rel.MonthKey)
}

func TestResumo_QuandoRepositorioFalha_DevePropagar(t *testing.T) {
	service := NewService(&fakeVotos{err: errors.New("timeout")}, fakeTrabalhadores{}, fakeEmpresas{}, 10)

	_, err := service.Resumo(context.Background(), "2024-07", "")

	assert.Equal(t, domain.CodeInternal, domain.CodigoDoErro(err))
}

func TestExportarCSV(t *testing.T) {
	rel := Dobrar(votosDeTeste(), map[string]string{"NBK0002": "Bruno Lima"}, map[string]string{"bolt": "Bolt Electric"})

	t.Run("rows", func(t *testing.T) {
		registros := exportar(t, rel, ExportLinhas)
		require.Len(t, registros, 6)
		assert.Equal(t, "voterCode", registros[0][4])
		assert.Equal(t, "Bruno Lima", registros[1][8])
	})

	t.Run("totals", func(t *testing.T) {
		registros := exportar(t, rel, ExportTotais)
		assert.Equal(t, []string{"voteType", "grouping", "project", "key", "name", "count"}, registros[0])
		assert.Contains(t, registros, []string{"token", "byTarget", "NBK", "NBK0002", "Bruno Lima", "3"})
		assert.Contains(t, registros, []string{"goodCatch", "byTargetCompany", "NBK", "bolt", "Bolt Electric", "1"})
	})

	t.Run("targets", func(t *testing.T) {
		registros := exportar(t, rel, ExportAlvos)
		require.Len(t, registros, 3)
		assert.Equal(t, []string{"NBK", "NBK0002", "Bruno Lima", "Bolt Electric", "3", "1"}, registros[1])
	})

	t.Run("tipo invalido", func(t *testing.T) {
		_, err := ParseTipoExportacao("pdf")
		assert.ErrorIs(t, err, ErrTipoExportacao)
		assert.Error(t, ExportarCSV(&bytes.Buffer{}, rel, "pdf"))
	})
}

func exportar(t *testing.T, rel domain.Relatorio, tipo TipoExportacao) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ExportarCSV(&buf, rel, tipo))
	registros, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return registros
}

type fakeVotos struct {
	lista        []domain.Voto
	err          error
	ultimoLimite int
}

func (f *fakeVotos) Registrar(context.Context, domain.Voto) error { return nil }

func (f *fakeVotos) ListByPeriodo(_ context.Context, _, _ string, limite int) ([]domain.Voto, error) {
	f.ultimoLimite = limite
	if f.err != nil {
		return nil, f.err
	}
	if limite > 0 && len(f.lista) > limite {
		return f.lista[:limite], nil
	}
	return f.lista, nil
}

type fakeTrabalhadores struct {
	domain.TrabalhadorRepository
}

func (fakeTrabalhadores) FindMany(context.Context, []string) (map[string]domain.Trabalhador, error) {
	return map[string]domain.Trabalhador{}, nil
}

type fakeEmpresas struct {
	domain.EmpresaRepository
}

func (fakeEmpresas) List(context.Context) ([]domain.Empresa, error) {
	return nil, nil
}
