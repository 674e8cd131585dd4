package codes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

func TestNormalizar_PaddingsEquivalentes(t *testing.T) {
	for _, in := range []string{"NBK1", "NBK01", "NBK001", "NBK0001", "nbk-0001", " nbk 1 "} {
		assert.Equal(t, "NBK0001", Normalizar(in), "entrada %q", in)
	}
}

func TestNormalizar_Idempotente(t *testing.T) {
	entradas := []string{"NBK1", "jp-12", "A1B2", "", "---", "NBK12345", "NBK0", "1234", "abc"}
	for _, in := range entradas {
		uma := Normalizar(in)
		assert.Equal(t, uma, Normalizar(uma), "entrada %q", in)
	}
}

func TestNormalizar_QuandoNaoCanonico_DevolveTextoLimpo(t *testing.T) {
	assert.Equal(t, "A1B2", Normalizar("a1-b2"))
	assert.Equal(t, "ABC", Normalizar("abc!"))
	assert.Equal(t, "NBK0000", Normalizar("NBK0"))
	assert.Equal(t, "NBK12345", Normalizar("NBK12345"))
}

func TestNormalizarEstrito(t *testing.T) {
	got, err := NormalizarEstrito("jp 7")
	require.NoError(t, err)
	assert.Equal(t, "JP0007", got)

	for _, in := range []string{"", "1234", "ABC", "A1B2", "  "} {
		_, err := NormalizarEstrito(in)
		assert.True(t, errors.Is(err, ErrCodigoInvalido), "entrada %q deveria falhar", in)
	}
}

func TestLegado(t *testing.T) {
	assert.Equal(t, "NBK-0001", Legado("NBK0001"))
	assert.Equal(t, "JP-0042", Legado("JP0042"))
	assert.Equal(t, "XYZ", Legado("XYZ"))
	assert.True(t, EhLegado("NBK-0001"))
	assert.False(t, EhLegado("NBK0001"))
}

func TestCatalogo_Projeto(t *testing.T) {
	cat, err := NewCatalogo(map[string]string{"NBK": "NBK", "jp": "JP"})
	require.NoError(t, err)

	p, err := cat.Projeto("NBK0001")
	require.NoError(t, err)
	assert.Equal(t, domain.Projeto("NBK"), p)

	p, err = cat.Projeto("JP0003")
	require.NoError(t, err)
	assert.Equal(t, domain.Projeto("JP"), p)

	_, err = cat.Projeto("NBKX0001")
	var desconhecido *PrefixoDesconhecidoError
	require.ErrorAs(t, err, &desconhecido)
	assert.Equal(t, "NBKX", desconhecido.Prefixo)

	assert.Equal(t, []string{"JP", "NBK"}, cat.Prefixos())
}

func TestNewCatalogo_QuandoVazio_DeveFalhar(t *testing.T) {
	_, err := NewCatalogo(nil)
	assert.Error(t, err)

	_, err = NewCatalogo(map[string]string{"NBK": " "})
	assert.Error(t, err)
}
