package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestContador_Contagem_QuandoBaldeMensalNaoExiste_DeveContarZero(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "contador")

	// Arrange
	require.NoError(t, mr.Set("contador:voterDaily_NBK0001_2024-07-10", "2"))

	// Act
	contagem, err := contador.Contagem(context.Background(), "NBK0001", "acme", "2024-07-10", "2024-07")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.Contagem{Diario: 2, MensalEmpresa: 0}, contagem)
}

func TestContador_Contagem_QuandoValorCorrompido_DeveFalhar(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "")

	require.NoError(t, mr.Set("companyMonthly_acme_2024-07", "abc"))

	_, err := contador.Contagem(context.Background(), "NBK0001", "acme", "2024-07-10", "2024-07")

	assert.ErrorContains(t, err, "companyMonthly_acme_2024-07")
}

func TestContador_Baldes_DeveAplicarPrefixo(t *testing.T) {
	diario, mensal := NewContador(nil, "contador").Baldes("NBK0001", "acme", "2024-07-10", "2024-07")
	assert.Equal(t, "contador:voterDaily_NBK0001_2024-07-10", diario)
	assert.Equal(t, "contador:companyMonthly_acme_2024-07", mensal)

	diario, _ = NewContador(nil, "").Baldes("NBK0001", "acme", "2024-07-10", "2024-07")
	assert.Equal(t, "voterDaily_NBK0001_2024-07-10", diario)
}
