package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

// Contador conhece o layout dos baldes de cota que o script do ledger incrementa.
type Contador struct {
	client *redis.Client
	prefix string
}

func NewContador(client *redis.Client, prefix string) *Contador {
	return &Contador{client: client, prefix: prefix}
}

// Baldes devolve as chaves (diária do eleitor, mensal da empresa) já com prefixo.
func (c *Contador) Baldes(codigoEleitor, empresaID, dayKey, monthKey string) (diario, mensal string) {
	return c.chave(domain.CounterKeyVoterDaily(codigoEleitor, dayKey)),
		c.chave(domain.CounterKeyCompanyMonthly(empresaID, monthKey))
}

// Contagem lê os dois baldes numa ida só; balde ausente conta zero.
func (c *Contador) Contagem(ctx context.Context, codigoEleitor, empresaID, dayKey, monthKey string) (domain.Contagem, error) {
	diario, mensal := c.Baldes(codigoEleitor, empresaID, dayKey, monthKey)

	valores, err := c.client.MGet(ctx, diario, mensal).Result()
	if err != nil {
		return domain.Contagem{}, fmt.Errorf("redis contador: mget: %w", err)
	}
	if len(valores) != 2 {
		return domain.Contagem{}, fmt.Errorf("redis contador: mget devolveu %d valores", len(valores))
	}

	d, err := lerBalde(diario, valores[0])
	if err != nil {
		return domain.Contagem{}, err
	}
	m, err := lerBalde(mensal, valores[1])
	if err != nil {
		return domain.Contagem{}, err
	}
	return domain.Contagem{Diario: d, MensalEmpresa: m}, nil
}

func lerBalde(chave string, raw any) (int64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("redis contador: valor invalido em %s: %w", chave, err)
		}
		return n, nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("redis contador: tipo inesperado %T em %s", raw, chave)
	}
}

func (c *Contador) chave(id string) string {
	if c.prefix == "" {
		return id
	}
	return c.prefix + ":" + id
}
