package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

const (
	ttlBaldeDiario = 72 * time.Hour
	ttlBaldeMensal = 62 * 24 * time.Hour
)

// KEYS: balde diário, balde mensal, fila. ARGV: teto diário, teto mensal, voto, ttl diário, ttl mensal.
// Retorno {status, diario, mensal}: 0 aceito, 1 teto diário, 2 teto mensal.
var scriptToken = redis.NewScript(`
local diario = tonumber(redis.call('GET', KEYS[1]) or '0')
local mensal = tonumber(redis.call('GET', KEYS[2]) or '0')
if diario >= tonumber(ARGV[1]) then
  return {1, diario, mensal}
end
if mensal >= tonumber(ARGV[2]) then
  return {2, diario, mensal}
end
diario = redis.call('INCR', KEYS[1])
mensal = redis.call('INCR', KEYS[2])
redis.call('EXPIRE', KEYS[1], ARGV[4])
redis.call('EXPIRE', KEYS[2], ARGV[5])
redis.call('LPUSH', KEYS[3], ARGV[3])
return {0, diario, mensal}
`)

// VotoLedger decide a cota num script Lua atômico e deixa o voto na fila para o worker gravar no Postgres.
type VotoLedger struct {
	client   *redis.Client
	contador *Contador
	fila     *Fila
}

func NewVotoLedger(client *redis.Client, contador *Contador, fila *Fila) *VotoLedger {
	return &VotoLedger{client: client, contador: contador, fila: fila}
}

func (l *VotoLedger) RegistrarToken(ctx context.Context, voto domain.Voto, limites domain.Limites) (domain.Contagem, error) {
	payload, err := json.Marshal(voto)
	if err != nil {
		return domain.Contagem{}, fmt.Errorf("redis ledger: serializar voto: %w", err)
	}

	diario, mensal := l.contador.Baldes(voto.CodigoEleitor, voto.EmpresaEleitorID, voto.DayKey, voto.MonthKey)
	keys := []string{diario, mensal, l.fila.Key()}
	res, err := scriptToken.Run(ctx, l.client, keys,
		limites.Diario,
		limites.MensalEmpresa,
		payload,
		int64(ttlBaldeDiario.Seconds()),
		int64(ttlBaldeMensal.Seconds()),
	).Int64Slice()
	if err != nil {
		return domain.Contagem{}, fmt.Errorf("redis ledger: script: %w", err)
	}
	if len(res) != 3 {
		return domain.Contagem{}, fmt.Errorf("redis ledger: resposta inesperada %v", res)
	}

	switch res[0] {
	case 0:
		return domain.Contagem{Diario: res[1], MensalEmpresa: res[2]}, nil
	case 1:
		return domain.Contagem{}, domain.ErrLimiteDiario
	case 2:
		return domain.Contagem{}, domain.ErrLimiteMensalEmpresa
	default:
		return domain.Contagem{}, fmt.Errorf("redis ledger: status desconhecido %d", res[0])
	}
}

func (l *VotoLedger) RegistrarGoodCatch(ctx context.Context, voto domain.Voto) error {
	return l.fila.PublicarVoto(ctx, voto)
}

func (l *VotoLedger) Contagem(ctx context.Context, codigoEleitor, empresaID, dayKey, monthKey string) (domain.Contagem, error) {
	contagem, err := l.contador.Contagem(ctx, codigoEleitor, empresaID, dayKey, monthKey)
	if err != nil {
		return domain.Contagem{}, fmt.Errorf("redis ledger: %w", err)
	}
	return contagem, nil
}

var _ domain.VotoLedger = (*VotoLedger)(nil)
