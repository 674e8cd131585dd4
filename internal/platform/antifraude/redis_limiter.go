// Pacote antifraude freia rajadas de envio do mesmo aparelho (rate limit Redis e modo noop).
package antifraude

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

// ErrRateLimitExceeded é a rejeição base; errors.Is casa pelo código RATE_LIMITED.
var ErrRateLimitExceeded = domain.Rejeitar(domain.CodeRateLimited, "too many votes from this device, try again later")

// A janela nasce junto com o primeiro hit; nunca sobra chave sem TTL.
var janelaScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// RedisRateLimiter conta tentativas por eleitor + aparelho em janelas fixas.
type RedisRateLimiter struct {
	client  *redis.Client
	limite  int
	janela  time.Duration
	prefixo string
}

func NewRedisRateLimiter(client *redis.Client, limite int, janela time.Duration, prefixo string) *RedisRateLimiter {
	if prefixo == "" {
		prefixo = "ratelimit"
	}
	return &RedisRateLimiter{client: client, limite: limite, janela: janela, prefixo: prefixo}
}

// Validar libera tudo quando o limiter está sem client ou sem limite configurado.
func (r *RedisRateLimiter) Validar(ctx context.Context, pedido domain.PedidoVoto) error {
	if r.client == nil || r.limite <= 0 || r.janela <= 0 {
		return nil
	}

	key := r.buildKey(pedido)
	res, err := janelaScript.Run(ctx, r.client, []string{key}, r.janela.Milliseconds()).Int64Slice()
	if err != nil {
		return fmt.Errorf("antifraude: janela %s: %w", key, err)
	}
	if len(res) != 2 {
		return fmt.Errorf("antifraude: resposta inesperada do script: %v", res)
	}

	if res[0] <= int64(r.limite) {
		return nil
	}
	return rejeicaoComEspera(time.Duration(res[1]) * time.Millisecond)
}

func rejeicaoComEspera(resta time.Duration) error {
	segundos := int64((resta + time.Second - 1) / time.Second)
	if segundos <= 0 {
		return ErrRateLimitExceeded
	}
	return domain.Rejeitar(domain.CodeRateLimited, fmt.Sprintf("too many votes from this device, try again in %ds", segundos))
}

func (r *RedisRateLimiter) buildKey(pedido domain.PedidoVoto) string {
	// Hash evita gravar IP/UA em claro no Redis.
	hash := sha1.Sum([]byte(pedido.CodigoEleitor + "|" + pedido.OrigemIP + "|" + pedido.UserAgent))
	return r.prefixo + ":" + hex.EncodeToString(hash[:])
}

var _ domain.Antifraude = (*RedisRateLimiter)(nil)
