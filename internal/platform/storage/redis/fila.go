// Pacote redis implementa o ledger de cotas, a fila de votos e os contadores sobre Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

const esperaPadrao = 5 * time.Second

// Fila guarda votos aceitos até o worker gravá-los no Postgres.
// Entrada por LPUSH, saída por BRPOP; payload que não decodifica vai para <key>:dead.
type Fila struct {
	client *redis.Client
	key    string
	espera time.Duration
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{client: client, key: key, espera: esperaPadrao}
}

func (f *Fila) Key() string { return f.key }

// DeadKey é a lista dos payloads descartados, mantidos para inspeção manual.
func (f *Fila) DeadKey() string { return f.key + ":dead" }

func (f *Fila) PublicarVoto(ctx context.Context, voto domain.Voto) error {
	payload, err := json.Marshal(voto)
	if err != nil {
		return fmt.Errorf("redis fila: serializar voto %s: %w", voto.ID, err)
	}
	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: enfileirar voto %s: %w", voto.ID, err)
	}
	return nil
}

// Pendentes conta votos aceitos ainda não persistidos.
func (f *Fila) Pendentes(ctx context.Context) (int64, error) {
	n, err := f.client.LLen(ctx, f.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis fila: llen: %w", err)
	}
	return n, nil
}

// ConsumirVotos entrega um voto por vez ao handler até o contexto acabar.
// Se o handler falha, o voto volta para a ponta de saída e o erro sobe.
func (f *Fila) ConsumirVotos(ctx context.Context, handler func(context.Context, domain.Voto) error) error {
	for ctx.Err() == nil {
		res, err := f.client.BRPop(ctx, f.espera, f.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			return fmt.Errorf("redis fila: brpop: %w", err)
		case len(res) != 2:
			continue
		}

		bruto := res[1]
		var voto domain.Voto
		if err := json.Unmarshal([]byte(bruto), &voto); err != nil {
			if err := f.client.LPush(context.WithoutCancel(ctx), f.DeadKey(), bruto).Err(); err != nil {
				return fmt.Errorf("redis fila: mover payload invalido: %w", err)
			}
			continue
		}

		if err := handler(ctx, voto); err != nil {
			if pushErr := f.client.RPush(context.WithoutCancel(ctx), f.key, bruto).Err(); pushErr != nil {
				return fmt.Errorf("redis fila: devolver voto %s: %w (handler: %v)", voto.ID, pushErr, err)
			}
			return err
		}
	}
	return ctx.Err()
}

var _ domain.Fila = (*Fila)(nil)
