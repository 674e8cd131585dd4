package antifraude

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

func TestRedisRateLimiterRespectsLimit(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisRateLimiter(client, 2, time.Minute, "rl")

	pedido := domain.PedidoVoto{
		CodigoEleitor: "NBK0001",
		CodigoAlvo:    "NBK0002",
		OrigemIP:      "200.1.1.1",
		UserAgent:     "test-agent",
	}

	ctx := context.Background()
	if err := limiter.Validar(ctx, pedido); err != nil {
		t.Fatalf("primeiro envio deveria ser aceito, erro: %v", err)
	}
	if err := limiter.Validar(ctx, pedido); err != nil {
		t.Fatalf("segundo envio deveria ser aceito, erro: %v", err)
	}

	err := limiter.Validar(ctx, pedido)
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("terceiro envio deveria ser bloqueado, recebeu: %v", err)
	}
	if domain.CodigoDoErro(err) != domain.CodeRateLimited {
		t.Fatalf("esperava código RATE_LIMITED, veio %s", domain.CodigoDoErro(err))
	}

	key := limiter.buildKey(pedido)
	if ttl := mr.TTL(key); ttl <= 0 {
		t.Fatalf("esperava TTL positivo para %s, veio %v", key, ttl)
	}
}

func TestRedisRateLimiterResetsAfterWindow(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	window := 30 * time.Second
	limiter := NewRedisRateLimiter(client, 1, window, "rl")

	pedido := domain.PedidoVoto{CodigoEleitor: "NBK0003", OrigemIP: "200.2.2.2", UserAgent: "ua"}

	ctx := context.Background()
	if err := limiter.Validar(ctx, pedido); err != nil {
		t.Fatalf("envio inicial deveria ser aceito: %v", err)
	}
	if err := limiter.Validar(ctx, pedido); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("segundo envio antes da janela deveria falhar: %v", err)
	}

	mr.FastForward(window + time.Second)

	if err := limiter.Validar(ctx, pedido); err != nil {
		t.Fatalf("apos expirar janela, envio deveria ser aceito: %v", err)
	}
}

func TestRedisRateLimiterSeparaEleitoresNoMesmoAparelho(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisRateLimiter(client, 1, time.Minute, "rl")
	ctx := context.Background()

	// Tablet compartilhado no canteiro: mesmo IP e UA, eleitores diferentes.
	a := domain.PedidoVoto{CodigoEleitor: "NBK0001", OrigemIP: "10.0.0.5", UserAgent: "kiosk"}
	b := domain.PedidoVoto{CodigoEleitor: "NBK0004", OrigemIP: "10.0.0.5", UserAgent: "kiosk"}

	if err := limiter.Validar(ctx, a); err != nil {
		t.Fatalf("eleitor A deveria passar: %v", err)
	}
	if err := limiter.Validar(ctx, b); err != nil {
		t.Fatalf("eleitor B não deveria herdar a janela de A: %v", err)
	}
}

func TestRedisRateLimiterConfigInvalidaEPermissiva(t *testing.T) {
	limiter := NewRedisRateLimiter(nil, 0, 0, "")
	if err := limiter.Validar(context.Background(), domain.PedidoVoto{}); err != nil {
		t.Fatalf("sem client o limiter deve liberar: %v", err)
	}
	if err := NewNoop().Validar(context.Background(), domain.PedidoVoto{}); err != nil {
		t.Fatalf("noop nunca bloqueia: %v", err)
	}
}

func TestRedisRateLimiterInformaEspera(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisRateLimiter(client, 1, 45*time.Second, "rl")
	pedido := domain.PedidoVoto{CodigoEleitor: "NBK0005", OrigemIP: "200.3.3.3", UserAgent: "ua"}

	ctx := context.Background()
	if err := limiter.Validar(ctx, pedido); err != nil {
		t.Fatalf("primeiro envio deveria passar: %v", err)
	}

	err := limiter.Validar(ctx, pedido)
	var rej *domain.Rejeicao
	if !errors.As(err, &rej) {
		t.Fatalf("esperava rejeicao, veio %v", err)
	}
	if rej.Motivo != "too many votes from this device, try again in 45s" {
		t.Fatalf("motivo inesperado: %q", rej.Motivo)
	}
}
