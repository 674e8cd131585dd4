// Pacote health expõe liveness e readiness para o balanceador e o orquestrador.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type Checker struct {
	db      *sql.DB
	redis   *redis.Client
	timeout time.Duration
}

func NewChecker(db *sql.DB, redis *redis.Client) *Checker {
	return &Checker{db: db, redis: redis, timeout: 2 * time.Second}
}

type resposta struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveHandler só responde que o processo está de pé; não toca dependências.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		escrever(w, http.StatusOK, resposta{Status: "ok"})
	}
}

// ReadyHandler checa banco antes de Redis e para no primeiro que falhar.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		checks := map[string]string{}

		if c.db != nil {
			if err := c.db.PingContext(ctx); err != nil {
				checks["database"] = "unavailable"
				escrever(w, http.StatusServiceUnavailable, resposta{Status: "database unavailable", Checks: checks})
				return
			}
			checks["database"] = "ok"
		}

		if c.redis != nil {
			if err := c.redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = "unavailable"
				escrever(w, http.StatusServiceUnavailable, resposta{Status: "redis unavailable", Checks: checks})
				return
			}
			checks["redis"] = "ok"
		}

		escrever(w, http.StatusOK, resposta{Status: "ok", Checks: checks})
	}
}

func escrever(w http.ResponseWriter, status int, body resposta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
