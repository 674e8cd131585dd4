package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *sql.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	db, err := gdb.DB()
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func setupMockRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client
}

func chamar(t *testing.T, h http.HandlerFunc, ctx context.Context) (int, resposta) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	var body resposta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return w.Code, body
}

func TestLiveHandler_DeveRetornar200SemDependencias(t *testing.T) {
	code, body := chamar(t, NewChecker(nil, nil).LiveHandler(), context.Background())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadyHandler_QuandoTodosServicosDisponiveis_DeveRetornar200OK(t *testing.T) {
	checker := NewChecker(setupDB(t), setupMockRedis(t))

	code, body := chamar(t, checker.ReadyHandler(), context.Background())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, body.Checks)
}

func TestReadyHandler_QuandoDependenciasNulas_DevePularChecagem(t *testing.T) {
	code, body := chamar(t, NewChecker(nil, nil).ReadyHandler(), context.Background())

	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Checks)
}

func TestReadyHandler_QuandoDBIndisponivel_DeveRetornar503(t *testing.T) {
	db := setupDB(t)
	db.Close()
	checker := NewChecker(db, setupMockRedis(t))

	code, body := chamar(t, checker.ReadyHandler(), context.Background())

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "database unavailable", body.Status)
}

func TestReadyHandler_QuandoRedisIndisponivel_DeveRetornar503(t *testing.T) {
	redisClient := setupMockRedis(t)
	redisClient.Close()
	checker := NewChecker(setupDB(t), redisClient)

	code, body := chamar(t, checker.ReadyHandler(), context.Background())

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "redis unavailable", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
}

func TestReadyHandler_QuandoContextoCancelado_DeveInterromper(t *testing.T) {
	checker := NewChecker(setupDB(t), setupMockRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, _ := chamar(t, checker.ReadyHandler(), ctx)

	assert.Equal(t, http.StatusServiceUnavailable, code)
}
