// Pacote ids gera ULIDs monotônicos para votos e auditorias de migração.
package ids

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator é seguro para uso concorrente; a entropia monotônica não é.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (g *Generator) New() string {
	return g.NewAt(time.Now().UTC())
}

// NewAt carimba o ULID com o instante do evento, para que o id ordene junto com created_at.
func (g *Generator) NewAt(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// Instante recupera o carimbo (precisão de milissegundo) de um id gerado aqui.
func Instante(id string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("ids: %q nao e um ulid: %w", id, err)
	}
	return ulid.Time(parsed.Time()).UTC(), nil
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// DefaultGenerator é o gerador do processo, usado quando ninguém injeta outro.
func DefaultGenerator() *Generator {
	defaultOnce.Do(func() {
		defaultGen = NewGenerator()
	})
	return defaultGen
}
