// Pacote timekeys gera as chaves de dia e mês que particionam os contadores de voto.
// Toda virada é ancorada na meia-noite do fuso configurado, não no fuso do servidor.
package timekeys

import (
	"errors"
	"fmt"
	"time"
)

const (
	layoutDia = "2006-01-02"
	layoutMes = "2006-01"
)

var ErrChaveInvalida = errors.New("chave de periodo invalida")

type Chaves struct {
	Dia string
	Mes string
}

type Gerador struct {
	loc *time.Location
}

func New(timezone string) (*Gerador, error) {
	if timezone == "" {
		return nil, fmt.Errorf("timekeys: fuso vazio")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timekeys: carregar fuso %q: %w", timezone, err)
	}
	return &Gerador{loc: loc}, nil
}

func NewWithLocation(loc *time.Location) *Gerador {
	return &Gerador{loc: loc}
}

func (g *Gerador) Location() *time.Location { return g.loc }

func (g *Gerador) DayKey(t time.Time) string {
	return t.In(g.loc).Format(layoutDia)
}

func (g *Gerador) MonthKey(t time.Time) string {
	return t.In(g.loc).Format(layoutMes)
}

func (g *Gerador) Chaves(t time.Time) Chaves {
	local := t.In(g.loc)
	return Chaves{Dia: local.Format(layoutDia), Mes: local.Format(layoutMes)}
}

// VotacaoAberta é a única política de janela: todo dia do mês está aberto.
func (g *Gerador) VotacaoAberta(time.Time) bool {
	return true
}

// ParseMonthKey valida um YYYY-MM vindo de parâmetro administrativo.
func ParseMonthKey(s string) (string, error) {
	t, err := time.Parse(layoutMes, s)
	if err != nil {
		return "", fmt.Errorf("%w: mes %q", ErrChaveInvalida, s)
	}
	return t.Format(layoutMes), nil
}

// ParseDayKey valida um YYYY-MM-DD e confere se ele pertence ao mês informado.
func ParseDayKey(s, monthKey string) (string, error) {
	t, err := time.Parse(layoutDia, s)
	if err != nil {
		return "", fmt.Errorf("%w: dia %q", ErrChaveInvalida, s)
	}
	if monthKey != "" && t.Format(layoutMes) != monthKey {
		return "", fmt.Errorf("%w: dia %q fora do mes %q", ErrChaveInvalida, s, monthKey)
	}
	return t.Format(layoutDia), nil
}
