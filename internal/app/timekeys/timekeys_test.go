package timekeys

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChaves_UsamFusoConfigurado(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	g := NewWithLocation(loc)

	// 03:30 UTC de 1º de março ainda é 28 de fevereiro em UTC-5.
	instante := time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-02-29", g.DayKey(instante))
	assert.Equal(t, "2024-02", g.MonthKey(instante))
	assert.Equal(t, Chaves{Dia: "2024-02-29", Mes: "2024-02"}, g.Chaves(instante))
}

func TestChaves_ViradaNaMeiaNoiteLocal(t *testing.T) {
	g := NewWithLocation(time.FixedZone("UTC+9", 9*3600))

	antes := time.Date(2024, 1, 31, 14, 59, 59, 0, time.UTC)
	depois := antes.Add(time.Second)

	assert.Equal(t, "2024-01-31", g.DayKey(antes))
	assert.Equal(t, "2024-02-01", g.DayKey(depois))
	assert.Equal(t, "2024-02", g.MonthKey(depois))
}

func TestNew_QuandoFusoInvalido_DeveFalhar(t *testing.T) {
	_, err := New("Marte/Olympus")
	assert.Error(t, err)

	_, err = New("")
	assert.Error(t, err)

	g, err := New("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", g.Location().String())
}

func TestVotacaoAberta_TodoDiaDoMes(t *testing.T) {
	g := NewWithLocation(time.UTC)
	inicio := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 31; d++ {
		assert.True(t, g.VotacaoAberta(inicio.AddDate(0, 0, d)))
	}
}

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2024-07")
	require.NoError(t, err)
	assert.Equal(t, "2024-07", got)

	for _, in := range []string{"", "2024-13", "2024/07", "24-07"} {
		_, err := ParseMonthKey(in)
		assert.True(t, errors.Is(err, ErrChaveInvalida), "entrada %q", in)
	}
}

func TestParseDayKey(t *testing.T) {
	got, err := ParseDayKey("2024-07-09", "2024-07")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-09", got)

	_, err = ParseDayKey("2024-08-01", "2024-07")
	assert.ErrorIs(t, err, ErrChaveInvalida)

	_, err = ParseDayKey("2024-07-32", "")
	assert.ErrorIs(t, err, ErrChaveInvalida)
}
