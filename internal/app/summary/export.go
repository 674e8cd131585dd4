package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

type TipoExportacao string

const (
	ExportLinhas TipoExportacao = "rows"
	ExportTotais TipoExportacao = "totals"
	ExportAlvos  TipoExportacao = "targets"
)

var ErrTipoExportacao = errors.New("tipo de exportacao invalido")

func ParseTipoExportacao(s string) (TipoExportacao, error) {
	switch t := TipoExportacao(s); t {
	case ExportLinhas, ExportTotais, ExportAlvos:
		return t, nil
	case "":
		return ExportLinhas, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrTipoExportacao, s)
	}
}

// ExportarCSV grava o relatório no formato pedido; o writer é descarregado antes de retornar.
func ExportarCSV(w io.Writer, rel domain.Relatorio, tipo TipoExportacao) error {
	cw := csv.NewWriter(w)

	var registros [][]string
	switch tipo {
	case ExportLinhas:
		registros = linhasCSV(rel)
	case ExportTotais:
		registros = totaisCSV(rel)
	case ExportAlvos:
		registros = alvosCSV(rel)
	default:
		return fmt.Errorf("summary: %w: %q", ErrTipoExportacao, tipo)
	}

	if err := cw.WriteAll(registros); err != nil {
		return fmt.Errorf("summary: escrever csv: %w", err)
	}
	return nil
}

func linhasCSV(rel domain.Relatorio) [][]string {
	out := [][]string{{
		"createdAt", "dayKey", "project", "voteType",
		"voterCode", "voterName", "voterCompany",
		"targetCode", "targetName", "targetCompany",
	}}
	for _, l := range rel.Linhas {
		out = append(out, []string{
			l.CriadoEm.UTC().Format(time.RFC3339), l.DayKey, string(l.Projeto), string(l.Tipo),
			l.CodigoEleitor, l.NomeEleitor, l.EmpresaEleitor,
			l.CodigoAlvo, l.NomeAlvo, l.EmpresaAlvo,
		})
	}
	return out
}

func totaisCSV(rel domain.Relatorio) [][]string {
	out := [][]string{{"voteType", "grouping", "project", "key", "name", "count"}}
	secoes := []struct {
		tipo domain.TipoVoto
		ag   domain.Agrupamentos
	}{
		{domain.TipoToken, rel.Tokens},
		{domain.TipoGoodCatch, rel.GoodCatch},
	}
	for _, s := range secoes {
		for _, bloco := range []struct {
			nome   string
			grupos []domain.Grupo
		}{
			{"byVoterCompany", s.ag.PorEmpresaEleitor},
			{"byTarget", s.ag.PorAlvo},
			{"byTargetCompany", s.ag.PorEmpresaAlvo},
		} {
			for _, g := range bloco.grupos {
				out = append(out, []string{
					string(s.tipo), bloco.nome, string(g.Projeto), g.Chave, g.Nome, strconv.FormatInt(g.Total, 10),
				})
			}
		}
	}
	return out
}

// alvosCSV junta tokens e Good Catches por pessoa premiada.
func alvosCSV(rel domain.Relatorio) [][]string {
	type total struct {
		projeto domain.Projeto
		codigo  string
		nome    string
		empresa string
		tokens  int64
		catches int64
	}
	porAlvo := map[chaveGrupo]*total{}
	for _, l := range rel.Linhas {
		k := chaveGrupo{projeto: l.Projeto, chave: l.CodigoAlvo}
		t, ok := porAlvo[k]
		if !ok {
			t = &total{projeto: l.Projeto, codigo: l.CodigoAlvo, nome: l.NomeAlvo, empresa: l.EmpresaAlvo}
			porAlvo[k] = t
		}
		if l.Tipo == domain.TipoGoodCatch {
			t.catches++
		} else {
			t.tokens++
		}
	}

	lista := make([]*total, 0, len(porAlvo))
	for _, t := range porAlvo {
		lista = append(lista, t)
	}
	sort.Slice(lista, func(i, j int) bool {
		a, b := lista[i], lista[j]
		if a.tokens+a.catches != b.tokens+b.catches {
			return a.tokens+a.catches > b.tokens+b.catches
		}
		if a.projeto != b.projeto {
			return a.projeto < b.projeto
		}
		return a.codigo < b.codigo
	})

	out := [][]string{{"project", "targetCode", "targetName", "targetCompany", "tokens", "goodCatches"}}
	for _, t := range lista {
		out = append(out, []string{
			string(t.projeto), t.codigo, t.nome, t.empresa,
			strconv.FormatInt(t.tokens, 10), strconv.FormatInt(t.catches, 10),
		})
	}
	return out
}
