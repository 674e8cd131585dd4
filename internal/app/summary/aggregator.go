// Pacote summary dobra o log de votos nos agregados do painel administrativo. Só leitura.
package summary

import (
	"context"
	"fmt"
	"sort"

	"github.com/marcelojr/obra-tokens/internal/app/timekeys"
	"github.com/marcelojr/obra-tokens/internal/domain"
)

const (
	MaxLinhasPadrao  = 5000
	NomeDesconhecido = "(Unknown)"
)

type Service struct {
	votos         domain.VotoRepository
	trabalhadores domain.TrabalhadorRepository
	empresas      domain.EmpresaRepository
	maxLinhas     int
}

func NewService(votos domain.VotoRepository, trabalhadores domain.TrabalhadorRepository, empresas domain.EmpresaRepository, maxLinhas int) *Service {
	if maxLinhas <= 0 {
		maxLinhas = MaxLinhasPadrao
	}
	return &Service{
		votos:         votos,
		trabalhadores: trabalhadores,
		empresas:      empresas,
		maxLinhas:     maxLinhas,
	}
}

func (s *Service) Resumo(ctx context.Context, monthKey, dayKey string) (domain.Relatorio, error) {
	mes, err := timekeys.ParseMonthKey(monthKey)
	if err != nil {
		return domain.Relatorio{}, domain.Rejeitar(domain.CodeInvalidMonth, "month must be YYYY-MM")
	}
	var dia string
	if dayKey != "" {
		if dia, err = timekeys.ParseDayKey(dayKey, mes); err != nil {
			return domain.Relatorio{}, domain.Rejeitar(domain.CodeInvalidMonth, "day must be YYYY-MM-DD inside the month")
		}
	}

	// Um a mais que o teto para saber se houve corte.
	votos, err := s.votos.ListByPeriodo(ctx, mes, dia, s.maxLinhas+1)
	if err != nil {
		return domain.Relatorio{}, fmt.Errorf("summary: listar votos: %w", err)
	}
	truncado := len(votos) > s.maxLinhas
	if truncado {
		votos = votos[:s.maxLinhas]
	}

	nomes, err := s.nomesTrabalhadores(ctx, votos)
	if err != nil {
		return domain.Relatorio{}, err
	}
	empresas, err := s.nomesEmpresas(ctx)
	if err != nil {
		return domain.Relatorio{}, err
	}

	rel := Dobrar(votos, nomes, empresas)
	rel.MonthKey = mes
	rel.DayKey = dia
	rel.Truncado = truncado
	return rel, nil
}

func (s *Service) nomesTrabalhadores(ctx context.Context, votos []domain.Voto) (map[string]string, error) {
	vistos := map[string]struct{}{}
	var codigos []string
	for _, v := range votos {
		for _, c := range []string{v.CodigoEleitor, v.CodigoAlvo} {
			if _, ok := vistos[c]; ok || c == "" {
				continue
			}
			vistos[c] = struct{}{}
			codigos = append(codigos, c)
		}
	}

	encontrados, err := s.trabalhadores.FindMany(ctx, codigos)
	if err != nil {
		return nil, fmt.Errorf("summary: buscar trabalhadores: %w", err)
	}
	nomes := make(map[string]string, len(encontrados))
	for codigo, t := range encontrados {
		nomes[codigo] = t.NomeCompleto
	}
	return nomes, nil
}

func (s *Service) nomesEmpresas(ctx context.Context) (map[string]string, error) {
	lista, err := s.empresas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: listar empresas: %w", err)
	}
	nomes := make(map[string]string, len(lista))
	for _, e := range lista {
		nomes[e.ID] = e.Nome
	}
	return nomes, nil
}

// Dobrar é a parte pura da agregação: não faz I/O e tolera nomes ausentes.
func Dobrar(votos []domain.Voto, nomesTrabalhadores, nomesEmpresas map[string]string) domain.Relatorio {
	rel := domain.Relatorio{
		Linhas: make([]domain.LinhaVoto, 0, len(votos)),
		PorDia: []domain.TotalDia{},
	}

	porDia := map[string]*domain.TotalDia{}
	tokens := newAcumulador()
	goodCatch := newAcumulador()

	for _, v := range votos {
		linha := domain.LinhaVoto{
			Voto:           v,
			NomeEleitor:    nomeOuID(nomesTrabalhadores, v.CodigoEleitor),
			NomeAlvo:       nomeOuID(nomesTrabalhadores, v.CodigoAlvo),
			EmpresaEleitor: nomeOuID(nomesEmpresas, v.EmpresaEleitorID),
			EmpresaAlvo:    nomeOuID(nomesEmpresas, v.EmpresaAlvoID),
		}
		rel.Linhas = append(rel.Linhas, linha)

		d, ok := porDia[v.DayKey]
		if !ok {
			d = &domain.TotalDia{DayKey: v.DayKey}
			porDia[v.DayKey] = d
		}

		switch v.Tipo {
		case domain.TipoGoodCatch:
			d.GoodCatches++
			goodCatch.somar(linha)
		default:
			d.Tokens++
			tokens.somar(linha)
		}
	}

	for _, d := range porDia {
		rel.PorDia = append(rel.PorDia, *d)
	}
	sort.Slice(rel.PorDia, func(i, j int) bool { return rel.PorDia[i].DayKey < rel.PorDia[j].DayKey })

	rel.Tokens = tokens.agrupamentos()
	rel.GoodCatch = goodCatch.agrupamentos()
	return rel
}

func nomeOuID(nomes map[string]string, id string) string {
	if id == "" {
		return NomeDesconhecido
	}
	if nome, ok := nomes[id]; ok && nome != "" {
		return nome
	}
	return id
}

type chaveGrupo struct {
	projeto domain.Projeto
	chave   string
}

type grupos map[chaveGrupo]*domain.Grupo

func (g grupos) somar(projeto domain.Projeto, chave, nome string) {
	k := chaveGrupo{projeto: projeto, chave: chave}
	item, ok := g[k]
	if !ok {
		item = &domain.Grupo{Projeto: projeto, Chave: chave, Nome: nome}
		g[k] = item
	}
	item.Total++
}

// ordenados: total desc, depois projeto e chave asc.
func (g grupos) ordenados() []domain.Grupo {
	out := make([]domain.Grupo, 0, len(g))
	for _, item := range g {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		if out[i].Projeto != out[j].Projeto {
			return out[i].Projeto < out[j].Projeto
		}
		return out[i].Chave < out[j].Chave
	})
	return out
}

type acumulador struct {
	porEmpresaEleitor grupos
	porAlvo           grupos
	porEmpresaAlvo    grupos
}

func newAcumulador() *acumulador {
	return &acumulador{
		porEmpresaEleitor: grupos{},
		porAlvo:           grupos{},
		porEmpresaAlvo:    grupos{},
	}
}

func (a *acumulador) somar(l domain.LinhaVoto) {
	a.porEmpresaEleitor.somar(l.Projeto, l.EmpresaEleitorID, l.EmpresaEleitor)
	a.porAlvo.somar(l.Projeto, l.CodigoAlvo, l.NomeAlvo)
	a.porEmpresaAlvo.somar(l.Projeto, l.EmpresaAlvoID, l.EmpresaAlvo)
}

func (a *acumulador) agrupamentos() domain.Agrupamentos {
	return domain.Agrupamentos{
		PorEmpresaEleitor: a.porEmpresaEleitor.ordenados(),
		PorAlvo:           a.porAlvo.ordenados(),
		PorEmpresaAlvo:    a.porEmpresaAlvo.ordenados(),
	}
}

var _ domain.SummaryService = (*Service)(nil)
