// Pacote voting implementa a admissão de votos: regras de elegibilidade e os tetos diário/mensal aplicados atomicamente.
package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelojr/obra-tokens/internal/app/codes"
	"github.com/marcelojr/obra-tokens/internal/app/timekeys"
	"github.com/marcelojr/obra-tokens/internal/domain"
	"github.com/marcelojr/obra-tokens/internal/platform/ids"
	"github.com/marcelojr/obra-tokens/internal/platform/metrics"
)

const (
	CapDiarioPadrao        = 3
	CapMensalEmpresaPadrao = 30
)

// Resolvedor é o pedaço do diretório de trabalhadores que a votação consome.
// Consultar é a variante sem escrita, usada pelas leituras de saldo.
type Resolvedor interface {
	Resolver(ctx context.Context, codigo string) (domain.Trabalhador, error)
	Consultar(ctx context.Context, codigo string) (domain.Trabalhador, error)
}

type Config struct {
	Limites               domain.Limites
	EmpresaPrivilegiadaID string
}

// Service valida o voto na ordem de prioridade das mensagens e delega a gravação ao ledger.
type Service struct {
	diretorio  Resolvedor
	ledger     domain.VotoLedger
	antifraude domain.Antifraude
	chaves     *timekeys.Gerador
	clock      domain.Clock
	ids        *ids.Generator
	cfg        Config
}

func NewService(
	diretorio Resolvedor,
	ledger domain.VotoLedger,
	antifraude domain.Antifraude,
	chaves *timekeys.Gerador,
	clock domain.Clock,
	idsGen *ids.Generator,
	cfg Config,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if cfg.Limites.Diario <= 0 {
		cfg.Limites.Diario = CapDiarioPadrao
	}
	if cfg.Limites.MensalEmpresa <= 0 {
		cfg.Limites.MensalEmpresa = CapMensalEmpresaPadrao
	}
	return &Service{
		diretorio:  diretorio,
		ledger:     ledger,
		antifraude: antifraude,
		chaves:     chaves,
		clock:      clock,
		ids:        idsGen,
		cfg:        cfg,
	}
}

// RegistrarVoto para na primeira regra violada; só os tetos são checados dentro da transação.
func (s *Service) RegistrarVoto(ctx context.Context, pedido domain.PedidoVoto) (domain.ResultadoVoto, error) {
	tipo := pedido.Tipo
	if tipo == "" {
		tipo = domain.TipoToken
	}
	if !tipo.Valido() {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeInvalidVoteType, "vote type must be token or goodCatch")
	}

	codEleitor, errEleitor := codes.NormalizarEstrito(pedido.CodigoEleitor)
	codAlvo, errAlvo := codes.NormalizarEstrito(pedido.CodigoAlvo)
	if errEleitor != nil || errAlvo != nil {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeMissingCodes, "scan both your sticker and your coworker's")
	}

	if codEleitor == codAlvo {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeSelfVote, "you can't vote for yourself")
	}

	eleitor, err := s.diretorio.Resolver(ctx, codEleitor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeVoterUnregistered, "register your sticker first")
		}
		return domain.ResultadoVoto{}, fmt.Errorf("voting: resolver eleitor %s: %w", codEleitor, err)
	}

	alvo, err := s.diretorio.Resolver(ctx, codAlvo)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeTargetUnregistered, "that coworker hasn't registered yet")
		}
		return domain.ResultadoVoto{}, fmt.Errorf("voting: resolver alvo %s: %w", codAlvo, err)
	}

	if eleitor.Projeto != alvo.Projeto {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeDiffProject, "you can only vote for people on your project")
	}

	if eleitor.EmpresaID != "" && alvo.EmpresaID != "" && eleitor.EmpresaID == alvo.EmpresaID {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeSameCompany, "tokens go to people from other companies")
	}

	if tipo == domain.TipoGoodCatch && eleitor.EmpresaID != s.cfg.EmpresaPrivilegiadaID {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeGoodCatchWalshOnly, "only Walsh employees can submit Good Catch")
	}

	if s.antifraude != nil {
		if err := s.antifraude.Validar(ctx, domain.PedidoVoto{
			CodigoEleitor: codEleitor,
			CodigoAlvo:    codAlvo,
			Tipo:          tipo,
			OrigemIP:      pedido.OrigemIP,
			UserAgent:     pedido.UserAgent,
		}); err != nil {
			var rej *domain.Rejeicao
			if errors.As(err, &rej) {
				return domain.ResultadoVoto{}, rej
			}
			return domain.ResultadoVoto{}, fmt.Errorf("voting: antifraude: %w", err)
		}
	}

	agora := s.clock.Agora()
	if !s.chaves.VotacaoAberta(agora) {
		return domain.ResultadoVoto{}, domain.Rejeitar(domain.CodeVotingClosed, "voting is closed right now")
	}
	k := s.chaves.Chaves(agora)

	voto := domain.Voto{
		ID:               domain.VotoID(s.ids.NewAt(agora)),
		CodigoEleitor:    eleitor.Codigo,
		CodigoAlvo:       alvo.Codigo,
		EmpresaEleitorID: eleitor.EmpresaID,
		EmpresaAlvoID:    alvo.EmpresaID,
		Projeto:          eleitor.Projeto,
		Tipo:             tipo,
		CriadoEm:         agora,
		DayKey:           k.Dia,
		MonthKey:         k.Mes,
	}

	inicio := time.Now()
	var contagem domain.Contagem
	if tipo == domain.TipoGoodCatch {
		contagem, err = s.registrarGoodCatch(ctx, voto)
	} else {
		contagem, err = s.registrarToken(ctx, voto)
	}
	if err != nil {
		return domain.ResultadoVoto{}, err
	}
	metrics.ObserveCommitDuration(string(tipo), time.Since(inicio).Seconds())

	resultado := domain.ResultadoVoto{
		Tipo:                  tipo,
		Alvo:                  alvo,
		DiarioRestante:        domain.Restante(s.cfg.Limites.Diario, contagem.Diario),
		MensalEmpresaRestante: domain.Restante(s.cfg.Limites.MensalEmpresa, contagem.MensalEmpresa),
		Voto:                  voto,
	}
	resultado.Mensagem = Mensagem(tipoMensagemSucesso(resultado), Semente(string(voto.ID)))
	return resultado, nil
}

// Good Catch nunca consome nem bloqueia em contador; a leitura prévia serve só para exibir o saldo.
func (s *Service) registrarGoodCatch(ctx context.Context, voto domain.Voto) (domain.Contagem, error) {
	contagem, err := s.ledger.Contagem(ctx, voto.CodigoEleitor, voto.EmpresaEleitorID, voto.DayKey, voto.MonthKey)
	if err != nil {
		return domain.Contagem{}, fmt.Errorf("voting: ler contadores: %w", err)
	}
	if err := s.ledger.RegistrarGoodCatch(ctx, voto); err != nil {
		return domain.Contagem{}, fmt.Errorf("voting: gravar good catch: %w", err)
	}
	return contagem, nil
}

func (s *Service) registrarToken(ctx context.Context, voto domain.Voto) (domain.Contagem, error) {
	contagem, err := s.ledger.RegistrarToken(ctx, voto, s.cfg.Limites)
	switch {
	case err == nil:
		return contagem, nil
	case errors.Is(err, domain.ErrLimiteDiario):
		rej := domain.Rejeitar(domain.CodeDailyLimit,
			Mensagem(MensagemLimiteDiario, Semente(voto.CodigoEleitor, voto.DayKey)))
		zero := int64(0)
		rej.DiarioRestante = &zero
		return domain.Contagem{}, rej
	case errors.Is(err, domain.ErrLimiteMensalEmpresa):
		rej := domain.Rejeitar(domain.CodeCompanyMonthlyLimit,
			Mensagem(MensagemLimiteMensal, Semente(voto.EmpresaEleitorID, voto.MonthKey)))
		zero := int64(0)
		rej.MensalEmpresaRestante = &zero
		return domain.Contagem{}, rej
	default:
		return domain.Contagem{}, fmt.Errorf("voting: gravar token: %w", err)
	}
}

func tipoMensagemSucesso(r domain.ResultadoVoto) TipoMensagem {
	switch {
	case r.Tipo == domain.TipoGoodCatch:
		return MensagemGoodCatch
	case r.DiarioRestante == 0:
		return MensagemUltimoToken
	default:
		return MensagemToken
	}
}

// Saldo consulta as cotas restantes sem alterar estado. Sem empresa informada, usa a do eleitor.
func (s *Service) Saldo(ctx context.Context, codigoEleitor, empresaID string) (domain.SaldoVotos, error) {
	cod, err := codes.NormalizarEstrito(codigoEleitor)
	if err != nil {
		return domain.SaldoVotos{}, domain.Rejeitar(domain.CodeMissingCodes, "voter code is required")
	}

	if empresaID == "" {
		eleitor, err := s.diretorio.Consultar(ctx, cod)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.SaldoVotos{}, domain.Rejeitar(domain.CodeVoterUnregistered, "register your sticker first")
			}
			return domain.SaldoVotos{}, fmt.Errorf("voting: resolver eleitor %s: %w", cod, err)
		}
		cod = eleitor.Codigo
		empresaID = eleitor.EmpresaID
	}

	k := s.chaves.Chaves(s.clock.Agora())
	contagem, err := s.ledger.Contagem(ctx, cod, empresaID, k.Dia, k.Mes)
	if err != nil {
		return domain.SaldoVotos{}, fmt.Errorf("voting: ler contadores: %w", err)
	}

	return domain.SaldoVotos{
		CodigoEleitor:         cod,
		EmpresaID:             empresaID,
		DayKey:                k.Dia,
		MonthKey:              k.Mes,
		DiarioRestante:        domain.Restante(s.cfg.Limites.Diario, contagem.Diario),
		MensalEmpresaRestante: domain.Restante(s.cfg.Limites.MensalEmpresa, contagem.MensalEmpresa),
	}, nil
}

var _ domain.VotingService = (*Service)(nil)
