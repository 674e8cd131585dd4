package domain

import "errors"

var (
	ErrNotFound            = errors.New("registro nao encontrado")
	ErrLimiteDiario        = errors.New("limite diario de tokens atingido")
	ErrLimiteMensalEmpresa = errors.New("limite mensal da empresa atingido")
)

// ReasonCode é o código estável devolvido ao cliente em toda rejeição.
type ReasonCode string

const (
	CodeMissingCodes        ReasonCode = "MISSING_CODES"
	CodeSelfVote            ReasonCode = "SELF_VOTE"
	CodeVoterUnregistered   ReasonCode = "VOTER_UNREGISTERED"
	CodeTargetUnregistered  ReasonCode = "TARGET_UNREGISTERED"
	CodeDiffProject         ReasonCode = "DIFF_PROJECT"
	CodeSameCompany         ReasonCode = "SAME_COMPANY"
	CodeGoodCatchWalshOnly  ReasonCode = "GC_WALSH_ONLY"
	CodeDailyLimit          ReasonCode = "DAILY_LIMIT"
	CodeCompanyMonthlyLimit ReasonCode = "COMPANY_MONTHLY_LIMIT"
	CodeVotingClosed        ReasonCode = "VOTING_CLOSED"
	CodeInvalidVoteType     ReasonCode = "INVALID_VOTE_TYPE"
	CodeRateLimited         ReasonCode = "RATE_LIMITED"
	CodeInvalidCode         ReasonCode = "INVALID_CODE"
	CodeMissingName         ReasonCode = "MISSING_NAME"
	CodeUnknownCompany      ReasonCode = "UNKNOWN_COMPANY"
	CodeUnknownProject      ReasonCode = "UNKNOWN_PROJECT"
	CodeInvalidMonth        ReasonCode = "INVALID_MONTH"
	CodeInvalidExportType   ReasonCode = "INVALID_EXPORT_TYPE"
	CodeInvalidPayload      ReasonCode = "INVALID_PAYLOAD"
	CodeInternal            ReasonCode = "INTERNAL"
)

// Categoria agrupa os códigos pela taxonomia de erros exposta na API.
type Categoria int

const (
	CategoriaEntrada Categoria = iota
	CategoriaPermissao
	CategoriaCota
	CategoriaNaoEncontrado
	CategoriaPeriodo
	CategoriaInfra
)

func (c ReasonCode) Categoria() Categoria {
	switch c {
	case CodeGoodCatchWalshOnly:
		return CategoriaPermissao
	case CodeDailyLimit, CodeCompanyMonthlyLimit, CodeRateLimited:
		return CategoriaCota
	case CodeVoterUnregistered, CodeTargetUnregistered:
		return CategoriaNaoEncontrado
	case CodeVotingClosed:
		return CategoriaPeriodo
	case CodeInternal:
		return CategoriaInfra
	default:
		return CategoriaEntrada
	}
}

// Rejeicao é a recusa determinística de uma regra de negócio.
type Rejeicao struct {
	Codigo ReasonCode
	Motivo string
	// Preenchidos somente quando a cota esgotada precisa ir zerada na resposta.
	DiarioRestante        *int64
	MensalEmpresaRestante *int64
}

func (r *Rejeicao) Error() string {
	if r.Motivo == "" {
		return string(r.Codigo)
	}
	return string(r.Codigo) + ": " + r.Motivo
}

// Is permite errors.Is(err, &Rejeicao{Codigo: X}) comparar apenas pelo código.
func (r *Rejeicao) Is(target error) bool {
	var t *Rejeicao
	if !errors.As(target, &t) {
		return false
	}
	return t.Codigo == r.Codigo
}

func Rejeitar(codigo ReasonCode, motivo string) *Rejeicao {
	return &Rejeicao{Codigo: codigo, Motivo: motivo}
}

// CodigoDoErro extrai o ReasonCode; qualquer erro fora da taxonomia vira INTERNAL.
func CodigoDoErro(err error) ReasonCode {
	var r *Rejeicao
	if errors.As(err, &r) {
		return r.Codigo
	}
	return CodeInternal
}
