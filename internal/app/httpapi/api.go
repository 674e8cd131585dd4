// Pacote httpapi expõe os handlers REST do PWA e do painel administrativo.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/marcelojr/obra-tokens/internal/app/summary"
	"github.com/marcelojr/obra-tokens/internal/domain"
	"github.com/marcelojr/obra-tokens/internal/platform/metrics"
)

const maxCorpo = 64 << 10

// API empacota os handlers HTTP ligados aos serviços de votação, cadastro e resumo.
type API struct {
	votacao   domain.VotingService
	diretorio domain.DirectoryService
	resumo    domain.SummaryService
	logger    *slog.Logger
}

func New(votacao domain.VotingService, diretorio domain.DirectoryService, resumo domain.SummaryService, logger *slog.Logger) *API {
	return &API{votacao: votacao, diretorio: diretorio, resumo: resumo, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /vote", a.registrarVoto)
	mux.HandleFunc("GET /vote/limits", a.consultarSaldo)
	mux.HandleFunc("GET /register", a.consultarCadastro)
	mux.HandleFunc("POST /register", a.cadastrar)
	mux.HandleFunc("GET /workers/search", a.buscarTrabalhadores)
	mux.HandleFunc("GET /admin/summary", a.obterResumo)
	mux.HandleFunc("GET /admin/export", a.exportar)
}

type votoRequest struct {
	VoterCode  string `json:"voterCode"`
	TargetCode string `json:"targetCode"`
	VoteType   string `json:"voteType"`
}

type trabalhadorResposta struct {
	Code      string `json:"code"`
	Project   string `json:"project,omitempty"`
	FullName  string `json:"fullName"`
	CompanyID string `json:"companyId,omitempty"`
}

func novoTrabalhadorResposta(t domain.Trabalhador) trabalhadorResposta {
	return trabalhadorResposta{
		Code:      t.Codigo,
		Project:   string(t.Projeto),
		FullName:  t.NomeCompleto,
		CompanyID: t.EmpresaID,
	}
}

type votoResposta struct {
	OK                      bool                `json:"ok"`
	VoteType                domain.TipoVoto     `json:"voteType"`
	Message                 string              `json:"message"`
	Target                  trabalhadorResposta `json:"target"`
	DailyRemaining          int64               `json:"dailyRemaining"`
	CompanyMonthlyRemaining int64               `json:"companyMonthlyRemaining"`
}

type erroResposta struct {
	OK                      bool              `json:"ok"`
	Code                    domain.ReasonCode `json:"code"`
	Error                   string            `json:"error"`
	DailyRemaining          *int64            `json:"dailyRemaining,omitempty"`
	CompanyMonthlyRemaining *int64            `json:"companyMonthlyRemaining,omitempty"`
}

func (a *API) registrarVoto(w http.ResponseWriter, r *http.Request) {
	var req votoRequest
	if err := decodificar(w, r, &req); err != nil {
		metrics.ObserveVoteRequest(string(domain.CodeInvalidPayload))
		a.logger.Warn("payload invalido ao registrar voto", "err", err, "request_id", RequestIDFrom(r.Context()))
		a.responderErro(w, r, domain.Rejeitar(domain.CodeInvalidPayload, "body must be JSON"))
		return
	}

	pedido := domain.PedidoVoto{
		CodigoEleitor: req.VoterCode,
		CodigoAlvo:    req.TargetCode,
		Tipo:          domain.TipoVoto(req.VoteType),
		OrigemIP:      ClientIP(r),
		UserAgent:     r.UserAgent(),
	}

	resultado, err := a.votacao.RegistrarVoto(r.Context(), pedido)
	if err != nil {
		codigo := domain.CodigoDoErro(err)
		metrics.ObserveVoteRequest(string(codigo))
		a.logger.Warn("falha ao registrar voto", "err", err, "eleitor", req.VoterCode, "alvo", req.TargetCode, "code", codigo)
		a.responderErro(w, r, err)
		return
	}

	metrics.ObserveVoteRequest("accepted")
	responderJSON(w, http.StatusOK, votoResposta{
		OK:                      true,
		VoteType:                resultado.Tipo,
		Message:                 resultado.Mensagem,
		Target:                  novoTrabalhadorResposta(resultado.Alvo),
		DailyRemaining:          resultado.DiarioRestante,
		CompanyMonthlyRemaining: resultado.MensalEmpresaRestante,
	})
	a.logger.Info("voto aceito", "voto", resultado.Voto.ID, "tipo", resultado.Tipo, "eleitor", resultado.Voto.CodigoEleitor, "alvo", resultado.Voto.CodigoAlvo)
}

type saldoResposta struct {
	OK                      bool   `json:"ok"`
	VoterCode               string `json:"voterCode"`
	CompanyID               string `json:"companyId"`
	DayKey                  string `json:"dayKey"`
	MonthKey                string `json:"monthKey"`
	DailyRemaining          int64  `json:"dailyRemaining"`
	CompanyMonthlyRemaining int64  `json:"companyMonthlyRemaining"`
}

func (a *API) consultarSaldo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	saldo, err := a.votacao.Saldo(r.Context(), q.Get("voter"), q.Get("companyId"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}

	responderJSON(w, http.StatusOK, saldoResposta{
		OK:                      true,
		VoterCode:               saldo.CodigoEleitor,
		CompanyID:               saldo.EmpresaID,
		DayKey:                  saldo.DayKey,
		MonthKey:                saldo.MonthKey,
		DailyRemaining:          saldo.DiarioRestante,
		CompanyMonthlyRemaining: saldo.MensalEmpresaRestante,
	})
}

type cadastroResposta struct {
	OK        bool                 `json:"ok"`
	Companies []domain.Empresa     `json:"companies"`
	Worker    *trabalhadorResposta `json:"worker,omitempty"`
}

// consultarCadastro alimenta a tela de cadastro; pode migrar um registro legado no caminho.
func (a *API) consultarCadastro(w http.ResponseWriter, r *http.Request) {
	empresas, err := a.diretorio.Empresas(r.Context())
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	if empresas == nil {
		empresas = []domain.Empresa{}
	}
	resp := cadastroResposta{OK: true, Companies: empresas}

	if codigo := r.URL.Query().Get("code"); codigo != "" {
		t, err := a.diretorio.Resolver(r.Context(), codigo)
		switch {
		case err == nil:
			tr := novoTrabalhadorResposta(t)
			resp.Worker = &tr
		case errors.Is(err, domain.ErrNotFound):
		default:
			a.responderErro(w, r, err)
			return
		}
	}

	responderJSON(w, http.StatusOK, resp)
}

type cadastroRequest struct {
	Code      string `json:"code"`
	FullName  string `json:"fullName"`
	CompanyID string `json:"companyId"`
}

func (a *API) cadastrar(w http.ResponseWriter, r *http.Request) {
	var req cadastroRequest
	if err := decodificar(w, r, &req); err != nil {
		a.responderErro(w, r, domain.Rejeitar(domain.CodeInvalidPayload, "body must be JSON"))
		return
	}

	t, err := a.diretorio.Cadastrar(r.Context(), domain.Perfil{
		Codigo:       req.Code,
		NomeCompleto: req.FullName,
		EmpresaID:    req.CompanyID,
	})
	if err != nil {
		a.logger.Warn("falha no cadastro", "err", err, "codigo", req.Code, "code", domain.CodigoDoErro(err))
		a.responderErro(w, r, err)
		return
	}

	responderJSON(w, http.StatusOK, struct {
		OK     bool                `json:"ok"`
		Worker trabalhadorResposta `json:"worker"`
	}{OK: true, Worker: novoTrabalhadorResposta(t)})
	a.logger.Info("trabalhador cadastrado", "codigo", t.Codigo, "empresa", t.EmpresaID)
}

func (a *API) buscarTrabalhadores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// Limite inválido cai no padrão do serviço.
	limite, _ := strconv.Atoi(q.Get("limit"))

	encontrados, err := a.diretorio.Buscar(r.Context(), q.Get("q"), limite)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}

	lista := make([]trabalhadorResposta, 0, len(encontrados))
	for _, t := range encontrados {
		lista = append(lista, novoTrabalhadorResposta(t))
	}
	responderJSON(w, http.StatusOK, struct {
		OK      bool                  `json:"ok"`
		Workers []trabalhadorResposta `json:"workers"`
	}{OK: true, Workers: lista})
}

func (a *API) obterResumo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rel, err := a.resumo.Resumo(r.Context(), q.Get("month"), q.Get("day"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}

	responderJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		domain.Relatorio
	}{OK: true, Relatorio: rel})
}

func (a *API) exportar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tipo, err := summary.ParseTipoExportacao(q.Get("type"))
	if err != nil {
		a.responderErro(w, r, domain.Rejeitar(domain.CodeInvalidExportType, "type must be rows, totals or targets"))
		return
	}

	rel, err := a.resumo.Resumo(r.Context(), q.Get("month"), q.Get("day"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}

	// Monta em memória para não mandar 200 com um CSV pela metade.
	var buf bytes.Buffer
	if err := summary.ExportarCSV(&buf, rel, tipo); err != nil {
		a.responderErro(w, r, err)
		return
	}

	nome := fmt.Sprintf("obra-tokens-%s-%s.csv", rel.MonthKey, tipo)
	if rel.DayKey != "" {
		nome = fmt.Sprintf("obra-tokens-%s-%s.csv", rel.DayKey, tipo)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+nome+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func decodificar(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCorpo)).Decode(v)
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// responderErro só expõe o motivo de rejeições; falha de infraestrutura vira mensagem genérica.
func (a *API) responderErro(w http.ResponseWriter, r *http.Request, err error) {
	var rej *domain.Rejeicao
	if !errors.As(err, &rej) {
		a.logger.Error("erro interno", "err", err, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()))
		responderJSON(w, http.StatusInternalServerError, erroResposta{Code: domain.CodeInternal, Error: "something went wrong, try again"})
		return
	}

	responderJSON(w, statusDaCategoria(rej.Codigo.Categoria()), erroResposta{
		Code:                    rej.Codigo,
		Error:                   mensagemRejeicao(rej),
		DailyRemaining:          rej.DiarioRestante,
		CompanyMonthlyRemaining: rej.MensalEmpresaRestante,
	})
}

func mensagemRejeicao(rej *domain.Rejeicao) string {
	if rej.Motivo == "" {
		return string(rej.Codigo)
	}
	return rej.Motivo
}

func statusDaCategoria(c domain.Categoria) int {
	switch c {
	case domain.CategoriaEntrada:
		return http.StatusBadRequest
	case domain.CategoriaPermissao:
		return http.StatusForbidden
	case domain.CategoriaNaoEncontrado:
		return http.StatusNotFound
	case domain.CategoriaPeriodo:
		return http.StatusConflict
	case domain.CategoriaCota:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
