// Pacote directory resolve e cadastra trabalhadores, reconciliando os dois formatos históricos de adesivo.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcelojr/obra-tokens/internal/app/codes"
	"github.com/marcelojr/obra-tokens/internal/domain"
	"github.com/marcelojr/obra-tokens/internal/platform/ids"
	"github.com/marcelojr/obra-tokens/internal/platform/metrics"
)

const (
	limiteBuscaPadrao = 10
	limiteBuscaMaximo = 20
)

type Service struct {
	trabalhadores   domain.TrabalhadorRepository
	empresas        domain.EmpresaRepository
	catalogo        *codes.Catalogo
	clock           domain.Clock
	ids             *ids.Generator
	migrarNaLeitura bool
}

func NewService(
	trabalhadores domain.TrabalhadorRepository,
	empresas domain.EmpresaRepository,
	catalogo *codes.Catalogo,
	clock domain.Clock,
	idsGen *ids.Generator,
	migrarNaLeitura bool,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		trabalhadores:   trabalhadores,
		empresas:        empresas,
		catalogo:        catalogo,
		clock:           clock,
		ids:             idsGen,
		migrarNaLeitura: migrarNaLeitura,
	}
}

func (s *Service) Empresas(ctx context.Context) ([]domain.Empresa, error) {
	return s.empresas.List(ctx)
}

// Resolver busca pelo código canônico e, na falta dele, pelo formato legado com hífen.
// Com migração na leitura habilitada, o primeiro acesso já troca a chave do registro;
// desligada, se comporta como Consultar.
func (s *Service) Resolver(ctx context.Context, codigo string) (domain.Trabalhador, error) {
	if !s.migrarNaLeitura {
		return s.Consultar(ctx, codigo)
	}

	t, canonico, legado, err := s.buscarCanonico(ctx, codigo)
	if !errors.Is(err, domain.ErrNotFound) || legado == "" {
		return t, err
	}

	t, _, err = s.Migrar(ctx, legado, canonico, domain.OrigemMigracaoLeitura)
	return t, err
}

// Consultar nunca escreve. Um registro ainda legado sai com o código canônico,
// então contadores e votos usam a mesma chave antes e depois da migração.
func (s *Service) Consultar(ctx context.Context, codigo string) (domain.Trabalhador, error) {
	t, canonico, legado, err := s.buscarCanonico(ctx, codigo)
	if !errors.Is(err, domain.ErrNotFound) || legado == "" {
		return t, err
	}

	t, err = s.trabalhadores.FindByCodigo(ctx, legado)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trabalhador{}, err
		}
		return domain.Trabalhador{}, fmt.Errorf("directory: buscar %s: %w", legado, err)
	}
	t.Codigo = canonico
	if projeto, err := s.catalogo.Projeto(canonico); err == nil {
		t.Projeto = projeto
	}
	return t, nil
}

// buscarCanonico devolve o registro canônico, ou ErrNotFound com o código legado a tentar ("" quando não há).
func (s *Service) buscarCanonico(ctx context.Context, codigo string) (t domain.Trabalhador, canonico, legado string, err error) {
	canonico = codes.Normalizar(codigo)
	if canonico == "" {
		return domain.Trabalhador{}, "", "", domain.ErrNotFound
	}

	t, err = s.trabalhadores.FindByCodigo(ctx, canonico)
	if err == nil {
		return t, canonico, "", nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Trabalhador{}, canonico, "", fmt.Errorf("directory: buscar %s: %w", canonico, err)
	}

	if legado = codes.Legado(canonico); legado == canonico {
		legado = ""
	}
	return domain.Trabalhador{}, canonico, legado, domain.ErrNotFound
}

// Migrar é a operação explícita e auditada de troca de identificador. Se o canônico já existir, nada muda
// e o retorno booleano vem false.
func (s *Service) Migrar(ctx context.Context, legado, canonico, origem string) (domain.Trabalhador, bool, error) {
	// Registro legado com prefixo fora do catálogo mantém o projeto que já tinha.
	projeto, err := s.catalogo.Projeto(canonico)
	if err != nil {
		projeto = ""
	}

	m := domain.MigracaoTrabalhador{
		ID:             s.ids.New(),
		CodigoLegado:   legado,
		CodigoCanonico: canonico,
		Origem:         origem,
		CriadoEm:       s.clock.Agora(),
	}

	t, migrado, err := s.trabalhadores.Migrar(ctx, m, projeto)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trabalhador{}, false, domain.ErrNotFound
		}
		return domain.Trabalhador{}, false, fmt.Errorf("directory: migrar %s -> %s: %w", legado, canonico, err)
	}
	if migrado {
		metrics.IncWorkerMigration(origem)
	}
	return t, migrado, nil
}

// Cadastrar faz o upsert do perfil pelo código canônico (cria, atualiza ou migra o legado).
func (s *Service) Cadastrar(ctx context.Context, perfil domain.Perfil) (domain.Trabalhador, error) {
	canonico, err := codes.NormalizarEstrito(perfil.Codigo)
	if err != nil {
		return domain.Trabalhador{}, domain.Rejeitar(domain.CodeInvalidCode, "sticker code must be letters followed by digits")
	}

	nome := strings.Join(strings.Fields(perfil.NomeCompleto), " ")
	if nome == "" {
		return domain.Trabalhador{}, domain.Rejeitar(domain.CodeMissingName, "full name is required")
	}

	projeto, err := s.catalogo.Projeto(canonico)
	if err != nil {
		var desconhecido *codes.PrefixoDesconhecidoError
		if errors.As(err, &desconhecido) {
			return domain.Trabalhador{}, domain.Rejeitar(domain.CodeUnknownProject, "no project uses prefix "+desconhecido.Prefixo)
		}
		return domain.Trabalhador{}, domain.Rejeitar(domain.CodeInvalidCode, err.Error())
	}

	empresaID := strings.TrimSpace(perfil.EmpresaID)
	if empresaID == "" {
		return domain.Trabalhador{}, domain.Rejeitar(domain.CodeUnknownCompany, "company is required")
	}
	if _, err := s.empresas.FindByID(ctx, empresaID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trabalhador{}, domain.Rejeitar(domain.CodeUnknownCompany, "unknown company "+empresaID)
		}
		return domain.Trabalhador{}, fmt.Errorf("directory: buscar empresa %s: %w", empresaID, err)
	}

	agora := s.clock.Agora()
	t := domain.Trabalhador{
		Codigo:            canonico,
		Projeto:           projeto,
		NomeCompleto:      nome,
		NomeCompletoLower: strings.ToLower(nome),
		EmpresaID:         empresaID,
		CriadoEm:          agora,
		AtualizadoEm:      agora,
	}
	m := domain.MigracaoTrabalhador{
		ID:             s.ids.New(),
		CodigoLegado:   codes.Legado(canonico),
		CodigoCanonico: canonico,
		Origem:         domain.OrigemMigracaoCadastro,
		CriadoEm:       agora,
	}

	salvo, resultado, err := s.trabalhadores.Upsert(ctx, t, m)
	if err != nil {
		return domain.Trabalhador{}, fmt.Errorf("directory: cadastrar %s: %w", canonico, err)
	}
	if resultado == domain.CadastroMigrado {
		metrics.IncWorkerMigration(domain.OrigemMigracaoCadastro)
	}
	return salvo, nil
}

func (s *Service) Buscar(ctx context.Context, termo string, limite int) ([]domain.Trabalhador, error) {
	termo = strings.ToLower(strings.Join(strings.Fields(termo), " "))
	if termo == "" {
		return []domain.Trabalhador{}, nil
	}
	if limite <= 0 {
		limite = limiteBuscaPadrao
	}
	if limite > limiteBuscaMaximo {
		limite = limiteBuscaMaximo
	}
	return s.trabalhadores.BuscarPorNome(ctx, termo, limite)
}

var _ domain.DirectoryService = (*Service)(nil)
