package domain

import (
	"context"
	"time"
)

// ResultadoCadastro diz qual ramo do upsert de trabalhador foi executado.
type ResultadoCadastro string

const (
	CadastroCriado     ResultadoCadastro = "created"
	CadastroAtualizado ResultadoCadastro = "updated"
	CadastroMigrado    ResultadoCadastro = "migrated"
)

const (
	OrigemMigracaoLeitura   = "read"
	OrigemMigracaoCadastro  = "register"
	OrigemMigracaoVarredura = "sweep"
)

type TrabalhadorRepository interface {
	FindByCodigo(ctx context.Context, codigo string) (Trabalhador, error)
	FindMany(ctx context.Context, codigos []string) (map[string]Trabalhador, error)
	BuscarPorNome(ctx context.Context, prefixoLower string, limite int) ([]Trabalhador, error)
	// Migrar move o registro m.CodigoLegado para m.CodigoCanonico e grava a auditoria, tudo numa transação.
	// Devolve false quando o canônico já existia (nada é escrito).
	Migrar(ctx context.Context, m MigracaoTrabalhador, projeto Projeto) (Trabalhador, bool, error)
	// Upsert lê a chave canônica e a legada na mesma transação para não duplicar a pessoa.
	Upsert(ctx context.Context, t Trabalhador, m MigracaoTrabalhador) (Trabalhador, ResultadoCadastro, error)
	ListLegados(ctx context.Context, depois string, limite int) ([]Trabalhador, error)
}

type EmpresaRepository interface {
	List(ctx context.Context) ([]Empresa, error)
	FindByID(ctx context.Context, id string) (Empresa, error)
	Seed(ctx context.Context, empresas []Empresa) error
}

type VotoRepository interface {
	// Registrar é idempotente pelo ID, o que torna segura a reentrega pela fila.
	Registrar(ctx context.Context, voto Voto) error
	ListByPeriodo(ctx context.Context, monthKey, dayKey string, limite int) ([]Voto, error)
}

// VotoLedger é a primitiva atômica de "compara e incrementa com teto" junto com a gravação do voto.
type VotoLedger interface {
	// RegistrarToken devolve ErrLimiteDiario/ErrLimiteMensalEmpresa sem escrever nada quando um teto estoura.
	RegistrarToken(ctx context.Context, voto Voto, limites Limites) (Contagem, error)
	RegistrarGoodCatch(ctx context.Context, voto Voto) error
	Contagem(ctx context.Context, codigoEleitor, empresaID, dayKey, monthKey string) (Contagem, error)
}

type Fila interface {
	PublicarVoto(ctx context.Context, voto Voto) error
	ConsumirVotos(ctx context.Context, handler func(context.Context, Voto) error) error
}

type Antifraude interface {
	Validar(ctx context.Context, pedido PedidoVoto) error
}

type Clock interface {
	Agora() time.Time
}

type VotingService interface {
	RegistrarVoto(ctx context.Context, pedido PedidoVoto) (ResultadoVoto, error)
	Saldo(ctx context.Context, codigoEleitor, empresaID string) (SaldoVotos, error)
}

type DirectoryService interface {
	Empresas(ctx context.Context) ([]Empresa, error)
	Resolver(ctx context.Context, codigo string) (Trabalhador, error)
	Cadastrar(ctx context.Context, perfil Perfil) (Trabalhador, error)
	Buscar(ctx context.Context, termo string, limite int) ([]Trabalhador, error)
}

type SummaryService interface {
	Resumo(ctx context.Context, monthKey, dayKey string) (Relatorio, error)
}
