package domain

import (
	"time"
)

type (
	Projeto  string
	TipoVoto string
	VotoID   string
)

const (
	TipoToken     TipoVoto = "token"
	TipoGoodCatch TipoVoto = "goodCatch"
)

func (t TipoVoto) Valido() bool {
	return t == TipoToken || t == TipoGoodCatch
}

// Trabalhador é o cadastro de quem tem um adesivo. Codigo é a chave canônica (ex.: NBK0001).
type Trabalhador struct {
	Codigo            string    `json:"code" gorm:"column:code;type:text;primaryKey"`
	Projeto           Projeto   `json:"project" gorm:"column:project;type:text;not null;index"`
	NomeCompleto      string    `json:"fullName" gorm:"column:full_name;type:text;not null"`
	NomeCompletoLower string    `json:"fullNameLower" gorm:"column:full_name_lower;type:text;index"`
	EmpresaID         string    `json:"companyId" gorm:"column:company_id;type:text;index"`
	CriadoEm          time.Time `json:"createdAt" gorm:"column:created_at"`
	AtualizadoEm      time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

type Empresa struct {
	ID   string `json:"id" gorm:"column:id;type:text;primaryKey"`
	Nome string `json:"name" gorm:"column:name;type:text;not null"`
}

// Voto é um evento imutável; nunca é alterado nem removido depois de aceito.
type Voto struct {
	ID               VotoID    `json:"id" gorm:"column:id;type:char(26);primaryKey"`
	CodigoEleitor    string    `json:"voterCode" gorm:"column:voter_code;type:text;not null;index"`
	CodigoAlvo       string    `json:"targetCode" gorm:"column:target_code;type:text;not null;index"`
	EmpresaEleitorID string    `json:"voterCompanyId" gorm:"column:voter_company_id;type:text"`
	EmpresaAlvoID    string    `json:"targetCompanyId" gorm:"column:target_company_id;type:text"`
	Projeto          Projeto   `json:"project" gorm:"column:project;type:text;not null"`
	Tipo             TipoVoto  `json:"voteType" gorm:"column:vote_type;type:text;not null"`
	CriadoEm         time.Time `json:"createdAt" gorm:"column:created_at;not null"`
	DayKey           string    `json:"dayKey" gorm:"column:day_key;type:text;not null;index:idx_votes_day"`
	MonthKey         string    `json:"monthKey" gorm:"column:month_key;type:text;not null;index:idx_votes_month"`
}

// ContadorVoto é o balde agregado de um período. Só votos do tipo token consomem contador.
type ContadorVoto struct {
	ID            string    `gorm:"column:id;type:text;primaryKey"`
	Tipo          string    `gorm:"column:kind;type:text;not null"`
	CodigoEleitor string    `gorm:"column:voter_code;type:text"`
	EmpresaID     string    `gorm:"column:company_id;type:text"`
	DayKey        string    `gorm:"column:day_key;type:text"`
	MonthKey      string    `gorm:"column:month_key;type:text"`
	Total         int64     `gorm:"column:count;not null"`
	AtualizadoEm  time.Time `gorm:"column:updated_at"`
}

// MigracaoTrabalhador registra cada troca de identificador legado (NBK-0001) pelo canônico.
type MigracaoTrabalhador struct {
	ID             string    `gorm:"column:id;type:char(26);primaryKey"`
	CodigoLegado   string    `gorm:"column:legacy_code;type:text;not null;index"`
	CodigoCanonico string    `gorm:"column:canonical_code;type:text;not null"`
	Origem         string    `gorm:"column:migration_trigger;type:text;not null"`
	CriadoEm       time.Time `gorm:"column:created_at"`
}

// Limites carrega os tetos aplicados na transação de voto token.
type Limites struct {
	Diario        int64
	MensalEmpresa int64
}

// Contagem é o valor dos dois contadores num dado momento.
type Contagem struct {
	Diario        int64
	MensalEmpresa int64
}

// Restante devolve quanto sobra de um teto, nunca negativo.
func Restante(teto, usado int64) int64 {
	if usado >= teto {
		return 0
	}
	return teto - usado
}

// PedidoVoto é o que chega da borda HTTP antes de qualquer normalização.
type PedidoVoto struct {
	CodigoEleitor string
	CodigoAlvo    string
	Tipo          TipoVoto
	OrigemIP      string
	UserAgent     string
}

type ResultadoVoto struct {
	Tipo                  TipoVoto
	Mensagem              string
	Alvo                  Trabalhador
	DiarioRestante        int64
	MensalEmpresaRestante int64
	Voto                  Voto
}

type SaldoVotos struct {
	CodigoEleitor         string
	EmpresaID             string
	DayKey                string
	MonthKey              string
	DiarioRestante        int64
	MensalEmpresaRestante int64
}

// Perfil é o corpo de um cadastro/recadastro.
type Perfil struct {
	Codigo       string
	NomeCompleto string
	EmpresaID    string
}

func (Trabalhador) TableName() string { return "workers" }

func (Empresa) TableName() string { return "companies" }

func (Voto) TableName() string { return "votes" }

func (ContadorVoto) TableName() string { return "vote_counters" }

func (MigracaoTrabalhador) TableName() string { return "worker_migrations" }
