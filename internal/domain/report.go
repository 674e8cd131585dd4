package domain

// LinhaVoto é um voto já enriquecido com nomes para o painel administrativo.
type LinhaVoto struct {
	Voto
	NomeEleitor    string `json:"voterName"`
	NomeAlvo       string `json:"targetName"`
	EmpresaEleitor string `json:"voterCompany"`
	EmpresaAlvo    string `json:"targetCompany"`
}

type Grupo struct {
	Projeto Projeto `json:"project"`
	Chave   string  `json:"key"`
	Nome    string  `json:"name"`
	Total   int64   `json:"count"`
}

type TotalDia struct {
	DayKey      string `json:"dayKey"`
	Tokens      int64  `json:"tokens"`
	GoodCatches int64  `json:"goodCatches"`
}

type Agrupamentos struct {
	PorEmpresaEleitor []Grupo `json:"byVoterCompany"`
	PorAlvo           []Grupo `json:"byTarget"`
	PorEmpresaAlvo    []Grupo `json:"byTargetCompany"`
}

type Relatorio struct {
	MonthKey  string       `json:"month"`
	DayKey    string       `json:"day,omitempty"`
	Linhas    []LinhaVoto  `json:"rows"`
	PorDia    []TotalDia   `json:"byDay"`
	Tokens    Agrupamentos `json:"tokens"`
	GoodCatch Agrupamentos `json:"goodCatch"`
	// Truncado indica que o teto de linhas foi atingido e os totais são parciais.
	Truncado bool `json:"truncated"`
}
