// Pacote codes canoniza o texto lido do adesivo (QR ou digitado) para o formato {PREFIXO}{dígitos com 4 casas}.
package codes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

const larguraDigitos = 4

var ErrCodigoInvalido = errors.New("codigo invalido")

// PrefixoDesconhecidoError sinaliza um prefixo sem projeto mapeado no catálogo.
type PrefixoDesconhecidoError struct {
	Prefixo string
}

func (e *PrefixoDesconhecidoError) Error() string {
	return fmt.Sprintf("prefixo %q sem projeto configurado", e.Prefixo)
}

// Limpar converte para maiúsculas e descarta tudo fora de [A-Z0-9].
func Limpar(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// dividir separa LETRAS+DÍGITOS; ok=false se o texto limpo não segue esse padrão.
func dividir(limpo string) (letras, digitos string, ok bool) {
	i := 0
	for i < len(limpo) && limpo[i] >= 'A' && limpo[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(limpo) {
		return "", "", false
	}
	for j := i; j < len(limpo); j++ {
		if limpo[j] < '0' || limpo[j] > '9' {
			return "", "", false
		}
	}
	return limpo[:i], limpo[i:], true
}

func repadronizar(digitos string) string {
	d := strings.TrimLeft(digitos, "0")
	if len(d) < larguraDigitos {
		d = strings.Repeat("0", larguraDigitos-len(d)) + d
	}
	return d
}

// Normalizar é o modo leniente: devolve o canônico quando possível, senão o texto limpo.
func Normalizar(s string) string {
	limpo := Limpar(s)
	letras, digitos, ok := dividir(limpo)
	if !ok {
		return limpo
	}
	return letras + repadronizar(digitos)
}

// NormalizarEstrito é usado para liberar envio: só aceita LETRAS+DÍGITOS.
func NormalizarEstrito(s string) (string, error) {
	letras, digitos, ok := dividir(Limpar(s))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrCodigoInvalido, s)
	}
	return letras + repadronizar(digitos), nil
}

// Legado monta a forma com hífen (NBK-0001) apenas para ler registros antigos; nunca para gravar.
func Legado(canonico string) string {
	letras, digitos, ok := dividir(canonico)
	if !ok {
		return canonico
	}
	return letras + "-" + digitos
}

// EhLegado reconhece identificadores gravados no formato antigo.
func EhLegado(id string) bool {
	return strings.Contains(id, "-")
}

// Prefixo devolve as letras iniciais de um código canônico.
func Prefixo(canonico string) string {
	letras, _, ok := dividir(canonico)
	if !ok {
		return ""
	}
	return letras
}

// Catalogo mapeia prefixo de adesivo para projeto; prefixo fora da lista é erro, nunca um padrão silencioso.
type Catalogo struct {
	projetos map[string]domain.Projeto
}

func NewCatalogo(mapa map[string]string) (*Catalogo, error) {
	if len(mapa) == 0 {
		return nil, errors.New("codes: catalogo de projetos vazio")
	}
	c := &Catalogo{projetos: make(map[string]domain.Projeto, len(mapa))}
	for prefixo, projeto := range mapa {
		p := Limpar(prefixo)
		if p == "" || strings.TrimSpace(projeto) == "" {
			return nil, fmt.Errorf("codes: entrada invalida no catalogo (%q=%q)", prefixo, projeto)
		}
		c.projetos[p] = domain.Projeto(strings.TrimSpace(projeto))
	}
	return c, nil
}

// Projeto casa o prefixo exato (letras do código), evitando que NBKX caia em NBK por acidente.
func (c *Catalogo) Projeto(canonico string) (domain.Projeto, error) {
	prefixo := Prefixo(canonico)
	if prefixo == "" {
		return "", fmt.Errorf("%w: %q", ErrCodigoInvalido, canonico)
	}
	projeto, ok := c.projetos[prefixo]
	if !ok {
		return "", &PrefixoDesconhecidoError{Prefixo: prefixo}
	}
	return projeto, nil
}

func (c *Catalogo) Prefixos() []string {
	out := make([]string, 0, len(c.projetos))
	for p := range c.projetos {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
