package voting

import (
	"hash/fnv"
)

type TipoMensagem int

const (
	MensagemToken TipoMensagem = iota
	MensagemUltimoToken
	MensagemGoodCatch
	MensagemLimiteDiario
	MensagemLimiteMensal
)

var mensagens = map[TipoMensagem][]string{
	MensagemToken: {
		"Token sent. Thanks for recognizing a teammate!",
		"Nice! Your token is on its way.",
		"Recognition delivered. Keep it up!",
		"Token awarded. Safe work gets noticed.",
	},
	MensagemUltimoToken: {
		"That was your last token for today. See you tomorrow!",
		"All of today's tokens are out. Thanks for spreading them around!",
	},
	MensagemGoodCatch: {
		"Good Catch recorded. Thanks for keeping the site safe!",
		"Good Catch logged. That's how we look out for each other.",
		"Good Catch saved. Great eye!",
	},
	MensagemLimiteDiario: {
		"You've used all your tokens for today. Come back tomorrow!",
		"Daily tokens are all gone. They reset at midnight.",
	},
	MensagemLimiteMensal: {
		"Your company has used all of its tokens this month.",
		"Company tokens for this month are used up. They reset on the 1st.",
	},
}

// Mensagem escolhe o texto pela semente, sem estado global: a mesma semente dá sempre a mesma frase.
func Mensagem(tipo TipoMensagem, semente uint64) string {
	pool := mensagens[tipo]
	if len(pool) == 0 {
		return ""
	}
	return pool[semente%uint64(len(pool))]
}

func Semente(partes ...string) uint64 {
	h := fnv.New64a()
	for _, p := range partes {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
