package relay

import "strings"

// Kind identifies an upstream provider family.
type Kind int

const (
	KindUnknown Kind = iota
	KindLocal
	KindClaude
	KindNova
	KindOpenAI
)

// Kinds lists the known provider families in display order.
var Kinds = []Kind{KindLocal, KindClaude, KindNova, KindOpenAI}

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindClaude:
		return "claude"
	case KindNova:
		return "nova"
	case KindOpenAI:
		return "openai"
	default:
		return "unknown"
	}
}

// Label is the human readable family name used in client-facing messages.
func (k Kind) Label() string {
	switch k {
	case KindLocal:
		return "Ollama"
	case KindClaude:
		return "Claude"
	case KindNova:
		return "Nova"
	case KindOpenAI:
		return "OpenAI"
	default:
		return "unknown"
	}
}

// Bedrock cross-region inference profiles prefix model ids with a geography.
var bedrockGeos = []string{"", "us.", "eu.", "apac."}

type rule struct {
	prefix string
	kind   Kind
	strip  bool
}

var rules = func() []rule {
	rs := []rule{
		{prefix: "ollama/", kind: KindLocal, strip: true},
		{prefix: "openai/", kind: KindOpenAI, strip: true},
		{prefix: "gpt-", kind: KindOpenAI},
		{prefix: "o1", kind: KindOpenAI},
		{prefix: "o3", kind: KindOpenAI},
		{prefix: "o4", kind: KindOpenAI},
	}
	for _, g := range bedrockGeos {
		rs = append(rs,
			rule{prefix: g + "anthropic.", kind: KindClaude},
			rule{prefix: g + "amazon.nova", kind: KindNova},
		)
	}
	return rs
}()

// Resolve maps a client model identifier to a provider kind and the model
// name to send upstream. It is a pure function of the identifier prefix.
func Resolve(model string) (Kind, string) {
	m := strings.TrimSpace(model)
	for _, r := range rules {
		if strings.HasPrefix(m, r.prefix) {
			if r.strip {
				name := strings.TrimPrefix(m, r.prefix)
				if name == "" {
					return KindUnknown, m
				}
				return r.kind, name
			}
			return r.kind, m
		}
	}
	return KindUnknown, m
}
