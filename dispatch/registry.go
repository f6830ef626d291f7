package dispatch

import (
	"context"
	"sync"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/anthropic"
	"github.com/harunnryd/musubi/backend/codex"
	"github.com/harunnryd/musubi/backend/deepseek"
	"github.com/harunnryd/musubi/backend/gemini"
	"github.com/harunnryd/musubi/backend/groq"
	"github.com/harunnryd/musubi/backend/ollama"
	"github.com/harunnryd/musubi/backend/openai"
	"github.com/harunnryd/musubi/backend/qwen"
	"github.com/harunnryd/musubi/backend/zai"
	"github.com/harunnryd/musubi/conf"
	"github.com/harunnryd/musubi/fault"
)

// Registry constructs and caches one invoker per configured backend.
// Construction is lazy so unconfigured backends cost nothing.
type Registry struct {
	reg *conf.Registry

	mu       sync.RWMutex
	invokers map[backend.Name]backend.Invoker
}

func NewRegistry(reg *conf.Registry) *Registry {
	return &Registry{
		reg:      reg,
		invokers: make(map[backend.Name]backend.Invoker),
	}
}

// Register installs a pre-built invoker, replacing any cached one. Tests and
// callers with custom transports use this.
func (r *Registry) Register(inv backend.Invoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invokers[inv.Name()] = inv
}

// Invoker returns the invoker for a backend, building it from the registry
// entry on first use.
func (r *Registry) Invoker(ctx context.Context, name backend.Name) (backend.Invoker, error) {
	r.mu.RLock()
	inv, ok := r.invokers[name]
	r.mu.RUnlock()
	if ok {
		return inv, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invokers[name]; ok {
		return inv, nil
	}

	inv, err := r.build(ctx, name)
	if err != nil {
		return nil, err
	}
	r.invokers[name] = inv
	return inv, nil
}

func (r *Registry) build(ctx context.Context, name backend.Name) (backend.Invoker, error) {
	entry, ok := r.reg.Entry(string(name))
	if !ok {
		return nil, &fault.ConfigurationError{
			Field:  "backends",
			Reason: "no registry entry for backend " + string(name),
		}
	}

	switch name {
	case backend.Anthropic:
		return anthropic.New(entry.APIKey), nil
	case backend.OpenAI:
		return openai.New(entry.APIKey, entry.BaseURL), nil
	case backend.Gemini:
		return gemini.New(ctx, entry.APIKey)
	case backend.Codex:
		return codex.New(entry.APIKey, entry.BaseURL), nil
	case backend.DeepSeek:
		return deepseek.New(entry.APIKey, entry.BaseURL), nil
	case backend.Qwen:
		return qwen.New(entry.APIKey, entry.BaseURL), nil
	case backend.ZAI:
		return zai.New(entry.APIKey, entry.BaseURL), nil
	case backend.Groq:
		return groq.New(entry.APIKey, entry.BaseURL), nil
	case backend.Ollama:
		return ollama.New(entry.APIKey, entry.BaseURL), nil
	default:
		return nil, fault.Configurationf("unknown backend %q", name)
	}
}
