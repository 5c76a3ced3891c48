package ai

import (
	"context"
	"fmt"
	"sort"
	"time"

	"haytruco/internal/config"
	"haytruco/internal/service/game"
	appErr "haytruco/pkg/errors"
)

const (
	defaultTimeout  = 30 * time.Second
	deepSeekBaseURL = "https://api.deepseek.com/v1"
	ollamaBaseURL   = "http://localhost:11434/v1"
)

// Manager holds the registered decision backends, keyed by provider name.
type Manager struct {
	providers map[string]Provider
	timeout   time.Duration
}

// NewManager registers every provider the config carries credentials for.
// Ollama needs no key, only a reachable base URL.
func NewManager(cfg config.AIConfig) *Manager {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	m := &Manager{
		providers: make(map[string]Provider),
		timeout:   timeout,
	}

	if cfg.OpenAI.APIKey != "" {
		m.Register("openai", newChatProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL))
	}
	if cfg.DeepSeek.APIKey != "" {
		baseURL := cfg.DeepSeek.BaseURL
		if baseURL == "" {
			baseURL = deepSeekBaseURL
		}
		m.Register("deepseek", newChatProvider(cfg.DeepSeek.APIKey, baseURL))
	}
	// Ollama needs no API key.
	baseURL := cfg.Ollama.BaseURL
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	m.Register("ollama", newChatProvider("ollama", baseURL))
	return m
}

func (m *Manager) Register(name string, p Provider) {
	m.providers[name] = p
}

func (m *Manager) Has(name string) bool {
	_, ok := m.providers[name]
	return ok
}

func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decide runs one decision call and normalizes the reply into an Action.
// The raw backend output is returned alongside for telemetry even when
// parsing fails.
func (m *Manager) Decide(ctx context.Context, provider, model, prompt string, opts Options) (game.Action, string, error) {
	p, ok := m.providers[provider]
	if !ok {
		return game.Action{}, "", fmt.Errorf("%w: %s", appErr.ErrProviderNotFound, provider)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	raw, err := p.Complete(ctx, model, prompt, opts)
	if err != nil {
		return game.Action{}, raw, err
	}

	action, err := ParseAction(raw)
	return action, raw, err
}
