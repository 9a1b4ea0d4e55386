package gemini

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Generator is the single remote capability the atelier depends on.
// *genai.Models satisfies it; tests substitute a fake.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Source hands out the process-wide Generator.
type Source interface {
	Generator(ctx context.Context) (Generator, error)
}

// requestTimeout bounds one HTTP round trip. Image generation can take 10-30s.
const requestTimeout = 120 * time.Second

// NewGeminiClient creates a genai client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: requestTimeout},
	})
}

// Provider lazily constructs the Gemini client on first use and shares it for
// the lifetime of the process. Initialization runs once: a failure is cached
// and every later call gets the same configuration error.
type Provider struct {
	apiKey    string
	newClient func(ctx context.Context, apiKey string) (Generator, error)

	mu   sync.Mutex
	done bool
	gen  Generator
	err  error
}

// NewProvider returns a Provider for apiKey. The key is not checked until the
// first call to Generator.
func NewProvider(apiKey string) *Provider {
	return &Provider{
		apiKey: apiKey,
		newClient: func(ctx context.Context, apiKey string) (Generator, error) {
			client, err := NewGeminiClient(ctx, apiKey)
			if err != nil {
				return nil, err
			}
			return client.Models, nil
		},
	}
}

// Generator returns the shared Generator, creating it on first use.
func (p *Provider) Generator(ctx context.Context) (Generator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return p.gen, p.err
	}
	p.done = true

	if p.apiKey == "" {
		log.Error().Msg("Gemini API key not configured")
		p.err = &Error{Category: CategoryConfiguration, Err: ErrMissingAPIKey}
		return nil, p.err
	}

	gen, err := p.newClient(ctx, p.apiKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Gemini client")
		p.err = &Error{Category: CategoryConfiguration, Err: err}
		return nil, p.err
	}

	log.Info().Msg("Gemini client initialized")
	p.gen = gen
	return p.gen, nil
}

// Static wraps an already constructed Generator as a Source.
func Static(gen Generator) Source {
	return staticSource{gen: gen}
}

type staticSource struct {
	gen Generator
}

func (s staticSource) Generator(context.Context) (Generator, error) {
	return s.gen, nil
}
