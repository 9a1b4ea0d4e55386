package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type nopGenerator struct{}

func (nopGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{}, nil
}

func TestProvider_MissingKeyIsCached(t *testing.T) {
	p := NewProvider("")
	calls := 0
	p.newClient = func(context.Context, string) (Generator, error) {
		calls++
		return nopGenerator{}, nil
	}

	for i := 0; i < 3; i++ {
		gen, err := p.Generator(context.Background())
		if gen != nil {
			t.Fatalf("call %d: expected nil generator", i)
		}
		if CategoryOf(err) != CategoryConfiguration {
			t.Fatalf("call %d: category = %v, want configuration", i, CategoryOf(err))
		}
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("call %d: expected ErrMissingAPIKey, got %v", i, err)
		}
	}
	if calls != 0 {
		t.Errorf("client constructor called %d times with no key", calls)
	}
}

func TestProvider_InitOnce(t *testing.T) {
	p := NewProvider("test-key")
	calls := 0
	p.newClient = func(_ context.Context, key string) (Generator, error) {
		calls++
		if key != "test-key" {
			t.Errorf("key = %q, want test-key", key)
		}
		return nopGenerator{}, nil
	}

	first, err := p.Generator(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Generator(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the same generator on every call")
	}
	if calls != 1 {
		t.Errorf("constructor calls = %d, want 1", calls)
	}
}

func TestProvider_ConstructorFailure(t *testing.T) {
	p := NewProvider("k")
	boom := errors.New("bad transport")
	p.newClient = func(context.Context, string) (Generator, error) { return nil, boom }

	_, err1 := p.Generator(context.Background())
	_, err2 := p.Generator(context.Background())
	if CategoryOf(err1) != CategoryConfiguration || !errors.Is(err1, boom) {
		t.Errorf("first error = %v, want configuration wrapping cause", err1)
	}
	if err1 != err2 {
		t.Error("expected the cached error on the second call")
	}
}

func TestStatic(t *testing.T) {
	src := Static(nopGenerator{})
	gen, err := src.Generator(context.Background())
	if err != nil || gen == nil {
		t.Fatalf("Static source returned (%v, %v)", gen, err)
	}
}

func TestDefaultModels(t *testing.T) {
	m := DefaultModels()
	if m.Analysis != ModelGemini25Flash || m.Quality != ModelGemini25Flash || m.Image != ModelGemini25FlashImage {
		t.Errorf("unexpected defaults: %+v", m)
	}
}
