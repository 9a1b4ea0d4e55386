package stylist

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/media"
)

// fakeResponse is one scripted answer of fakeGenerator.
type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeGenerator replays scripted responses and records every call.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{model: model, contents: contents, config: config})
	if len(f.responses) == 0 {
		return nil, genai.APIError{Code: 400, Message: "unexpected call"}
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.resp, r.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// promptOf returns the text part of the i-th call.
func (f *fakeGenerator) promptOf(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.calls[i].contents[0].Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func textResponse(text string) fakeResponse {
	return fakeResponse{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}}
}

func imageResponse(data []byte, mime string) fakeResponse {
	return fakeResponse{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{Text: "Here is your look."},
				{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
			}},
		}},
	}}
}

func errResponse(err error) fakeResponse {
	return fakeResponse{err: err}
}

// newTestService wires a fake generator and records retry waits instead of sleeping.
func newTestService(t *testing.T, opts Options, responses ...fakeResponse) (*Service, *fakeGenerator, *[]time.Duration) {
	t.Helper()
	fake := &fakeGenerator{responses: responses}
	waits := &[]time.Duration{}
	opts.Policy = &gemini.Policy{
		MaxRetries:   gemini.DefaultMaxRetries,
		InitialDelay: gemini.DefaultInitialDelay,
		Sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
	return New(gemini.Static(fake), opts), fake, waits
}

var testPortrait = media.Payload{Data: []byte("portrait-bytes"), MIMEType: "image/jpeg"}
