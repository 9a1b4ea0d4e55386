package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/session"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// routeGenerator answers by request kind: image generation when response
// modalities are requested, JSON analysis or quality otherwise.
type routeGenerator struct {
	mu       sync.Mutex
	text     string
	image    []byte
	err      error
	imageErr error
	calls    int
}

func (g *routeGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if config != nil && len(config.ResponseModalities) > 0 {
		if g.imageErr != nil {
			return nil, g.imageErr
		}
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: g.image}},
			}},
		}}}, nil
	}
	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: g.text}}},
	}}}, nil
}

const analysisJSON = `{
  "quality_check": {"valid": true, "reason": ""},
  "genero": "Feminino",
  "tom_pele_detectado": "Neutro",
  "biotipo": "Retângulo",
  "paleta_cores": [{"hex": "#40E0D0", "nome": "Turquesa"}],
  "sugestoes_roupa": [
    {"titulo": "Blazer Slim", "detalhes": "Azul marinho", "ocasiao": "Trabalho", "termos_busca": "blazer slim azul",
     "partner_suggestion": {"storeName": "Riachuelo", "productName": "Blazer", "link": ""}},
    {"titulo": "Vestido Midi", "detalhes": "Verde", "ocasiao": "Festa",
     "partner_suggestion": {"storeName": "Riachuelo", "productName": "Vestido", "link": "https://www.riachuelo.com.br/busca?q=vestido"}}
  ]
}`

var testImageURI = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("portrait"))

func newTestServer(t *testing.T, gen *routeGenerator, cfg Config) (http.Handler, *session.Store) {
	t.Helper()
	svc := stylist.New(gemini.Static(gen), stylist.Options{
		Policy: &gemini.Policy{
			MaxRetries:   gemini.DefaultMaxRetries,
			InitialDelay: time.Millisecond,
			Sleep:        func(context.Context, time.Duration) error { return nil },
		},
	})
	store := session.NewStore(0)
	return NewServer(svc, store, cfg).Router(), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) session.Session {
	t.Helper()
	var sess session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v\nbody: %s", err, rec.Body.String())
	}
	return sess
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, &routeGenerator{}, Config{Version: "1.2.3"})
	rec := do(t, h, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	want := map[string]string{"status": "ok", "service": "vizu-atelier", "version": "1.2.3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestQuality(t *testing.T) {
	gen := &routeGenerator{text: `{"isValid": false, "score": 40, "issues": ["Escuro"], "advice": "Use luz natural.", "details": {"lighting": "Too Dark", "focus": "Sharp", "framing": "Good"}}`}
	h, _ := newTestServer(t, gen, Config{})

	rec := do(t, h, http.MethodPost, "/api/quality", map[string]string{"image": testImageURI})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var got stylist.QualityResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.IsValid || got.Score != 40 || got.Advice != "Use luz natural." {
		t.Errorf("unexpected quality result: %+v", got)
	}
}

func TestQuality_BadInput(t *testing.T) {
	h, _ := newTestServer(t, &routeGenerator{}, Config{})
	tests := []struct {
		name string
		body any
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"missing image", map[string]string{}, http.StatusBadRequest},
		{"bad base64", map[string]string{"image": "data:image/png;base64,@@@"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/quality", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	gen := &routeGenerator{text: analysisJSON, image: []byte("look")}
	h, _ := newTestServer(t, gen, Config{})

	rec := do(t, h, http.MethodPost, "/api/sessions", map[string]any{
		"image":   testImageURI,
		"metrics": map[string]string{"height": "1.65", "weight": "55"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}
	sess := decodeSession(t, rec)
	if sess.ID == "" || len(sess.Result.Outfits) != 2 {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if got := sess.Result.Outfits[0].PartnerSuggestion.Link; got != "https://www.riachuelo.com.br/busca?q=blazer+slim+azul" {
		t.Errorf("filled link = %q", got)
	}
	base := "/api/sessions/" + sess.ID

	rec = do(t, h, http.MethodPut, base+"/looks/1/favorite", nil)
	if rec.Code != http.StatusOK || !decodeSession(t, rec).Result.Outfits[1].IsFavorite {
		t.Fatalf("favorite failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPut, base+"/looks/0/note", map[string]string{"note": "Para entrevista"})
	if rec.Code != http.StatusOK || decodeSession(t, rec).Result.Outfits[0].UserNote != "Para entrevista" {
		t.Fatalf("note failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, base+"/looks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch status = %d body = %s", rec.Code, rec.Body.String())
	}
	after := decodeSession(t, rec)
	if len(after.Result.Pending()) != 0 {
		t.Errorf("pending after batch = %v", after.Result.Pending())
	}
	if !after.Result.Outfits[1].IsFavorite || after.Result.Outfits[0].UserNote != "Para entrevista" {
		t.Error("batch dropped local edits")
	}

	rec = do(t, h, http.MethodPost, base+"/looks/0", map[string]string{"refinement": "gola alta"})
	if rec.Code != http.StatusOK {
		t.Fatalf("refine status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeSession(t, rec).Result.Outfits[0].LastModificationPrompt; got != "gola alta" {
		t.Errorf("LastModificationPrompt = %q", got)
	}

	rec = do(t, h, http.MethodPut, base+"/skin-tone", map[string]string{"tone": "Oliva"})
	if rec.Code != http.StatusOK || decodeSession(t, rec).Result.SkinTone != stylist.SkinToneOlive {
		t.Fatalf("skin tone failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestRenderLook_EmptyBody(t *testing.T) {
	gen := &routeGenerator{text: analysisJSON, image: []byte("look")}
	h, _ := newTestServer(t, gen, Config{})
	sess := decodeSession(t, do(t, h, http.MethodPost, "/api/sessions", map[string]string{"image": testImageURI}))

	rec := do(t, h, http.MethodPost, "/api/sessions/"+sess.ID+"/looks/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !decodeSession(t, rec).Result.Outfits[1].HasImage() {
		t.Error("look not stored")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"quota", genai.APIError{Code: 429, Message: "Resource exhausted: quota"}, http.StatusTooManyRequests, gemini.MessageRateLimited},
		{"network", genai.APIError{Code: 503, Message: "network unreachable"}, http.StatusBadGateway, gemini.MessageConnectivity},
		{"bad request", genai.APIError{Code: 400, Message: "invalid argument"}, http.StatusBadGateway, gemini.MessageProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestServer(t, &routeGenerator{err: tt.err}, Config{})
			rec := do(t, h, http.MethodPost, "/api/sessions", map[string]string{"image": testImageURI})
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestErrorStatus_MissingKey(t *testing.T) {
	svc := stylist.New(gemini.NewProvider(""), stylist.Options{})
	h := NewServer(svc, session.NewStore(0), Config{}).Router()
	rec := do(t, h, http.MethodPost, "/api/sessions", map[string]string{"image": testImageURI})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), gemini.MessageConfiguration) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSessionNotFoundAndBadIndex(t *testing.T) {
	gen := &routeGenerator{text: analysisJSON}
	h, _ := newTestServer(t, gen, Config{})
	sess := decodeSession(t, do(t, h, http.MethodPost, "/api/sessions", map[string]string{"image": testImageURI}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", nil, http.StatusNotFound},
		{"unknown session batch", http.MethodPost, "/api/sessions/nope/looks", nil, http.StatusNotFound},
		{"index not a number", http.MethodPut, "/api/sessions/" + sess.ID + "/looks/x/favorite", nil, http.StatusBadRequest},
		{"index out of range", http.MethodPut, "/api/sessions/" + sess.ID + "/looks/7/favorite", nil, http.StatusNotFound},
		{"render out of range", http.MethodPost, "/api/sessions/" + sess.ID + "/looks/7", nil, http.StatusNotFound},
		{"unknown tone", http.MethodPut, "/api/sessions/" + sess.ID + "/skin-tone", map[string]string{"tone": "Roxo"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, &routeGenerator{}, Config{RateLimitPerMinute: 2})
	for i := range 2 {
		if rec := do(t, h, http.MethodGet, "/api/health", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestDisableBatch(t *testing.T) {
	gen := &routeGenerator{text: analysisJSON, image: []byte("look")}
	h, _ := newTestServer(t, gen, Config{DisableBatch: true})

	sess := decodeSession(t, do(t, h, http.MethodPost, "/api/sessions", map[string]string{"image": testImageURI}))
	base := "/api/sessions/" + sess.ID

	rec := do(t, h, http.MethodPost, base+"/looks", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("batch status = %d, want 501", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/looks/{index}") {
		t.Errorf("body should point at the single-look route: %s", rec.Body.String())
	}

	for _, idx := range []string{"0", "1"} {
		if rec := do(t, h, http.MethodPost, base+"/looks/"+idx, nil); rec.Code != http.StatusOK {
			t.Fatalf("look %s status = %d body = %s", idx, rec.Code, rec.Body.String())
		}
	}
	final := decodeSession(t, do(t, h, http.MethodGet, base, nil))
	if pending := final.Result.Pending(); len(pending) != 0 {
		t.Errorf("pending after single renders = %v", pending)
	}
}

func TestOriginVerify(t *testing.T) {
	h, _ := newTestServer(t, &routeGenerator{}, Config{OriginSecret: "s3cret"})

	if rec := do(t, h, http.MethodGet, "/api/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health should be exempt, status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/sessions/abc", nil); rec.Code != http.StatusForbidden {
		t.Errorf("missing header status = %d, want 403", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil)
	req.Header.Set("x-origin-verify", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("with header status = %d, want 404", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	h, _ := newTestServer(t, &routeGenerator{}, Config{MaxBodyBytes: 64})
	rec := do(t, h, http.MethodPost, "/api/quality", map[string]string{"image": strings.Repeat("A", 256)})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestGzip(t *testing.T) {
	gen := &routeGenerator{text: analysisJSON}
	h, _ := newTestServer(t, gen, Config{})
	sess := decodeSession(t, do(t, h, http.MethodPost, "/api/sessions", map[string]string{"image": testImageURI}))
	// Pad the session so the response crosses the compression threshold.
	for _, idx := range []string{"0", "1"} {
		do(t, h, http.MethodPut, "/api/sessions/"+sess.ID+"/looks/"+idx+"/note", map[string]string{"note": strings.Repeat("nota ", 400)})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
}
