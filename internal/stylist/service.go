// Package stylist is the styling core: quality check, portrait analysis,
// virtual try-on and the sequential batch that renders every suggested look.
//
// Every remote call goes through gemini.Do and every failure surfaced to a
// caller is a *gemini.Error.
package stylist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/fpang/vizu-atelier/internal/assets"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/media"
	"github.com/fpang/vizu-atelier/internal/metrics"
)

// Options configures a Service. Zero fields take defaults in New.
type Options struct {
	Models  gemini.Models
	// Policy bounds retries of every remote call. Nil uses
	// gemini.DefaultPolicy; a zero Policy means no retries.
	Policy  *gemini.Policy
	Partner assets.Partner

	QualityResize  media.Resize
	AnalysisResize media.Resize
	EditResize     media.Resize

	// AnalysisTemperature is sent with the analysis call.
	AnalysisTemperature float32

	// IncludeStylingContext interpolates the styling hint and fit constraints
	// into the retouch instruction. Off by default: they are accepted and dropped.
	IncludeStylingContext bool

	// TryOnInterval is the minimum gap between remote calls in GenerateAll.
	// Zero disables pacing.
	TryOnInterval time.Duration
}

// DefaultAnalysisTemperature is the sampling temperature for the analysis call.
const DefaultAnalysisTemperature = 0.4

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	policy := gemini.DefaultPolicy()
	return Options{
		Models:              gemini.DefaultModels(),
		Policy:              &policy,
		Partner:             assets.DefaultPartner(),
		QualityResize:       media.QualityCheckResize,
		AnalysisResize:      media.AnalysisResize,
		EditResize:          media.EditResize,
		AnalysisTemperature: DefaultAnalysisTemperature,
	}
}

// Service runs styling operations against a Gemini Generator.
type Service struct {
	source  gemini.Source
	opts    Options
	limiter *rate.Limiter
}

// New creates a Service. Empty option fields fall back to DefaultOptions.
func New(source gemini.Source, opts Options) *Service {
	def := DefaultOptions()
	if opts.Models.Quality == "" {
		opts.Models.Quality = def.Models.Quality
	}
	if opts.Models.Analysis == "" {
		opts.Models.Analysis = def.Models.Analysis
	}
	if opts.Models.Image == "" {
		opts.Models.Image = def.Models.Image
	}
	if opts.Policy == nil {
		opts.Policy = def.Policy
	}
	if opts.Partner.Name == "" {
		opts.Partner = def.Partner
	}
	if opts.QualityResize.MaxWidth == 0 {
		opts.QualityResize = def.QualityResize
	}
	if opts.AnalysisResize.MaxWidth == 0 {
		opts.AnalysisResize = def.AnalysisResize
	}
	if opts.EditResize.MaxWidth == 0 {
		opts.EditResize = def.EditResize
	}
	if opts.AnalysisTemperature == 0 {
		opts.AnalysisTemperature = def.AnalysisTemperature
	}

	s := &Service{source: source, opts: opts}
	if opts.TryOnInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(opts.TryOnInterval), 1)
	}
	return s
}

// errEmptyResponse is returned when the SDK yields neither a response nor an error.
var errEmptyResponse = errors.New("received empty response from Gemini API")

// generate runs one remote call under the retry policy and records its
// latency and attempt count. Errors are returned raw; callers normalize.
func (s *Service) generate(ctx context.Context, operation, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	gen, err := s.source.Generator(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	log.Debug().
		Str("operation", operation).
		Str("model", model).
		Int("part_count", len(parts)).
		Msg("Starting Gemini API call")

	attempts := 0
	callStart := time.Now()
	resp, err := gemini.Do(ctx, *s.opts.Policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		attempts++
		resp, err := gen.GenerateContent(ctx, model, contents, config)
		if err == nil && resp == nil {
			err = errEmptyResponse
		}
		return resp, err
	})

	rec := metrics.Operation(operation).
		Dimension("Model", model).
		Latency("LatencyMs", callStart).
		Metric("Attempts", float64(attempts), metrics.UnitCount)
	if err != nil {
		rec.Count("Errors")
	}
	rec.Flush()

	if err != nil {
		log.Error().
			Err(err).
			Str("operation", operation).
			Int("attempts", attempts).
			Dur("duration", time.Since(callStart)).
			Msg("Gemini API call failed")
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	log.Debug().
		Str("operation", operation).
		Int("attempts", attempts).
		Dur("duration", time.Since(callStart)).
		Msg("Gemini API response received")
	return resp, nil
}

// imagePart wraps a payload as an inline image part.
func imagePart(p media.Payload) *genai.Part {
	mime := p.MIMEType
	if mime == "" {
		mime = media.MIMETypeJPEG
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: p.Data}}
}
