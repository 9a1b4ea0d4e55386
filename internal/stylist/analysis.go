package stylist

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/vizu-atelier/internal/assets"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/jsonutil"
	"github.com/fpang/vizu-atelier/internal/media"
)

// BuildAnalysisContext renders metrics and preferences as "- KEY: value"
// prompt lines. Absent values produce no line.
func BuildAnalysisContext(metrics *UserMetrics, prefs *UserPreferences) string {
	var lines []string
	if metrics != nil {
		if metrics.Height != "" {
			lines = append(lines, fmt.Sprintf("- HEIGHT: %sm", metrics.Height))
		}
		if metrics.Weight != "" {
			lines = append(lines, fmt.Sprintf("- WEIGHT: %skg", metrics.Weight))
		}
	}
	if prefs != nil {
		if len(prefs.FavoriteStyles) > 0 {
			lines = append(lines, "- PREFERRED STYLES: "+strings.Join(prefs.FavoriteStyles, ", "))
		}
		if prefs.FavoriteColors != "" {
			lines = append(lines, "- PREFERRED COLORS: "+prefs.FavoriteColors)
		}
		if prefs.AvoidItems != "" {
			lines = append(lines, "- AVOID/HATE: "+prefs.AvoidItems)
		}
	}
	return strings.Join(lines, "\n")
}

// Analyze runs the Teodoro styling analysis on a portrait. Every failure,
// including a malformed response, is returned as a *gemini.Error.
func (s *Service) Analyze(ctx context.Context, image media.Payload, metrics *UserMetrics, prefs *UserPreferences) (*AnalysisResult, error) {
	resized := image.Downscaled(s.opts.AnalysisResize)

	prompt := assets.RenderAnalysisPrompt(assets.AnalysisPromptData{
		Context: BuildAnalysisContext(metrics, prefs),
		Partner: s.opts.Partner,
	})

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(s.opts.AnalysisTemperature),
	}

	log.Info().
		Str("model", s.opts.Models.Analysis).
		Int("image_size", len(resized.Data)).
		Int("prompt_length", len(prompt)).
		Msg("Sending portrait to Gemini for styling analysis...")

	resp, err := s.generate(ctx, "analyze", s.opts.Models.Analysis, []*genai.Part{
		imagePart(resized),
		{Text: prompt},
	}, config)
	if err != nil {
		return nil, gemini.Normalize(err)
	}

	result, err := s.parseAnalysis(resp.Text())
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse analysis response")
		return nil, &gemini.Error{Category: gemini.CategoryProcessing, Err: fmt.Errorf("failed to parse analysis response: %w", err)}
	}

	log.Info().
		Str("skin_tone", string(result.SkinTone)).
		Str("biotype", string(result.Biotype)).
		Int("outfits", len(result.Outfits)).
		Msg("Styling analysis complete")
	return result, nil
}

// parseAnalysis decodes the model answer and enforces the partner contract:
// at least one outfit, each with a partner suggestion under the partner's name.
func (s *Service) parseAnalysis(text string) (*AnalysisResult, error) {
	result, err := jsonutil.ParseJSON[AnalysisResult](text)
	if err != nil {
		return nil, err
	}
	if len(result.Outfits) == 0 {
		return nil, jsonutil.Invalid("no outfit suggestions")
	}
	for i := range result.Outfits {
		o := &result.Outfits[i]
		if o.PartnerSuggestion == nil {
			return nil, jsonutil.Invalid("outfit %d has no partner_suggestion", i)
		}
		if o.PartnerSuggestion.StoreName != s.opts.Partner.Name {
			log.Debug().
				Int("index", i).
				Str("got", o.PartnerSuggestion.StoreName).
				Msg("Overriding partner store name")
			o.PartnerSuggestion.StoreName = s.opts.Partner.Name
		}
		if o.PartnerSuggestion.Link == "" {
			o.PartnerSuggestion.Link = s.PartnerLink(firstNonEmpty(o.SearchTerms, o.Title))
		}
		// Local fields are never taken from the model.
		o.GeneratedImage = ""
		o.LastModificationPrompt = ""
		o.IsFavorite = false
		o.UserNote = ""
	}
	return &result, nil
}

// PartnerLink builds a partner search URL for the given terms.
func (s *Service) PartnerLink(terms string) string {
	return s.opts.Partner.SearchURL + url.QueryEscape(strings.TrimSpace(terms))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
