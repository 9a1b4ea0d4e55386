package stylist

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/vizu-atelier/internal/assets"
	"github.com/fpang/vizu-atelier/internal/jsonutil"
	"github.com/fpang/vizu-atelier/internal/media"
)

// ValidateImageQuality scores a portrait for face analysis. It never fails:
// any error yields OptimisticQuality so a quality-check outage cannot block
// the caller.
func (s *Service) ValidateImageQuality(ctx context.Context, image media.Payload) QualityResult {
	resized := image.Downscaled(s.opts.QualityResize)

	var capture string
	if c, err := media.ReadCapture(image.Data); err == nil {
		capture = c.Summary()
	}
	prompt := assets.RenderQualityPrompt(assets.QualityPromptData{Capture: capture})

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := s.generate(ctx, "quality", s.opts.Models.Quality, []*genai.Part{
		imagePart(resized),
		{Text: prompt},
	}, config)
	if err != nil {
		log.Warn().Err(err).Msg("Quality check fallback")
		return OptimisticQuality()
	}

	result, err := jsonutil.ParseJSON[QualityResult](resp.Text())
	if err != nil {
		log.Warn().Err(err).Msg("Quality check fallback")
		return OptimisticQuality()
	}
	if result.Issues == nil {
		result.Issues = []string{}
	}

	log.Info().
		Bool("valid", result.IsValid).
		Float64("score", result.Score).
		Int("issues", len(result.Issues)).
		Msg("Image quality checked")
	return result
}
