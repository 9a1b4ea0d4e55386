package stylist

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/assets"
	"github.com/fpang/vizu-atelier/internal/media"
)

// Fixed inputs for every outfit try-on.
const (
	tryOnItem    = "clothing"
	tryOnPalette = "harmonious"
)

// TailorModification is the modification text for rendering one outfit.
func TailorModification(outfit OutfitSuggestion, biotype Biotype) string {
	return assets.RenderTailorPrompt(assets.TailorPromptData{
		Title:    outfit.Title,
		Details:  outfit.Details,
		Occasion: outfit.Occasion,
		Biotype:  string(biotype),
	})
}

// RenderLook renders one outfit onto the base photo. It has no side effects
// beyond the remote call: the returned copy carries GeneratedImage and
// LastModificationPrompt (the refinement, if any); every other field is
// unchanged.
func (s *Service) RenderLook(ctx context.Context, base media.Payload, biotype Biotype, outfit OutfitSuggestion, refinement string) (OutfitSuggestion, error) {
	img, err := s.GenerateVisualEdit(ctx, EditRequest{
		Image:           base,
		ItemDescription: tryOnItem,
		Modification:    TailorModification(outfit, biotype),
		StylingHint:     outfit.SuggestedVisagism,
		Constraints:     &Constraints{Biotype: string(biotype), Palette: tryOnPalette},
		Refinement:      refinement,
	})
	if err != nil {
		return outfit, err
	}

	out := outfit
	if out.PartnerSuggestion != nil {
		ps := *out.PartnerSuggestion
		out.PartnerSuggestion = &ps
	}
	out.GeneratedImage = img.DataURI()
	out.LastModificationPrompt = refinement
	return out, nil
}

// ProgressFunc receives the whole result after each look is rendered.
type ProgressFunc func(index int, result AnalysisResult)

// GenerateAll renders every outfit lacking an image, strictly one after
// another. Item failures are logged and skipped so the pass always
// completes; callers inspect GeneratedImage to see which looks succeeded.
// Outfits that already have an image cost no remote call.
func (s *Service) GenerateAll(ctx context.Context, base media.Payload, result AnalysisResult, onProgress ProgressFunc) AnalysisResult {
	current := result.Clone()
	pending := current.Pending()

	log.Info().
		Int("total", len(current.Outfits)).
		Int("pending", len(pending)).
		Msg("Starting batch try-on")

	rendered := 0
	for _, i := range pending {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Batch try-on stopped")
			break
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				log.Warn().Err(err).Int("index", i).Msg("Batch try-on stopped")
				break
			}
		}

		look, err := s.RenderLook(ctx, base, current.Biotype, current.Outfits[i], "")
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("title", current.Outfits[i].Title).Msg("Look generation failed, continuing")
			continue
		}

		next, err := current.WithOutfit(i, look)
		if err != nil {
			continue
		}
		current = next
		rendered++
		if onProgress != nil {
			onProgress(i, current.Clone())
		}
	}

	log.Info().
		Int("rendered", rendered).
		Int("failed", len(pending)-rendered).
		Msg("Batch try-on complete")
	return current
}
