package stylist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/vizu-atelier/internal/assets"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/media"
)

// ErrNoImage means the image model answered without an inline image part.
// It is not retried: the call itself succeeded.
var ErrNoImage = errors.New("no image returned in response")

// defaultGeneratedMIME is used when the returned part carries no MIME type.
const defaultGeneratedMIME = "image/png"

// RetouchInstruction composes the edit instruction sent with the image.
// Styling hint and constraints are only included when includeStyling is set.
func RetouchInstruction(req EditRequest, includeStyling bool) string {
	data := assets.RetouchPromptData{
		Item:         req.ItemDescription,
		Modification: req.Modification,
		Refinement:   req.Refinement,
	}
	if includeStyling {
		data.StylingHint = req.StylingHint
		if req.Constraints != nil {
			data.Biotype = req.Constraints.Biotype
			data.Palette = req.Constraints.Palette
		}
	}
	return assets.RenderRetouchPrompt(data)
}

// GenerateVisualEdit asks the image model to retouch the photo and returns
// the first inline image of the answer. Failures are *gemini.Error values;
// a response without an image wraps ErrNoImage.
func (s *Service) GenerateVisualEdit(ctx context.Context, req EditRequest) (media.Payload, error) {
	if len(req.Image.Data) == 0 {
		return media.Payload{}, gemini.Normalize(media.ErrEmptyImage)
	}

	resized := req.Image.Downscaled(s.opts.EditResize)
	prompt := RetouchInstruction(req, s.opts.IncludeStylingContext)

	log.Info().
		Str("model", s.opts.Models.Image).
		Str("item", req.ItemDescription).
		Bool("refinement", req.Refinement != "").
		Int("image_size", len(resized.Data)).
		Msg("Requesting visual edit from Gemini...")

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := s.generate(ctx, "visual_edit", s.opts.Models.Image, []*genai.Part{
		imagePart(resized),
		{Text: prompt},
	}, config)
	if err != nil {
		return media.Payload{}, gemini.Normalize(err)
	}

	out, ok := firstInlineImage(resp)
	if !ok {
		log.Error().
			Str("model", s.opts.Models.Image).
			Str("response_text", resp.Text()).
			Msg("Gemini returned no image")
		return media.Payload{}, &gemini.Error{Category: gemini.CategoryProcessing, Err: fmt.Errorf("visual edit: %w", ErrNoImage)}
	}

	log.Info().
		Str("mime_type", out.MIMEType).
		Int("output_size", len(out.Data)).
		Msg("Visual edit complete")
	return out, nil
}

// firstInlineImage scans the first candidate's parts for inline image data.
func firstInlineImage(resp *genai.GenerateContentResponse) (media.Payload, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return media.Payload{}, false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return media.Payload{}, false
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = defaultGeneratedMIME
		}
		return media.Payload{Data: part.InlineData.Data, MIMEType: mime}, true
	}
	return media.Payload{}, false
}
