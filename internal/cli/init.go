package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/auth"
	"github.com/fpang/vizu-atelier/internal/config"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// InitService resolves the API key and builds the styling service.
// With validate set, the key is checked with one minimal call and the
// process exits on failure.
func InitService(ctx context.Context, cfg *config.Config, validate bool) *stylist.Service {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}

	source := gemini.NewProvider(apiKey)
	opts := cfg.StylistOptions()
	if validate {
		if err := auth.ValidateAPIKey(ctx, source, cfg.Models.Quality, *opts.Policy); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}

	return stylist.New(source, opts)
}

// InitServiceLenient builds the service without requiring a key up front. A
// missing key surfaces as a configuration error on the first remote call,
// which is what a long-running server reports to its clients.
func InitServiceLenient(cfg *config.Config) *stylist.Service {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Warn().Err(err).Msg("No API key available; remote calls will fail until one is configured")
	}
	return stylist.New(gemini.NewProvider(apiKey), cfg.StylistOptions())
}

