package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/auth"
	"github.com/fpang/vizu-atelier/internal/media"
)

// ResolveImagePath checks that path exists and is a regular file, then
// returns the absolute path.
func ResolveImagePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("image not found: %s", path)
		}
		return "", fmt.Errorf("failed to access image %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// LoadImage reads an image file into a Payload. An empty path opens the picker.
func LoadImage(path string) (media.Payload, string, error) {
	if path == "" {
		picked, err := PickImage()
		if err != nil {
			return media.Payload{}, "", err
		}
		path = picked
	}

	path, err := ResolveImagePath(path)
	if err != nil {
		return media.Payload{}, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return media.Payload{}, "", fmt.Errorf("failed to read image: %w", err)
	}
	payload, err := media.FromBytes(data)
	if err != nil {
		return media.Payload{}, "", fmt.Errorf("%s: %w", path, err)
	}
	event := log.Debug().Str("path", path).Str("mime", payload.MIMEType).Int("bytes", len(data))
	if w, h, err := media.Dimensions(data); err == nil {
		event = event.Int("width", w).Int("height", h)
	}
	event.Msg("Image loaded")
	return payload, path, nil
}

// HandleValidationError processes auth.ValidationError and exits with appropriate messaging.
func HandleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			log.Fatal().Msg("No API key configured. Set API_KEY or GEMINI_API_KEY, or store one in ~/.vizu-atelier/credentials.gpg")
		case auth.ErrTypeInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case auth.ErrTypeNetworkError:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during API key validation")
	}
	os.Exit(1)
}
