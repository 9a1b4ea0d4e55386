package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrNoImageSelected is returned when the user cancels image selection.
var ErrNoImageSelected = errors.New("no image selected")

// imagePatterns are the portrait formats the atelier decodes.
var imagePatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}

// PickImage opens the native file dialog to choose a portrait. When no dialog
// is available (headless, SSH) it falls back to a terminal prompt.
func PickImage() (string, error) {
	selected, err := zenity.SelectFile(
		zenity.Title("Select a portrait"),
		zenity.FileFilters{
			{Name: "Images", Patterns: imagePatterns},
		},
	)
	switch {
	case err == nil:
		log.Info().Str("path", selected).Msg("Image picked via native dialog")
		return selected, nil
	case errors.Is(err, zenity.ErrCanceled):
		return "", ErrNoImageSelected
	default:
		log.Debug().Err(err).Msg("Native file picker unavailable, prompting on terminal")
	}

	path := PromptForPath("Portrait path: ")
	if path == "" {
		return "", ErrNoImageSelected
	}
	return path, nil
}

// PromptForPath prompts the user interactively for a file path.
// Returns an empty string if the user enters nothing.
func PromptForPath(label string) string {
	fmt.Fprint(os.Stderr, label)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read input")
		return ""
	}
	return strings.TrimSpace(input)
}
