package gemini

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrMissingAPIKey is the fatal configuration error raised when no Gemini
// API key is available at client initialization.
var ErrMissingAPIKey = errors.New("API key not found. Set API_KEY or GEMINI_API_KEY")

// Category is the user-facing class of a failed remote call.
type Category int

const (
	// CategoryProcessing covers every failure without a more specific class.
	CategoryProcessing Category = iota
	// CategoryRateLimited means the service rejected the call for quota or rate.
	CategoryRateLimited
	// CategoryConnectivity means the request never completed a round trip.
	CategoryConnectivity
	// CategoryConfiguration means the client could not be initialized.
	CategoryConfiguration
)

// User-facing messages, one per category.
const (
	MessageProcessing    = "Falha no processamento da IA. Tente novamente."
	MessageRateLimited   = "Muitas solicitações. Aguarde um momento."
	MessageConnectivity  = "Erro de conexão. Verifique sua internet."
	MessageConfiguration = "Falha ao inicializar serviço de IA. Tente recarregar a página."
)

// String returns a stable identifier, used in logs and metrics.
func (c Category) String() string {
	switch c {
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryConnectivity:
		return "connectivity"
	case CategoryConfiguration:
		return "configuration"
	default:
		return "processing"
	}
}

// Message returns the fixed human-readable text for the category.
func (c Category) Message() string {
	switch c {
	case CategoryRateLimited:
		return MessageRateLimited
	case CategoryConnectivity:
		return MessageConnectivity
	case CategoryConfiguration:
		return MessageConfiguration
	default:
		return MessageProcessing
	}
}

// Error is the only error shape callers of the atelier see. Error() returns
// the category message; the underlying cause stays reachable through Unwrap
// for logging and errors.Is/As, but is never part of the message.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return e.Category.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Normalize translates a failed remote call into an *Error. It always returns
// a non-nil error. An err that is already an *Error is returned unchanged, so
// configuration failures keep their category.
//
// Classification inspects the lower-cased message in priority order:
// "429"/"quota" → rate limited, "xhr"/"network"/"fetch" → connectivity,
// anything else → processing.
func Normalize(err error) error {
	if err == nil {
		err = errors.New("unknown error")
	}

	var normalized *Error
	if errors.As(err, &normalized) {
		return normalized
	}

	log.Error().Err(err).Msg("Gemini API error")

	msg := strings.ToLower(err.Error())
	category := CategoryProcessing
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota"):
		category = CategoryRateLimited
	case strings.Contains(msg, "xhr") || strings.Contains(msg, "network") || strings.Contains(msg, "fetch"):
		category = CategoryConnectivity
	}
	return &Error{Category: category, Err: err}
}

// CategoryOf reports the category of a normalized error, or
// CategoryProcessing when err is not an *Error.
func CategoryOf(err error) Category {
	var normalized *Error
	if errors.As(err, &normalized) {
		return normalized.Category
	}
	return CategoryProcessing
}
