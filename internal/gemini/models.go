package gemini

// Gemini model IDs used by the atelier.
//
// | Operation        | Default model            |
// |------------------|--------------------------|
// | Quality check    | gemini-2.5-flash         |
// | Style analysis   | gemini-2.5-flash         |
// | Try-on / retouch | gemini-2.5-flash-image   |
const (
	// ModelGemini25Flash is stable, balanced performance with JSON mode.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashImage edits images and returns inline image parts.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"
)

// Models selects the model for each remote operation.
type Models struct {
	Quality  string `yaml:"quality"`
	Analysis string `yaml:"analysis"`
	Image    string `yaml:"image"`
}

// DefaultModels returns the models the atelier was tuned against.
func DefaultModels() Models {
	return Models{
		Quality:  ModelGemini25Flash,
		Analysis: ModelGemini25Flash,
		Image:    ModelGemini25FlashImage,
	}
}
