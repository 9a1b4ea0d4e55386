package stylist

import (
	"slices"

	"github.com/fpang/vizu-atelier/internal/media"
)

// SkinTone is the detected skin undertone.
type SkinTone string

// Skin undertones the analysis may report.
const (
	SkinToneWarm    SkinTone = "Quente"
	SkinToneCool    SkinTone = "Frio"
	SkinToneNeutral SkinTone = "Neutro"
	SkinToneOlive   SkinTone = "Oliva"
)

// SkinTones lists every supported undertone in display order.
var SkinTones = []SkinTone{SkinToneWarm, SkinToneCool, SkinToneNeutral, SkinToneOlive}

// Biotype is the body morphology classification.
type Biotype string

// Body classifications the analysis may report.
const (
	BiotypeHourglass        Biotype = "Ampulheta"
	BiotypeTriangle         Biotype = "Triângulo"
	BiotypeInvertedTriangle Biotype = "Triângulo Invertido"
	BiotypeRectangle        Biotype = "Retângulo"
	BiotypeOval             Biotype = "Oval"
)

// UserMetrics is optional body context. Values are free decimal text, e.g.
// "1.65" and "55", injected verbatim into the prompt.
type UserMetrics struct {
	Height string `json:"height,omitempty"`
	Weight string `json:"weight,omitempty"`
}

// UserPreferences is optional taste context for the analysis prompt.
type UserPreferences struct {
	FavoriteStyles []string `json:"favoriteStyles,omitempty"`
	FavoriteColors string   `json:"favoriteColors,omitempty"`
	AvoidItems     string   `json:"avoidItems,omitempty"`
}

// QualityDetails breaks a quality score down by aspect.
type QualityDetails struct {
	Lighting string `json:"lighting"` // Good | Poor | Too Dark | Too Bright
	Focus    string `json:"focus"`    // Sharp | Blurry
	Framing  string `json:"framing"`  // Good | Bad
}

// QualityResult is the outcome of an image quality check.
type QualityResult struct {
	IsValid bool           `json:"isValid"`
	Score   float64        `json:"score"`
	Issues  []string       `json:"issues"`
	Advice  string         `json:"advice"`
	Details QualityDetails `json:"details"`
}

// OptimisticQuality is returned whenever the quality check itself fails,
// so an outage never blocks the caller.
func OptimisticQuality() QualityResult {
	return QualityResult{
		IsValid: true,
		Score:   100,
		Issues:  []string{},
		Advice:  "",
		Details: QualityDetails{Lighting: "Good", Focus: "Sharp", Framing: "Good"},
	}
}

// QualityCheck is the model's own view of whether the photo was usable.
type QualityCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// Color is one palette swatch.
type Color struct {
	Hex  string `json:"hex"`
	Name string `json:"nome"`
}

// StyleAdvice is one visagism recommendation.
type StyleAdvice struct {
	Style   string `json:"estilo"`
	Details string `json:"detalhes"`
	Reason  string `json:"motivo"`
}

// Visagism groups hair, beard/makeup and accessory advice.
type Visagism struct {
	Hair        StyleAdvice `json:"cabelo"`
	BeardMakeup StyleAdvice `json:"barba_ou_make"`
	Accessories []string    `json:"acessorios"`
}

// Eyewear is the frame recommendation.
type Eyewear struct {
	Frame    string `json:"armacao"`
	Material string `json:"material"`
	Details  string `json:"detalhes"`
	Reason   string `json:"motivo"`
}

// PartnerSuggestion links an outfit to the partner store.
type PartnerSuggestion struct {
	StoreName   string `json:"storeName"`
	ProductName string `json:"productName"`
	Link        string `json:"link"`
}

// OutfitSuggestion is one suggested look. GeneratedImage, LastModificationPrompt,
// IsFavorite and UserNote are local state, never produced by the model.
type OutfitSuggestion struct {
	Title             string             `json:"titulo"`
	Details           string             `json:"detalhes"`
	Occasion          string             `json:"ocasiao"`
	Reason            string             `json:"motivo"`
	SuggestedVisagism string             `json:"visagismo_sugerido"`
	SearchTerms       string             `json:"termos_busca"`
	PartnerSuggestion *PartnerSuggestion `json:"partner_suggestion,omitempty"`

	GeneratedImage         string `json:"generatedImage,omitempty"`
	LastModificationPrompt string `json:"lastModificationPrompt,omitempty"`
	IsFavorite             bool   `json:"isFavorite,omitempty"`
	UserNote               string `json:"userNote,omitempty"`
}

// HasImage reports whether a try-on image was already generated.
func (o OutfitSuggestion) HasImage() bool {
	return o.GeneratedImage != ""
}

// AnalysisResult is the structured outcome of one analysis call. It is
// treated as immutable: updates produce a new value via Clone.
type AnalysisResult struct {
	QualityCheck     QualityCheck       `json:"quality_check"`
	Gender           string             `json:"genero"`
	FaceShape        string             `json:"formato_rosto_detalhado"`
	FacialAnalysis   string             `json:"analise_facial"`
	SkinAnalysis     string             `json:"analise_pele"`
	SkinTone         SkinTone           `json:"tom_pele_detectado"`
	Biotype          Biotype            `json:"biotipo"`
	BodyAnalysis     string             `json:"analise_corporal"`
	Palette          []Color            `json:"paleta_cores"`
	Visagism         Visagism           `json:"visagismo"`
	Eyewear          Eyewear            `json:"otica"`
	Outfits          []OutfitSuggestion `json:"sugestoes_roupa"`
}

// Clone returns a deep copy.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	out.Palette = slices.Clone(r.Palette)
	out.Visagism.Accessories = slices.Clone(r.Visagism.Accessories)
	out.Outfits = slices.Clone(r.Outfits)
	for i, o := range out.Outfits {
		if o.PartnerSuggestion != nil {
			ps := *o.PartnerSuggestion
			out.Outfits[i].PartnerSuggestion = &ps
		}
	}
	return out
}

// WithOutfit returns a copy of r with the outfit at index replaced.
func (r AnalysisResult) WithOutfit(index int, o OutfitSuggestion) (AnalysisResult, error) {
	if index < 0 || index >= len(r.Outfits) {
		return r, &IndexError{Index: index, Len: len(r.Outfits)}
	}
	out := r.Clone()
	out.Outfits[index] = o
	return out, nil
}

// Pending returns the indices of outfits without a generated image.
func (r AnalysisResult) Pending() []int {
	var idx []int
	for i, o := range r.Outfits {
		if !o.HasImage() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Constraints are optional fit hints for a visual edit.
type Constraints struct {
	Biotype string `json:"biotype"`
	Palette string `json:"palette"`
}

// EditRequest describes one visual edit. Image and ItemDescription are required.
type EditRequest struct {
	Image           media.Payload
	ItemDescription string
	Modification    string
	StylingHint     string
	Constraints     *Constraints
	Refinement      string
}
