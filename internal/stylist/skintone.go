package stylist

import (
	"fmt"
	"slices"
)

// ToneProfile is the local styling data for one skin undertone.
type ToneProfile struct {
	Description string
	Palette     []Color
	Makeup      string
}

var toneProfiles = map[SkinTone]ToneProfile{
	SkinToneWarm: {
		Description: "Pele com fundo amarelado ou dourado. Bronzeia-se facilmente.",
		Palette: []Color{
			{Hex: "#D4AF37", Name: "Dourado"}, {Hex: "#FF7F50", Name: "Coral"},
			{Hex: "#8B4513", Name: "Terra"}, {Hex: "#556B2F", Name: "Verde Oliva"},
		},
		Makeup: "Tons terrosos, pêssego, dourado e bronzer. Batons alaranjados ou vermelhos quentes.",
	},
	SkinToneCool: {
		Description: "Pele com fundo rosado ou azulado. Queima-se facilmente ao sol.",
		Palette: []Color{
			{Hex: "#000080", Name: "Azul Marinho"}, {Hex: "#C0C0C0", Name: "Prata"},
			{Hex: "#800080", Name: "Roxo"}, {Hex: "#DC143C", Name: "Vermelho Cereja"},
		},
		Makeup: "Tons de rosa, prata, cinza e azul. Batons em tons de frutas vermelhas ou rosa frio.",
	},
	SkinToneNeutral: {
		Description: "Equilíbrio entre quente e frio. Versátil com quase todas as cores.",
		Palette: []Color{
			{Hex: "#40E0D0", Name: "Turquesa"}, {Hex: "#FF69B4", Name: "Rosa Médio"},
			{Hex: "#F5F5DC", Name: "Bege"}, {Hex: "#708090", Name: "Cinza Ardósia"},
		},
		Makeup: "Pode transitar entre tons quentes e frios. Foco em iluminar naturalmente.",
	},
	SkinToneOlive: {
		Description: "Fundo esverdeado ou amarelado frio. Comum em peles médias a escuras.",
		Palette: []Color{
			{Hex: "#2F4F4F", Name: "Verde Escuro"}, {Hex: "#800000", Name: "Vinho"},
			{Hex: "#4B0082", Name: "Índigo"}, {Hex: "#DAA520", Name: "Ocre"},
		},
		Makeup: "Tons de ameixa, beringela e metálicos profundos. Evite tons pastéis muito claros.",
	},
}

// Profile returns the styling data for tone.
func Profile(tone SkinTone) (ToneProfile, bool) {
	p, ok := toneProfiles[tone]
	if !ok {
		return ToneProfile{}, false
	}
	p.Palette = slices.Clone(p.Palette)
	return p, true
}

// ApplySkinTone recomputes the palette and skin narrative for a manually
// chosen undertone without a remote call. The input is not modified.
func ApplySkinTone(result AnalysisResult, tone SkinTone) (AnalysisResult, error) {
	p, ok := Profile(tone)
	if !ok {
		return result, fmt.Errorf("unknown skin tone %q", tone)
	}

	out := result.Clone()
	out.SkinTone = tone
	out.SkinAnalysis = fmt.Sprintf("Tom Ajustado Manualmente: %s. %s", tone, p.Description)
	out.Palette = p.Palette
	out.Visagism.BeardMakeup.Details = p.Makeup
	out.Visagism.BeardMakeup.Reason = fmt.Sprintf("Recalculado para subtom %s", tone)
	return out, nil
}
