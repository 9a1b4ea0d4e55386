// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time.

package assets

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
}

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	qualityTmpl  = mustParse("quality.tmpl")
	analysisTmpl = mustParse("analysis.tmpl")
	retouchTmpl  = mustParse("retouch.tmpl")
	tailorTmpl   = mustParse("tailor.tmpl")
)

func mustParse(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(promptFS, "prompts/"+name))
}

// Partner is the retail partner every outfit suggestion links to.
type Partner struct {
	Name      string `yaml:"name"`
	SearchURL string `yaml:"search_url"`
}

// DefaultPartner is Riachuelo with its site search endpoint.
func DefaultPartner() Partner {
	return Partner{
		Name:      "Riachuelo",
		SearchURL: "https://www.riachuelo.com.br/busca?q=",
	}
}

// QualityPromptData holds the dynamic data for the quality-check prompt.
type QualityPromptData struct {
	// Capture is an optional one-line EXIF summary.
	Capture string
}

// AnalysisPromptData holds the dynamic data for the styling analysis prompt.
type AnalysisPromptData struct {
	// Context is the newline-joined "- KEY: value" lines built from the
	// user's metrics and preferences. Empty when none were supplied.
	Context string
	Partner Partner
}

// RetouchPromptData holds the dynamic data for the image edit instruction.
// Only Item is required.
type RetouchPromptData struct {
	Item         string
	Modification string
	StylingHint  string
	Biotype      string
	Palette      string
	Refinement   string
}

// TailorPromptData describes one outfit for the try-on modification prompt.
type TailorPromptData struct {
	Title    string
	Details  string
	Occasion string
	Biotype  string
}

// RenderQualityPrompt renders the image quality prompt.
func RenderQualityPrompt(data QualityPromptData) string {
	return renderTemplate(qualityTmpl, data)
}

// RenderAnalysisPrompt renders the Teodoro styling analysis prompt.
func RenderAnalysisPrompt(data AnalysisPromptData) string {
	return renderTemplate(analysisTmpl, data)
}

// RenderRetouchPrompt renders the photo retouch instruction sent with the
// image to the image model.
func RenderRetouchPrompt(data RetouchPromptData) string {
	return renderTemplate(retouchTmpl, data)
}

// RenderTailorPrompt renders the modification text for a suggested outfit.
func RenderTailorPrompt(data TailorPromptData) string {
	return renderTemplate(tailorTmpl, data)
}

// renderTemplate executes a pre-parsed template with the given data.
func renderTemplate(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Template execution errors are not expected with our simple templates,
	// but we handle them gracefully by returning whatever was rendered.
	_ = tmpl.Execute(&buf, data)
	return strings.TrimSpace(buf.String())
}
