package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/cli"
	"github.com/fpang/vizu-atelier/internal/metrics"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdio",
	Long: `Exposes quality check, analysis, try-on and skin tone override as MCP
tools over stdin/stdout. Images and lookbooks are exchanged as file paths.`,
	Args: cobra.NoArgs,
	Run:  runMCP,
}

type qualityInput struct {
	Path string `json:"path" jsonschema:"absolute path of the portrait image"`
}

type analyzeInput struct {
	Path     string   `json:"path" jsonschema:"absolute path of the portrait image"`
	Height   string   `json:"height,omitempty" jsonschema:"height in meters, e.g. 1.65"`
	Weight   string   `json:"weight,omitempty" jsonschema:"weight in kg, e.g. 55"`
	Styles   []string `json:"styles,omitempty" jsonschema:"preferred styles"`
	Colors   string   `json:"colors,omitempty" jsonschema:"preferred colors"`
	Avoid    string   `json:"avoid,omitempty" jsonschema:"items or colors to avoid"`
	Lookbook string   `json:"lookbook,omitempty" jsonschema:"where to write the lookbook JSON; defaults next to the image"`
}

type analyzeOutput struct {
	Lookbook string                 `json:"lookbook"`
	Result   stylist.AnalysisResult `json:"result"`
}

type lookInput struct {
	Lookbook   string `json:"lookbook" jsonschema:"lookbook JSON written by analyze_portrait"`
	Index      int    `json:"index" jsonschema:"0-based outfit index"`
	Refinement string `json:"refinement,omitempty" jsonschema:"optional adjustment, e.g. mangas curtas"`
}

type lookOutput struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

type toneInput struct {
	Lookbook string `json:"lookbook" jsonschema:"lookbook JSON written by analyze_portrait"`
	Tone     string `json:"tone" jsonschema:"one of Quente, Frio, Neutro, Oliva"`
}

type toneOutput struct {
	SkinTone stylist.SkinTone `json:"skinTone"`
	Palette  []stylist.Color  `json:"palette"`
}

var errNoPath = errors.New("path is required")

// mcpTools binds tool handlers to one styling service.
type mcpTools struct {
	svc *stylist.Service
}

func runMCP(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	cfg := loadConfig()
	tools := &mcpTools{svc: cli.InitServiceLenient(cfg)}

	server := mcp.NewServer(&mcp.Implementation{Name: "vizu-atelier", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_image_quality",
		Description: "Checks whether a portrait is good enough for style analysis (lighting, focus, framing).",
	}, tools.checkQuality)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_portrait",
		Description: "Analyzes a portrait: skin tone, biotype, palette, visagism, eyewear and outfit suggestions.",
	}, tools.analyze)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_look",
		Description: "Renders one outfit from a lookbook onto the portrait and saves the image.",
	}, tools.generateLook)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_skin_tone",
		Description: "Overrides the skin undertone of a lookbook and recomputes its palette locally.",
	}, tools.setSkinTone)

	cfg.Startup("atelier-mcp", version, initStart).Config("transport", "stdio").Log()

	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}

func (t *mcpTools) checkQuality(ctx context.Context, _ *mcp.CallToolRequest, in qualityInput) (*mcp.CallToolResult, stylist.QualityResult, error) {
	defer recordTool("check_image_quality", time.Now())
	if in.Path == "" {
		return nil, stylist.QualityResult{}, errNoPath
	}
	image, _, err := cli.LoadImage(in.Path)
	if err != nil {
		return nil, stylist.QualityResult{}, err
	}
	return nil, t.svc.ValidateImageQuality(ctx, image), nil
}

func (t *mcpTools) analyze(ctx context.Context, _ *mcp.CallToolRequest, in analyzeInput) (*mcp.CallToolResult, analyzeOutput, error) {
	defer recordTool("analyze_portrait", time.Now())
	if in.Path == "" {
		return nil, analyzeOutput{}, errNoPath
	}
	image, path, err := cli.LoadImage(in.Path)
	if err != nil {
		return nil, analyzeOutput{}, err
	}

	var m *stylist.UserMetrics
	if in.Height != "" || in.Weight != "" {
		m = &stylist.UserMetrics{Height: in.Height, Weight: in.Weight}
	}
	var prefs *stylist.UserPreferences
	if len(in.Styles) > 0 || in.Colors != "" || in.Avoid != "" {
		prefs = &stylist.UserPreferences{FavoriteStyles: in.Styles, FavoriteColors: in.Colors, AvoidItems: in.Avoid}
	}

	result, err := t.svc.Analyze(ctx, image, m, prefs)
	if err != nil {
		return nil, analyzeOutput{}, err
	}

	out := in.Lookbook
	if out == "" {
		out = filepath.Join(filepath.Dir(path), "lookbook.json")
	}
	if err := writeLookbook(out, &lookbook{Image: path, Result: *result}); err != nil {
		return nil, analyzeOutput{}, err
	}
	return nil, analyzeOutput{Lookbook: out, Result: *result}, nil
}

func (t *mcpTools) generateLook(ctx context.Context, _ *mcp.CallToolRequest, in lookInput) (*mcp.CallToolResult, lookOutput, error) {
	defer recordTool("generate_look", time.Now())
	lb, err := readLookbook(in.Lookbook)
	if err != nil {
		return nil, lookOutput{}, err
	}
	if in.Index < 0 || in.Index >= len(lb.Result.Outfits) {
		return nil, lookOutput{}, &stylist.IndexError{Index: in.Index, Len: len(lb.Result.Outfits)}
	}
	if lb.Image == "" {
		return nil, lookOutput{}, fmt.Errorf("lookbook %s has no image: %w", in.Lookbook, errNoPath)
	}
	image, _, err := cli.LoadImage(lb.Image)
	if err != nil {
		return nil, lookOutput{}, err
	}

	look, err := t.svc.RenderLook(ctx, image, lb.Result.Biotype, lb.Result.Outfits[in.Index], in.Refinement)
	if err != nil {
		return nil, lookOutput{}, err
	}
	updated, err := lb.Result.WithOutfit(in.Index, look)
	if err != nil {
		return nil, lookOutput{}, err
	}
	lb.Result = updated
	if err := writeLookbook(in.Lookbook, lb); err != nil {
		return nil, lookOutput{}, err
	}
	path, err := writeLookImage(filepath.Dir(in.Lookbook), in.Index, look)
	if err != nil {
		return nil, lookOutput{}, err
	}
	return nil, lookOutput{Title: look.Title, Image: path}, nil
}

func (t *mcpTools) setSkinTone(_ context.Context, _ *mcp.CallToolRequest, in toneInput) (*mcp.CallToolResult, toneOutput, error) {
	defer recordTool("set_skin_tone", time.Now())
	lb, err := readLookbook(in.Lookbook)
	if err != nil {
		return nil, toneOutput{}, err
	}
	updated, err := stylist.ApplySkinTone(lb.Result, stylist.SkinTone(in.Tone))
	if err != nil {
		return nil, toneOutput{}, fmt.Errorf("%w (supported: Quente, Frio, Neutro, Oliva)", err)
	}
	lb.Result = updated
	if err := writeLookbook(in.Lookbook, lb); err != nil {
		return nil, toneOutput{}, err
	}
	return nil, toneOutput{SkinTone: updated.SkinTone, Palette: updated.Palette}, nil
}

func recordTool(name string, start time.Time) {
	log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("MCP tool call finished")
	metrics.Operation("MCPTool").
		Dimension("Tool", name).
		Latency("ToolLatencyMs", start).
		Count("ToolCallCount").
		Flush()
}
