package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"recipe-planner/internal/llm"
)

//go:embed extractor_prompt.md
var extractorPrompt string

//go:embed image_prompt.md
var imagePrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// maxPromptContent bounds the page text sent to the model.
const maxPromptContent = 12000

// UsageRecorder persists LLM usage.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta) error
}

// Extractor turns free text or a photo into a recipe Input using an LLM.
// Either generator may be nil; the matching method then fails with
// ErrExtractorUnavailable.
type Extractor struct {
	text   llm.TextGenerator
	vision llm.ImageReader
	usage  UsageRecorder
	logger *zap.Logger
}

func NewExtractor(text llm.TextGenerator, vision llm.ImageReader, usage UsageRecorder, logger *zap.Logger) *Extractor {
	return &Extractor{text: text, vision: vision, usage: usage, logger: logger}
}

// CanReadText reports whether FromText is usable.
func (e *Extractor) CanReadText() bool { return e != nil && e.text != nil }

// CanReadImages reports whether FromImage is usable.
func (e *Extractor) CanReadImages() bool { return e != nil && e.vision != nil }

type extracted struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepMinutes  int      `json:"prep_minutes"`
	CookMinutes  int      `json:"cook_minutes"`
	Servings     int      `json:"servings"`
	Tags         []string `json:"tags"`
}

// FromText extracts a recipe from page or caption text.
func (e *Extractor) FromText(ctx context.Context, title, content string) (*Input, error) {
	if !e.CanReadText() {
		return nil, ErrExtractorUnavailable
	}

	var buf bytes.Buffer
	err := extractorTmpl.Execute(&buf, struct{ Title, Content string }{title, truncate(content, maxPromptContent)})
	if err != nil {
		return nil, fmt.Errorf("build extractor prompt: %w", err)
	}

	start := time.Now()
	resp, err := e.text.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	e.record(ctx, "Extractor", resp.Usage, time.Since(start))
	return decodeExtracted(resp.Content)
}

// FromImage extracts a recipe from a photo.
func (e *Extractor) FromImage(ctx context.Context, mimeType string, data []byte) (*Input, error) {
	if !e.CanReadImages() {
		return nil, ErrExtractorUnavailable
	}

	start := time.Now()
	resp, err := e.vision.ReadImage(ctx, imagePrompt, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	e.record(ctx, "ImageReader", resp.Usage, time.Since(start))
	return decodeExtracted(resp.Content)
}

func (e *Extractor) record(ctx context.Context, agent string, usage llm.TokenUsage, latency time.Duration) {
	if e.usage == nil {
		return
	}
	meta := llm.AgentMeta{AgentName: agent, Usage: usage, Latency: latency}
	if err := e.usage.RecordMeta(ctx, meta); err != nil {
		e.logger.Warn("failed to record llm usage", zap.String("agent", agent), zap.Error(err))
	}
}

func decodeExtracted(content string) (*Input, error) {
	var x extracted
	if err := json.Unmarshal([]byte(llm.CleanJSON(content)), &x); err != nil {
		return nil, fmt.Errorf("%w: unreadable model response: %v", ErrExtraction, err)
	}
	if x.Title == "" || len(x.Ingredients) == 0 {
		return nil, ErrNoRecipe
	}

	servings := x.Servings
	if servings < 0 {
		servings = 0
	}
	return &Input{
		Title:        x.Title,
		Description:  x.Description,
		Ingredients:  Lines(x.Ingredients),
		Instructions: x.Instructions,
		PrepMinutes:  max(x.PrepMinutes, 0),
		CookMinutes:  max(x.CookMinutes, 0),
		Servings:     servings,
		Tags:         x.Tags,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
