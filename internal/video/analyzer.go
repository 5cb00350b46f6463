package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"recipe-planner/internal/clipper"
	"recipe-planner/internal/recipe"
	"recipe-planner/internal/storage"
)

const maxThumbnailBytes = 8 << 20

var ErrThumbnailTooLarge = errors.New("thumbnail exceeds size limit")

// Metadata is what a video page says about itself.
type Metadata struct {
	Title       string
	Description string
	Thumbnail   string
}

// Text joins title and description for the extractor.
func (m Metadata) Text() string {
	return strings.TrimSpace(m.Title + "\n\n" + m.Description)
}

// Analyzer reads a recipe out of a video page: first from its description,
// then, when that holds none, from its thumbnail.
type Analyzer struct {
	httpClient *http.Client
	extractor  *recipe.Extractor
	logger     *zap.Logger
}

func NewAnalyzer(extractor *recipe.Extractor, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		extractor:  extractor,
		logger:     logger,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, videoURL string) (*recipe.Input, error) {
	if !a.extractor.CanReadText() && !a.extractor.CanReadImages() {
		return nil, recipe.ErrExtractorUnavailable
	}

	doc, err := clipper.FetchDocument(ctx, a.httpClient, videoURL)
	if err != nil {
		return nil, err
	}
	meta := ReadMetadata(doc)
	meta.Thumbnail = resolveURL(videoURL, meta.Thumbnail)

	in, err := a.fromDescription(ctx, doc, meta)
	if errors.Is(err, recipe.ErrNoRecipe) || errors.Is(err, recipe.ErrExtractorUnavailable) {
		in, err = a.fromThumbnail(ctx, meta, err)
	}
	if err != nil {
		return nil, err
	}

	in.Source = recipe.SourceVideo
	in.SourceURL = videoURL
	if in.ImageURL == "" {
		in.ImageURL = meta.Thumbnail
	}
	if in.Title == "" {
		in.Title = meta.Title
	}
	return in, nil
}

func (a *Analyzer) fromDescription(ctx context.Context, doc *goquery.Document, meta Metadata) (*recipe.Input, error) {
	// Some video pages embed a full schema.org Recipe next to the player.
	if in, ok := clipper.RecipeFromJSONLD(doc); ok {
		return in, nil
	}
	if meta.Description == "" {
		return nil, recipe.ErrNoRecipe
	}
	if !a.extractor.CanReadText() {
		return nil, recipe.ErrExtractorUnavailable
	}
	return a.extractor.FromText(ctx, meta.Title, meta.Text())
}

// fromThumbnail OCRs the thumbnail; cause is returned when that is not
// possible.
func (a *Analyzer) fromThumbnail(ctx context.Context, meta Metadata, cause error) (*recipe.Input, error) {
	if meta.Thumbnail == "" || !a.extractor.CanReadImages() {
		return nil, cause
	}
	data, err := a.download(ctx, meta.Thumbnail)
	if err != nil {
		a.logger.Warn("failed to download thumbnail", zap.String("url", meta.Thumbnail), zap.Error(err))
		return nil, cause
	}
	mime, err := storage.DetectImageType(data)
	if err != nil {
		return nil, cause
	}
	return a.extractor.FromImage(ctx, mime, data)
}

func (a *Analyzer) download(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxThumbnailBytes {
		return nil, ErrThumbnailTooLarge
	}
	return data, nil
}

// resolveURL makes ref absolute against the page it was found on. Refs
// that do not resolve to http(s) are dropped.
func resolveURL(page, ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(page)
	if err != nil {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}

// ReadMetadata collects title, description and thumbnail from Open Graph
// tags, plain meta tags and JSON-LD VideoObject data, in that order of
// preference for each field.
func ReadMetadata(doc *goquery.Document) Metadata {
	meta := func(attr, name string) string {
		v, _ := doc.Find(`meta[` + attr + `="` + name + `"]`).First().Attr("content")
		return strings.TrimSpace(v)
	}

	m := Metadata{
		Title:       meta("property", "og:title"),
		Description: meta("property", "og:description"),
		Thumbnail:   meta("property", "og:image"),
	}
	if m.Title == "" {
		m.Title = meta("name", "twitter:title")
	}
	if m.Description == "" {
		m.Description = meta("name", "description")
	}
	if m.Thumbnail == "" {
		m.Thumbnail = meta("name", "twitter:image")
	}

	for _, obj := range clipper.JSONLDObjects(doc) {
		if !clipper.HasType(obj, "VideoObject") {
			continue
		}
		if name, _ := obj["name"].(string); m.Title == "" {
			m.Title = strings.TrimSpace(name)
		}
		// VideoObject descriptions are usually the full caption while
		// og:description is truncated.
		if desc, _ := obj["description"].(string); len(strings.TrimSpace(desc)) > len(m.Description) {
			m.Description = strings.TrimSpace(desc)
		}
		if m.Thumbnail == "" {
			m.Thumbnail = firstString(obj["thumbnailUrl"])
		}
		break
	}

	if m.Title == "" {
		m.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return m
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
