package clipper

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

	"recipe-planner/internal/recipe"
)

var (
	ErrInvalidURL    = errors.New("invalid recipe url")
	ErrFetch         = errors.New("failed to fetch page")
	ErrNoRecipeFound = errors.New("no recipe found on page")
)

const (
	fetchTimeout = 15 * time.Second
	maxPageBytes = 5 << 20
	userAgent    = "Mozilla/5.0 (compatible; recipe-planner/1.0; +https://github.com/recipe-planner)"
)

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	extractor  *recipe.Extractor
	logger     *zap.Logger
}

// NewClipper creates a new Clipper. extractor may be nil, in which case only
// pages carrying schema.org Recipe data can be clipped.
func NewClipper(extractor *recipe.Extractor, logger *zap.Logger) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: fetchTimeout},
		extractor:  extractor,
		logger:     logger,
	}
}

// Clip fetches rawURL and returns the recipe it holds, read from JSON-LD
// when present and extracted by the LLM otherwise.
func (c *Clipper) Clip(ctx context.Context, rawURL string) (*recipe.Input, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := FetchDocument(ctx, c.httpClient, u)
	if err != nil {
		return nil, err
	}

	in, err := c.fromDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	in.Source = recipe.SourceURL
	in.SourceURL = u
	return in, nil
}

func (c *Clipper) fromDocument(ctx context.Context, doc *goquery.Document) (*recipe.Input, error) {
	if in, ok := RecipeFromJSONLD(doc); ok {
		c.logger.Debug("recipe read from json-ld", zap.String("title", in.Title))
		return in, nil
	}

	if !c.extractor.CanReadText() {
		return nil, ErrNoRecipeFound
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	in, err := c.extractor.FromText(ctx, title, CleanText(doc))
	if errors.Is(err, recipe.ErrNoRecipe) {
		return nil, ErrNoRecipeFound
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ParseURL accepts absolute http(s) URLs only.
func ParseURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u.String(), nil
}

// FetchDocument downloads and parses an HTML page.
func FetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return doc, nil
}

// CleanText removes noise to save LLM tokens and returns the page text.
func CleanText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside, iframe, form, svg, ads, .ads, #ads, .advert, .comments").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
