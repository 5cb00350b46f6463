package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/clipper"
	"recipe-planner/internal/llm"
	"recipe-planner/internal/recipe"
	"recipe-planner/internal/storage"
	"recipe-planner/internal/testutil"
)

type fakeVision struct {
	content string
}

func (f fakeVision) ReadImage(context.Context, string, string, []byte) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: f.content}, nil
}

type fixture struct {
	router *gin.Engine
	images string
}

func newFixture(t *testing.T, vision llm.ImageReader, maxUpload int64) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	dir := t.TempDir()
	images, err := storage.NewImageStore(dir)
	require.NoError(t, err)

	extractor := recipe.NewExtractor(nil, vision, nil, zap.NewNop())
	recipes := recipe.NewService(recipe.NewRepository(db), nil, zap.NewNop())
	svc := NewService(clipper.NewClipper(extractor, zap.NewNop()), extractor, images, recipes, zap.NewNop())

	r, api := testutil.Router(t, db)
	NewHandler(svc, maxUpload, zap.NewNop()).Register(api)
	return fixture{router: r, images: dir}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func upload(t *testing.T, h http.Handler, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "recipe.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	testutil.Authorize(t, req, "alice")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestImportURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><script type="application/ld+json">
			{"@type": "Recipe", "name": "Lemonade", "recipeIngredient": ["4 lemons", "1 l water"], "recipeInstructions": "Squeeze.\nMix."}
		</script></html>`))
	}))
	defer page.Close()
	f := newFixture(t, nil, 1<<20)

	w := testutil.Do(t, f.router, http.MethodPost, "/api/imports/url", "alice", map[string]any{"url": page.URL})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec recipe.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Lemonade", rec.Title)
	assert.Equal(t, recipe.SourceURL, rec.Source)
	assert.Equal(t, page.URL, rec.SourceURL)
	assert.Len(t, rec.Ingredients, 2)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/imports/url", "alice", map[string]any{"url": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing here</body></html>"))
	}))
	defer plain.Close()
	w = testutil.Do(t, f.router, http.MethodPost, "/api/imports/url", "alice", map[string]any{"url": plain.URL})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestImportImage(t *testing.T) {
	vision := fakeVision{content: `{"title": "Card Soup", "ingredients": ["2 carrots"], "instructions": ["Cook"]}`}
	f := newFixture(t, vision, 1<<20)

	w := upload(t, f.router, "file", pngBytes(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec recipe.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Card Soup", rec.Title)
	assert.Equal(t, recipe.SourceImage, rec.Source)
	assert.Regexp(t, `^/images/.+\.png$`, rec.ImageURL)

	w = upload(t, f.router, "file", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = upload(t, f.router, "photo", pngBytes(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportImageFailureRemovesFile(t *testing.T) {
	f := newFixture(t, fakeVision{content: `{"title": "", "ingredients": []}`}, 1<<20)

	w := upload(t, f.router, "file", pngBytes(t))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	entries, err := os.ReadDir(f.images)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImportImageLimits(t *testing.T) {
	f := newFixture(t, fakeVision{}, 16)
	w := upload(t, f.router, "file", pngBytes(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	noVision := newFixture(t, nil, 1<<20)
	w = upload(t, noVision.router, "file", pngBytes(t))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
