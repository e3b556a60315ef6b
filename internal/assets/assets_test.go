package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/storage/object/memory"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestSaveImageRecordsSize(t *testing.T) {
	store := memory.New()
	asset, err := SaveImage(context.Background(), store, Key("user_1", "logo"), ImageFile{MimeType: "image/png", Data: encodePNG(t, 40, 20)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if asset.Width != 40 || asset.Height != 20 || asset.MimeType != "image/png" {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestSaveImageAcceptsSpoofedBytes(t *testing.T) {
	store := memory.New()
	asset, err := SaveImage(context.Background(), store, Key("user_1", "sig"), ImageFile{MimeType: "image/webp", Data: []byte("not really webp")})
	if err != nil {
		t.Fatalf("declared image types are trusted, got %v", err)
	}
	if asset.Width != 0 || store.Len() != 1 {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestSaveImageRejectsDeclaredNonImage(t *testing.T) {
	_, err := SaveImage(context.Background(), memory.New(), Key("user_1", "x"), ImageFile{MimeType: "application/pdf", Data: []byte("%PDF")})
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestOwns(t *testing.T) {
	key := Key("user_1", "letterheads", "a", "header.png")
	if !Owns("user_1", key) {
		t.Fatal("expected owner to own key")
	}
	if Owns("user_2", key) {
		t.Fatal("expected other user not to own key")
	}
	if Owns("user_1", UserPrefix("user_1")+"/../"+UserPrefix("user_2")+"/x") {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestHandlerServesOwnedAssetWithThumbnail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.New()
	key := Key("user_1", "letterheads", "lh", "header.png")
	if _, err := store.SaveWithKey(context.Background(), key, "image/png", bytes.NewReader(encodePNG(t, 400, 100))); err != nil {
		t.Fatalf("seed: %v", err)
	}

	router := gin.New()
	router.Use(middleware.Identity())
	NewHandler(store).RegisterRoutes(router.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets/"+key+"?w=100", nil)
	req.Header.Set(middleware.UserIDHeader, "user_1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 25 {
		t.Fatalf("expected 100x25 thumbnail, got %dx%d", cfg.Width, cfg.Height)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/assets/"+key, nil)
	other.Header.Set(middleware.UserIDHeader, "user_2")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, other)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign asset, got %d", resp.Code)
	}
}
