package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/middleware"
)

func TestHandlerReturnsCallerProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService()
	if _, err := svc.SaveDocument(context.Background(), "user_1", "", DocumentData{Title: "Undangan", Content: "Isi"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := gin.New()
	r.Use(middleware.Identity())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	get := func(userID string) Profile {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
		req.Header.Set(middleware.UserIDHeader, userID)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
		}
		var p Profile
		if err := json.Unmarshal(resp.Body.Bytes(), &p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return p
	}

	if p := get("user_1"); len(p.SavedDocuments) != 1 || p.SavedDocuments[0].Name != "Undangan" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p := get("user_2"); len(p.SavedDocuments) != 0 {
		t.Fatalf("expected empty profile for another user, got %+v", p)
	}
}
