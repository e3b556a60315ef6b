package templates

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCatalogHasFourTemplatesInOrder(t *testing.T) {
	all := All()
	want := []struct {
		id   Type
		name string
	}{
		{Letter, "Surat Resmi"},
		{Invoice, "Invoice"},
		{Report, "Laporan"},
		{Memo, "Memo Internal"},
	}
	if len(all) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(all))
	}
	for i, w := range want {
		if all[i].ID != w.id || all[i].Name != w.name {
			t.Fatalf("template %d = %s/%s, want %s/%s", i, all[i].ID, all[i].Name, w.id, w.name)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("contract"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
	got, err := Lookup("letter")
	if err != nil || got.Badge != "Formal" {
		t.Fatalf("unexpected lookup result %+v %v", got, err)
	}
}

func TestMemoPlaceholderUsesToday(t *testing.T) {
	body := BodyPlaceholder(Memo, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(body, "Tanggal: 7/3/2024") {
		t.Fatalf("expected id-ID short date, got:\n%s", body)
	}
}

func TestHandlerListsCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler()
	h.RegisterRoutes(router.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got []struct {
		ID              string  `json:"id"`
		Fields          []Field `json:"fields"`
		BodyPlaceholder string  `json:"bodyPlaceholder"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 4 || got[1].ID != "invoice" || got[1].Fields[1].Label != "Nomor Invoice" {
		t.Fatalf("unexpected catalog response %+v", got)
	}
	if got[0].BodyPlaceholder == "" {
		t.Fatal("expected body placeholder")
	}
}
