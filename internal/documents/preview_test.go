package documents

import (
	"context"
	"image/color"
	"strings"
	"testing"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/rasterize/rasterizetest"
	"letterhead-backend/internal/shared/storage/object/memory"
)

func newPreviewer(t *testing.T) (*Previewer, *profiles.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	profileSvc := profiles.NewService(profiles.NewMemoryRepo())
	return NewPreviewer(profileSvc, store), profileSvc, store
}

func letterData(lhID string) profiles.DocumentData {
	return profiles.DocumentData{
		Title:        "Undangan",
		Content:      "Isi surat",
		Recipient:    "Bapak Direktur",
		Subject:      "Rapat Tahunan",
		Date:         "2024-08-17",
		Template:     profiles.TemplateRef{ID: "letter", Name: "Surat Resmi"},
		LetterheadID: lhID,
	}
}

func TestPreviewManualLetterhead(t *testing.T) {
	p, profileSvc, store := newPreviewer(t)
	ctx := context.Background()
	logo, err := assets.SaveImage(ctx, store, assets.Key("user_1", "letterheads", "x", "logo"), assets.ImageFile{MimeType: "image/png", Data: rasterizetest.PNG(4, 4, color.Black)})
	if err != nil {
		t.Fatalf("save logo: %v", err)
	}
	lh, err := profileSvc.AddLetterhead(ctx, "user_1", profiles.Letterhead{
		Name:        "PT Maju",
		Kind:        profiles.KindManual,
		CompanyName: "PT Maju Jaya",
		Address:     "Jl. Sudirman 1",
		Phone:       "021-555",
		Website:     "maju.co.id",
		Logo:        &logo,
	})
	if err != nil {
		t.Fatalf("add letterhead: %v", err)
	}

	out, err := p.Render(ctx, "user_1", letterData(lh.ID))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"PT Maju Jaya",
		"Jl. Sudirman 1",
		"Tel: 021-555",
		"Web: maju.co.id",
		`src="data:image/png;base64,`,
		"Sabtu, 17 Agustus 2024",
		"Kepada Yth.",
		"Bapak Direktur",
		"Di tempat",
		"<strong>Perihal:</strong> Rapat Tahunan",
		"<h1>Undangan</h1>",
		"width: 794px",
	} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("preview missing %q", want)
		}
	}
	if strings.Contains(out.HTML, "Email:") {
		t.Error("empty contact fields must be omitted")
	}
	if out.ShareText != "Dokumen: Undangan" || out.FileName != "Undangan.pdf" {
		t.Fatalf("unexpected share text or file name: %+v", out)
	}
}

func TestPreviewUploadedWithoutImageShowsPlaceholder(t *testing.T) {
	p, profileSvc, _ := newPreviewer(t)
	lh, err := profileSvc.AddLetterhead(context.Background(), "user_1", profiles.Letterhead{Name: "Kop Lama", Kind: profiles.KindUploaded})
	if err != nil {
		t.Fatalf("add letterhead: %v", err)
	}
	out, err := p.Render(context.Background(), "user_1", letterData(lh.ID))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.HTML, "[Kop Surat PDF: Kop Lama]") {
		t.Fatal("expected placeholder for uploaded letterhead without image")
	}
}

func TestPreviewDanglingLetterheadRendersNone(t *testing.T) {
	p, _, _ := newPreviewer(t)
	out, err := p.Render(context.Background(), "user_1", letterData("deleted-id"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.HTML, `class="letterhead"`) {
		t.Fatal("dangling letterhead must render as none")
	}
}

func TestPreviewTemplateHeaders(t *testing.T) {
	p, _, _ := newPreviewer(t)
	ctx := context.Background()

	memo := profiles.DocumentData{Title: "Libur", Content: "x", Recipient: "Seluruh Tim", Date: "2024-08-17", Template: profiles.TemplateRef{ID: "memo"}}
	out, _ := p.Render(ctx, "user_1", memo)
	for _, want := range []string{"<strong>Kepada:</strong> Seluruh Tim", "<strong>Dari:</strong> Manajemen", "<strong>Tanggal:</strong> Sabtu, 17 Agustus 2024"} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("memo preview missing %q", want)
		}
	}

	invoice := profiles.DocumentData{Title: "Tagihan", Content: "x", Recipient: "CV Abadi", Subject: "INV-2024-001", Template: profiles.TemplateRef{ID: "invoice"}}
	out, _ = p.Render(ctx, "user_1", invoice)
	for _, want := range []string{"<strong>Nomor Invoice:</strong> INV-2024-001", "Terima kasih atas kepercayaan Anda"} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("invoice preview missing %q", want)
		}
	}

	report := profiles.DocumentData{Title: "Laporan", Content: "x", Subject: "Q1 2024", Template: profiles.TemplateRef{ID: "report"}}
	out, _ = p.Render(ctx, "user_1", report)
	if !strings.Contains(out.HTML, "<strong>Periode Laporan:</strong> Q1 2024") {
		t.Error("report preview missing period")
	}
	if strings.Contains(out.HTML, "Terima kasih atas kepercayaan Anda") {
		t.Error("only invoices carry the footer")
	}
}

func TestPreviewBodyFormats(t *testing.T) {
	p, _, _ := newPreviewer(t)
	ctx := context.Background()

	plain := profiles.DocumentData{Title: "A", Content: "<script>alert(1)</script>\nBaris dua", Template: profiles.TemplateRef{ID: "letter"}}
	out, _ := p.Render(ctx, "user_1", plain)
	if strings.Contains(out.HTML, "<script>alert") {
		t.Fatal("plain body must be escaped")
	}
	if !strings.Contains(out.HTML, `class="body plain"`) {
		t.Fatal("plain body must keep whitespace")
	}

	md := profiles.DocumentData{Title: "A", Content: "**Penting**\n\n- satu", BodyFormat: profiles.BodyMarkdown, Template: profiles.TemplateRef{ID: "letter"}}
	out, _ = p.Render(ctx, "user_1", md)
	if !strings.Contains(out.HTML, "<strong>Penting</strong>") || !strings.Contains(out.HTML, "<li>satu</li>") {
		t.Fatalf("expected markdown rendered, got %s", out.HTML)
	}
}

func TestPreviewSignature(t *testing.T) {
	p, _, _ := newPreviewer(t)
	data := profiles.DocumentData{
		Title:     "A",
		Content:   "B",
		Template:  profiles.TemplateRef{ID: "letter"},
		Signature: &profiles.Signature{Name: "Budi Santoso", Position: "Direktur"},
	}
	out, _ := p.Render(context.Background(), "user_1", data)
	for _, want := range []string{"Hormat kami,", "Budi Santoso", "Direktur", `class="space"`} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("signature missing %q", want)
		}
	}

	data.Signature = &profiles.Signature{}
	out, _ = p.Render(context.Background(), "user_1", data)
	if strings.Contains(out.HTML, "Hormat kami,") {
		t.Error("empty signature block must be omitted")
	}
}

func TestPreviewInlinesOnlyOwnAssets(t *testing.T) {
	p, _, store := newPreviewer(t)
	ctx := context.Background()
	png := rasterizetest.PNG(4, 4, color.Black)
	own, err := assets.SaveImage(ctx, store, assets.Key("user_1", "signatures", "ttd"), assets.ImageFile{MimeType: "image/png", Data: png})
	if err != nil {
		t.Fatalf("save own: %v", err)
	}
	other, err := assets.SaveImage(ctx, store, assets.Key("user_2", "signatures", "rahasia"), assets.ImageFile{MimeType: "image/png", Data: png})
	if err != nil {
		t.Fatalf("save other: %v", err)
	}

	data := letterData("")
	data.Signature = &profiles.Signature{Name: "Budi", Position: "Direktur", Image: &other}
	out, err := p.Render(ctx, "user_1", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.HTML, "data:image/png;base64,") {
		t.Fatal("another user's asset must not be inlined")
	}
	if !strings.Contains(out.HTML, "Budi") {
		t.Fatal("signature text should still render")
	}

	data.Signature.Image = &own
	out, err = p.Render(ctx, "user_1", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.HTML, "data:image/png;base64,") {
		t.Fatal("own signature image should be inlined")
	}
}
