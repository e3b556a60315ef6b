package templates

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknown is returned for template ids outside the catalog.
var ErrUnknown = errors.New("unknown template")

// Type identifies a document template.
type Type string

const (
	Letter  Type = "letter"
	Invoice Type = "invoice"
	Report  Type = "report"
	Memo    Type = "memo"
)

// Field describes one template-specific editor input. Key names the document
// field it binds to.
type Field struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

// Template is a read-only catalog entry.
type Template struct {
	ID          Type    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Badge       string  `json:"badge"`
	Fields      []Field `json:"fields"`
}

var catalog = []Template{
	{
		ID:          Letter,
		Name:        "Surat Resmi",
		Description: "Template untuk surat resmi, undangan, atau korespondensi bisnis",
		Badge:       "Formal",
		Fields: []Field{
			{Key: "recipient", Label: "Penerima", Placeholder: "Nama penerima atau instansi", Hint: "Contoh: Bapak/Ibu Direktur PT. ABC"},
			{Key: "subject", Label: "Perihal", Placeholder: "Perihal surat"},
		},
	},
	{
		ID:          Invoice,
		Name:        "Invoice",
		Description: "Template untuk invoice, tagihan, atau dokumen keuangan",
		Badge:       "Keuangan",
		Fields: []Field{
			{Key: "recipient", Label: "Nama Klien/Pelanggan", Placeholder: "Nama perusahaan atau individu"},
			{Key: "subject", Label: "Nomor Invoice", Placeholder: "INV-2024-001"},
		},
	},
	{
		ID:          Report,
		Name:        "Laporan",
		Description: "Template untuk laporan, proposal, atau dokumen formal",
		Badge:       "Dokumen",
		Fields: []Field{
			{Key: "recipient", Label: "Ditujukan Kepada", Placeholder: "Direktur / Manager / Tim"},
			{Key: "subject", Label: "Periode Laporan", Placeholder: "Januari 2024 / Q1 2024"},
		},
	},
	{
		ID:          Memo,
		Name:        "Memo Internal",
		Description: "Template untuk memo, pengumuman, atau komunikasi internal",
		Badge:       "Internal",
		Fields: []Field{
			{Key: "recipient", Label: "Kepada", Placeholder: "Seluruh karyawan / Tim tertentu", Hint: "Contoh: Seluruh Tim Marketing"},
		},
	},
}

// All returns the catalog in display order.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the template with the given id.
func Lookup(id string) (Template, error) {
	for _, t := range catalog {
		if string(t.ID) == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrUnknown, id)
}

// BodyPlaceholder returns the starter text shown in an empty editor.
func BodyPlaceholder(t Type, today time.Time) string {
	switch t {
	case Letter:
		return `Dengan hormat,

Bersama ini kami sampaikan...

[Tulis isi surat di sini]

Demikian surat ini kami sampaikan, atas perhatiannya kami ucapkan terima kasih.

Hormat kami,


[Nama Pengirim]
[Jabatan]`
	case Invoice:
		return `Invoice ini dikeluarkan untuk pembayaran jasa/produk berikut:

Item 1: Deskripsi - Rp XXX,XXX
Item 2: Deskripsi - Rp XXX,XXX

Total: Rp XXX,XXX

Metode Pembayaran:
- Transfer Bank: [Nomor Rekening]
- Batas Waktu: [Tanggal]

Terima kasih atas kepercayaan Anda.`
	case Report:
		return `RINGKASAN EKSEKUTIF

[Tulis ringkasan laporan]

PENDAHULUAN

[Latar belakang dan tujuan laporan]

HASIL & ANALISIS

[Temuan utama dan analisis data]

KESIMPULAN & REKOMENDASI

[Kesimpulan dan saran tindak lanjut]`
	case Memo:
		return fmt.Sprintf(`Kepada: Seluruh Tim
Dari: [Nama Pengirim]
Tanggal: %d/%d/%d
Perihal: [Judul Memo]

Dengan ini kami sampaikan informasi sebagai berikut:

[Tulis isi memo di sini]

Informasi ini berlaku efektif mulai [tanggal].

Terima kasih atas perhatiannya.`, today.Day(), int(today.Month()), today.Year())
	default:
		return "Tulis konten dokumen Anda di sini..."
	}
}
