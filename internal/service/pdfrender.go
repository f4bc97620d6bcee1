package service

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/platefeed/platefeed/internal/domain"
)

// PDFRenderer turns an aggregated shopping list into a downloadable PDF.
// Text is transcoded to cp1251 so the core fonts can carry Cyrillic
// ingredient names.
type PDFRenderer struct {
	enc *encoding.Encoder
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{
		enc: encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder()),
	}
}

func (r *PDFRenderer) Render(items []domain.IngredientAmount) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, r.transcode("Shopping list"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	for i, item := range items {
		line := fmt.Sprintf("%d. %s (%s) - %d", i+1, item.Name, item.MeasurementUnit, item.Amount)
		pdf.CellFormat(0, 8, r.transcode(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render shopping list pdf")
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) transcode(s string) string {
	out, err := r.enc.String(s)
	if err != nil {
		return s
	}
	return out
}
