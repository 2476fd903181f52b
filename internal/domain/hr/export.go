package hr

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
)

// ExportPDF writes a record sheet for every stored record of kind belonging to
// employeeID. It is gated by the same View check as View.
func (s *Service) ExportPDF(ctx context.Context, actor permissions.Actor, kind records.Kind, employeeID string, w io.Writer) error {
	recs, err := s.View(ctx, actor, kind, employeeID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return ErrRecordNotFound
	}
	return RenderSheet(w, kind, employeeID, recs, time.Now())
}

func RenderSheet(w io.Writer, kind records.Kind, employeeID string, recs []*records.Record, generated time.Time) error {
	fields := records.PresentationFields(kind)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for i, rec := range recs {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.Cell(0, 10, kind.Name())
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Employee %s  -  %d of %d  -  generated %s", employeeID, i+1, len(recs), generated.Format("2006-01-02")))
		pdf.Ln(10)

		for _, def := range fields {
			value, _ := rec.Value(def.Name)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(70, 7, tr(def.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 7, tr(value), "", "L", false)
		}
	}
	return pdf.Output(w)
}
