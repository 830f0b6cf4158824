// Package report renders event instances as a printable PDF table with the
// same columns as the CSV export.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"eventcsv/internal/csvexport"
	"eventcsv/internal/model"
)

// columnWidths in millimetres; they sum to the printable width of an A4
// landscape page with 10mm margins.
var columnWidths = []float64{
	8,  // Slot
	30, // Program
	24, // Staff
	26, // Virtual Location
	26, // Physical Location
	18, // Event Type
	15, // Day of Week
	15, // Event Date
	13, // Start Time
	13, // End Time
	18, // Time Zone
	24, // GMT Start
	24, // GMT End
	23, // Capacity
}

// Options controls the document header.
type Options struct {
	Title string
	// Generated is printed under the title; zero omits the line.
	Generated time.Time
}

// PDF renders instances as an A4 landscape table.
func PDF(instances []model.EventInstance, opts Options) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if opts.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "C", false, 0, "")
	}
	if !opts.Generated.IsZero() {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(0, 5, "Generated "+opts.Generated.UTC().Format("1/2/2006 3:04pm")+" UTC", "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	header := func() {
		pdf.SetFont("Arial", "B", 6.5)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range csvexport.Header {
			pdf.CellFormat(columnWidths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 6.5)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	for _, inst := range instances {
		for i, v := range csvexport.Values(inst) {
			pdf.CellFormat(columnWidths[i], 6, tr(fit(pdf, v, columnWidths[i])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fit truncates s with an ellipsis so it stays inside a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	const padding = 2
	if pdf.GetStringWidth(s) <= w-padding {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w-padding {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
