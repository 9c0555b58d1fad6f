package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"budgetboard/internal/core"
)

type rgb struct{ r, g, b int }

var (
	pdfPrimary = rgb{108, 92, 231}
	pdfOver    = rgb{214, 48, 49}
	pdfMuted   = rgb{223, 230, 233}
	pdfText    = rgb{45, 52, 54}
)

// hexToRGB parses "#rgb" or "#rrggbb", falling back to the primary color.
func hexToRGB(hex string) rgb {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return pdfPrimary
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return pdfPrimary
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

// barWidth scales value against limit into [0, full].
func barWidth(value, limit int64, full float64) float64 {
	if limit <= 0 || value <= 0 {
		return 0
	}
	if value >= limit {
		return full
	}
	return full * float64(value) / float64(limit)
}

// PDF renders a one-page A4 summary: title, totals, the monthly table with
// cumulative bars and the category table with usage bars.
func PDF(rep core.MonthlyReport, usage []core.CategoryUsage, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Budget report %d", rep.Year), false)
	pdf.SetCreator("budgetboard", false)
	pdf.SetCreationDate(generated)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(pdfPrimary.r, pdfPrimary.g, pdfPrimary.b)
	pdf.Rect(0, 0, 210, 32, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(15, 9)
	pdf.CellFormat(0, 9, fmt.Sprintf("Budget report %d", rep.Year), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(15)
	pdf.CellFormat(0, 6, "Generated "+generated.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")

	// Summary
	pdf.SetTextColor(pdfText.r, pdfText.g, pdfText.b)
	pdf.SetXY(15, 40)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	remaining := rep.Budget.Sub(rep.Spent)
	summary := []struct{ label, value string }{
		{"Budgeted", rep.Budget.Format()},
		{"Spent", rep.Spent.Format()},
		{"Remaining", remaining.Format()},
		{"Used", fmt.Sprintf("%.1f%%", core.Percent(rep.Spent, rep.Budget))},
	}
	for _, s := range summary {
		pdf.CellFormat(40, 6, s.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, s.value, "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	monthlyTable(pdf, rep)
	pdf.Ln(6)
	categoryTable(pdf, usage, pdf.UnicodeTranslatorFromDescriptor(""))

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, titles []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(pdfPrimary.r, pdfPrimary.g, pdfPrimary.b)
	pdf.SetTextColor(255, 255, 255)
	for i, t := range titles {
		pdf.CellFormat(widths[i], 7, t, "", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(pdfText.r, pdfText.g, pdfText.b)
}

func monthlyTable(pdf *gofpdf.Fpdf, rep core.MonthlyReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Monthly budget vs cumulative spend", "", 1, "L", false, 0, "")

	widths := []float64{18, 28, 28, 28, 28, 50}
	tableHeader(pdf, widths, []string{"Month", "Budget", "Spent", "Cumulative", "Remaining", ""})

	scale := rep.Budget.Cents
	if rep.Spent.Cents > scale {
		scale = rep.Spent.Cents
	}
	for _, p := range rep.Points {
		if p.Over {
			pdf.SetTextColor(pdfOver.r, pdfOver.g, pdfOver.b)
		}
		pdf.CellFormat(widths[0], 6, p.Label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, p.Budget.String(), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, p.Spent.String(), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, p.Cumulative.String(), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, p.Remaining.String(), "B", 0, "R", false, 0, "")
		pdf.SetTextColor(pdfText.r, pdfText.g, pdfText.b)

		x, y := pdf.GetX()+2, pdf.GetY()+1.5
		full := widths[5] - 4
		pdf.SetFillColor(pdfMuted.r, pdfMuted.g, pdfMuted.b)
		pdf.Rect(x, y, full, 3, "F")
		bar := pdfPrimary
		if p.Over {
			bar = pdfOver
		}
		if w := barWidth(p.Cumulative.Cents, scale, full); w > 0 {
			pdf.SetFillColor(bar.r, bar.g, bar.b)
			pdf.Rect(x, y, w, 3, "F")
		}
		pdf.CellFormat(widths[5], 6, "", "B", 1, "L", false, 0, "")
	}
}

// categoryTable renders user-supplied names through tr since the core fonts
// are cp1252 encoded.
func categoryTable(pdf *gofpdf.Fpdf, usage []core.CategoryUsage, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Budget usage by category", "", 1, "L", false, 0, "")

	widths := []float64{50, 28, 28, 20, 54}
	tableHeader(pdf, widths, []string{"Category", "Budgeted", "Spent", "Used", ""})

	if len(usage) == 0 {
		pdf.CellFormat(0, 6, "No categories yet.", "", 1, "L", false, 0, "")
		return
	}
	for _, u := range usage {
		pdf.CellFormat(widths[0], 6, tr(u.Name), "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, u.Budgeted.String(), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, u.Spent.String(), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.1f%%", u.Percent), "B", 0, "R", false, 0, "")

		x, y := pdf.GetX()+2, pdf.GetY()+1.5
		full := widths[4] - 4
		pdf.SetFillColor(pdfMuted.r, pdfMuted.g, pdfMuted.b)
		pdf.Rect(x, y, full, 3, "F")
		c := hexToRGB(u.Color)
		if u.Percent > 100 {
			c = pdfOver
		}
		if w := barWidth(int64(u.Percent*10), 1000, full); w > 0 {
			pdf.SetFillColor(c.r, c.g, c.b)
			pdf.Rect(x, y, w, 3, "F")
		}
		pdf.CellFormat(widths[4], 6, "", "B", 1, "L", false, 0, "")
	}
}
