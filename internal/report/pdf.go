package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"waybilltrack/backend/internal/domain"
)

type PDF struct{}

func (PDF) ContentType() string { return "application/pdf" }

func (PDF) Extension() string { return "pdf" }

var discrepancyColumns = []struct {
	title string
	width float64
	align string
}{
	{"Waybill No", 32, "L"},
	{"Product", 58, "L"},
	{"Incoming", 20, "R"},
	{"Actual", 20, "R"},
	{"Diff", 16, "R"},
	{"Remark", 44, "L"},
}

func (PDF) Render(w io.Writer, report domain.ClosedReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Closed Waybills", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Closed Waybills", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Period: %s to %s", orDash(report.From), orDash(report.To))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+report.GeneratedAt.UTC().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Waybills: %d   Discrepancies: %d", len(report.Waybills), len(report.Discrepancies)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range discrepancyColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, d := range report.Discrepancies {
		values := []string{
			d.WaybillNo,
			d.ProductName,
			strconv.Itoa(d.Incoming),
			strconv.Itoa(d.ActualCount),
			strconv.Itoa(d.ActualCount - d.Incoming),
			d.RemarkActual,
		}
		for i, col := range discrepancyColumns {
			pdf.CellFormat(col.width, 6, tr(truncate(values[i], col.width)), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(report.Discrepancies) == 0 {
		pdf.CellFormat(0, 7, "No discrepancies in this period.", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}

// truncate keeps a cell on one line at the 9pt body font.
func truncate(value string, width float64) string {
	limit := int(width / 1.9)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "~"
}
