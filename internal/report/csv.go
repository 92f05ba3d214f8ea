package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"waybilltrack/backend/internal/domain"
)

type CSV struct{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

func (CSV) Extension() string { return "csv" }

func (CSV) Render(w io.Writer, report domain.ClosedReport) error {
	out := csv.NewWriter(w)
	if err := out.Write([]string{"waybill_no", "product_name", "incoming", "actual_count", "difference", "remark_actual", "closed_at"}); err != nil {
		return err
	}
	for _, d := range report.Discrepancies {
		row := []string{
			d.WaybillNo,
			d.ProductName,
			strconv.Itoa(d.Incoming),
			strconv.Itoa(d.ActualCount),
			strconv.Itoa(d.ActualCount - d.Incoming),
			d.RemarkActual,
			formatTime(d.ClosedAt),
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
