package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waybilltrack/backend/internal/domain"
)

func sampleReport() domain.ClosedReport {
	closedAt := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	return domain.ClosedReport{
		From:        "2026-04-01",
		To:          "2026-04-30",
		GeneratedAt: closedAt,
		Waybills: []domain.Waybill{{
			WaybillNo: "WB-001",
			Date:      closedAt,
			Count:     20,
			UOM:       "box",
			Status:    domain.WaybillStatusClosed,
			ClosedAt:  &closedAt,
			Items:     []domain.WaybillItem{{ProductName: "Gula 1kg", Incoming: 10, ActualCount: 7}},
		}},
		Discrepancies: []domain.Discrepancy{{
			WaybillNo:    "WB-001",
			ProductName:  "Gula 1kg",
			Incoming:     10,
			ActualCount:  7,
			RemarkActual: `<script>alert("x")</script>, torn`,
			ClosedAt:     &closedAt,
		}},
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"csv", "HTML", " pdf "} {
		r, err := ForFormat(format)
		require.NoError(t, err)
		require.NotNil(t, r)
	}
	_, err := ForFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCSVQuotesRemarks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Render(&buf, sampleReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "difference", rows[0][4])
	assert.Equal(t, []string{"WB-001", "Gula 1kg", "10", "7", "-3", `<script>alert("x")</script>, torn`, "2026-04-02 09:30"}, rows[1])
}

func TestHTMLEscapesUserInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML{}.Render(&buf, sampleReport()))

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "WB-001")
}

func TestPDFProducesDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF{}.Render(&buf, sampleReport()))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "closed-waybills-2026-04-01-to-2026-04-30.pdf", Filename(sampleReport(), PDF{}))
	assert.Equal(t, "closed-waybills-all-to-all.csv", Filename(domain.ClosedReport{}, CSV{}))
}
