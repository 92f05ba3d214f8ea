package report

import (
	"html/template"
	"io"

	"waybilltrack/backend/internal/domain"
)

// closedReportTmpl is auto-escaped; remarks and product names are user input.
var closedReportTmpl = template.Must(template.New("closed-report").Funcs(template.FuncMap{
	"when": formatTime,
	"diff": func(d domain.Discrepancy) int { return d.ActualCount - d.Incoming },
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Closed Waybills {{.From}} - {{.To}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Closed Waybills</h2>
  <p>Period: {{if .From}}{{.From}}{{else}}start{{end}} to {{if .To}}{{.To}}{{else}}now{{end}}</p>
  <p>Generated: {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>

  <h3>Waybills ({{len .Waybills}})</h3>
  <table>
    <thead><tr><th>Waybill No</th><th>Date</th><th>Count</th><th>UOM</th><th>Items</th><th>Closed At</th></tr></thead>
    <tbody>{{range .Waybills}}<tr><td>{{.WaybillNo}}</td><td>{{.Date.Format "2006-01-02"}}</td><td class="num">{{.Count}}</td><td>{{.UOM}}</td><td class="num">{{len .Items}}</td><td>{{when .ClosedAt}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Discrepancies ({{len .Discrepancies}})</h3>
  <table>
    <thead><tr><th>Waybill No</th><th>Product</th><th>Incoming</th><th>Actual</th><th>Difference</th><th>Remark</th></tr></thead>
    <tbody>{{range .Discrepancies}}<tr><td>{{.WaybillNo}}</td><td>{{.ProductName}}</td><td class="num">{{.Incoming}}</td><td class="num">{{.ActualCount}}</td><td class="num">{{diff .}}</td><td>{{.RemarkActual}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

type HTML struct{}

func (HTML) ContentType() string { return "text/html; charset=utf-8" }

func (HTML) Extension() string { return "html" }

func (HTML) Render(w io.Writer, report domain.ClosedReport) error {
	return closedReportTmpl.Execute(w, report)
}
