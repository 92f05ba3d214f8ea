// Package report renders closed-waybill discrepancy reports.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"waybilltrack/backend/internal/domain"
)

var ErrUnknownFormat = errors.New("unknown report format")

type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, report domain.ClosedReport) error
}

// ForFormat picks the renderer for csv, html or pdf.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSV{}, nil
	case "html":
		return HTML{}, nil
	case "pdf":
		return PDF{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Filename is the attachment name used for downloads.
func Filename(report domain.ClosedReport, r Renderer) string {
	return fmt.Sprintf("closed-waybills-%s-to-%s.%s", orDash(report.From), orDash(report.To), r.Extension())
}

func orDash(value string) string {
	if value == "" {
		return "all"
	}
	return value
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
