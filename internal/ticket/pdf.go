package ticket

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

// View is everything printed on a ticket.
type View struct {
	Reference     string
	RouteLabel    string
	Seat          string
	Departure     time.Time
	Status        string
	TravelerName  string
	IssuedAt      time.Time
	Operator      string
	Amount        int64
	PaymentMethod string
}

// RenderPDF draws a one-page A4 e-ticket.
func RenderPDF(v View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+v.Reference, false)
	pdf.SetAuthor("Myanmar Transit", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 10, "Myanmar Transit E-Ticket")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Reference: "+v.Reference)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Traveler    : " + orDash(v.TravelerName),
		"Route       : " + orDash(v.RouteLabel),
		"Operator    : " + orDash(v.Operator),
		"Seat        : " + orDash(v.Seat),
		"Departure   : " + formatTime(v.Departure),
		"Status      : " + orDash(v.Status),
		"Payment     : " + orDash(v.PaymentMethod),
		"Amount      : " + formatKyat(v.Amount),
		"Issued      : " + formatTime(v.IssuedAt),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This ticket is valid for one passenger and one seat. Please show it when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

// formatKyat groups thousands: 42000 -> "42,000 MMK".
func formatKyat(amount int64) string {
	if amount <= 0 {
		return "-"
	}
	s := fmt.Sprintf("%d", amount)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out) + " MMK"
}
