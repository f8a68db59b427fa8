package export

import (
	"fmt"
	"io"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     float64 = 15
	pdfLineHeight float64 = 7
)

// WritePDF renders one text line per sample below a title. The core fonts only
// know cp1252, so text is passed through a unicode translator.
func WritePDF(w io.Writer, roomID string, samples []types.Sample) error {
	return newDocument(roomID, samples).Output(w)
}

func newDocument(roomID string, samples []types.Sample) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Salle "+roomID, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Données de la salle %s", roomID)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	for _, s := range samples {
		pdf.Cell(0, pdfLineHeight, tr(pdfLine(s)))
		pdf.Ln(pdfLineHeight)
	}

	return pdf
}

func pdfLine(s types.Sample) string {
	return fmt.Sprintf("%s: CO2: %.2f, Temp: %.2f°C, Hum: %.2f%%",
		s.Timestamp.Format(time.RFC3339), s.CO2, s.Temperature, s.Humidity)
}
