package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
	FormatXML Format = "xml"
)

var ErrUnknownFormat = errors.New("unknown export format")

var contentTypes = map[Format]string{
	FormatCSV: "text/csv; charset=utf-8",
	FormatPDF: "application/pdf",
	FormatXML: "application/xml; charset=utf-8",
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

func (f Format) ContentType() string {
	return contentTypes[f]
}

// FileName returns the name a download of the room's data is offered under.
func (f Format) FileName(roomID string) string {
	return fmt.Sprintf("salle_%s_donnees.%s", roomID, f)
}

// Write renders samples in the given format. Samples are written in the order
// they are given.
func Write(w io.Writer, f Format, roomID string, samples []types.Sample) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, samples)
	case FormatPDF:
		return WritePDF(w, roomID, samples)
	case FormatXML:
		return WriteXML(w, samples)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
