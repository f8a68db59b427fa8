package export

import (
	"encoding/xml"
	"io"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

const xmlDateLayout = "2006-01-02T15:04:05.000Z07:00"

type measurements struct {
	XMLName      xml.Name      `xml:"measurements"`
	Measurements []measurement `xml:"measurement"`
}

type measurement struct {
	Date        string  `xml:"date"`
	CO2         float64 `xml:"co2"`
	Temperature float64 `xml:"temperature"`
	Humidity    float64 `xml:"humidity"`
}

func WriteXML(w io.Writer, samples []types.Sample) error {
	doc := measurements{Measurements: make([]measurement, 0, len(samples))}

	for _, s := range samples {
		doc.Measurements = append(doc.Measurements, measurement{
			Date:        s.Timestamp.UTC().Format(xmlDateLayout),
			CO2:         s.CO2,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return err
	}

	return enc.Close()
}
