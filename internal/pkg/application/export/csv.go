package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

var csvHeader = []string{"date", "co2", "temperature", "humidity"}

func WriteCSV(w io.Writer, samples []types.Sample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range samples {
		err := cw.Write([]string{
			s.Timestamp.Format(time.RFC3339),
			formatFloat(s.CO2),
			formatFloat(s.Temperature),
			formatFloat(s.Humidity),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
