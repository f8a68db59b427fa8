package evaluation

import (
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

const OnlineWindow = 60 * time.Second

// IsOnline reports whether any sample was taken less than OnlineWindow before now.
func IsOnline(samples []types.Sample, now time.Time) bool {
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			continue
		}
		if now.Sub(s.Timestamp) < OnlineWindow {
			return true
		}
	}
	return false
}
