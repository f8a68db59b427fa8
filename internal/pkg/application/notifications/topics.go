package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
)

type topicNotifier struct {
	messenger messaging.MsgContext
}

// NewTopicNotifier publishes the complete alert set on every change, followed
// by one message per newly raised alert.
func NewTopicNotifier(messenger messaging.MsgContext) AlertNotifier {
	return &topicNotifier{messenger: messenger}
}

func (t *topicNotifier) Notify(ctx context.Context, previous, current []types.Alert) error {
	err := t.messenger.PublishOnTopic(ctx, &types.AlertsChanged{
		Alerts:    current,
		Count:     len(current),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert set: %w", err)
	}

	var errs []error

	for _, a := range NewlyRaised(previous, current) {
		title, body := Message(a)

		err = t.messenger.PublishOnTopic(ctx, &types.AlertRaised{
			Alert: a,
			Title: title,
			Body:  body,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to publish alert %s: %w", a.Tag(), err))
		}
	}

	return errors.Join(errs...)
}
