package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

// SMSAdapter turns an SMS broadcast into one record per message part.
type SMSAdapter struct {
	log       *zap.Logger
	queue     Enqueuer
	telephony TelephonyFactory
}

func NewSMSAdapter(log *zap.Logger, queue Enqueuer, telephony TelephonyFactory) *SMSAdapter {
	if telephony == nil {
		telephony = SnapshotTelephony
	}

	return &SMSAdapter{
		log:       log,
		queue:     queue,
		telephony: telephony,
	}
}

// Handle returns the number of records enqueued.
func (a *SMSAdapter) Handle(ctx context.Context, event model.SMSEvent) (int, error) {
	var receiver string
	resolved := false

	accepted := 0
	for i, part := range event.Parts {
		if part.Body == "" {
			a.log.Debug("Skipping empty SMS part", zap.Int("part", i))
			continue
		}

		if !resolved {
			receiver = ResolveReceiver(a.log, a.telephony(event.Telephony), event.SubscriptionID, model.UnknownAddress)
			resolved = true
		}

		sender := part.OriginatingAddress
		if sender == "" {
			sender = model.UnknownAddress
		}

		record := model.Record{
			Sender:    sender,
			Receiver:  receiver,
			Content:   part.Body,
			Timestamp: part.TimestampMillis,
			Source:    model.SourceSMS,
		}

		if err := a.queue.Enqueue(ctx, record); err != nil {
			return accepted, fmt.Errorf("failed to enqueue sms part %d: %w", i, err)
		}

		a.log.Debug("SMS captured", zap.String("sender", sender), zap.String("receiver", receiver))

		accepted++
	}

	return accepted, nil
}
