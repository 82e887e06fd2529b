package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

// NotificationAdapter captures RCS and chat messages from messaging app notifications.
type NotificationAdapter struct {
	log          *zap.Logger
	queue        Enqueuer
	registry     *Registry
	allowed      map[string]struct{}
	placeholders *PlaceholderMatcher
	telephony    TelephonyFactory
}

type NotificationOption func(a *NotificationAdapter)

// WithAllowedPackages limits capture to the given packages. Empty keeps the registry's packages.
func WithAllowedPackages(packages []string) NotificationOption {
	return func(a *NotificationAdapter) {
		if len(packages) == 0 {
			return
		}

		a.allowed = make(map[string]struct{}, len(packages))
		for _, pkg := range packages {
			if pkg = strings.TrimSpace(pkg); pkg != "" {
				a.allowed[pkg] = struct{}{}
			}
		}
	}
}

func WithPlaceholders(matcher *PlaceholderMatcher) NotificationOption {
	return func(a *NotificationAdapter) {
		a.placeholders = matcher
	}
}

func WithTelephony(factory TelephonyFactory) NotificationOption {
	return func(a *NotificationAdapter) {
		a.telephony = factory
	}
}

func NewNotificationAdapter(log *zap.Logger, queue Enqueuer, registry *Registry, opts ...NotificationOption) *NotificationAdapter {
	a := &NotificationAdapter{
		log:          log,
		queue:        queue,
		registry:     registry,
		placeholders: NewPlaceholderMatcher(nil),
		telephony:    SnapshotTelephony,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.allowed == nil {
		WithAllowedPackages(registry.Packages())(a)
	}

	return a
}

func (a *NotificationAdapter) Allowed(pkg string) bool {
	_, ok := a.allowed[pkg]
	return ok
}

// Handle returns 1 when the notification was enqueued and 0 when it was filtered out.
func (a *NotificationAdapter) Handle(ctx context.Context, event model.NotificationEvent) (int, error) {
	if !a.Allowed(event.Package) {
		a.log.Debug("Ignoring notification from package", zap.String("package", event.Package))
		return 0, nil
	}

	if event.Text == "" || a.placeholders.Match(event.Text) {
		a.log.Debug("Ignoring placeholder notification", zap.String("package", event.Package))
		return 0, nil
	}

	sender := a.resolveSender(event)
	receiver := ResolveReceiver(a.log, a.telephony(event.Telephony), event.SubscriptionID, model.DeviceOwner)

	record := model.Record{
		Sender:    sender,
		Receiver:  receiver,
		Content:   event.Text,
		Timestamp: event.PostTime,
		Source:    model.SourceNotification,
	}

	if err := a.queue.Enqueue(ctx, record); err != nil {
		return 0, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	a.log.Debug("Notification captured",
		zap.String("package", event.Package),
		zap.String("sender", sender),
		zap.String("receiver", receiver),
	)

	return 1, nil
}

func (a *NotificationAdapter) resolveSender(event model.NotificationEvent) string {
	if number := a.registry.Lookup(event.Package).SenderNumber(event); number != "" {
		return number
	}

	if title := strings.TrimSpace(event.Title); title != "" {
		return event.Title
	}

	return model.UnknownSender
}
