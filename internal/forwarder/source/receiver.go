package source

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

var (
	ErrNoNumber         = errors.New("no number available")
	ErrTelephonyFailure = errors.New("telephony lookup failed")
)

// Telephony is the subset of the platform telephony stack used to name the receiving line.
type Telephony interface {
	HasPermission() bool
	SubscriptionNumber(id int) (string, error)
	ActiveSubscriptionNumber() (string, error)
	Line1Number() (string, error)
}

// TelephonyFactory turns the snapshot attached to an event into a Telephony.
type TelephonyFactory func(snapshot model.TelephonySnapshot) Telephony

func SnapshotTelephony(snapshot model.TelephonySnapshot) Telephony {
	return snapshotTelephony{snapshot}
}

type snapshotTelephony struct {
	model.TelephonySnapshot
}

func (s snapshotTelephony) HasPermission() bool {
	return s.PermissionGranted
}

func (s snapshotTelephony) SubscriptionNumber(id int) (string, error) {
	if s.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrTelephonyFailure, s.Error)
	}

	for _, sub := range s.Subscriptions {
		if sub.ID == id && sub.Number != "" {
			return sub.Number, nil
		}
	}

	return "", ErrNoNumber
}

func (s snapshotTelephony) ActiveSubscriptionNumber() (string, error) {
	if s.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrTelephonyFailure, s.Error)
	}

	for _, sub := range s.Subscriptions {
		if sub.Active {
			if sub.Number == "" {
				break
			}

			return sub.Number, nil
		}
	}

	return "", ErrNoNumber
}

func (s snapshotTelephony) Line1Number() (string, error) {
	if s.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrTelephonyFailure, s.Error)
	}

	line1 := s.TelephonySnapshot.Line1Number
	if line1 == "" {
		return "", ErrNoNumber
	}

	return line1, nil
}

// ResolveReceiver names the line a message arrived on: the number bound to subscriptionID,
// else the first active subscription, else line 1, else sentinel.
// Missing permission, lookup errors and panics all yield sentinel.
func ResolveReceiver(log *zap.Logger, tel Telephony, subscriptionID *int, sentinel string) (receiver string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Telephony lookup panicked", zap.Any("panic", r))
			receiver = sentinel
		}
	}()

	if tel == nil || !tel.HasPermission() {
		return sentinel
	}

	lookups := make([]func() (string, error), 0, 3)
	if subscriptionID != nil {
		id := *subscriptionID
		lookups = append(lookups, func() (string, error) { return tel.SubscriptionNumber(id) })
	}

	lookups = append(lookups, tel.ActiveSubscriptionNumber, tel.Line1Number)

	for _, lookup := range lookups {
		number, err := lookup()
		switch {
		case err == nil && number != "":
			return number
		case err == nil, errors.Is(err, ErrNoNumber):
			continue
		default:
			log.Warn("Failed to resolve receiver number", zap.Error(err))
			return sentinel
		}
	}

	return sentinel
}
