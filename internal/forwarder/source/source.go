package source

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

const (
	GoogleMessagesPackage  = "com.google.android.apps.messaging"
	SamsungMessagesPackage = "com.samsung.android.messaging"
)

// DefaultPlaceholderPhrases are summary texts messaging apps post instead of the real body.
var DefaultPlaceholderPhrases = []string{
	"new message",
	"doing work in the background",
}

// Enqueuer accepts normalized records for delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, record model.Record) error
}

// PlaceholderMatcher reports whether a notification text is a known placeholder.
// Matching is case-insensitive containment under Unicode case folding.
type PlaceholderMatcher struct {
	phrases []string
}

func NewPlaceholderMatcher(phrases []string) *PlaceholderMatcher {
	if len(phrases) == 0 {
		phrases = DefaultPlaceholderPhrases
	}

	folded := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		folded = append(folded, fold(p))
	}

	return &PlaceholderMatcher{phrases: folded}
}

func (m *PlaceholderMatcher) Match(text string) bool {
	folded := fold(text)
	for _, p := range m.phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}

	return false
}

// cases.Caser keeps state between calls, so every call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
