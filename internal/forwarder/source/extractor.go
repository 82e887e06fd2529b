package source

import (
	"slices"
	"strings"
	"sync"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

// Extractor pulls the sender phone number out of a messaging notification.
// It returns "" when the notification carries no usable number.
type Extractor interface {
	SenderNumber(event model.NotificationEvent) string
}

type ExtractorFunc func(event model.NotificationEvent) string

func (f ExtractorFunc) SenderNumber(event model.NotificationEvent) string {
	return f(event)
}

// TelURIExtractor scans the MessagingStyle conversation newest first, then the people list,
// for the first tel: URI.
var TelURIExtractor = ExtractorFunc(func(event model.NotificationEvent) string {
	for i := len(event.Messages) - 1; i >= 0; i-- {
		if number, ok := telNumber(event.Messages[i].PersonURI); ok {
			return number
		}
	}

	for _, person := range event.People {
		if number, ok := telNumber(person); ok {
			return number
		}
	}

	return ""
})

func telNumber(uri string) (string, bool) {
	if !strings.HasPrefix(uri, model.TelURIPrefix) {
		return "", false
	}

	number := strings.TrimPrefix(uri, model.TelURIPrefix)
	if number == "" {
		return "", false
	}

	return number, true
}

// Registry maps a source package to its Extractor.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry returns a registry with Google Messages and Samsung Messages registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register(GoogleMessagesPackage, TelURIExtractor)
	r.Register(SamsungMessagesPackage, TelURIExtractor)

	return r
}

func (r *Registry) Register(pkg string, extractor Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors[pkg] = extractor
}

// Lookup falls back to TelURIExtractor for packages without a dedicated extractor.
func (r *Registry) Lookup(pkg string) Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if extractor, ok := r.extractors[pkg]; ok {
		return extractor
	}

	return TelURIExtractor
}

func (r *Registry) Packages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	packages := make([]string, 0, len(r.extractors))
	for pkg := range r.extractors {
		packages = append(packages, pkg)
	}

	slices.Sort(packages)

	return packages
}
