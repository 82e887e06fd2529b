package storage

import (
	"path/filepath"
	"testing"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "forwarder.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close test store: %v", err)
		}
	})

	return store
}

func sampleRecord(content string) model.Record {
	return model.Record{
		Sender:    "+15551234567",
		Receiver:  "+15557654321",
		Content:   content,
		Timestamp: 1767366245000,
		Source:    model.SourceSMS,
	}
}
