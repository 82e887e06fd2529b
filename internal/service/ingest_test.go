package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestIngest(repo *memMessageRepo, opts ...IngestOption) *IngestService {
	opts = append(opts, WithClock(func() time.Time { return testNow }))
	return NewIngestService(zap.NewNop(), prefixCodec{}, repo, opts...)
}

func TestIngestStoresEncrypted(t *testing.T) {
	repo := &memMessageRepo{now: testNow}
	svc := newTestIngest(repo)

	id, err := svc.Ingest(context.Background(), model.IngestRequest{
		Sender:    "+15551234567",
		Content:   "Your code is 123456",
		Receiver:  "+15557654321",
		Timestamp: json.RawMessage(`1767366245000`),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if id == uuid.Nil {
		t.Fatal("expected a message id")
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(repo.messages))
	}

	stored := repo.messages[0]

	if stored.Sender != "enc:+15551234567" || stored.Content != "enc:Your code is 123456" {
		t.Fatalf("fields stored in the clear: %+v", stored)
	}

	if stored.Receiver == nil || *stored.Receiver != "+15557654321" {
		t.Fatalf("receiver must be stored as given, got %v", stored.Receiver)
	}

	if !stored.Timestamp.Equal(time.UnixMilli(1767366245000)) {
		t.Fatalf("unexpected timestamp %v", stored.Timestamp)
	}
}

func TestIngestMissingFields(t *testing.T) {
	repo := &memMessageRepo{now: testNow}
	svc := newTestIngest(repo)

	cases := []model.IngestRequest{
		{Content: "hi"},
		{Sender: "+1"},
		{},
	}

	for _, req := range cases {
		if _, err := svc.Ingest(context.Background(), req); !errors.Is(err, apperrors.ErrMissingFields) {
			t.Fatalf("expected ErrMissingFields for %+v, got %v", req, err)
		}
	}

	if len(repo.messages) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(repo.messages))
	}
}

func TestIngestEmptyReceiverIsNull(t *testing.T) {
	repo := &memMessageRepo{now: testNow}
	svc := newTestIngest(repo)

	if _, err := svc.Ingest(context.Background(), model.IngestRequest{Sender: "+1", Content: "x"}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if repo.messages[0].Receiver != nil {
		t.Fatalf("expected NULL receiver, got %q", *repo.messages[0].Receiver)
	}

	if !repo.messages[0].Timestamp.Equal(testNow) {
		t.Fatalf("absent timestamp should use the server clock, got %v", repo.messages[0].Timestamp)
	}
}

func TestIngestEncryptionFailure(t *testing.T) {
	repo := &memMessageRepo{now: testNow}
	svc := NewIngestService(zap.NewNop(), failingCodec{}, repo)

	_, err := svc.Ingest(context.Background(), model.IngestRequest{Sender: "+1", Content: "x"})
	if !errors.Is(err, apperrors.ErrEncryptionFailed) {
		t.Fatalf("expected ErrEncryptionFailed, got %v", err)
	}

	if len(repo.messages) != 0 {
		t.Fatal("nothing should be stored when encryption fails")
	}
}

func TestIngestDedup(t *testing.T) {
	repo := &memMessageRepo{now: testNow}
	dedup := newMemDedupRepo()
	svc := newTestIngest(repo, WithDedup(dedup, 10*time.Minute))

	req := model.IngestRequest{Sender: "+1", Content: "same", Timestamp: json.RawMessage(`"1767366245000"`)}

	first, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("first Ingest failed: %v", err)
	}

	second, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}

	if first != second {
		t.Fatalf("duplicate should return the original id: %s vs %s", first, second)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(repo.messages))
	}

	req.Content = "different"
	if third, _ := svc.Ingest(context.Background(), req); third == first {
		t.Fatal("different content must not collapse")
	}
}

func TestIngestDedupReleasedOnStoreFailure(t *testing.T) {
	repo := &memMessageRepo{now: testNow, insertErr: errors.New("db down")}
	dedup := newMemDedupRepo()
	svc := newTestIngest(repo, WithDedup(dedup, time.Minute))

	if _, err := svc.Ingest(context.Background(), model.IngestRequest{Sender: "+1", Content: "x"}); err == nil {
		t.Fatal("expected store error")
	}

	if len(dedup.released) != 1 || len(dedup.owners) != 0 {
		t.Fatalf("claim should be released, released=%v owners=%v", dedup.released, dedup.owners)
	}
}

func TestIngestDuplicateOfUncommittedMessageIsRetryable(t *testing.T) {
	repo := &memMessageRepo{
		now:       testNow,
		insertErr: errors.New("db down"),
		entered:   make(chan struct{}),
		gate:      make(chan struct{}),
	}
	dedup := newMemDedupRepo()
	svc := newTestIngest(repo, WithDedup(dedup, 10*time.Minute))

	req := model.IngestRequest{Sender: "+1", Content: "slow", Timestamp: json.RawMessage(`1767366245000`)}

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Ingest(context.Background(), req)
		firstErr <- err
	}()

	<-repo.entered

	id, err := svc.Ingest(context.Background(), req)
	if !errors.Is(err, apperrors.ErrDuplicateInFlight) {
		t.Fatalf("expected ErrDuplicateInFlight while the first copy is uncommitted, got id=%s err=%v", id, err)
	}

	close(repo.gate)

	if err := <-firstErr; err == nil {
		t.Fatal("expected the first insert to fail")
	}

	if len(repo.messages) != 0 || len(dedup.owners) != 0 {
		t.Fatalf("nothing should be stored or claimed, messages=%d owners=%v", len(repo.messages), dedup.owners)
	}
}

func TestIngestDedupUnavailable(t *testing.T) {
	repo := &memMessageRepo{now: testNow}
	dedup := newMemDedupRepo()
	dedup.claimErr = errors.New("redis down")
	svc := newTestIngest(repo, WithDedup(dedup, time.Minute))

	if _, err := svc.Ingest(context.Background(), model.IngestRequest{Sender: "+1", Content: "x"}); err != nil {
		t.Fatalf("ingest should proceed without dedup: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(repo.messages))
	}
}

func TestParseTimestamp(t *testing.T) {
	rfc := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	cases := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "absent", raw: ``, want: testNow},
		{name: "null", raw: `null`, want: testNow},
		{name: "zero", raw: `0`, want: testNow},
		{name: "negative", raw: `-5`, want: testNow},
		{name: "empty string", raw: `""`, want: testNow},
		{name: "millis number", raw: `1767366245000`, want: time.UnixMilli(1767366245000)},
		{name: "millis string", raw: `"1767366245000"`, want: time.UnixMilli(1767366245000)},
		{name: "rfc3339", raw: `"2026-01-02T15:04:05Z"`, want: rfc},
		{name: "garbage", raw: `"yesterday"`, wantErr: true},
		{name: "object", raw: `{"a":1}`, wantErr: true},
		{name: "overflowing millis", raw: `1e30`, wantErr: true},
		{name: "past year 9999", raw: `"253402300800000"`, wantErr: true},
		{name: "nan", raw: `"NaN"`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(json.RawMessage(tc.raw), testNow)
			if tc.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidTimestamp) {
					t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
