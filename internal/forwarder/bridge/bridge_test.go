package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/forwarder/metrics"
	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
	"github.com/evijayan2/smsmonitor/internal/forwarder/service"
	"github.com/evijayan2/smsmonitor/internal/forwarder/source"
	"github.com/evijayan2/smsmonitor/internal/forwarder/storage"
)

const testToken = "local-bridge-token-0123"

type testEnv struct {
	router  *gin.Engine
	store   *storage.Store
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "forwarder.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := zap.NewNop()
	m := metrics.New()
	svc := service.NewService(log, service.Config{}, store, service.DelivererFunc(func(context.Context, model.Record) error {
		return nil
	}), m)

	h := NewHandler(
		log,
		source.NewSMSAdapter(log, svc, nil),
		source.NewNotificationAdapter(log, svc, source.NewRegistry()),
		store,
		store,
		m,
	)

	return &testEnv{router: NewRouter(log, 5*time.Second, testToken, h), store: store, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	return e.doWithToken(t, method, path, body, testToken)
}

func (e *testEnv) doWithToken(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}

	return envelope.Data
}

func TestSMSEventEnqueuesEveryPart(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/events/sms", model.SMSEvent{
		Parts: []model.SMSPart{
			{OriginatingAddress: "+15551234567", Body: "first half", TimestampMillis: 1767366245000},
			{OriginatingAddress: "+15551234567", Body: "second half", TimestampMillis: 1767366245000},
		},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	if got := decodeData[model.AcceptedResponse](t, w); got.Accepted != 2 {
		t.Fatalf("expected 2 accepted, got %d", got.Accepted)
	}

	counts, err := env.store.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if counts[model.StatusPending] != 2 {
		t.Fatalf("expected 2 pending tasks, got %v", counts)
	}
}

func TestNotificationPlaceholderIsAcceptedButDropped(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/events/notification", model.NotificationEvent{
		Package: source.GoogleMessagesPackage,
		Title:   "Alice",
		Text:    "2 new messages",
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	if got := decodeData[model.AcceptedResponse](t, w); got.Accepted != 0 {
		t.Fatalf("placeholder must not be enqueued, got %d", got.Accepted)
	}

	if env.metrics.Snapshot().Enqueued != 0 {
		t.Fatalf("unexpected metrics %+v", env.metrics.Snapshot())
	}
}

func TestEventInvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/events/sms", "/events/notification"} {
		if w := env.do(t, http.MethodPost, path, "{not json"); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestConfigRoundTripMasksKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/config", SettingsRequest{
		TargetURL: "https://collector.example.com/api/sms",
		APIKey:    "device-secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if bytes.Contains(w.Body.Bytes(), []byte("device-secret")) {
		t.Fatal("api key leaked through GET /config")
	}

	got := decodeData[SettingsView](t, w)
	if got.TargetURL != "https://collector.example.com/api/sms" || !got.APIKeySet {
		t.Fatalf("unexpected settings %+v", got)
	}

	stored, err := env.store.GetSettings(context.Background())
	if err != nil || stored.APIKey != "device-secret" {
		t.Fatalf("settings not persisted: %+v (%v)", stored, err)
	}
}

func TestPutConfigRejectsInvalidURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/config", SettingsRequest{TargetURL: "not a url"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/events/notification", model.NotificationEvent{
		Package: source.SamsungMessagesPackage,
		Title:   "Bob",
		Text:    "Lunch at noon?",
	})

	w := env.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	got := decodeData[MetricsView](t, w)
	if got.Counters.Enqueued != 1 || got.Queue[string(model.StatusPending)] != 1 {
		t.Fatalf("unexpected metrics %+v", got)
	}
}

func TestBridgeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	event := model.SMSEvent{Parts: []model.SMSPart{{OriginatingAddress: "+1", Body: "forged"}}}
	hijack := SettingsRequest{TargetURL: "https://attacker.example.com/collect", APIKey: "stolen"}

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/events/sms", event},
		{http.MethodPost, "/events/notification", model.NotificationEvent{Package: source.GoogleMessagesPackage, Title: "x", Text: "y"}},
		{http.MethodGet, "/config", nil},
		{http.MethodPut, "/config", hijack},
		{http.MethodGet, "/metrics", nil},
	}

	for _, token := range []string{"", "wrong-token-0000000"} {
		for _, r := range requests {
			if w := env.doWithToken(t, r.method, r.path, r.body, token); w.Code != http.StatusUnauthorized {
				t.Fatalf("%s %s with token %q: expected 401, got %d", r.method, r.path, token, w.Code)
			}
		}
	}

	settings, err := env.store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}

	if settings.TargetURL != "" || settings.APIKey != "" {
		t.Fatalf("settings changed without the token: %+v", settings)
	}

	counts, err := env.store.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if counts[model.StatusPending] != 0 {
		t.Fatalf("events enqueued without the token: %v", counts)
	}
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	w := env.doWithToken(t, http.MethodGet, "/health/ping", nil, "")
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("pong")) {
		t.Fatalf("unexpected ping response %d %s", w.Code, w.Body.String())
	}
}
