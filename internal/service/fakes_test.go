package service

import (
	"context"
	"errors"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/internal/repository"
	"github.com/evijayan2/smsmonitor/pkg/geoip"
	"github.com/evijayan2/smsmonitor/pkg/oauth"
)

type prefixCodec struct{}

func (prefixCodec) Encrypt(s string) (string, error) { return "enc:" + s, nil }

func (prefixCodec) Decrypt(s string) string {
	if rest, ok := strings.CutPrefix(s, "enc:"); ok {
		return rest
	}
	return s
}

type failingCodec struct{ prefixCodec }

func (failingCodec) Encrypt(string) (string, error) { return "", errors.New("boom") }

type memMessageRepo struct {
	mu        sync.Mutex
	messages  []model.Message
	insertErr error
	now       time.Time

	// entered and gate, when set, hold InsertMessage until gate is closed.
	entered chan struct{}
	gate    chan struct{}
}

func (r *memMessageRepo) Pool() *pgxpool.Pool { return nil }

func (r *memMessageRepo) InsertMessage(_ context.Context, _ repository.RepoExtension, m *model.Message) (*model.Message, error) {
	if r.gate != nil {
		close(r.entered)
		<-r.gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return nil, r.insertErr
	}

	row := *m
	row.ReceivedAt = r.now.Add(time.Duration(len(r.messages)) * time.Second)
	r.messages = append(r.messages, row)

	return &row, nil
}

func (r *memMessageRepo) SelectLatest(_ context.Context, _ repository.RepoExtension, limit int) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Clone(r.messages)
	slices.Reverse(out)

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *memMessageRepo) SelectMessageByID(_ context.Context, _ repository.RepoExtension, id uuid.UUID) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		if r.messages[i].ID == id {
			m := r.messages[i]
			return &m, nil
		}
	}

	return nil, apperrors.ErrMessageNotFound
}

func (r *memMessageRepo) UpdateAsRead(_ context.Context, _ repository.RepoExtension, id uuid.UUID) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		if r.messages[i].ID == id {
			r.messages[i].IsRead = true
			m := r.messages[i]
			return &m, nil
		}
	}

	return nil, apperrors.ErrMessageNotFound
}

type memDedupRepo struct {
	mu       sync.Mutex
	owners   map[string]uuid.UUID
	claimErr error
	released []string
}

func newMemDedupRepo() *memDedupRepo {
	return &memDedupRepo{owners: make(map[string]uuid.UUID)}
}

func (r *memDedupRepo) Claim(_ context.Context, fp string, id uuid.UUID, _ time.Duration) (uuid.UUID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimErr != nil {
		return uuid.Nil, false, r.claimErr
	}

	if owner, ok := r.owners[fp]; ok {
		return owner, false, nil
	}

	r.owners[fp] = id

	return id, true, nil
}

func (r *memDedupRepo) Release(_ context.Context, fp string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.owners, fp)
	r.released = append(r.released, fp)

	return nil
}

type fakeProvider struct {
	identity *oauth.Identity
	err      error
}

func (p fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p fakeProvider) Exchange(context.Context, string) (*oauth.Identity, error) {
	return p.identity, p.err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Enabled() bool { return true }

func (m *recordingMailer) SendHTML(to, subject, _ string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, to+"|"+subject)

	return nil
}

func (m *recordingMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.sent)
}

// stalledMailer blocks every send until release is closed.
type stalledMailer struct {
	release chan struct{}
}

func (m stalledMailer) Enabled() bool { return true }

func (m stalledMailer) SendHTML(string, string, string, any) error {
	<-m.release
	return nil
}

type fixedGeo struct{}

func (fixedGeo) Close() error { return nil }

func (fixedGeo) Lookup(net.IP) geoip.GeoInfo {
	return geoip.GeoInfo{CC: "NL", ASN: 64500, ASOrg: "Example Net"}
}
