package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/pkg/oauth"
)

func newTestAuth(t *testing.T, provider oauth.Provider, mlr *recordingMailer, allowed ...string) *AuthService {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	svc, err := NewAuthService(zap.NewNop(), provider, key, &key.PublicKey, time.Hour, allowed, mlr, "ops@example.com", fixedGeo{})
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}

	return svc
}

func TestParseAllowedEmails(t *testing.T) {
	got := ParseAllowedEmails(`"Owner@Example.com, , second@example.com ,'third@example.com'"`)
	want := []string{"owner@example.com", "second@example.com", "third@example.com"}

	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got := ParseAllowedEmails(""); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestNewAuthServiceRequiresAllowList(t *testing.T) {
	_, err := NewAuthService(zap.NewNop(), fakeProvider{}, nil, nil, time.Hour, nil, &recordingMailer{}, "", fixedGeo{})
	if !errors.Is(err, apperrors.ErrNoAllowedEmails) {
		t.Fatalf("expected ErrNoAllowedEmails, got %v", err)
	}
}

func TestBeginLogin(t *testing.T) {
	svc := newTestAuth(t, fakeProvider{}, &recordingMailer{}, "owner@example.com")

	url, state, err := svc.BeginLogin()
	if err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}

	if state == "" || !strings.Contains(url, state) {
		t.Fatalf("state %q missing from %q", state, url)
	}
}

func TestCompleteLoginAllowed(t *testing.T) {
	provider := fakeProvider{identity: &oauth.Identity{Email: "Owner@Example.com", EmailVerified: true, Name: "Owner"}}
	mlr := &recordingMailer{}
	svc := newTestAuth(t, provider, mlr, "owner@example.com")

	token, session, err := svc.CompleteLogin(context.Background(), "code", "s1", "s1", model.SignInAttempt{ClientIP: "203.0.113.7"})
	if err != nil {
		t.Fatalf("CompleteLogin failed: %v", err)
	}

	if session.Email != "owner@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}

	got, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if got.Email != "owner@example.com" || got.Name != "Owner" {
		t.Fatalf("unexpected session %+v", got)
	}

	svc.WaitNotices()

	if sent := mlr.Sent(); len(sent) != 0 {
		t.Fatalf("allowed sign-in must not notify, got %v", sent)
	}
}

func TestCompleteLoginDenied(t *testing.T) {
	cases := []struct {
		name     string
		provider fakeProvider
		state    string
		expected string
	}{
		{
			name:     "not allow-listed",
			provider: fakeProvider{identity: &oauth.Identity{Email: "stranger@example.com", EmailVerified: true}},
			state:    "s1",
			expected: "s1",
		},
		{
			name:     "state mismatch",
			provider: fakeProvider{identity: &oauth.Identity{Email: "owner@example.com", EmailVerified: true}},
			state:    "s1",
			expected: "s2",
		},
		{
			name:     "missing state",
			provider: fakeProvider{identity: &oauth.Identity{Email: "owner@example.com", EmailVerified: true}},
		},
		{
			name:     "exchange error",
			provider: fakeProvider{err: oauth.ErrEmailNotVerified},
			state:    "s1",
			expected: "s1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mlr := &recordingMailer{}
			svc := newTestAuth(t, tc.provider, mlr, "owner@example.com")

			_, _, err := svc.CompleteLogin(context.Background(), "code", tc.state, tc.expected, model.SignInAttempt{ClientIP: "203.0.113.7"})
			if !errors.Is(err, apperrors.ErrAccessDenied) {
				t.Fatalf("expected ErrAccessDenied, got %v", err)
			}

			svc.WaitNotices()

			if sent := mlr.Sent(); len(sent) != 1 || !strings.HasPrefix(sent[0], "ops@example.com|") {
				t.Fatalf("expected one denial notice, got %v", sent)
			}
		})
	}
}

func TestDeniedNoticeDoesNotBlockCallback(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	mlr := stalledMailer{release: make(chan struct{})}
	defer close(mlr.release)

	provider := fakeProvider{identity: &oauth.Identity{Email: "stranger@example.com", EmailVerified: true}}

	svc, err := NewAuthService(zap.NewNop(), provider, key, &key.PublicKey, time.Hour,
		[]string{"owner@example.com"}, mlr, "ops@example.com", fixedGeo{},
		WithNoticeTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}

	returned := make(chan error, 1)
	go func() {
		_, _, err := svc.CompleteLogin(context.Background(), "code", "s1", "s1", model.SignInAttempt{ClientIP: "203.0.113.7"})
		returned <- err
	}()

	select {
	case err := <-returned:
		if !errors.Is(err, apperrors.ErrAccessDenied) {
			t.Fatalf("expected ErrAccessDenied, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("denied sign-in waited on the mailer")
	}

	waited := make(chan struct{})
	go func() {
		svc.WaitNotices()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("pending notice should give up after the timeout")
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc := newTestAuth(t, fakeProvider{}, &recordingMailer{}, "owner@example.com")

	if _, err := svc.Authenticate("not-a-token"); !errors.Is(err, apperrors.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestIsAllowed(t *testing.T) {
	svc := newTestAuth(t, fakeProvider{}, &recordingMailer{}, "owner@example.com")

	if !svc.IsAllowed(" OWNER@example.com ") {
		t.Fatal("allow-list should ignore case and spaces")
	}

	if svc.IsAllowed("other@example.com") {
		t.Fatal("unexpected allow")
	}
}
