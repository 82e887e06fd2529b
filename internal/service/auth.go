package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/pkg/geoip"
	"github.com/evijayan2/smsmonitor/pkg/jwt"
	"github.com/evijayan2/smsmonitor/pkg/mailer"
	"github.com/evijayan2/smsmonitor/pkg/oauth"
)

const (
	DefaultNoticeTimeout = 30 * time.Second

	// maxPendingNotices bounds concurrent SMTP sends; extra notices are dropped and only logged.
	maxPendingNotices = 4

	deniedSubject = "SMS Monitor: denied sign-in"

	deniedTemplate = `
		<h2>Denied sign-in attempt</h2>
		<p>Email: {{.Email}}</p>
		<p>Reason: {{.Reason}}</p>
		<p>From: {{.ClientIP}} {{if .Country}}({{.Country}}{{if .ASOrg}}, {{.ASOrg}}{{end}}){{end}}</p>
		<p>User agent: {{.UserAgent}}</p>
	`
)

// ParseAllowedEmails splits a comma separated list, dropping quotes, blanks and case.
func ParseAllowedEmails(raw string) []string {
	raw = strings.NewReplacer(`"`, "", `'`, "").Replace(raw)

	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.ToLower(strings.TrimSpace(part)); email != "" {
			emails = append(emails, email)
		}
	}

	return emails
}

type AuthService struct {
	log        *zap.Logger
	provider   oauth.Provider
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	tokenTTL   time.Duration
	allowed    map[string]struct{}
	mlr        mailer.Mailer
	notifyTo   string
	geo        geoip.GeoIP

	noticeTimeout time.Duration
	noticeSlots   chan struct{}
	notices       sync.WaitGroup
}

type AuthOption func(s *AuthService)

// WithNoticeTimeout bounds how long a denied sign-in notice may take before it is abandoned.
func WithNoticeTimeout(timeout time.Duration) AuthOption {
	return func(s *AuthService) {
		if timeout > 0 {
			s.noticeTimeout = timeout
		}
	}
}

func NewAuthService(
	log *zap.Logger,
	provider oauth.Provider,
	privateKey *ecdsa.PrivateKey,
	publicKey *ecdsa.PublicKey,
	tokenTTL time.Duration,
	allowedEmails []string,
	mlr mailer.Mailer,
	notifyTo string,
	geo geoip.GeoIP,
	opts ...AuthOption,
) (*AuthService, error) {
	if len(allowedEmails) == 0 {
		return nil, apperrors.ErrNoAllowedEmails
	}

	allowed := make(map[string]struct{}, len(allowedEmails))
	for _, email := range allowedEmails {
		allowed[strings.ToLower(email)] = struct{}{}
	}

	s := &AuthService{
		log:           log,
		provider:      provider,
		privateKey:    privateKey,
		publicKey:     publicKey,
		tokenTTL:      tokenTTL,
		allowed:       allowed,
		mlr:           mlr,
		notifyTo:      notifyTo,
		geo:           geo,
		noticeTimeout: DefaultNoticeTimeout,
		noticeSlots:   make(chan struct{}, maxPendingNotices),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// BeginLogin returns the provider URL to redirect to and the state to remember in a cookie.
func (s *AuthService) BeginLogin() (redirectURL, state string, err error) {
	state, err = oauth.NewState()
	if err != nil {
		return "", "", err
	}

	return s.provider.AuthCodeURL(state), state, nil
}

// CompleteLogin finishes the OAuth flow. Every failure maps to ErrAccessDenied; the log says why.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state, expectedState string, attempt model.SignInAttempt) (string, *model.Session, error) {
	if state == "" || state != expectedState {
		return "", nil, s.deny(attempt, apperrors.ErrStateMismatch)
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", nil, s.deny(attempt, err)
	}

	attempt.Email = strings.ToLower(identity.Email)

	if !s.IsAllowed(attempt.Email) {
		return "", nil, s.deny(attempt, errors.New("email is not allow-listed"))
	}

	token, err := jwt.NewToken(s.privateKey, s.tokenTTL,
		jwt.WithSubject(attempt.Email),
		jwt.WithClaim(model.UserEmailKey, attempt.Email),
		jwt.WithClaim(model.UserNameKey, identity.Name),
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.log.Info("Sign-in allowed", zap.String("email", attempt.Email), zap.String("ip", attempt.ClientIP))

	return token, &model.Session{Email: attempt.Email, Name: identity.Name}, nil
}

// Authenticate validates a session token and re-checks the allow-list, so removing an email takes effect at once.
func (s *AuthService) Authenticate(token string) (*model.Session, error) {
	claims, err := jwt.ValidateToken(token, s.publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrAccessDenied, err)
	}

	email, _ := claims[model.UserEmailKey].(string)
	if !s.IsAllowed(email) {
		return nil, apperrors.ErrAccessDenied
	}

	name, _ := claims[model.UserNameKey].(string)

	return &model.Session{Email: email, Name: name}, nil
}

func (s *AuthService) IsAllowed(email string) bool {
	_, ok := s.allowed[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func (s *AuthService) deny(attempt model.SignInAttempt, reason error) error {
	if ip := net.ParseIP(attempt.ClientIP); ip != nil {
		info := s.geo.Lookup(ip)
		attempt.Country = info.CC
		attempt.ASN = info.ASN
		attempt.ASOrg = info.ASOrg
	}

	attempt.Reason = reason.Error()

	s.log.Warn("Sign-in denied",
		zap.String("email", attempt.Email),
		zap.String("ip", attempt.ClientIP),
		zap.String("country", attempt.Country),
		zap.Int("asn", attempt.ASN),
		zap.Error(reason),
	)

	if s.mlr.Enabled() && s.notifyTo != "" {
		s.notifyDenied(attempt)
	}

	return fmt.Errorf("%w: %w", apperrors.ErrAccessDenied, reason)
}

// notifyDenied mails the notice in the background so the callback redirect never waits on SMTP.
func (s *AuthService) notifyDenied(attempt model.SignInAttempt) {
	select {
	case s.noticeSlots <- struct{}{}:
	default:
		s.log.Warn("Too many pending sign-in notices, dropping one", zap.String("email", attempt.Email))
		return
	}

	s.notices.Add(1)

	go func() {
		defer s.notices.Done()

		done := make(chan error, 1)

		go func() {
			defer func() { <-s.noticeSlots }()
			done <- s.mlr.SendHTML(s.notifyTo, deniedSubject, deniedTemplate, attempt)
		}()

		timer := time.NewTimer(s.noticeTimeout)
		defer timer.Stop()

		select {
		case err := <-done:
			if err != nil {
				s.log.Error("Failed to send denied sign-in notice", zap.Error(err))
			}
		case <-timer.C:
			s.log.Error("Denied sign-in notice timed out", zap.Duration("timeout", s.noticeTimeout))
		}
	}()
}

// WaitNotices blocks until every pending notice was sent or timed out.
func (s *AuthService) WaitNotices() {
	s.notices.Wait()
}
