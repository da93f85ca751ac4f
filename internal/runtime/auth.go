// internal/runtime/auth.go
package runtime

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/gmail-responder/internal/gmail"
	"github.com/joshsymonds/gmail-responder/internal/rate"
)

// ErrUnauthorized is marked on every authentication failure. No usable
// client is returned alongside it.
var ErrUnauthorized = errors.New("mailbox authentication failed")

// Scopes requested for every delegated subject: full mail access for trash
// and settings access for filters.
func Scopes() []string {
	return []string{gmail.MailGoogleComScope, gmail.GmailSettingsBasicScope}
}

// ServiceAccount impersonates mailbox owners through domain-wide delegation.
type ServiceAccount struct {
	CredentialFile string
	Scopes         []string
	Limiter        rate.Limiter
	// Options are appended when constructing the Gmail service.
	Options []option.ClientOption
}

func (a ServiceAccount) Authenticate(ctx context.Context, subject string) (gc.Client, error) {
	scopes := a.Scopes
	if len(scopes) == 0 {
		scopes = Scopes()
	}
	data, err := os.ReadFile(a.CredentialFile)
	if err != nil {
		return nil, unauthorized(err, "read service account file %s", a.CredentialFile)
	}
	cfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, unauthorized(err, "parse service account file %s", a.CredentialFile)
	}
	cfg.Subject = subject

	ts := cfg.TokenSource(ctx)
	tok, err := ts.Token()
	if err != nil {
		return nil, unauthorized(err, "fetch token for %s", subject)
	}
	if !tok.Valid() {
		return nil, errors.Mark(errors.Newf("token for %s is not valid", subject), ErrUnauthorized)
	}
	if missing := missingScopes(tok, scopes); len(missing) > 0 {
		return nil, errors.Mark(
			errors.Newf("token for %s lacks scopes %s", subject, strings.Join(missing, ", ")),
			ErrUnauthorized,
		)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.ReuseTokenSource(tok, ts))}, a.Options...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, unauthorized(err, "create gmail service for %s", subject)
	}
	return NewGoogleAPIClient(svc, subject, subject, a.Limiter), nil
}

// missingScopes reports requested scopes absent from the token response.
// Token endpoints that omit the scope field are trusted to have granted
// what was asked.
func missingScopes(tok *oauth2.Token, requested []string) []string {
	raw, _ := tok.Extra("scope").(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	granted := map[string]struct{}{}
	for _, s := range strings.Fields(raw) {
		granted[s] = struct{}{}
	}
	var missing []string
	for _, s := range requested {
		if _, ok := granted[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// Gmailctl reuses the OAuth credentials of a local gmailctl setup. It can
// only act on the mailbox that authorized gmailctl, and its scopes
// (gmail.settings.basic, gmail.labels) cover filters but not TrashMessage.
type Gmailctl struct {
	ConfigDir string
	Limiter   rate.Limiter
}

func (a Gmailctl) Authenticate(ctx context.Context, subject string) (gc.Client, error) {
	svc, err := (localcred.Provider{}).Service(ctx, a.ConfigDir)
	if err != nil {
		return nil, unauthorized(err, "load gmailctl credentials from %s", a.ConfigDir)
	}
	if err := verifyOwner(ctx, svc, subject); err != nil {
		return nil, err
	}
	return NewGoogleAPIClient(svc, subject, "me", a.Limiter), nil
}

// verifyOwner matches subject against the primary send-as address. gmailctl
// only grants settings and labels scopes, which rules out users.getProfile.
func verifyOwner(ctx context.Context, svc *gmail.Service, subject string) error {
	res, err := svc.Users.Settings.SendAs.List("me").Context(ctx).Do()
	if err != nil {
		return unauthorized(err, "list gmailctl send-as addresses")
	}
	for _, sa := range res.SendAs {
		if !sa.IsPrimary {
			continue
		}
		if strings.EqualFold(sa.SendAsEmail, subject) {
			return nil
		}
		return errors.Mark(
			errors.Newf("gmailctl credentials belong to %s, not %s", sa.SendAsEmail, subject),
			ErrUnauthorized,
		)
	}
	return errors.Mark(errors.New("gmailctl account has no primary send-as address"), ErrUnauthorized)
}

func unauthorized(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrUnauthorized)
}

func DefaultLogger() *slog.Logger {
	return NewLogger(slog.LevelInfo)
}

func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
