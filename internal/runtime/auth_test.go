package runtime

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/gmail-responder/internal/gmail"
)

const testTokenHost = "https://oauth2.responder.test"

func writeServiceAccountFile(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	creds := map[string]string{
		"type":           "service_account",
		"project_id":     "responder-test",
		"private_key_id": "key-1",
		"private_key":    string(keyPEM),
		"client_email":   "responder@responder-test.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      testTokenHost + "/token",
	}
	data, err := json.Marshal(creds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "service-account.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestServiceAccountAuthenticate(t *testing.T) {
	defer gock.Off()

	gock.New(testTokenHost).
		Post("/token").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        strings.Join(Scopes(), " "),
		})

	auth := ServiceAccount{CredentialFile: writeServiceAccountFile(t)}
	client, err := auth.Authenticate(context.Background(), "owner@gmail.com")

	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "owner@gmail.com", client.Subject())
	assert.True(t, gock.IsDone())
}

func TestServiceAccountOptionsReachGmailService(t *testing.T) {
	defer gock.Off()

	gock.New(testTokenHost).
		Post("/token").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})

	fake := &fakeGmailServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	auth := ServiceAccount{
		CredentialFile: writeServiceAccountFile(t),
		Options: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
		},
	}
	client, err := auth.Authenticate(context.Background(), "owner@gmail.com")
	require.NoError(t, err)

	id, err := client.CreateFilter(context.Background(), gc.FromQuery("evil.example"), gc.BlockAction())
	require.NoError(t, err)
	assert.Equal(t, gc.FilterID("filter-1"), id)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/gmail/v1/users/owner@gmail.com/settings/filters", fake.requests[0].path)
}

func TestServiceAccountMissingScope(t *testing.T) {
	defer gock.Off()

	gock.New(testTokenHost).
		Post("/token").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "https://mail.google.com/",
		})

	auth := ServiceAccount{CredentialFile: writeServiceAccountFile(t)}
	client, err := auth.Authenticate(context.Background(), "owner@gmail.com")

	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Contains(t, err.Error(), "gmail.settings.basic")
}

func TestServiceAccountDelegationDenied(t *testing.T) {
	defer gock.Off()

	gock.New(testTokenHost).
		Post("/token").
		Reply(http.StatusUnauthorized).
		JSON(map[string]any{
			"error":             "unauthorized_client",
			"error_description": "Client is unauthorized to retrieve access tokens using this method.",
		})

	auth := ServiceAccount{CredentialFile: writeServiceAccountFile(t)}
	client, err := auth.Authenticate(context.Background(), "owner@gmail.com")

	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestServiceAccountUnreadableFile(t *testing.T) {
	auth := ServiceAccount{CredentialFile: filepath.Join(t.TempDir(), "missing.json")}
	client, err := auth.Authenticate(context.Background(), "owner@gmail.com")

	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestServiceAccountMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"authorized_user"}`), 0o600))

	client, err := ServiceAccount{CredentialFile: path}.Authenticate(context.Background(), "owner@gmail.com")

	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestMissingScopes(t *testing.T) {
	requested := Scopes()

	tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{})
	assert.Empty(t, missingScopes(tok, requested))

	tok = (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{"scope": strings.Join(requested, " ")})
	assert.Empty(t, missingScopes(tok, requested))

	tok = (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{"scope": requested[1]})
	assert.Equal(t, []string{requested[0]}, missingScopes(tok, requested))
}
