package vault

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

var errInvalidClient = errors.New("AADSTS7000215: invalid client secret provided")

type fakeCredential struct {
	err    error
	scopes []string
}

func (f *fakeCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = opts.Scopes
	if f.err != nil {
		return azcore.AccessToken{}, f.err
	}

	return azcore.AccessToken{Token: "token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

type fakeSecrets struct {
	values map[string]string
	err    error
}

func (f *fakeSecrets) GetSecret(
	_ context.Context,
	name, _ string,
	_ *azsecrets.GetSecretOptions,
) (azsecrets.GetSecretResponse, error) {
	if f.err != nil {
		return azsecrets.GetSecretResponse{}, f.err
	}

	value, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "SecretNotFound"}
	}

	resp := azsecrets.GetSecretResponse{}
	resp.Value = ptr.To(value)

	return resp, nil
}

func newTestVault(cred *fakeCredential, secrets *fakeSecrets) (*AzureVault, *[]string) {
	var gotURL []string

	v := NewAzureVault(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewNoopCollector(), time.Second)
	v.newCredential = func(_, _, _ string) (azcore.TokenCredential, error) {
		return cred, nil
	}
	v.newClient = func(vaultURL string, _ azcore.TokenCredential) (secretGetter, error) {
		gotURL = append(gotURL, vaultURL)

		return secrets, nil
	}

	return v, &gotURL
}

func testRequest() AuthRequest {
	return AuthRequest{
		Tenant:       "tenant-id",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		URL:          "https://kv.vault.azure.net",
	}
}

func TestNewAzureVault_DefaultTimeout(t *testing.T) {
	t.Parallel()

	v := NewAzureVault(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewNoopCollector(), 0)

	assert.Equal(t, DefaultTimeout, v.timeout)
}

func TestAzureVault_AuthenticateAndGetSecret(t *testing.T) {
	t.Parallel()

	cred := &fakeCredential{}
	v, urls := newTestVault(cred, &fakeSecrets{values: map[string]string{"ns1": "agent-token"}})
	ctx := context.Background()

	session, err := v.Authenticate(ctx, testRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{KeyVaultScope}, cred.scopes)
	assert.Equal(t, []string{"https://kv.vault.azure.net"}, *urls)

	value, err := session.GetSecret(ctx, "ns1")
	require.NoError(t, err)
	assert.Equal(t, "agent-token", value)
}

func TestAzureVault_AuthenticateFailure(t *testing.T) {
	t.Parallel()

	v, urls := newTestVault(&fakeCredential{err: errInvalidClient}, &fakeSecrets{})

	session, err := v.Authenticate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Nil(t, session)
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.Empty(t, *urls, "no secrets client is built without a token")
}

func TestAzureVault_CredentialConstructionFailure(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(&fakeCredential{}, &fakeSecrets{})
	v.newCredential = func(_, _, _ string) (azcore.TokenCredential, error) {
		return nil, errInvalidClient
	}

	_, err := v.Authenticate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
}

func TestAzureSession_GetSecretNotFound(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(&fakeCredential{}, &fakeSecrets{values: map[string]string{}})
	ctx := context.Background()

	session, err := v.Authenticate(ctx, testRequest())
	require.NoError(t, err)

	_, err = session.GetSecret(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSecretNotFound))
	assert.Equal(t, metrics.ErrorTypeNotFound, metrics.ClassifyVaultError(err))
}

func TestAzureSession_GetSecretServerError(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(&fakeCredential{}, &fakeSecrets{
		err: &azcore.ResponseError{StatusCode: http.StatusServiceUnavailable},
	})
	ctx := context.Background()

	session, err := v.Authenticate(ctx, testRequest())
	require.NoError(t, err)

	_, err = session.GetSecret(ctx, "ns1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSecretNotFound))
	assert.Equal(t, metrics.ErrorTypeServerError, metrics.ClassifyVaultError(err))
}
