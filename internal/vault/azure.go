package vault

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/cockroachdb/errors"

	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

const (
	// KeyVaultScope is the token scope of Azure Key Vault.
	KeyVaultScope = "https://vault.azure.net/.default"

	// DefaultTimeout bounds a single vault call.
	DefaultTimeout = 30 * time.Second

	operationAuthenticate = "authenticate"
	operationGetSecret    = "get_secret"
	statusSuccess         = "success"
	statusError           = "error"
)

type credentialFactory func(tenant, clientID, clientSecret string) (azcore.TokenCredential, error)

type secretGetter interface {
	GetSecret(
		ctx context.Context,
		name, version string,
		options *azsecrets.GetSecretOptions,
	) (azsecrets.GetSecretResponse, error)
}

type secretClientFactory func(vaultURL string, cred azcore.TokenCredential) (secretGetter, error)

// AzureVault authenticates service principals against Azure Key Vault.
type AzureVault struct {
	logger        *slog.Logger
	metrics       metrics.Collector
	timeout       time.Duration
	newCredential credentialFactory
	newClient     secretClientFactory
}

// NewAzureVault creates an AzureVault. A zero timeout uses DefaultTimeout.
func NewAzureVault(logger *slog.Logger, metricsCollector metrics.Collector, timeout time.Duration) *AzureVault {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &AzureVault{
		logger:  logger.With("component", "vault"),
		metrics: metricsCollector,
		timeout: timeout,
		newCredential: func(tenant, clientID, clientSecret string) (azcore.TokenCredential, error) {
			return azidentity.NewClientSecretCredential(tenant, clientID, clientSecret, nil)
		},
		newClient: func(vaultURL string, cred azcore.TokenCredential) (secretGetter, error) {
			return azsecrets.NewClient(vaultURL, cred, nil)
		},
	}
}

// Authenticate builds a client secret credential and acquires a Key Vault token
// to prove the credential works before any secret is requested.
func (v *AzureVault) Authenticate(ctx context.Context, req AuthRequest) (Session, error) {
	start := time.Now()

	session, err := v.authenticate(ctx, req)
	v.record(ctx, operationAuthenticate, start, err)

	if err != nil {
		return nil, err
	}

	v.logger.DebugContext(ctx, "authenticated to vault", "url", req.URL, "tenant", req.Tenant)

	return session, nil
}

func (v *AzureVault) authenticate(ctx context.Context, req AuthRequest) (*azureSession, error) {
	cred, err := v.newCredential(req.Tenant, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to create client secret credential"), ErrAuthentication)
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	_, err = cred.GetToken(callCtx, policy.TokenRequestOptions{Scopes: []string{KeyVaultScope}})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to acquire token for tenant %s", req.Tenant), ErrAuthentication)
	}

	client, err := v.newClient(req.URL, cred)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create secrets client for %s", req.URL)
	}

	return &azureSession{vault: v, client: client, url: req.URL}, nil
}

func (v *AzureVault) record(ctx context.Context, operation string, start time.Time, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError

		v.metrics.RecordVaultError(ctx, operation, metrics.ClassifyVaultError(err))
	}

	v.metrics.RecordVaultCall(ctx, operation, status, time.Since(start))
}

type azureSession struct {
	vault  *AzureVault
	client secretGetter
	url    string
}

// GetSecret returns the latest version of the named secret.
func (s *azureSession) GetSecret(ctx context.Context, name string) (string, error) {
	start := time.Now()

	value, err := s.getSecret(ctx, name)
	s.vault.record(ctx, operationGetSecret, start, err)

	return value, err
}

func (s *azureSession) getSecret(ctx context.Context, name string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.vault.timeout)
	defer cancel()

	resp, err := s.client.GetSecret(callCtx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", errors.Mark(errors.Wrapf(err, "secret %s in %s", name, s.url), ErrSecretNotFound)
		}

		return "", errors.Wrapf(err, "failed to get secret %s from %s", name, s.url)
	}

	if resp.Value == nil {
		return "", errors.Wrapf(ErrSecretNotFound, "secret %s in %s has no value", name, s.url)
	}

	return *resp.Value, nil
}
