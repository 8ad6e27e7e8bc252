package credential

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/vault"
)

// ErrIncompleteVaultSettings is returned when the spec lacks the vault URL, spn or tenant.
var ErrIncompleteVaultSettings = errors.New("keyvault, spn and tenant must all be set")

// ErrEmptyToken is returned when the vault holds an empty token.
var ErrEmptyToken = errors.New("vault returned an empty token")

func (p *Pipeline) fetchToken(ctx context.Context, cdb *v1beta1.CDBootstrap, spnSecret string) (string, error) {
	if !cdb.Spec.HasVaultSettings() {
		return "", ErrIncompleteVaultSettings
	}

	session, err := p.vault.Authenticate(ctx, vault.AuthRequest{
		Tenant:       cdb.Spec.Tenant,
		ClientID:     cdb.Spec.SPN,
		ClientSecret: spnSecret,
		URL:          cdb.Spec.KeyVault,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to authenticate to vault")
	}

	// Tokens are stored per namespace.
	token, err := session.GetSecret(ctx, cdb.Namespace)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get secret %s", cdb.Namespace)
	}

	if token == "" {
		return "", errors.Wrapf(ErrEmptyToken, "secret %s", cdb.Namespace)
	}

	return token, nil
}
