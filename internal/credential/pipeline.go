// Package credential resolves the agent registration token of a CDBootstrap.
//
// The token is either injected into the owned Secret by an operator or
// fetched from the vault with the service principal secret stored next to it.
// Every failure is recovered here: the pipeline logs, leaves the Secret as it
// was and lets the regular requeue cadence try again.
package credential

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
	"github.com/cndev-nl/cdbootstrap-controller/internal/subresource"
	"github.com/cndev-nl/cdbootstrap-controller/internal/vault"
)

// SecretStore reads and writes the Secret owned by a CDBootstrap.
type SecretStore interface {
	SecretValues(ctx context.Context, name, namespace string) (map[string][]byte, error)
	SetToken(ctx context.Context, name, namespace, token string) error
}

// State is the credential state derived from the Secret on every run. It is never persisted.
type State struct {
	TokenSet     bool
	SPNSecretSet bool
}

// String returns the metrics label of the state.
func (s State) String() string {
	switch {
	case s.TokenSet:
		return "token_set"
	case s.SPNSecretSet:
		return "spn_only"
	default:
		return "none"
	}
}

// StateFromValues derives the credential state. Absent keys and empty values are unset.
func StateFromValues(data map[string][]byte) State {
	return State{
		TokenSet:     len(data[subresource.TokenKey]) > 0,
		SPNSecretSet: len(data[subresource.SPNSecretKey]) > 0,
	}
}

// Outcome is the side effect a pipeline run ended with.
type Outcome int

const (
	// OutcomeNoCredentials means neither value was present; nothing was done.
	OutcomeNoCredentials Outcome = iota
	// OutcomeTokenPresent means the token was already set; nothing was done.
	OutcomeTokenPresent
	// OutcomeTokenWritten means a token was fetched from the vault and written to the Secret.
	OutcomeTokenWritten
	// OutcomeVaultFailed means the vault could not be reached or had no token; the Secret is unchanged.
	OutcomeVaultFailed
	// OutcomeWriteFailed means the fetched token could not be written.
	OutcomeWriteFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoCredentials:
		return "no_credentials"
	case OutcomeTokenPresent:
		return "token_present"
	case OutcomeTokenWritten:
		return "token_written"
	case OutcomeVaultFailed:
		return "vault_failed"
	case OutcomeWriteFailed:
		return "write_failed"
	default:
		return "unknown"
	}
}

// Pipeline resolves agent tokens.
type Pipeline struct {
	secrets SecretStore
	vault   vault.Vault
	logger  *slog.Logger
	metrics metrics.Collector
}

// NewPipeline creates a credential Pipeline.
func NewPipeline(
	secrets SecretStore,
	v vault.Vault,
	logger *slog.Logger,
	metricsCollector metrics.Collector,
) *Pipeline {
	return &Pipeline{
		secrets: secrets,
		vault:   v,
		logger:  logger.With("component", "credential-pipeline"),
		metrics: metricsCollector,
	}
}

// Run evaluates the credential state of the CDBootstrap and acts on it:
//
//	token  spn secret  action
//	unset  unset       none
//	unset  set         fetch the token named after the namespace from the vault and store it
//	set    any         none
//
// Run never returns an error. The spn secret is never modified.
func (p *Pipeline) Run(ctx context.Context, cdb *v1beta1.CDBootstrap) Outcome {
	logger := p.logger.With("run", uuid.NewString(), "cdbootstrap", cdb.Name, "namespace", cdb.Namespace)

	data, err := p.secrets.SecretValues(ctx, cdb.Name, cdb.Namespace)
	if err != nil {
		logger.WarnContext(ctx, "failed to read secret, treating credentials as unset", "error", err)

		data = nil
	}

	state := StateFromValues(data)
	p.metrics.RecordCredentialState(ctx, state.String())

	switch {
	case state.TokenSet:
		logger.InfoContext(ctx, "agent token already set")

		return OutcomeTokenPresent
	case !state.SPNSecretSet:
		logger.InfoContext(ctx, "neither agent token nor spn secret set, nothing to do")

		return OutcomeNoCredentials
	}

	logger.InfoContext(ctx, "agent token unset, fetching it from the vault", "vault", cdb.Spec.KeyVault)

	token, err := p.fetchToken(ctx, cdb, string(data[subresource.SPNSecretKey]))
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch agent token from the vault", "error", err)

		return OutcomeVaultFailed
	}

	err = p.secrets.SetToken(ctx, cdb.Name, cdb.Namespace, token)
	if err != nil {
		logger.WarnContext(ctx, "failed to store agent token", "error", err)

		return OutcomeWriteFailed
	}

	logger.InfoContext(ctx, "agent token stored")

	return OutcomeTokenWritten
}
