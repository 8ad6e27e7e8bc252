package subresource

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

// Secret keys read by the agent.
const (
	// TokenKey holds the agent registration token.
	TokenKey = "AZP_TOKEN"
	// SPNSecretKey holds the service principal secret used to reach the vault.
	SPNSecretKey = "SPN_SECRET"
)

func newSecretHandler(c client.Client, opts Options, m metrics.Collector) *templateHandler {
	return &templateHandler{
		kind:      Secret,
		client:    c,
		opts:      opts,
		metrics:   m,
		newObject: func() client.Object { return &corev1.Secret{} },
		objectKey: sameName,
		template:  secretTemplate,
	}
}

func secretTemplate(cdb *v1beta1.CDBootstrap, _ Options) map[string]any {
	return map[string]any{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   objectMeta(cdb.Name, cdb.Namespace, cdb.Name),
		"type":       string(corev1.SecretTypeOpaque),
		"data": map[string]any{
			TokenKey:     "",
			SPNSecretKey: "",
		},
	}
}

// SecretValues returns the data of the Secret owned by the named CDBootstrap.
func (o *Orchestrator) SecretValues(ctx context.Context, name, namespace string) (map[string][]byte, error) {
	secret := &corev1.Secret{}

	err := o.client.Get(ctx, types.NamespacedName{Name: name, Namespace: namespace}, secret)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get secret %s/%s", namespace, name)
	}

	return secret.Data, nil
}

// SetToken writes the agent token into the Secret. No other key is touched.
func (o *Orchestrator) SetToken(ctx context.Context, name, namespace, token string) error {
	patch, err := json.Marshal(map[string]any{
		"data": map[string][]byte{TokenKey: []byte(token)},
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode token patch")
	}

	secret := &corev1.Secret{}
	secret.SetName(name)
	secret.SetNamespace(namespace)

	err = o.client.Patch(ctx, secret, client.RawPatch(types.MergePatchType, patch))
	if err != nil {
		return errors.Wrapf(err, "failed to patch token into secret %s/%s", namespace, name)
	}

	return nil
}
