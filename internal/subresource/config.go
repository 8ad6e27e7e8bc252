package subresource

import (
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

// Config keys read by the agent.
const (
	URLKey  = "AZP_URL"
	PoolKey = "AZP_POOL"
)

func newConfigHandler(c client.Client, opts Options, m metrics.Collector) *templateHandler {
	return &templateHandler{
		kind:      Config,
		client:    c,
		opts:      opts,
		metrics:   m,
		newObject: func() client.Object { return &corev1.ConfigMap{} },
		objectKey: sameName,
		template:  configTemplate,
	}
}

func configTemplate(cdb *v1beta1.CDBootstrap, _ Options) map[string]any {
	return map[string]any{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   objectMeta(cdb.Name, cdb.Namespace, cdb.Name),
		"data": map[string]any{
			URLKey:  cdb.Spec.URL,
			PoolKey: cdb.Spec.Pool,
		},
	}
}
