package subresource

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

// DefaultAgentImage is the agent image used when none is configured.
const DefaultAgentImage = "ghcr.io/bartvanbenthem/azp-agent-alpine:latest"

const defaultReplicas int32 = 1

func newWorkloadHandler(c client.Client, opts Options, m metrics.Collector) *templateHandler {
	return &templateHandler{
		kind:      Workload,
		client:    c,
		opts:      opts,
		metrics:   m,
		newObject: func() client.Object { return &appsv1.Deployment{} },
		objectKey: sameName,
		template:  workloadTemplate,
	}
}

func workloadTemplate(cdb *v1beta1.CDBootstrap, opts Options) map[string]any {
	name := cdb.Name

	return map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   objectMeta(name, cdb.Namespace, name),
		"spec": map[string]any{
			"replicas": int64(cdb.Spec.Replicas),
			"selector": map[string]any{
				"matchLabels": map[string]any{AppLabel: name},
			},
			"template": map[string]any{
				"metadata": map[string]any{
					"labels": labels(name),
				},
				"spec": map[string]any{
					"containers": []any{
						map[string]any{
							"name":  name,
							"image": opts.AgentImage,
							"env": []any{
								secretEnv(name, TokenKey),
								secretEnv(name, SPNSecretKey),
								configEnv(name, URLKey),
								configEnv(name, PoolKey),
							},
						},
					},
				},
			},
		},
	}
}

func secretEnv(secretName, key string) map[string]any {
	return map[string]any{
		"name": key,
		"valueFrom": map[string]any{
			"secretKeyRef": map[string]any{
				"name":     secretName,
				"key":      key,
				"optional": true,
			},
		},
	}
}

func configEnv(configName, key string) map[string]any {
	return map[string]any{
		"name": key,
		"valueFrom": map[string]any{
			"configMapKeyRef": map[string]any{
				"name":     configName,
				"key":      key,
				"optional": true,
			},
		},
	}
}

// InDesiredState reports whether the live Workload runs the replica count the spec asks for.
// Only the replica count is compared. A Workload that cannot be read is never in desired state.
func (o *Orchestrator) InDesiredState(ctx context.Context, cdb *v1beta1.CDBootstrap) bool {
	deployment := &appsv1.Deployment{}

	err := o.client.Get(ctx, types.NamespacedName{Name: cdb.Name, Namespace: cdb.Namespace}, deployment)
	if err != nil {
		log.FromContext(ctx).V(1).Info("workload not readable, not in desired state", "error", err.Error())

		return false
	}

	replicas := defaultReplicas
	if deployment.Spec.Replicas != nil {
		replicas = *deployment.Spec.Replicas
	}

	return replicas == cdb.Spec.Replicas
}
