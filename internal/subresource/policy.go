package subresource

import (
	networkingv1 "k8s.io/api/networking/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

const egressPort = int64(443)

// EgressCIDRs are the address blocks the agents may reach.
var EgressCIDRs = []string{
	"13.107.6.0/24",
	"13.107.9.0/24",
	"13.107.42.0/24",
	"13.107.43.0/24",
}

func newPolicyHandler(c client.Client, opts Options, m metrics.Collector) *templateHandler {
	return &templateHandler{
		kind:      Policy,
		client:    c,
		opts:      opts,
		metrics:   m,
		newObject: func() client.Object { return &networkingv1.NetworkPolicy{} },
		objectKey: policyName,
		template:  policyTemplate,
	}
}

func policyName(name string) string {
	return v1beta1.PolicyNamePrefix + name
}

func policyTemplate(cdb *v1beta1.CDBootstrap, _ Options) map[string]any {
	peers := make([]any, 0, len(EgressCIDRs))
	for _, cidr := range EgressCIDRs {
		peers = append(peers, map[string]any{
			"ipBlock": map[string]any{"cidr": cidr},
		})
	}

	return map[string]any{
		"apiVersion": "networking.k8s.io/v1",
		"kind":       "NetworkPolicy",
		"metadata":   objectMeta(cdb.PolicyName(), cdb.Namespace, cdb.Name),
		"spec": map[string]any{
			"podSelector": map[string]any{
				"matchLabels": map[string]any{AppLabel: cdb.Name},
			},
			"policyTypes": []any{"Egress"},
			"egress": []any{
				map[string]any{
					"ports": []any{
						map[string]any{"protocol": "TCP", "port": egressPort},
						map[string]any{"protocol": "UDP", "port": egressPort},
					},
					"to": peers,
				},
			},
		},
	}
}
