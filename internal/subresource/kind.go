package subresource

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

// Kind identifies one of the dependent object kinds owned by a CDBootstrap.
type Kind int

const (
	// Workload is the agent Deployment.
	Workload Kind = iota
	// Config is the ConfigMap carrying AZP_URL and AZP_POOL.
	Config
	// Secret is the Secret carrying AZP_TOKEN and SPN_SECRET.
	Secret
	// Policy is the egress NetworkPolicy.
	Policy
)

// Kinds lists every dependent object kind.
var Kinds = []Kind{Workload, Config, Secret, Policy}

func (k Kind) String() string {
	switch k {
	case Workload:
		return "Workload"
	case Config:
		return "Config"
	case Secret:
		return "Secret"
	case Policy:
		return "Policy"
	default:
		return "Unknown"
	}
}

var (
	// ErrTemplate is returned by Apply in strict mode when a template cannot be constructed.
	ErrTemplate = errors.New("dependent object template could not be constructed")

	// ErrUnknownKind is returned for a Kind outside the closed set.
	ErrUnknownKind = errors.New("unknown dependent object kind")
)

const (
	operationApply  = "apply"
	operationDelete = "delete"
	statusSuccess   = "success"
	statusError     = "error"
)

// Handler is the capability shared by every dependent object kind.
type Handler interface {
	// Apply creates the object or replaces the live one wholesale with a freshly built copy.
	Apply(ctx context.Context, cdb *v1beta1.CDBootstrap) (client.Object, error)
	// Delete removes the object. A missing object is reported as an error.
	Delete(ctx context.Context, name, namespace string) error
}

// Options configures dependent object construction.
type Options struct {
	// AgentImage is the container image run by the Workload.
	AgentImage string
	// StrictTemplates makes Apply fail with ErrTemplate instead of falling back to an empty object.
	StrictTemplates bool
}

// Orchestrator dispatches Apply and Delete to the handler of each Kind.
type Orchestrator struct {
	client   client.Client
	handlers map[Kind]Handler
	metrics  metrics.Collector
}

// NewOrchestrator creates an Orchestrator with one handler per Kind.
func NewOrchestrator(c client.Client, opts Options, metricsCollector metrics.Collector) *Orchestrator {
	if opts.AgentImage == "" {
		opts.AgentImage = DefaultAgentImage
	}

	return &Orchestrator{
		client: c,
		handlers: map[Kind]Handler{
			Workload: newWorkloadHandler(c, opts, metricsCollector),
			Config:   newConfigHandler(c, opts, metricsCollector),
			Secret:   newSecretHandler(c, opts, metricsCollector),
			Policy:   newPolicyHandler(c, opts, metricsCollector),
		},
		metrics: metricsCollector,
	}
}

// Apply creates or replaces the dependent object of the given kind.
func (o *Orchestrator) Apply(ctx context.Context, kind Kind, cdb *v1beta1.CDBootstrap) (client.Object, error) {
	handler, ok := o.handlers[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "kind %d", int(kind))
	}

	start := time.Now()

	obj, err := handler.Apply(ctx, cdb)
	o.record(ctx, kind, operationApply, start, err)

	if err != nil {
		return nil, errors.Wrapf(err, "failed to apply %s", kind)
	}

	return obj, nil
}

// Delete removes the dependent object of the given kind.
func (o *Orchestrator) Delete(ctx context.Context, kind Kind, name, namespace string) error {
	handler, ok := o.handlers[kind]
	if !ok {
		return errors.Wrapf(ErrUnknownKind, "kind %d", int(kind))
	}

	start := time.Now()

	err := handler.Delete(ctx, name, namespace)
	o.record(ctx, kind, operationDelete, start, err)

	if err != nil {
		return errors.Wrapf(err, "failed to delete %s", kind)
	}

	return nil
}

func (o *Orchestrator) record(ctx context.Context, kind Kind, operation string, start time.Time, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError

		o.metrics.RecordSubresourceError(ctx, kind.String(), operation, metrics.ClassifyKubernetesError(err))
	}

	o.metrics.RecordSubresourceOperation(ctx, kind.String(), operation, status, time.Since(start))
}
