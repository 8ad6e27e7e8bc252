package subresource

import (
	"context"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

const (
	// ManagedByLabel marks every dependent object as owned by this controller.
	ManagedByLabel = "app.kubernetes.io/managed-by"
	// ManagedByValue is the value of ManagedByLabel.
	ManagedByValue = "cdbootstrap-controller"
	// OwnerLabel links a dependent object to its CDBootstrap.
	OwnerLabel = "cndev.nl/cdbootstrap"
	// AppLabel is the pod selector label shared by the Workload and the Policy.
	AppLabel = "app"
)

// templateHandler implements Handler for kinds whose desired state is a template map.
// Templates use int64 for numbers and []any for lists so they convert like decoded JSON.
type templateHandler struct {
	kind      Kind
	client    client.Client
	opts      Options
	metrics   metrics.Collector
	newObject func() client.Object
	objectKey func(name string) string
	template  func(cdb *v1beta1.CDBootstrap, opts Options) map[string]any
}

// Apply reads the live object; when the read fails for any reason a new object is
// created, otherwise the live object is replaced by the freshly built one.
func (h *templateHandler) Apply(ctx context.Context, cdb *v1beta1.CDBootstrap) (client.Object, error) {
	desired, err := h.build(ctx, cdb)
	if err != nil {
		return nil, err
	}

	live := h.newObject()

	getErr := h.client.Get(ctx, types.NamespacedName{Name: desired.GetName(), Namespace: desired.GetNamespace()}, live)
	if getErr != nil {
		err = h.client.Create(ctx, desired)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s %s/%s", h.kind, desired.GetNamespace(), desired.GetName())
		}

		return desired, nil
	}

	desired.SetResourceVersion(live.GetResourceVersion())

	err = h.client.Update(ctx, desired)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to replace %s %s/%s", h.kind, desired.GetNamespace(), desired.GetName())
	}

	return desired, nil
}

func (h *templateHandler) Delete(ctx context.Context, name, namespace string) error {
	obj := h.newObject()
	obj.SetName(h.objectKey(name))
	obj.SetNamespace(namespace)

	err := h.client.Delete(ctx, obj)
	if err != nil {
		return errors.Wrapf(err, "failed to delete %s %s/%s", h.kind, namespace, obj.GetName())
	}

	return nil
}

// build converts the kind's template into a typed object. A conversion failure
// yields an empty object carrying only name and namespace, unless strict mode is on.
func (h *templateHandler) build(ctx context.Context, cdb *v1beta1.CDBootstrap) (client.Object, error) {
	obj := h.newObject()

	err := runtime.DefaultUnstructuredConverter.FromUnstructured(h.template(cdb, h.opts), obj)
	if err != nil {
		if h.opts.StrictTemplates {
			return nil, errors.Mark(errors.Wrapf(err, "%s template for %s/%s", h.kind, cdb.Namespace, cdb.Name), ErrTemplate)
		}

		log.FromContext(ctx).Error(err, "template construction failed, using empty object", "kind", h.kind.String())
		h.metrics.RecordTemplateFallback(ctx, h.kind.String())

		obj = h.newObject()
	}

	obj.SetName(h.objectKey(cdb.Name))
	obj.SetNamespace(cdb.Namespace)

	return obj, nil
}

func sameName(name string) string {
	return name
}

func objectMeta(name, namespace, owner string) map[string]any {
	return map[string]any{
		"name":      name,
		"namespace": namespace,
		"labels":    labels(owner),
	}
}

func labels(owner string) map[string]any {
	return map[string]any{
		AppLabel:       owner,
		ManagedByLabel: ManagedByValue,
		OwnerLabel:     owner,
	}
}
