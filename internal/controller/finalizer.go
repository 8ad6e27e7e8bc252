package controller

import (
	"context"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
)

var (
	addFinalizerPatch    = []byte(`{"metadata":{"finalizers":["` + v1beta1.FinalizerName + `"]}}`)
	removeFinalizerPatch = []byte(`{"metadata":{"finalizers":null}}`)
)

// Finalizer claims a CDBootstrap so the platform defers its removal until cleanup is done.
// Both operations are merge patches and may be repeated.
type Finalizer struct {
	client client.Client
}

// NewFinalizer creates a Finalizer.
func NewFinalizer(c client.Client) *Finalizer {
	return &Finalizer{client: c}
}

// Add sets the finalizer list to exactly the controller's finalizer.
func (f *Finalizer) Add(ctx context.Context, cdb *v1beta1.CDBootstrap) error {
	err := f.client.Patch(ctx, cdb, client.RawPatch(types.MergePatchType, addFinalizerPatch))
	if err != nil {
		return errors.Wrapf(err, "failed to add finalizer to %s/%s", cdb.Namespace, cdb.Name)
	}

	return nil
}

// Remove clears the finalizer list.
func (f *Finalizer) Remove(ctx context.Context, cdb *v1beta1.CDBootstrap) error {
	err := f.client.Patch(ctx, cdb, client.RawPatch(types.MergePatchType, removeFinalizerPatch))
	if err != nil {
		return errors.Wrapf(err, "failed to remove finalizer from %s/%s", cdb.Namespace, cdb.Name)
	}

	return nil
}

func hasFinalizer(cdb *v1beta1.CDBootstrap) bool {
	return controllerutil.ContainsFinalizer(cdb, v1beta1.FinalizerName)
}
