package controller

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
)

// StatusReporter writes and reads the succeeded flag of a CDBootstrap.
type StatusReporter struct {
	client  client.Client
	metrics metrics.Collector
}

// NewStatusReporter creates a StatusReporter.
func NewStatusReporter(c client.Client, metricsCollector metrics.Collector) *StatusReporter {
	return &StatusReporter{client: c, metrics: metricsCollector}
}

// Report overwrites the status with the outcome of the current pass.
func (s *StatusReporter) Report(ctx context.Context, cdb *v1beta1.CDBootstrap, succeeded bool) error {
	patch := []byte(`{"status":{"succeeded":` + strconv.FormatBool(succeeded) + `}}`)

	err := s.client.Status().Patch(ctx, cdb, client.RawPatch(types.MergePatchType, patch))
	if err != nil {
		return errors.Wrapf(err, "failed to patch status of %s/%s", cdb.Namespace, cdb.Name)
	}

	s.metrics.RecordStatusPatch(ctx, succeeded)

	return nil
}

// Read fetches the CDBootstrap and logs its status.
func (s *StatusReporter) Read(ctx context.Context, key types.NamespacedName) (v1beta1.CDBootstrapStatus, error) {
	cdb := &v1beta1.CDBootstrap{}

	err := s.client.Get(ctx, key, cdb)
	if err != nil {
		return v1beta1.CDBootstrapStatus{}, errors.Wrapf(err, "failed to read status of %s", key)
	}

	log.FromContext(ctx).Info("current status", "succeeded", cdb.Status.Succeeded)

	return cdb.Status, nil
}
