package controller

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/credential"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
	"github.com/cndev-nl/cdbootstrap-controller/internal/subresource"
)

const (
	// changeRequeueDelay follows a successful Create or Update.
	changeRequeueDelay = 10 * time.Second
	// steadyRequeueDelay follows a NoOp pass.
	steadyRequeueDelay = 60 * time.Second

	// DefaultErrorRequeueDelay is the delay before a failed pass is retried.
	DefaultErrorRequeueDelay = 5 * time.Second

	// Overall work queue budget shared by all keys.
	queueQPS   = 10
	queueBurst = 100

	statusSuccess = "success"
	statusError   = "error"
)

// ErrMissingNamespace is returned for a request without a namespace.
var ErrMissingNamespace = errors.New("cdbootstrap has no namespace")

// Order in which dependent objects are created and removed.
var (
	createOrder = []subresource.Kind{subresource.Secret, subresource.Config, subresource.Policy, subresource.Workload}
	updateOrder = []subresource.Kind{subresource.Config, subresource.Policy, subresource.Workload}
	deleteOrder = []subresource.Kind{subresource.Policy, subresource.Config, subresource.Secret, subresource.Workload}
)

// CDBootstrapReconciler drives CDBootstrap resources to their declared state.
type CDBootstrapReconciler struct {
	client.Client

	Orchestrator *subresource.Orchestrator
	Finalizer    *Finalizer
	Status       *StatusReporter
	Credentials  *credential.Pipeline
	Metrics      metrics.Collector

	// MaxConcurrentReconciles bounds how many distinct CDBootstraps are reconciled at once.
	MaxConcurrentReconciles int

	// ErrorRequeueDelay is the base delay after a failed pass.
	ErrorRequeueDelay time.Duration

	// ErrorBackoffMax caps the failure backoff. Equal to ErrorRequeueDelay gives a fixed delay.
	ErrorBackoffMax time.Duration
}

// +kubebuilder:rbac:groups=cndev.nl,resources=cdbootstraps,verbs=get;list;watch;patch
// +kubebuilder:rbac:groups=cndev.nl,resources=cdbootstraps/status,verbs=get;patch
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=get;list;watch;create;update;delete
// +kubebuilder:rbac:groups="",resources=configmaps;secrets,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=networking.k8s.io,resources=networkpolicies,verbs=get;list;watch;create;update;delete

func (r *CDBootstrapReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	start := time.Now()

	logger := log.FromContext(ctx).WithValues("cdbootstrap", req.Name, "namespace", req.Namespace)
	ctx = log.IntoContext(ctx, logger)

	if req.Namespace == "" {
		err := errors.Wrapf(ErrMissingNamespace, "cdbootstrap %s", req.Name)
		logger.Error(err, "rejecting request")
		r.Metrics.RecordReconcile(ctx, "invalid", statusError, time.Since(start))

		return ctrl.Result{}, err
	}

	cdb := &v1beta1.CDBootstrap{}

	err := r.Get(ctx, req.NamespacedName, cdb)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}

		return ctrl.Result{}, errors.Wrap(err, "failed to get cdbootstrap")
	}

	action := selectAction(cdb.IsDeleting(), hasFinalizer(cdb), func() bool {
		return r.Orchestrator.InDesiredState(ctx, cdb)
	})

	logger.Info("reconciling cdbootstrap", "action", action.String())

	result, err := r.run(ctx, action, cdb)
	if err != nil {
		logger.Error(err, "reconciliation failed", "action", action.String())
		r.reportFailure(ctx, cdb)
		r.Metrics.RecordReconcile(ctx, action.String(), statusError, time.Since(start))

		return ctrl.Result{}, err
	}

	r.Metrics.RecordReconcile(ctx, action.String(), statusSuccess, time.Since(start))

	return result, nil
}

func (r *CDBootstrapReconciler) run(ctx context.Context, action Action, cdb *v1beta1.CDBootstrap) (ctrl.Result, error) {
	switch action {
	case ActionCreate:
		return r.create(ctx, cdb)
	case ActionUpdate:
		return r.update(ctx, cdb)
	case ActionDelete:
		return r.delete(ctx, cdb)
	default:
		return r.noop(ctx, cdb)
	}
}

// create attaches the finalizer before any dependent object exists.
//
//nolint:funcorder // action handlers
func (r *CDBootstrapReconciler) create(ctx context.Context, cdb *v1beta1.CDBootstrap) (ctrl.Result, error) {
	err := r.Finalizer.Add(ctx, cdb)
	if err != nil {
		return ctrl.Result{}, err
	}

	err = r.applyAll(ctx, createOrder, cdb)
	if err != nil {
		return ctrl.Result{}, err
	}

	err = r.Status.Report(ctx, cdb, true)
	if err != nil {
		return ctrl.Result{}, err
	}

	return ctrl.Result{RequeueAfter: changeRequeueDelay}, nil
}

// update leaves the Secret alone; only the credential pipeline writes to it.
//
//nolint:funcorder // action handlers
func (r *CDBootstrapReconciler) update(ctx context.Context, cdb *v1beta1.CDBootstrap) (ctrl.Result, error) {
	err := r.applyAll(ctx, updateOrder, cdb)
	if err != nil {
		return ctrl.Result{}, err
	}

	err = r.Status.Report(ctx, cdb, true)
	if err != nil {
		return ctrl.Result{}, err
	}

	return ctrl.Result{RequeueAfter: changeRequeueDelay}, nil
}

// delete removes the finalizer only after every dependent object is gone.
// The pass is terminal: nothing is requeued.
//
//nolint:funcorder // action handlers
func (r *CDBootstrapReconciler) delete(ctx context.Context, cdb *v1beta1.CDBootstrap) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	for _, kind := range deleteOrder {
		err := r.Orchestrator.Delete(ctx, kind, cdb.Name, cdb.Namespace)
		if err != nil {
			return ctrl.Result{}, err
		}

		logger.V(1).Info("deleted dependent object", "kind", kind.String())
	}

	err := r.Finalizer.Remove(ctx, cdb)
	if err != nil {
		return ctrl.Result{}, err
	}

	logger.Info("cdbootstrap cleaned up")

	return ctrl.Result{}, nil
}

//nolint:funcorder // action handlers
func (r *CDBootstrapReconciler) noop(ctx context.Context, cdb *v1beta1.CDBootstrap) (ctrl.Result, error) {
	_, err := r.Status.Read(ctx, client.ObjectKeyFromObject(cdb))
	if err != nil {
		return ctrl.Result{}, err
	}

	outcome := r.Credentials.Run(ctx, cdb)
	log.FromContext(ctx).V(1).Info("credential pipeline finished", "outcome", outcome.String())

	return ctrl.Result{RequeueAfter: steadyRequeueDelay}, nil
}

//nolint:funcorder // action handlers
func (r *CDBootstrapReconciler) applyAll(ctx context.Context, kinds []subresource.Kind, cdb *v1beta1.CDBootstrap) error {
	for _, kind := range kinds {
		_, err := r.Orchestrator.Apply(ctx, kind, cdb)
		if err != nil {
			return err
		}
	}

	return nil
}

// reportFailure flips the status to failed. The pass has already failed, so a
// failing status write is only logged.
//
//nolint:funcorder // error path
func (r *CDBootstrapReconciler) reportFailure(ctx context.Context, cdb *v1beta1.CDBootstrap) {
	err := r.Status.Report(ctx, cdb, false)
	if err != nil {
		log.FromContext(ctx).Error(err, "failed to report failure in status")
	}
}

// SetupWithManager registers the reconciler. Only CDBootstrap is watched.
func (r *CDBootstrapReconciler) SetupWithManager(mgr ctrl.Manager) error {
	//nolint:wrapcheck // controller-runtime builder pattern
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1beta1.CDBootstrap{}, builder.WithPredicates(specOrDeletionChanged{})).
		Named("cdbootstrap").
		WithOptions(controller.Options{
			MaxConcurrentReconciles: r.MaxConcurrentReconciles,
			RateLimiter:             newRateLimiter(r.ErrorRequeueDelay, r.ErrorBackoffMax),
		}).
		Complete(r)
}

// newRateLimiter retries a failing key after base, doubling up to maxDelay,
// while a token bucket bounds the overall queue.
func newRateLimiter(base, maxDelay time.Duration) workqueue.TypedRateLimiter[reconcile.Request] {
	if base <= 0 {
		base = DefaultErrorRequeueDelay
	}

	if maxDelay < base {
		maxDelay = base
	}

	return workqueue.NewTypedMaxOfRateLimiter(
		workqueue.NewTypedItemExponentialFailureRateLimiter[reconcile.Request](base, maxDelay),
		&workqueue.TypedBucketRateLimiter[reconcile.Request]{Limiter: rate.NewLimiter(rate.Limit(queueQPS), queueBurst)},
	)
}
