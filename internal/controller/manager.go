package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/credential"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
	"github.com/cndev-nl/cdbootstrap-controller/internal/subresource"
	"github.com/cndev-nl/cdbootstrap-controller/internal/vault"
)

// Config holds all configuration options for the controller manager.
// Values are typically populated from CLI flags or environment variables.
type Config struct {
	// MetricsAddr is the address for the Prometheus metrics endpoint.
	MetricsAddr string

	// HealthAddr is the address for health and readiness probe endpoints.
	HealthAddr string

	// LeaderElect enables leader election for high availability.
	// Required when running multiple replicas.
	LeaderElect bool

	// LeaderElectNS is the namespace for the leader election lease.
	LeaderElectNS string

	// LeaderElectName is the name of the leader election lease.
	LeaderElectName string

	// WatchNamespace restricts the cache to a single namespace. Empty watches all namespaces.
	WatchNamespace string

	// MaxConcurrentReconciles bounds how many distinct CDBootstraps are reconciled at once.
	MaxConcurrentReconciles int

	// AgentImage is the container image run by every Workload.
	AgentImage string

	// ErrorRequeueDelay is the delay before a failed pass is retried.
	ErrorRequeueDelay time.Duration

	// ErrorBackoffMax caps the failure backoff.
	ErrorBackoffMax time.Duration

	// StrictTemplates fails an apply when a template cannot be constructed.
	StrictTemplates bool

	// VaultTimeout bounds each vault call.
	VaultTimeout time.Duration

	// Logger is used by components outside the reconcile loop.
	Logger *slog.Logger
}

// NewScheme returns a scheme with the client-go types and CDBootstrap registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()

	err := clientgoscheme.AddToScheme(scheme)
	if err != nil {
		return nil, errors.Wrap(err, "failed to add client-go scheme")
	}

	err = v1beta1.AddToScheme(scheme)
	if err != nil {
		return nil, errors.Wrap(err, "failed to add cdbootstrap scheme")
	}

	return scheme, nil
}

// Run initializes and starts the controller manager with the provided configuration
// and blocks until the context is cancelled or an error occurs.
//
// The function performs the following steps:
//  1. Builds the scheme and the ctrl.Manager with metrics, health endpoints and optional leader election
//  2. Wires the subresource orchestrator, the Azure vault and the credential pipeline
//  3. Sets up the CDBootstrapReconciler
//  4. Starts the manager and blocks until shutdown
//
//nolint:funlen,noinlineerr // controller setup requires multiple steps
func Run(ctx context.Context, cfg *Config) error {
	logger := log.FromContext(ctx).WithName("manager")
	logger.Info("initializing controller manager")

	slogger := cfg.Logger
	if slogger == nil {
		slogger = slog.Default()
	}

	scheme, err := NewScheme()
	if err != nil {
		return err
	}

	mgrOptions := ctrl.Options{
		Scheme: scheme,
		Metrics: server.Options{
			BindAddress: cfg.MetricsAddr,
		},
		HealthProbeBindAddress: cfg.HealthAddr,
	}

	if cfg.WatchNamespace != "" {
		mgrOptions.Cache = cache.Options{
			DefaultNamespaces: map[string]cache.Config{cfg.WatchNamespace: {}},
		}

		logger.Info("restricting cache to namespace", "namespace", cfg.WatchNamespace)
	}

	if cfg.LeaderElect {
		mgrOptions.LeaderElection = true
		mgrOptions.LeaderElectionID = cfg.LeaderElectName
		mgrOptions.LeaderElectionNamespace = cfg.LeaderElectNS

		logger.Info("leader election enabled",
			"id", cfg.LeaderElectName,
			"namespace", cfg.LeaderElectNS,
		)
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), mgrOptions)
	if err != nil {
		return errors.Wrap(err, "failed to create manager")
	}

	collector := metrics.NewCollector(ctrlmetrics.Registry)

	orchestrator := subresource.NewOrchestrator(mgr.GetClient(), subresource.Options{
		AgentImage:      cfg.AgentImage,
		StrictTemplates: cfg.StrictTemplates,
	}, collector)

	azureVault := vault.NewAzureVault(slogger, collector, cfg.VaultTimeout)

	reconciler := &CDBootstrapReconciler{
		Client:                  mgr.GetClient(),
		Orchestrator:            orchestrator,
		Finalizer:               NewFinalizer(mgr.GetClient()),
		Status:                  NewStatusReporter(mgr.GetClient(), collector),
		Credentials:             credential.NewPipeline(orchestrator, azureVault, slogger, collector),
		Metrics:                 collector,
		MaxConcurrentReconciles: cfg.MaxConcurrentReconciles,
		ErrorRequeueDelay:       cfg.ErrorRequeueDelay,
		ErrorBackoffMax:         cfg.ErrorBackoffMax,
	}

	if err := reconciler.SetupWithManager(mgr); err != nil {
		return errors.Wrap(err, "failed to setup cdbootstrap controller")
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return errors.Wrap(err, "failed to set up health check")
	}

	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return errors.Wrap(err, "failed to set up ready check")
	}

	logger.Info("starting manager",
		"agentImage", cfg.AgentImage,
		"strictTemplates", cfg.StrictTemplates,
		"maxConcurrentReconciles", cfg.MaxConcurrentReconciles,
	)

	if err := mgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start manager")
	}

	return nil
}
