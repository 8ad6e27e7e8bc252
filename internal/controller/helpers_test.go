package controller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/cndev-nl/cdbootstrap-controller/api/v1beta1"
	"github.com/cndev-nl/cdbootstrap-controller/internal/credential"
	"github.com/cndev-nl/cdbootstrap-controller/internal/metrics"
	"github.com/cndev-nl/cdbootstrap-controller/internal/subresource"
	"github.com/cndev-nl/cdbootstrap-controller/internal/vault"
)

const (
	testName      = "demo"
	testNamespace = "ns1"
)

func newTestScheme(t *testing.T) *runtime.Scheme {
	t.Helper()

	scheme := runtime.NewScheme()
	require.NoError(t, v1beta1.AddToScheme(scheme))
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, appsv1.AddToScheme(scheme))
	require.NoError(t, networkingv1.AddToScheme(scheme))

	return scheme
}

func newTestCDBootstrap(replicas int32) *v1beta1.CDBootstrap {
	return &v1beta1.CDBootstrap{
		ObjectMeta: metav1.ObjectMeta{
			Name:       testName,
			Namespace:  testNamespace,
			Generation: 1,
		},
		Spec: v1beta1.CDBootstrapSpec{
			Replicas: replicas,
			URL:      "https://x",
			Pool:     "p1",
			KeyVault: "https://kv.vault.azure.net",
			SPN:      "client-id",
			Tenant:   "tenant-id",
		},
	}
}

func testRequest() ctrl.Request {
	return ctrl.Request{NamespacedName: types.NamespacedName{Name: testName, Namespace: testNamespace}}
}

// stubVault hands out a fixed token per namespace and counts authentications.
type stubVault struct {
	mu        sync.Mutex
	authCalls int
	tokens    map[string]string
	authErr   error
}

func (s *stubVault) Authenticate(_ context.Context, _ vault.AuthRequest) (vault.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authCalls++
	if s.authErr != nil {
		return nil, s.authErr
	}

	return s, nil
}

func (s *stubVault) GetSecret(_ context.Context, name string) (string, error) {
	token, ok := s.tokens[name]
	if !ok {
		return "", vault.ErrSecretNotFound
	}

	return token, nil
}

func newTestClientBuilder(t *testing.T, objs ...client.Object) *fake.ClientBuilder {
	t.Helper()

	return fake.NewClientBuilder().
		WithScheme(newTestScheme(t)).
		WithStatusSubresource(&v1beta1.CDBootstrap{}).
		WithObjects(objs...)
}

func newTestReconciler(c client.Client, v vault.Vault) *CDBootstrapReconciler {
	collector := metrics.NewNoopCollector()
	orchestrator := subresource.NewOrchestrator(c, subresource.Options{}, collector)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &CDBootstrapReconciler{
		Client:            c,
		Orchestrator:      orchestrator,
		Finalizer:         NewFinalizer(c),
		Status:            NewStatusReporter(c, collector),
		Credentials:       credential.NewPipeline(orchestrator, v, logger, collector),
		Metrics:           collector,
		ErrorRequeueDelay: DefaultErrorRequeueDelay,
		ErrorBackoffMax:   DefaultErrorRequeueDelay,
	}
}

// callRecorder records mutating client calls in order.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)
}

func (r *callRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

func kindOf(obj client.Object) string {
	switch obj.(type) {
	case *appsv1.Deployment:
		return subresource.Workload.String()
	case *corev1.ConfigMap:
		return subresource.Config.String()
	case *corev1.Secret:
		return subresource.Secret.String()
	case *networkingv1.NetworkPolicy:
		return subresource.Policy.String()
	case *v1beta1.CDBootstrap:
		return "CDBootstrap"
	default:
		return "unknown"
	}
}

// recordingFuncs records every create, update, delete, patch and status patch.
// failOn returns an error for the named call, e.g. "delete Secret".
func recordingFuncs(rec *callRecorder, failOn map[string]error) interceptor.Funcs {
	check := func(call string) error {
		rec.add(call)

		return failOn[call]
	}

	return interceptor.Funcs{
		Create: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
			if err := check("create " + kindOf(obj)); err != nil {
				return err
			}

			return c.Create(ctx, obj, opts...)
		},
		Update: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.UpdateOption) error {
			if err := check("update " + kindOf(obj)); err != nil {
				return err
			}

			return c.Update(ctx, obj, opts...)
		},
		Delete: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.DeleteOption) error {
			if err := check("delete " + kindOf(obj)); err != nil {
				return err
			}

			return c.Delete(ctx, obj, opts...)
		},
		Patch: func(
			ctx context.Context,
			c client.WithWatch,
			obj client.Object,
			patch client.Patch,
			opts ...client.PatchOption,
		) error {
			if err := check("patch " + kindOf(obj)); err != nil {
				return err
			}

			return c.Patch(ctx, obj, patch, opts...)
		},
		SubResourcePatch: func(
			ctx context.Context,
			c client.Client,
			subResourceName string,
			obj client.Object,
			patch client.Patch,
			opts ...client.SubResourcePatchOption,
		) error {
			if err := check("patch " + subResourceName + " " + kindOf(obj)); err != nil {
				return err
			}

			return c.SubResource(subResourceName).Patch(ctx, obj, patch, opts...)
		},
	}
}
