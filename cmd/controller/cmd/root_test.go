package cmd

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cndev-nl/cdbootstrap-controller/internal/controller"
	"github.com/cndev-nl/cdbootstrap-controller/internal/subresource"
	"github.com/cndev-nl/cdbootstrap-controller/internal/vault"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	v.SetDefault("metrics-addr", ":8080")
	v.SetDefault("health-addr", ":8081")
	v.SetDefault("leader-election-name", defaultLeaderElectionName)
	v.SetDefault("max-concurrent-reconciles", defaultMaxConcurrentReconciles)
	v.SetDefault("agent-image", subresource.DefaultAgentImage)
	v.SetDefault("error-requeue-delay", controller.DefaultErrorRequeueDelay)
	v.SetDefault("error-backoff-max", controller.DefaultErrorRequeueDelay)
	v.SetDefault("vault-timeout", vault.DefaultTimeout)

	for key, value := range overrides {
		v.Set(key, value)
	}

	return v
}

func TestBuildConfig_Defaults(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := buildConfig(newTestViper(nil), logger)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.MetricsAddr)
	assert.Equal(t, ":8081", cfg.HealthAddr)
	assert.Equal(t, defaultLeaderElectionName, cfg.LeaderElectName)
	assert.Equal(t, subresource.DefaultAgentImage, cfg.AgentImage)
	assert.Equal(t, 4, cfg.MaxConcurrentReconciles)
	assert.Equal(t, 5*time.Second, cfg.ErrorRequeueDelay)
	assert.Equal(t, 5*time.Second, cfg.ErrorBackoffMax)
	assert.Equal(t, 30*time.Second, cfg.VaultTimeout)
	assert.False(t, cfg.StrictTemplates)
	assert.Empty(t, cfg.WatchNamespace)
	assert.Same(t, logger, cfg.Logger)
}

func TestBuildConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{
			name:      "agent image without semver tag",
			overrides: map[string]any{"agent-image": "ghcr.io/org/agent:nightly"},
			wantErr:   "invalid --agent-image",
		},
		{
			name:      "zero concurrency",
			overrides: map[string]any{"max-concurrent-reconciles": 0},
			wantErr:   "max-concurrent-reconciles",
		},
		{
			name:      "non positive error delay",
			overrides: map[string]any{"error-requeue-delay": time.Duration(0)},
			wantErr:   "error-requeue-delay",
		},
		{
			name:      "backoff below delay",
			overrides: map[string]any{"error-requeue-delay": 10 * time.Second, "error-backoff-max": time.Second},
			wantErr:   "error-backoff-max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := buildConfig(newTestViper(tt.overrides), slog.Default())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildConfig_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := buildConfig(newTestViper(map[string]any{
		"watch-namespace":           "agents",
		"agent-image":               "registry.local:5000/agent:2.1.0",
		"strict-templates":          true,
		"error-backoff-max":         time.Minute,
		"leader-elect":              true,
		"vault-timeout":             time.Duration(0),
		"max-concurrent-reconciles": 8,
	}), slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "agents", cfg.WatchNamespace)
	assert.Equal(t, "registry.local:5000/agent:2.1.0", cfg.AgentImage)
	assert.True(t, cfg.StrictTemplates)
	assert.Equal(t, time.Minute, cfg.ErrorBackoffMax)
	assert.True(t, cfg.LeaderElect)
	assert.Equal(t, vault.DefaultTimeout, cfg.VaultTimeout)
	assert.Equal(t, 8, cfg.MaxConcurrentReconciles)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
