package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/cndev-nl/cdbootstrap-controller/internal/controller"
	"github.com/cndev-nl/cdbootstrap-controller/internal/subresource"
	"github.com/cndev-nl/cdbootstrap-controller/internal/vault"
)

const (
	defaultLeaderElectionName      = "cdbootstrap-controller-leader"
	defaultMaxConcurrentReconciles = 4
)

//nolint:gochecknoglobals // set by SetVersion from main
var (
	version = "development"
	gitsha  = "development"
)

func SetVersion(ver, sha string) {
	version = ver
	gitsha = sha
}

//nolint:gochecknoglobals // cobra command pattern
var rootCmd = &cobra.Command{
	Use:   "cdbootstrap-controller",
	Short: "Kubernetes controller for CDBootstrap build agent pools",
	Long: `A Kubernetes controller that reconciles CDBootstrap resources.
For every CDBootstrap it maintains an agent Deployment, its ConfigMap and Secret
and an egress NetworkPolicy, and fetches the agent token from Azure Key Vault
when only a service principal secret is provided.`,
	RunE:          runController,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	rootCmd.Flags().String("metrics-addr", ":8080", "Address for metrics endpoint")
	rootCmd.Flags().String("health-addr", ":8081", "Address for health probe endpoint")
	rootCmd.Flags().String("watch-namespace", "", "Only reconcile CDBootstraps in this namespace (default all namespaces)")
	rootCmd.Flags().Int("max-concurrent-reconciles", defaultMaxConcurrentReconciles, "Number of CDBootstraps reconciled in parallel")

	// Leader election flags
	rootCmd.Flags().Bool("leader-elect", false, "Enable leader election for high availability")
	rootCmd.Flags().String("leader-election-namespace", "", "Namespace for leader election lease (defaults to controller namespace)")
	rootCmd.Flags().String("leader-election-name", defaultLeaderElectionName, "Name of the leader election lease")

	// Dependent object flags
	rootCmd.Flags().String("agent-image", subresource.DefaultAgentImage, "Agent image; the tag must be latest or a semantic version")
	rootCmd.Flags().Bool("strict-templates", false, "Fail instead of creating an empty object when a template cannot be built")

	// Retry and vault flags
	rootCmd.Flags().Duration("error-requeue-delay", controller.DefaultErrorRequeueDelay, "Delay before a failed reconciliation is retried")
	rootCmd.Flags().Duration("error-backoff-max", controller.DefaultErrorRequeueDelay, "Upper bound of the retry delay for repeatedly failing reconciliations")
	rootCmd.Flags().Duration("vault-timeout", vault.DefaultTimeout, "Timeout of a single Azure Key Vault call")

	_ = viper.BindPFlags(rootCmd.Flags())
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix("CDB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("metrics-addr", ":8080")
	viper.SetDefault("health-addr", ":8081")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "json")
	viper.SetDefault("leader-elect", false)
	viper.SetDefault("leader-election-name", defaultLeaderElectionName)
	viper.SetDefault("max-concurrent-reconciles", defaultMaxConcurrentReconciles)
	viper.SetDefault("agent-image", subresource.DefaultAgentImage)
	viper.SetDefault("strict-templates", false)
	viper.SetDefault("error-requeue-delay", controller.DefaultErrorRequeueDelay)
	viper.SetDefault("error-backoff-max", controller.DefaultErrorRequeueDelay)
	viper.SetDefault("vault-timeout", vault.DefaultTimeout)
}

func Execute() error {
	return errors.Wrap(rootCmd.Execute(), "command execution failed")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(viper.GetString("log-level")),
	}

	var handler slog.Handler
	if viper.GetString("log-format") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// buildConfig resolves and validates the controller configuration from v.
//
//nolint:wrapcheck // errors.Newf creates new errors
func buildConfig(v *viper.Viper, logger *slog.Logger) (*controller.Config, error) {
	agentImage := v.GetString("agent-image")

	err := subresource.ValidateImage(agentImage)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --agent-image")
	}

	maxConcurrent := v.GetInt("max-concurrent-reconciles")
	if maxConcurrent < 1 {
		return nil, errors.Newf("max-concurrent-reconciles must be at least 1, got %d", maxConcurrent)
	}

	errorDelay := v.GetDuration("error-requeue-delay")
	if errorDelay <= 0 {
		return nil, errors.Newf("error-requeue-delay must be positive, got %s", errorDelay)
	}

	backoffMax := v.GetDuration("error-backoff-max")
	if backoffMax < errorDelay {
		return nil, errors.Newf("error-backoff-max (%s) must not be lower than error-requeue-delay (%s)", backoffMax, errorDelay)
	}

	vaultTimeout := v.GetDuration("vault-timeout")
	if vaultTimeout <= 0 {
		vaultTimeout = vault.DefaultTimeout
	}

	return &controller.Config{
		MetricsAddr: v.GetString("metrics-addr"),
		HealthAddr:  v.GetString("health-addr"),

		LeaderElect:     v.GetBool("leader-elect"),
		LeaderElectNS:   v.GetString("leader-election-namespace"),
		LeaderElectName: v.GetString("leader-election-name"),

		WatchNamespace:          v.GetString("watch-namespace"),
		MaxConcurrentReconciles: maxConcurrent,

		AgentImage:      agentImage,
		StrictTemplates: v.GetBool("strict-templates"),

		ErrorRequeueDelay: errorDelay,
		ErrorBackoffMax:   backoffMax,
		VaultTimeout:      vaultTimeout,

		Logger: logger,
	}, nil
}

//nolint:noinlineerr // inline error handling is fine here
func runController(_ *cobra.Command, _ []string) error {
	logger := setupLogger()
	slog.SetDefault(logger)

	ctrl.SetLogger(logr.FromSlogHandler(logger.Handler()))

	logger.Info("starting cdbootstrap-controller",
		"version", version,
		"gitsha", gitsha,
	)

	cfg, err := buildConfig(viper.GetViper(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := controller.Run(ctx, cfg); err != nil {
		return errors.Wrap(err, "failed to run controller")
	}

	return nil
}
