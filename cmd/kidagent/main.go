// Package main is the CLI entry point for kidagent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kidcan/agent/internal/command"
	"github.com/kidcan/agent/internal/daemon"
	"github.com/kidcan/agent/internal/domain"
	"github.com/kidcan/agent/internal/infra"
	"github.com/kidcan/agent/internal/policy"
	"github.com/kidcan/agent/internal/syncclient"
	"github.com/kidcan/agent/internal/tracking"
	"github.com/kidcan/agent/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	loadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kidagent",
	Short: "Parental-control agent - app blocking and location tracking",
	Long: `kidagent is the device-side agent of a parental-control service.
It blocks configured apps behind a shield overlay, reports location and
battery to the sync backend, and executes remote commands (siren,
tracking boost, config updates) from the command spool.`,
	Version: Version,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the agent in the foreground",
	Long: `Runs the agent until SIGINT or SIGTERM: foreground-app monitoring
with shield enforcement, location and battery sync loops, and the remote
command dispatcher.`,
	RunE: runStart,
}

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair this device with a child account",
	Long: `Stores the child id and device id in the encrypted config store.
When --device-id is omitted a fresh UUID is generated.`,
	RunE: runPair,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pairing and tracking configuration",
	RunE:  runStatus,
}

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Demonstrate a timed block session",
	Long: `Runs a one-shot block session against a fresh policy engine and
prints the shield state. Useful for verifying shield wiring without the
full agent.`,
	RunE: runBlock,
}

var unblockCmd = &cobra.Command{
	Use:   "unblock",
	Short: "Demonstrate cancelling a block session",
	RunE:  runUnblock,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	pairChildID  int
	pairDeviceID string
	blockMinutes int
	blockMessage string
	jsonOutput   bool
)

func init() {
	pairCmd.Flags().IntVar(&pairChildID, "child-id", 0, "Child account id (required)")
	pairCmd.Flags().StringVar(&pairDeviceID, "device-id", "", "Device id (generated when omitted)")
	_ = pairCmd.MarkFlagRequired("child-id")
	blockCmd.Flags().IntVar(&blockMinutes, "minutes", 30, "Block duration in minutes")
	blockCmd.Flags().StringVar(&blockMessage, "message", "Focus time", "Shield message")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
	rootCmd.AddCommand(versionCmd)
}

// agentConfig is the environment-derived deployment configuration.
type agentConfig struct {
	DataDir         string
	LocationSyncURL string
	BatterySyncURL  string
	APIKey          string
	SirenClip       string
}

func loadConfig() agentConfig {
	return agentConfig{
		DataDir:         envOr("KIDAGENT_DATA_DIR", "/var/tmp/kidagent"),
		LocationSyncURL: envOr("KIDAGENT_LOCATION_SYNC_URL", "https://api.kidcan.app/functions/v1/location-sync"),
		BatterySyncURL:  envOr("KIDAGENT_BATTERY_SYNC_URL", "https://api.kidcan.app/functions/v1/battery-sync"),
		APIKey:          os.Getenv("KIDAGENT_API_KEY"),
		SirenClip:       envOr("KIDAGENT_SIREN_CLIP", "/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads an optional env file before cobra runs. Missing
// files are fine; the environment wins over file values.
func loadEnvFile() {
	path := envOr("KIDAGENT_ENV_FILE", ".env")
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

func openStore(cfg agentConfig) (*infra.EncryptedConfigStore, error) {
	key, err := infra.NewFileKeyProvider(cfg.DataDir).EnsureKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	store, err := infra.OpenConfigStore(cfg.DataDir, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open config store: %w", err)
	}
	return store, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := policy.NewEngine(policy.DefaultWhitelist(infra.EnvDefaultApps{}))
	shield := infra.NewOverlayShield(logger)
	session := usecase.NewBlockSession(engine, shield, logger)
	monitor := usecase.NewForegroundMonitor(engine, session, shield, logger)

	trackingSvc := tracking.NewService(
		store,
		infra.NewFilePositionProvider(cfg.DataDir),
		infra.NewSysfsBatteryReader(),
		syncclient.NewLocationClient(cfg.LocationSyncURL, cfg.APIKey, logger),
		syncclient.NewBatteryClient(cfg.BatterySyncURL, cfg.APIKey, logger),
		infra.NewFileWakeClaim(cfg.DataDir),
		logger,
	)

	audio := infra.NewAmixerAudioController(infra.ExecCommandRunner{})
	siren := command.NewSiren(audio, cfg.SirenClip, logger)
	dispatcher := command.NewDispatcher(store, trackingSvc, siren, logger)

	foreground := infra.NewProcessForegroundSource(logger)
	commands := infra.NewSpoolCommandSource(cfg.DataDir, logger)

	agent := daemon.New(engine, session, monitor, trackingSvc, dispatcher, foreground, commands, logger)

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	go func() {
		if err := commands.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("command spool stopped", zap.Error(err))
		}
	}()

	fmt.Printf("kidagent %s started (data dir: %s)\n", Version, cfg.DataDir)

	if err := agent.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	return nil
}

func runPair(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	deviceID := pairDeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	id := domain.DeviceIdentity{ChildID: pairChildID, DeviceID: deviceID}
	if err := store.SaveIdentity(id); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}

	fmt.Println("\n=== kidagent Paired ===")
	fmt.Printf("Child id:  %d\n", id.ChildID)
	fmt.Printf("Device id: %s\n", id.DeviceID)
	fmt.Println("=======================")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Println("\n=== kidagent Status ===")

	id, err := store.Identity()
	if err != nil {
		return fmt.Errorf("failed to read identity: %w", err)
	}
	if id == nil {
		fmt.Println("Pairing: NOT PAIRED")
		fmt.Println("\nRun 'kidagent pair --child-id N' to pair this device.")
	} else {
		fmt.Println("Pairing: PAIRED")
		fmt.Printf("  Child id:  %d\n", id.ChildID)
		fmt.Printf("  Device id: %s\n", id.DeviceID)
	}

	tc, err := store.TrackingConfig()
	if err != nil {
		return fmt.Errorf("failed to read tracking config: %w", err)
	}
	fmt.Println("\nTracking intervals:")
	fmt.Printf("  Location base:  %s\n", time.Duration(tc.BaseLocationMs)*time.Millisecond)
	fmt.Printf("  Location boost: %s\n", time.Duration(tc.BoostLocationMs)*time.Millisecond)
	fmt.Printf("  Battery base:   %s\n", time.Duration(tc.BaseBatteryMs)*time.Millisecond)
	fmt.Printf("  Battery boost:  %s\n", time.Duration(tc.BoostBatteryMs)*time.Millisecond)

	fmt.Println("=======================")
	return nil
}

func runBlock(cmd *cobra.Command, args []string) error {
	if blockMinutes <= 0 {
		return fmt.Errorf("--minutes must be positive, got %d", blockMinutes)
	}

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	engine := policy.NewEngine(policy.DefaultWhitelist(infra.EnvDefaultApps{}))
	shield := infra.NewOverlayShield(logger)
	session := usecase.NewBlockSession(engine, shield, logger)

	session.BlockForDuration(blockMinutes, blockMessage)

	fmt.Println("\n=== Block Session ===")
	fmt.Printf("Blocking enabled for %d minutes\n", blockMinutes)
	fmt.Printf("Shield message: %q\n", session.ShieldMessage())
	fmt.Printf("Remaining: %s\n", session.Remaining().Round(time.Second))
	fmt.Println("\nNote: this session lives only for this invocation. The running")
	fmt.Println("agent manages its own sessions from remote commands.")
	fmt.Println("=====================")

	session.CancelBlock()
	return nil
}

func runUnblock(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	engine := policy.NewEngine(policy.DefaultWhitelist(infra.EnvDefaultApps{}))
	shield := infra.NewOverlayShield(logger)
	session := usecase.NewBlockSession(engine, shield, logger)

	session.BlockForDuration(1, "")
	session.CancelBlock()

	fmt.Println("\n=== Block Session ===")
	fmt.Printf("Blocking enabled: %v\n", engine.BlockingEnabled())
	fmt.Printf("Session active:   %v\n", session.Active())
	fmt.Println("=====================")
	return nil
}

func createLogger() *zap.Logger {
	logPath := envOr("KIDAGENT_LOG_PATH", "/var/tmp/kidagent.log")

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logPath}
	config.ErrorOutputPaths = []string{logPath}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("kidagent %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
