package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chime/assets"
	"chime/config"
	"chime/logger"
	"chime/playback"
	"chime/sound"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chime",
	Short: "A pooled sound-effect playback service",
	Long: `Chime manages loading, caching and concurrent playback of audio resources
through a bounded pool of reusable playback channels.

Configured sounds are preloaded at startup and played on demand; repeated
triggers of the same sound are spam-protected, and requests that arrive while
every channel is busy are dropped rather than queued.`,
	RunE: runService,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Local flags for the service command
	rootCmd.Flags().Int("sample-rate", 44100, "output sample rate in Hz")
	rootCmd.Flags().Int("channels", 8, "number of playback channels in the pool")
	rootCmd.Flags().String("assets-dir", "./sounds", "directory containing audio assets")
	rootCmd.Flags().Float64("master-volume", 1.0, "master volume multiplier")
	rootCmd.Flags().Bool("monitor", false, "log pool utilization periodically")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	viper.BindPFlag("audio.sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("audio.channels", rootCmd.Flags().Lookup("channels"))
	viper.BindPFlag("audio.assets_dir", rootCmd.Flags().Lookup("assets-dir"))
	viper.BindPFlag("audio.master_volume", rootCmd.Flags().Lookup("master-volume"))
	viper.BindPFlag("monitor.enabled", rootCmd.Flags().Lookup("monitor"))
	viper.BindPFlag("logging.level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.Flags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// service bundles everything the CLI commands need to run playback.
type service struct {
	manager *sound.Manager
	engine  *playback.Engine
	monitor *sound.Monitor
}

// buildService loads configuration, sets up logging and wires the playback
// stack together. The manager is not yet initialized.
func buildService() (*service, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	library := assets.NewLibrary(cfg.Audio.AssetsDir, cfg.Audio.SampleRate)

	engine, err := playback.NewEngine(playback.Config{
		SampleRate: cfg.Audio.SampleRate,
		Buffer:     cfg.Audio.Buffer,
		Channels:   cfg.Audio.Channels,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start playback engine: %w", err)
	}

	pool := sound.NewPool(engine.Channels())

	sounds := make([]*sound.Sound, 0, len(cfg.Sounds))
	for _, def := range cfg.Defs() {
		sounds = append(sounds, sound.New(def))
	}

	manager := sound.NewManager(library, pool, sounds, sound.ManagerOptions{
		MasterVolume:   cfg.Audio.MasterVolume,
		ShutdownUnload: cfg.UnloadSet(),
	})

	svc := &service{manager: manager, engine: engine}
	if cfg.Monitor.Enabled {
		svc.monitor = sound.NewMonitor(pool, cfg.Monitor.Interval)
	}
	return svc, cfg, nil
}

// close tears the service down in reverse construction order.
func (s *service) close() {
	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.manager.Shutdown()
	if err := s.engine.Close(); err != nil {
		fmt.Printf("Error closing playback engine: %v\n", err)
	}
}

// runService starts the playback service and blocks until a signal arrives
func runService(cmd *cobra.Command, args []string) error {
	svc, _, err := buildService()
	if err != nil {
		return err
	}

	if err := svc.manager.Initialize(cmd.Context()); err != nil {
		svc.engine.Close()
		return fmt.Errorf("failed to initialize sound manager: %w", err)
	}
	if svc.monitor != nil {
		svc.monitor.Start()
	}

	// Setup graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signalChan
	fmt.Printf("\nReceived %s, shutting down gracefully...\n", sig)

	svc.close()
	return nil
}
