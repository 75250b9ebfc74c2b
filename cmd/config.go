package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"chime/config"
	"chime/logger"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing and validating chime configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging for validation
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Validate configuration
		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		slog.Info("Configuration is valid")
		fmt.Println("✅ Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Current Configuration:")
		fmt.Printf("  Audio:\n")
		fmt.Printf("    Sample rate: %d Hz\n", cfg.Audio.SampleRate)
		fmt.Printf("    Buffer: %s\n", cfg.Audio.Buffer)
		fmt.Printf("    Channels: %d\n", cfg.Audio.Channels)
		fmt.Printf("    Assets dir: %s\n", cfg.Audio.AssetsDir)
		fmt.Printf("    Master volume: %.2f\n", cfg.Audio.MasterVolume)
		fmt.Printf("  Shutdown:\n")
		fmt.Printf("    Unload: %s\n", cfg.Shutdown.Unload)
		fmt.Printf("  Monitor:\n")
		fmt.Printf("    Enabled: %v\n", cfg.Monitor.Enabled)
		fmt.Printf("    Interval: %s\n", cfg.Monitor.Interval)
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level: %s\n", cfg.Logging.Level)
		fmt.Printf("    Format: %s\n", cfg.Logging.Format)
		fmt.Printf("  Sounds (%d):\n", len(cfg.Sounds))
		for _, s := range cfg.Sounds {
			flags := describeSound(s)
			fmt.Printf("    %-30s volume=%.2f pitch=%.2f%s\n", s.Key, s.Volume, s.Pitch, flags)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

// describeSound summarizes a sound's flags for display
func describeSound(s config.SoundConfig) string {
	var parts []string
	if s.Loop {
		parts = append(parts, "loop")
	}
	if s.Spam != "" {
		parts = append(parts, "spam="+s.Spam)
	}
	if s.Preload {
		parts = append(parts, "preload")
	}
	if s.UnloadOnShutdown {
		parts = append(parts, "unload-on-shutdown")
	}
	if len(s.Labels) > 0 {
		parts = append(parts, "labels="+strings.Join(s.Labels, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, " ") + "]"
}
