package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BTreeMap/PulseBot/internal/util"
)

// Default configuration constants
const (
	// DefaultListenAddr is the default address of the survey API
	DefaultListenAddr = ":3000"
	// DefaultMetricsAddr is the default address of the Prometheus listener
	DefaultMetricsAddr = ":2112"
)

// Config holds environment configuration
type Config struct {
	ListenAddr        string
	MetricsAddr       string
	DatabaseURL       string
	QuestionnairePath string
	KnowledgePath     string
	Debug             bool
}

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	rootCmd := newRootCommand(config)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("PulseBot failed to run", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(config Config) *cobra.Command {
	debug := config.Debug
	rootCmd := &cobra.Command{
		Use:   "PulseBot",
		Short: "Adaptive customer feedback survey chatbot",
		Long: `PulseBot runs a scripted, adaptive feedback interview. It asks a fixed set of
questions, validates each answer, asks a follow-up after every rating, attaches
related knowledge snippets to its replies, and ends with a short summary.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("debug") {
				initializeLogger(debug)
			}
			slog.Debug("debug logging enabled")
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", config.Debug, "enable debug logging (overrides $PULSEBOT_DEBUG)")

	rootCmd.AddCommand(
		NewServeCommand(config),
		NewChatCommand(config),
		NewResultsCommand(config),
	)
	return rootCmd
}

// initializeLogger installs a text handler as the default slog logger.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		ListenAddr:        util.ListenAddr(util.GetenvDefault("PORT", DefaultListenAddr)),
		MetricsAddr:       DefaultMetricsAddr,
		DatabaseURL:       util.GetenvDefault("DATABASE_URL", ""),
		QuestionnairePath: util.GetenvDefault("PULSEBOT_QUESTIONNAIRE", ""),
		KnowledgePath:     util.GetenvDefault("PULSEBOT_KNOWLEDGE", ""),
		Debug:             util.ParseBoolEnv("PULSEBOT_DEBUG", false),
	}

	// An explicitly empty METRICS_ADDR disables the metrics listener.
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		config.MetricsAddr = util.ListenAddr(v)
	}

	slog.Debug("environment variables loaded",
		"PORT", config.ListenAddr,
		"METRICS_ADDR", config.MetricsAddr,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"PULSEBOT_QUESTIONNAIRE", config.QuestionnairePath,
		"PULSEBOT_KNOWLEDGE", config.KnowledgePath,
		"PULSEBOT_DEBUG", config.Debug)

	return config
}
