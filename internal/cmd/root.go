// Package cmd provides the command-line interface for pwascout.
// It handles command parsing, configuration loading, and wiring of the crawl engine.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/pwascout/internal/config"
)

const (
	configName = "pwascout"
	envPrefix  = "PWA"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pwascout",
	Short: "A web crawler that catalogs hosts serving installable web apps",
	Long: `pwascout crawls the web host by host, starting from seed URLs.

Each newly discovered host is fetched once, checked for a web app manifest,
and recorded. Links to hosts not seen before are queued for later crawling.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the top-level command
func Root() *cobra.Command {
	return rootCmd
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// flagBindings maps command-line flags onto configuration keys
var flagBindings = []struct {
	viperKey string
	flagName string
}{
	{"database.driver", "db-driver"},
	{"database.dsn", "db-dsn"},
	{"redis.address", "redis-addr"},
	{"redis.queue_key", "queue-key"},
	{"log.level", "log-level"},
	{"log.format", "log-format"},
	{"log.file", "log-file"},
	{"timezone", "timezone"},
	{"worker_timeout", "worker-timeout"},
	{"drain_delay", "delay"},
	{"metrics_addr", "metrics-addr"},
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pwascout.yml)")

	rootCmd.PersistentFlags().String("db-driver", "sqlite", "Visited store driver: 'sqlite' or 'postgres'")
	rootCmd.PersistentFlags().String("db-dsn", "./pwascout.db", "SQLite file path or PostgreSQL connection string")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address holding the frontier")
	rootCmd.PersistentFlags().String("queue-key", "urls", "Redis list used as the frontier")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file, rotated by size")
	rootCmd.PersistentFlags().String("timezone", "Local", "IANA zone used for crawl timestamps")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	rootCmd.AddCommand(seedCmd, drainCmd, pwasCmd, showCmd, queueCmd)
}

// loadDotEnv reads ./.env into the process environment when present
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}
}

// loadConfig merges defaults, the config file, PWA_ environment variables
// and command-line flags, in increasing order of priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	cfg := config.DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, bind := range flagBindings {
		flag := cmd.Flags().Lookup(bind.flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(bind.viperKey, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", bind.flagName, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so environment variables can override it
func setDefaults(v *viper.Viper, cfg *config.Config) {
	v.SetDefault("user_agents", cfg.UserAgents)
	v.SetDefault("headers", cfg.Headers)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("max_body_bytes", cfg.MaxBodyBytes)
	v.SetDefault("skip_words", cfg.SkipWords)
	v.SetDefault("domain_threshold", cfg.DomainThreshold)
	v.SetDefault("worker_timeout", cfg.WorkerTimeout)
	v.SetDefault("drain_delay", cfg.DrainDelay)
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)

	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.dsn", cfg.Database.DSN)

	v.SetDefault("redis.address", cfg.Redis.Address)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.queue_key", cfg.Redis.QueueKey)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.console", cfg.Log.Console)
}

func runRoot(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")
	if !showConfig {
		return cmd.Help()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return showCurrentConfig(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
}

func showCurrentConfig(out, errOut io.Writer, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(errOut, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(out, "# Current pwascout Configuration\n")
	fmt.Fprintf(out, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(out, "# Configuration file search paths: ./%s.yml\n", configName)
	fmt.Fprintf(out, "# Environment variables prefix: %s_\n\n", envPrefix)

	fmt.Fprint(out, string(yamlData))

	fmt.Fprintf(out, "\n# Configuration source priority:\n")
	fmt.Fprintf(out, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(out, "# 2. Environment variables (%s_ prefix)\n", envPrefix)
	fmt.Fprintf(out, "# 3. Configuration file (%s.yml)\n", configName)
	fmt.Fprintf(out, "# 4. Default values (lowest priority)\n")

	return nil
}
