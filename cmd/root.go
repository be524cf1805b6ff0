package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile        string
	dataURL        string
	watchDir       string
	dbPath         string
	redisURL       string
	gateDigest     string
	exportArtifact string
	exportDir      string
	sessionID      string
	logLevel       string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pericias-console",
	Short: "Terminal viewer for the pericias case-tracking dataset",
	Long: `Pericias Console is a terminal viewer for a case-tracking dataset of
pericias (expert examinations). It loads the case index from a JSON data
source, filters it by case number and estado, and drills into per-case
detail tables.

Features:
- Live index loading with search and estado filtering
- Case drill-down with the pericias sorted by identifier
- Passphrase-gated export of the official matrix workbook (XLSX)
- SQLite-backed session state and activity log
- Optional Redis Streams activity publishing`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pericias-console.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataURL, "data-url", "http://localhost:8080/data", "Base URL of the JSON data source")
	rootCmd.PersistentFlags().StringVar(&watchDir, "watch-dir", "", "Local data directory to watch for changes (optional)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/pericias-console.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis connection URL for activity publishing (optional)")
	rootCmd.PersistentFlags().StringVar(&gateDigest, "gate-digest", "", "SHA-256 hex digest overriding the built-in export gate passphrase")
	rootCmd.PersistentFlags().StringVar(&exportArtifact, "export-artifact", "./exports/Matriz_Oficial.xlsx", "Path of the generated matrix workbook")
	rootCmd.PersistentFlags().StringVar(&exportDir, "export-dir", "./downloads", "Directory receiving downloaded exports")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "Session ID to resume (default: a fresh one per launch)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("data.url", rootCmd.PersistentFlags().Lookup("data-url"))
	viper.BindPFlag("data.watch_dir", rootCmd.PersistentFlags().Lookup("watch-dir"))
	viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("gate.digest", rootCmd.PersistentFlags().Lookup("gate-digest"))
	viper.BindPFlag("export.artifact", rootCmd.PersistentFlags().Lookup("export-artifact"))
	viper.BindPFlag("export.dir", rootCmd.PersistentFlags().Lookup("export-dir"))
	viper.BindPFlag("session.id", rootCmd.PersistentFlags().Lookup("session"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load .env before viper so AutomaticEnv sees the values.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pericias-console" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pericias-console")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Set defaults
	viper.SetDefault("data.url", "http://localhost:8080/data")
	viper.SetDefault("data.watch_dir", "")
	viper.SetDefault("database.path", "./data/pericias-console.db")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("gate.digest", "")
	viper.SetDefault("export.artifact", "./exports/Matriz_Oficial.xlsx")
	viper.SetDefault("export.dir", "./downloads")
	viper.SetDefault("session.id", "")
	viper.SetDefault("log.level", "info")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	return Config{
		Data: DataConfig{
			URL:      viper.GetString("data.url"),
			WatchDir: viper.GetString("data.watch_dir"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
		Gate: GateConfig{
			Digest: viper.GetString("gate.digest"),
		},
		Export: ExportConfig{
			Artifact: viper.GetString("export.artifact"),
			Dir:      viper.GetString("export.dir"),
		},
		Session: SessionConfig{
			ID: viper.GetString("session.id"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
}

// Config represents the application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Gate     GateConfig     `mapstructure:"gate"`
	Export   ExportConfig   `mapstructure:"export"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

type DataConfig struct {
	URL      string `mapstructure:"url"`
	WatchDir string `mapstructure:"watch_dir"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type GateConfig struct {
	Digest string `mapstructure:"digest"`
}

type ExportConfig struct {
	Artifact string `mapstructure:"artifact"`
	Dir      string `mapstructure:"dir"`
}

type SessionConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
