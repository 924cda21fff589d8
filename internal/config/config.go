// Package config loads and validates screengrab's configuration from
// its YAML file, environment, and flags, in that order of precedence
// reversed (flags win).
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	// Capture defaults.
	Quality   int    `mapstructure:"quality"`
	OutputDir string `mapstructure:"output_dir"`

	// Logging.
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// Watch mode.
	WatchIntervalSeconds int    `mapstructure:"watch_interval_seconds"`
	WatchWorkers         int    `mapstructure:"watch_workers"`
	WatchQueueSize       int    `mapstructure:"watch_queue_size"`
	WatchJobsFile        string `mapstructure:"watch_jobs_file"`

	// Push (websocket delivery to a collection server).
	PushURL   string `mapstructure:"push_url"`
	PushToken string `mapstructure:"push_token"`
	PushProxy string `mapstructure:"push_proxy"` // socks5://host:port

	// Serve (local named-pipe API).
	PipeName       string `mapstructure:"pipe_name"`
	PipeRatePerMin int    `mapstructure:"pipe_rate_per_min"`

	// Upload sink shared by capture --upload and watch jobs.
	UploadProvider string `mapstructure:"upload_provider"` // local, s3, azure, gcs, b2
	UploadPrefix   string `mapstructure:"upload_prefix"`

	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region"`
	S3Endpoint    string `mapstructure:"s3_endpoint"` // custom endpoint for S3-compatible stores
	S3AccessKeyID string `mapstructure:"s3_access_key_id"`
	S3SecretKey   string `mapstructure:"s3_secret_key"`

	AzureConnectionString string `mapstructure:"azure_connection_string"`
	AzureContainer        string `mapstructure:"azure_container"`

	GCSBucket          string `mapstructure:"gcs_bucket"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`

	B2Bucket string `mapstructure:"b2_bucket"`
	B2KeyID  string `mapstructure:"b2_key_id"`
	B2AppKey string `mapstructure:"b2_app_key"`
}

func Default() *Config {
	return &Config{
		Quality:              85,
		LogLevel:             "info",
		LogFormat:            "text",
		LogMaxSizeMB:         20,
		LogMaxBackups:        3,
		WatchIntervalSeconds: 5,
		WatchWorkers:         2,
		WatchQueueSize:       8,
		PipeName:             "screengrab",
		PipeRatePerMin:       120,
		UploadProvider:       "local",
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("screengrab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SCREENGRAB")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("quality", cfg.Quality)
	viper.Set("output_dir", cfg.OutputDir)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
	viper.Set("log_file", cfg.LogFile)
	viper.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	viper.Set("log_max_backups", cfg.LogMaxBackups)
	viper.Set("watch_interval_seconds", cfg.WatchIntervalSeconds)
	viper.Set("watch_workers", cfg.WatchWorkers)
	viper.Set("watch_queue_size", cfg.WatchQueueSize)
	viper.Set("watch_jobs_file", cfg.WatchJobsFile)
	viper.Set("push_url", cfg.PushURL)
	viper.Set("push_token", cfg.PushToken)
	viper.Set("push_proxy", cfg.PushProxy)
	viper.Set("pipe_name", cfg.PipeName)
	viper.Set("pipe_rate_per_min", cfg.PipeRatePerMin)
	viper.Set("upload_provider", cfg.UploadProvider)
	viper.Set("upload_prefix", cfg.UploadPrefix)
	viper.Set("s3_bucket", cfg.S3Bucket)
	viper.Set("s3_region", cfg.S3Region)
	viper.Set("s3_endpoint", cfg.S3Endpoint)
	viper.Set("s3_access_key_id", cfg.S3AccessKeyID)
	viper.Set("s3_secret_key", cfg.S3SecretKey)
	viper.Set("azure_connection_string", cfg.AzureConnectionString)
	viper.Set("azure_container", cfg.AzureContainer)
	viper.Set("gcs_bucket", cfg.GCSBucket)
	viper.Set("gcs_credentials_file", cfg.GCSCredentialsFile)
	viper.Set("b2_bucket", cfg.B2Bucket)
	viper.Set("b2_key_id", cfg.B2KeyID)
	viper.Set("b2_app_key", cfg.B2AppKey)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "screengrab.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// Restrict to owner-only access (may contain the push token and
	// storage credentials).
	return os.Chmod(cfgPath, 0600)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "Breeze", "Screengrab")
	case "darwin":
		return "/Library/Application Support/Breeze/Screengrab"
	default:
		return "/etc/breeze/screengrab"
	}
}
