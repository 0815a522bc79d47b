package config

// Config represents the complete bulkd configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Batch   BatchConfig   `yaml:"batch"`
	Journal JournalConfig `yaml:"journal,omitempty"`
	API     APIConfig     `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	// PIDFile guards against a second daemon sharing the output tree.
	PIDFile string `yaml:"pid_file"`
}

// BatchConfig defines batching and sink settings.
type BatchConfig struct {
	// DefaultCapacity is the size threshold used for sessions that do not
	// request their own capacity.
	DefaultCapacity int `yaml:"default_capacity"`
	// FileWorkers is the number of workers draining the file sink queue.
	FileWorkers int `yaml:"file_workers"`
	// OutputDir is where per-batch artifacts are written.
	OutputDir string `yaml:"output_dir"`
}

// JournalConfig defines the durable batch journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// APIConfig defines HTTP ingest API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	// APIKey is an optional bearer token. Empty disables auth.
	APIKey string `yaml:"api_key"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "bulkd",
			LogLevel: "info",
			PIDFile:  "./data/bulkd.pid",
		},
		Batch: BatchConfig{
			DefaultCapacity: 3,
			FileWorkers:     2,
			OutputDir:       "./data/batches",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "./data/journal.db",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
	}
}
