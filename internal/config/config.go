// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// CacheTTLSeconds bounds how long a cached evaluation stays valid.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// TaskQueueSize bounds the in-memory evaluation task queue.
	TaskQueueSize int `koanf:"queue_size"`

	// MaxBatchSize caps the number of items accepted per batch request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// Device selects the scoring backend: cpu or cuda.
	Device string `koanf:"device"`

	// XGBModelPath and NNModelPath locate the confidence model artifacts.
	XGBModelPath string `koanf:"xgb_model_path"`
	NNModelPath  string `koanf:"nn_model_path"`

	// FraudContamination is the expected outlier ratio for the anomaly model.
	FraudContamination float64 `koanf:"fraud_contamination"`

	// FraudHistorySize bounds the population window used for model refits.
	FraudHistorySize int `koanf:"fraud_history_size"`

	// FraudRefitIntervalSeconds controls how often the anomaly model is
	// refit from the population window. Zero disables periodic refits.
	FraudRefitIntervalSeconds int `koanf:"fraud_refit_interval_seconds"`
}

// New creates a Config populated with service defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		Addr:                      ":8000",
		CacheTTLSeconds:           300,
		WorkerCount:               4,
		TaskQueueSize:             1024,
		MaxBatchSize:              32,
		Device:                    "cpu",
		XGBModelPath:              "models/xgboost/confidence_model.json",
		NNModelPath:               "models/neural/confidence_model.pt",
		FraudContamination:        0.1,
		FraudHistorySize:          2048,
		FraudRefitIntervalSeconds: 300,
	}
}
