package config

const (
	defaultDestDir             = "~/roms/refined"
	defaultStagingDir          = "~/.local/share/retroref/staging"
	defaultLogDir              = "~/.local/share/retroref/logs"
	defaultMappingsDir         = "~/.config/retroref/mappings"
	defaultCrawlDepth          = 3
	defaultCrawlConcurrency    = 4
	defaultCrawlTimeoutSeconds = 30
	defaultTransferWorkers     = 4
	defaultConnectionsPerFile  = 4
	defaultMaxRetries          = 3
	defaultRetryBackoffSeconds = 2
	defaultTransferTimeout     = 120
	defaultTransferBackend     = "auto"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// DefaultRegionPriority is the region preference order applied when the
// configuration does not override it.
var DefaultRegionPriority = []string{"USA", "World", "Europe", "Australia"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestDir:     defaultDestDir,
			StagingDir:  defaultStagingDir,
			LogDir:      defaultLogDir,
			MappingsDir: defaultMappingsDir,
		},
		Selection: Selection{
			RegionPriority: append([]string(nil), DefaultRegionPriority...),
		},
		Crawler: Crawler{
			MaxDepth:       defaultCrawlDepth,
			Concurrency:    defaultCrawlConcurrency,
			TimeoutSeconds: defaultCrawlTimeoutSeconds,
		},
		Transfer: Transfer{
			Workers:             defaultTransferWorkers,
			ConnectionsPerFile:  defaultConnectionsPerFile,
			MaxRetries:          defaultMaxRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
			TimeoutSeconds:      defaultTransferTimeout,
			Backend:             defaultTransferBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
