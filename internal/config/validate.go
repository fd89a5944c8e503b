package config

import (
	"errors"
	"fmt"
	"strings"
)

var validBackends = map[string]struct{}{
	"auto":    {},
	"builtin": {},
	"aria2c":  {},
	"curl":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateCrawler(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DestDir) == "" {
		return errors.New("paths.dest_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	return nil
}

func (c *Config) validateSelection() error {
	if len(c.Selection.RegionPriority) == 0 {
		return errors.New("selection.region_priority must include at least one region")
	}
	seen := make(map[string]struct{}, len(c.Selection.RegionPriority))
	for _, region := range c.Selection.RegionPriority {
		key := strings.ToLower(region)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("selection.region_priority lists %q more than once", region)
		}
		seen[key] = struct{}{}
	}
	if c.Selection.YearFrom < 0 || c.Selection.YearTo < 0 {
		return errors.New("selection.year_from and selection.year_to must be >= 0")
	}
	if c.Selection.YearFrom > 0 && c.Selection.YearTo > 0 && c.Selection.YearFrom > c.Selection.YearTo {
		return errors.New("selection.year_from must not exceed selection.year_to")
	}
	return nil
}

func (c *Config) validateCrawler() error {
	return ensurePositiveMap(map[string]int{
		"crawler.max_depth":       c.Crawler.MaxDepth,
		"crawler.concurrency":     c.Crawler.Concurrency,
		"crawler.timeout_seconds": c.Crawler.TimeoutSeconds,
	})
}

func (c *Config) validateTransfer() error {
	if err := ensurePositiveMap(map[string]int{
		"transfer.workers":               c.Transfer.Workers,
		"transfer.connections_per_file":  c.Transfer.ConnectionsPerFile,
		"transfer.retry_backoff_seconds": c.Transfer.RetryBackoffSeconds,
		"transfer.timeout_seconds":       c.Transfer.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Transfer.MaxRetries < 0 {
		return errors.New("transfer.max_retries must be >= 0")
	}
	if _, ok := validBackends[c.Transfer.Backend]; !ok {
		return fmt.Errorf("transfer.backend must be one of auto, builtin, aria2c, curl (got %q)", c.Transfer.Backend)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
