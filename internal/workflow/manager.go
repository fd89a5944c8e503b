package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"retroref/internal/config"
	"retroref/internal/integrity"
	"retroref/internal/logging"
	"retroref/internal/report"
	"retroref/internal/romname"
	"retroref/internal/selection"
	"retroref/internal/services"
	"retroref/internal/sources"
	"retroref/internal/systems"
	"retroref/internal/title"
	"retroref/internal/transfer"
)

// Options tune one run. Zero values defer to the configuration.
type Options struct {
	// Source is the collection root: a local directory or an index URL.
	Source string
	// Systems names the systems to curate. With multiple systems the source
	// must contain one subdirectory per system.
	Systems []string
	// DryRun selects without transferring anything.
	DryRun bool

	Include        []string
	Exclude        []string
	RegionPriority []string
	Workers        int
	Connections    int
}

// Result aggregates a whole run for reporting and exit-code decisions.
type Result struct {
	RunID   string
	Reports []report.SystemReport
	// ZeroSelection is set when any system produced no selections.
	ZeroSelection bool
	// Fatal is set when a system's enumeration failed outright.
	Fatal bool
}

// Manager owns the shared collaborators of a run: catalog, mapping tables,
// integrity store, and the probed transfer backend.
type Manager struct {
	cfg      *config.Config
	catalog  *systems.Catalog
	mappings *title.Mappings
	store    *integrity.Store
	backend  transfer.Backend
	logger   *slog.Logger
}

// NewManager wires a Manager from configuration. The integrity store lives
// under the destination root so deleting the library also drops its cache.
func NewManager(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init",
			"create directories", err)
	}

	mappings, err := title.LoadMappings(cfg.Paths.MappingsDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init",
			"load title mappings", err)
	}

	store, err := integrity.Open(cfg.Paths.DestDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init",
			"open integrity store", err)
	}

	backend := transfer.Probe(cfg.Transfer.Backend, cfg.Transfer.ConnectionsPerFile,
		time.Duration(cfg.Transfer.TimeoutSeconds)*time.Second,
		logging.NewComponentLogger(logger, "transfer"))

	return &Manager{
		cfg:      cfg,
		catalog:  systems.Default(),
		mappings: mappings,
		store:    store,
		backend:  backend,
		logger:   logger,
	}, nil
}

// Close releases the integrity store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Store exposes the integrity store to commands that inspect the cache.
func (m *Manager) Store() *integrity.Store {
	return m.store
}

// Run curates every requested system. System-level failures are reported and
// flagged rather than aborting siblings; only an invalid request errors out.
func (m *Manager) Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.Source) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run",
			"source is required", nil)
	}
	resolved, err := m.resolveSystems(opts.Systems)
	if err != nil {
		return nil, err
	}

	filter, err := sources.NewFilter(
		coalesce(opts.Include, m.cfg.Selection.IncludePatterns),
		coalesce(opts.Exclude, m.cfg.Selection.ExcludePatterns))
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(m.cfg.Paths.DestDir, ".retroref.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run",
			"acquire destination lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run",
			"destination is locked by another run", nil)
	}
	defer func() { _ = lock.Unlock() }()

	engine := selection.New(selection.Options{
		RegionPriority:    coalesce(opts.RegionPriority, m.cfg.Selection.RegionPriority),
		KeepRegions:       m.cfg.Selection.KeepRegions,
		ExcludeProtos:     m.cfg.Selection.ExcludeProtos,
		IncludeBetas:      m.cfg.Selection.IncludeBetas,
		IncludeUnlicensed: m.cfg.Selection.IncludeUnlicensed,
		YearFrom:          m.cfg.Selection.YearFrom,
		YearTo:            m.cfg.Selection.YearTo,
		Resolver: func(system, baseTitle string) string {
			return m.mappings.Resolve(system, title.Normalize(baseTitle))
		},
	}, logging.NewComponentLogger(m.logger, "selection"))

	backend := m.transferBackend(opts)
	result := &Result{RunID: uuid.NewString()}
	for _, system := range resolved {
		rep := m.runSystem(ctx, engine, filter, backend, system, opts, len(resolved) > 1, result.RunID)
		result.Reports = append(result.Reports, rep)
		if rep.Selected == 0 {
			result.ZeroSelection = true
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}
	for _, rep := range result.Reports {
		if rep.Candidates < 0 {
			result.Fatal = true
		}
	}
	return result, nil
}

// runSystem executes the full pipeline for one system: enumerate, parse,
// select, log, transfer. A Candidates value of -1 marks failed enumeration.
func (m *Manager) runSystem(ctx context.Context, engine *selection.Engine, filter *sources.Filter,
	backend transfer.Backend, system string, opts Options, multi bool, runID string) report.SystemReport {

	rep := report.SystemReport{System: system}
	logger := logging.WithContext(logging.WithSystem(ctx, system),
		logging.NewComponentLogger(m.logger, "workflow"))

	source := opts.Source
	if multi {
		source = joinSource(source, system)
	}

	refs, err := m.enumerate(ctx, source, system, filter)
	if err != nil {
		logger.Error("enumeration failed",
			logging.String(logging.FieldSource, source),
			logging.Error(err))
		rep.Candidates = -1
		rep.Failures = append(rep.Failures, report.Failure{Name: source, Detail: err.Error()})
		return rep
	}
	rep.Candidates = len(refs)

	candidates := make([]selection.Candidate, 0, len(refs))
	for i, ref := range refs {
		candidates = append(candidates, selection.Candidate{
			Ref:   ref,
			Info:  romname.Parse(ref.Name),
			Order: i,
		})
	}

	selected := engine.Select(system, candidates)
	rep.Selected = len(selected.Selected)
	rep.Excluded = len(selected.Excluded)

	if err := m.writeSelectionLog(ctx, runID, system, selected); err != nil {
		logger.Warn("selection log write failed", logging.Error(err))
	}

	if opts.DryRun {
		logger.Info("dry run, skipping transfer",
			logging.Int("selected", rep.Selected))
		return rep
	}

	winners := make([]sources.CandidateRef, 0, len(selected.Selected))
	for _, sel := range selected.Selected {
		winners = append(winners, sel.Candidate.Ref)
	}

	orchestrator := &transfer.Orchestrator{
		Store:        m.store,
		Backend:      backend,
		Workers:      firstPositive(opts.Workers, m.cfg.Transfer.Workers),
		MaxRetries:   m.cfg.Transfer.MaxRetries,
		RetryBackoff: time.Duration(m.cfg.Transfer.RetryBackoffSeconds) * time.Second,
		StagingDir:   m.cfg.Paths.StagingDir,
		Logger:       logging.NewComponentLogger(m.logger, "transfer"),
	}
	summary, err := orchestrator.Run(ctx, system, winners, filepath.Join(m.cfg.Paths.DestDir, system))
	if err != nil {
		rep.Failures = append(rep.Failures, report.Failure{Name: system, Detail: err.Error()})
		return rep
	}
	rep.Committed = len(summary.Committed)
	rep.CacheHits = summary.CacheHits
	rep.Transferred = summary.BytesTransferred
	for _, task := range summary.Failed {
		detail := "unknown failure"
		if task.Err != nil {
			detail = task.Err.Error()
		}
		rep.Failures = append(rep.Failures, report.Failure{Name: task.Ref.Name, Detail: detail})
	}
	return rep
}

// transferBackend returns the shared probed backend, re-probing when the
// per-run connections override differs from the configured value.
func (m *Manager) transferBackend(opts Options) transfer.Backend {
	if opts.Connections <= 0 || opts.Connections == m.cfg.Transfer.ConnectionsPerFile {
		return m.backend
	}
	return transfer.Probe(m.cfg.Transfer.Backend, opts.Connections,
		time.Duration(m.cfg.Transfer.TimeoutSeconds)*time.Second,
		logging.NewComponentLogger(m.logger, "transfer"))
}

func (m *Manager) enumerate(ctx context.Context, source, system string, filter *sources.Filter) ([]sources.CandidateRef, error) {
	if isRemote(source) {
		crawler := &sources.Crawler{
			Client:      &http.Client{Timeout: time.Duration(m.cfg.Crawler.TimeoutSeconds) * time.Second},
			Catalog:     m.catalog,
			Filter:      filter,
			System:      system,
			MaxDepth:    m.cfg.Crawler.MaxDepth,
			Concurrency: m.cfg.Crawler.Concurrency,
			Timeout:     time.Duration(m.cfg.Crawler.TimeoutSeconds) * time.Second,
			Logger:      logging.NewComponentLogger(m.logger, "crawler"),
		}
		return crawler.Enumerate(ctx, source)
	}
	local := &sources.Local{
		Root:    source,
		System:  system,
		Catalog: m.catalog,
		Filter:  filter,
		Logger:  logging.NewComponentLogger(m.logger, "sources"),
	}
	return local.Enumerate(ctx)
}

// writeSelectionLog persists winners, runner-ups, and exclusions for audit.
func (m *Manager) writeSelectionLog(ctx context.Context, runID, system string, result selection.Result) error {
	var records []integrity.LogRecord
	appendRecord := func(cand selection.Candidate, title string, selected bool, reason string) {
		records = append(records, integrity.LogRecord{
			RunID:      runID,
			System:     system,
			Filename:   cand.Ref.Name,
			Title:      title,
			Region:     cand.Info.Region,
			Revision:   cand.Info.Revision,
			Translated: cand.Info.IsTranslation,
			Prototype:  cand.Info.IsProto,
			Selected:   selected,
			Reason:     reason,
		})
	}
	for _, sel := range result.Selected {
		appendRecord(sel.Candidate, sel.Title, true, "")
		for _, skip := range sel.RunnersUp {
			appendRecord(skip.Candidate, sel.Title, false, skip.Reason)
		}
	}
	for _, skip := range result.Excluded {
		appendRecord(skip.Candidate, skip.Candidate.Info.BaseTitle, false, skip.Reason)
	}
	return m.store.AppendLog(ctx, records)
}

// resolveSystems maps requested names through the alias table and rejects
// unknown systems before anything is fetched.
func (m *Manager) resolveSystems(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run",
			"at least one system is required", nil)
	}
	resolved := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		system := m.catalog.Resolve(name)
		if system == "" {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "run",
				fmt.Sprintf("unknown system %q (see 'retroref systems')", name), nil)
		}
		if _, dup := seen[system]; dup {
			continue
		}
		seen[system] = struct{}{}
		resolved = append(resolved, system)
	}
	return resolved, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func joinSource(root, system string) string {
	if isRemote(root) {
		return strings.TrimSuffix(root, "/") + "/" + path.Clean(system) + "/"
	}
	return filepath.Join(root, system)
}

func coalesce(override, fallback []string) []string {
	if len(override) > 0 {
		return override
	}
	return fallback
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 1
}
