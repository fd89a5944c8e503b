package selection

import (
	"log/slog"
	"sort"
	"strings"

	"retroref/internal/logging"
	"retroref/internal/romname"
	"retroref/internal/sources"
	"retroref/internal/title"
)

// Candidate pairs an enumerated source item with its parsed metadata. Order
// is the enumeration position and provides the final, stable tie-break.
type Candidate struct {
	Ref   sources.CandidateRef
	Info  romname.Info
	Order int
}

// Skip records a candidate that was not selected and why. Reasons are stable
// strings persisted to the selection log.
type Skip struct {
	Candidate Candidate
	Reason    string
}

// Selected is one winner together with the group members it beat.
type Selected struct {
	Candidate Candidate
	Title     string
	RunnersUp []Skip
}

// Result is the outcome of one per-system selection pass.
type Result struct {
	System   string
	Selected []Selected
	Excluded []Skip
}

// TitleResolver canonicalizes a base title into the grouping key for one
// system. Implementations typically chain normalization with the curated
// Japan-to-English mapping table.
type TitleResolver func(system, baseTitle string) string

// Options configure one Engine. The zero value selects with the default
// exclusion policy and treats every region as unlisted.
type Options struct {
	// RegionPriority ranks regions best-first. Regions absent from the list
	// rank below every listed region, ordered among themselves by first
	// appearance in the input.
	RegionPriority []string
	// KeepRegions switches to archival mode: one winner per listed region in
	// each group instead of one winner overall.
	KeepRegions []string
	// ExcludeProtos disqualifies prototypes outright instead of retaining
	// them as a last resort.
	ExcludeProtos bool
	// IncludeBetas admits beta releases into selection.
	IncludeBetas bool
	// IncludeUnlicensed admits unlicensed and homebrew releases.
	IncludeUnlicensed bool
	// YearFrom and YearTo bound the release year when the name carries one.
	// Zero disables the corresponding bound.
	YearFrom int
	YearTo   int
	// Resolver maps base titles to grouping keys. Defaults to plain
	// normalization when nil.
	Resolver TitleResolver
}

// Engine picks one best candidate per canonical game. Selection is pure and
// deterministic over its input order; running it twice over the same
// candidates yields identical results.
type Engine struct {
	opts       Options
	regionRank map[string]int
	keep       []string
	logger     *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Resolver == nil {
		opts.Resolver = func(_, baseTitle string) string { return title.Normalize(baseTitle) }
	}
	rank := make(map[string]int, len(opts.RegionPriority))
	for i, region := range opts.RegionPriority {
		key := strings.ToLower(strings.TrimSpace(region))
		if _, dup := rank[key]; !dup {
			rank[key] = i
		}
	}
	var keep []string
	for _, region := range opts.KeepRegions {
		if trimmed := strings.TrimSpace(region); trimmed != "" {
			keep = append(keep, trimmed)
		}
	}
	return &Engine{opts: opts, regionRank: rank, keep: keep, logger: logger}
}

// Select partitions the system's candidates into canonical groups and picks
// winners. Excluded candidates never win, whatever their region or revision.
func (e *Engine) Select(system string, candidates []Candidate) Result {
	result := Result{System: system}

	groups := make(map[string][]Candidate)
	var groupOrder []string
	for _, cand := range candidates {
		if reason, excluded := e.exclusionReason(cand.Info); excluded {
			result.Excluded = append(result.Excluded, Skip{Candidate: cand, Reason: reason})
			continue
		}
		key := e.opts.Resolver(system, cand.Info.BaseTitle)
		if key == "" {
			key = strings.ToLower(cand.Info.Filename)
		}
		if _, seen := groups[key]; !seen {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], cand)
	}

	for _, key := range groupOrder {
		members := groups[key]
		if len(e.keep) > 0 {
			result.Selected = append(result.Selected, e.pickPerRegion(key, members)...)
			continue
		}
		result.Selected = append(result.Selected, e.pickOne(key, members))
	}

	e.logger.Info("selection complete",
		logging.String(logging.FieldSystem, system),
		logging.Int("candidates", len(candidates)),
		logging.Int("selected", len(result.Selected)),
		logging.Int("excluded", len(result.Excluded)))
	return result
}

// pickOne applies the winner chain to one canonical group: English-region
// releases first, then fan translations, then everything else by region
// priority, with prototypes only as a last resort at each stage.
func (e *Engine) pickOne(key string, members []Candidate) Selected {
	ranked := e.rankGroup(members)
	winner := ranked[0]

	selected := Selected{Candidate: winner, Title: key}
	for _, loser := range ranked[1:] {
		selected.RunnersUp = append(selected.RunnersUp, Skip{
			Candidate: loser,
			Reason:    e.lossReason(winner, loser),
		})
	}
	return selected
}

// pickPerRegion keeps the best candidate for each configured region present
// in the group. Members outside the keep list become runner-ups of the first
// kept winner.
func (e *Engine) pickPerRegion(key string, members []Candidate) []Selected {
	var picks []Selected
	claimed := make(map[int]bool, len(members))

	for _, region := range e.keep {
		var pool []Candidate
		for i, cand := range members {
			if strings.EqualFold(cand.Info.Region, region) {
				pool = append(pool, cand)
				claimed[i] = true
			}
		}
		if len(pool) == 0 {
			continue
		}
		picks = append(picks, e.pickOne(key, pool))
	}

	if len(picks) == 0 {
		return picks
	}
	for i, cand := range members {
		if !claimed[i] {
			picks[0].RunnersUp = append(picks[0].RunnersUp, Skip{
				Candidate: cand,
				Reason:    "region not in keep list",
			})
		}
	}
	return picks
}

// selection stages, best first
const (
	stageEnglish = iota
	stageTranslation
	stageOther
)

func stageOf(info romname.Info) int {
	switch {
	case romname.IsEnglishRegion(info.Region):
		return stageEnglish
	case info.IsTranslation:
		return stageTranslation
	default:
		return stageOther
	}
}

// rankGroup sorts a group best-first under the full discriminator chain.
// sort.SliceStable plus the Order field keep the result reproducible.
func (e *Engine) rankGroup(members []Candidate) []Candidate {
	ranked := make([]Candidate, len(members))
	copy(ranked, members)

	firstSeen := make(map[string]int)
	for _, cand := range ranked {
		key := strings.ToLower(cand.Info.Region)
		if _, ok := firstSeen[key]; !ok {
			firstSeen[key] = len(firstSeen)
		}
	}

	regionRank := func(region string) int {
		key := strings.ToLower(region)
		if rank, ok := e.regionRank[key]; ok {
			return rank
		}
		return len(e.regionRank) + firstSeen[key]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Info.IsProto != b.Info.IsProto {
			return !a.Info.IsProto
		}
		if sa, sb := stageOf(a.Info), stageOf(b.Info); sa != sb {
			return sa < sb
		}
		if ra, rb := regionRank(a.Info.Region), regionRank(b.Info.Region); ra != rb {
			return ra < rb
		}
		if a.Info.Revision != b.Info.Revision {
			return a.Info.Revision > b.Info.Revision
		}
		if a.Info.HasHacks != b.Info.HasHacks {
			return !a.Info.HasHacks
		}
		return a.Order < b.Order
	})
	return ranked
}

// lossReason names the first discriminator that separated a runner-up from
// the group winner.
func (e *Engine) lossReason(winner, loser Candidate) string {
	if loser.Info.IsProto && !winner.Info.IsProto {
		return "prototype superseded"
	}
	winStage, loseStage := stageOf(winner.Info), stageOf(loser.Info)
	if winStage != loseStage {
		switch {
		case winStage == stageEnglish:
			return "lost to english-region release"
		case winStage == stageTranslation:
			return "superseded by fan translation"
		default:
			return "lost region tie-break"
		}
	}
	if !strings.EqualFold(winner.Info.Region, loser.Info.Region) {
		return "lower region priority"
	}
	if winner.Info.Revision > loser.Info.Revision {
		return "older revision"
	}
	if loser.Info.HasHacks && !winner.Info.HasHacks {
		return "hacked dump deprioritized"
	}
	return "duplicate of selected file"
}

// exclusionReason applies the disqualification pass. Prototypes are handled
// later in ranking unless configured out entirely.
func (e *Engine) exclusionReason(info romname.Info) (string, bool) {
	switch {
	case info.IsBIOS:
		return "bios image", true
	case info.IsBeta && !e.opts.IncludeBetas:
		return "beta release", true
	case info.IsDemo:
		return "demo release", true
	case info.IsPromo:
		return "promotional release", true
	case info.IsSample:
		return "sample release", true
	case info.IsPirate:
		return "pirate dump", true
	case info.IsRerelease:
		return "rerelease", true
	case info.IsCompilation:
		return "compilation cart", true
	case info.IsLockOn:
		return "lock-on combination cart", true
	case info.IsUnlicensed && !e.opts.IncludeUnlicensed:
		return "unlicensed release", true
	case info.IsHomebrew && !e.opts.IncludeUnlicensed:
		return "homebrew release", true
	case info.IsProto && e.opts.ExcludeProtos:
		return "prototype excluded by policy", true
	}
	if info.Year > 0 {
		if e.opts.YearFrom > 0 && info.Year < e.opts.YearFrom {
			return "released before year floor", true
		}
		if e.opts.YearTo > 0 && info.Year > e.opts.YearTo {
			return "released after year ceiling", true
		}
	}
	return "", false
}
