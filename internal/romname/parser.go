package romname

import (
	"regexp"
	"strconv"
	"strings"
)

// Info holds the metadata parsed from a single release name. BaseTitle is
// never empty: unparseable names degrade to the raw filename with the
// extension stripped, region Unknown, and all flags false.
type Info struct {
	Filename           string
	BaseTitle          string
	Region             string
	Revision           int
	TranslationVersion string
	Languages          []string
	Year               int

	IsEnglish     bool
	IsTranslation bool
	IsBeta        bool
	IsDemo        bool
	IsPromo       bool
	IsSample      bool
	IsProto       bool
	IsBIOS        bool
	IsPirate      bool
	IsUnlicensed  bool
	IsHomebrew    bool
	IsRerelease   bool
	IsCompilation bool
	IsLockOn      bool
	HasHacks      bool
}

// RegionUnknown is the region recorded when no vocabulary entry matches.
const RegionUnknown = "Unknown"

// regionVocabulary lists the region words recognized inside parenthesized
// tags, in the order used to probe a tag's contents.
var regionVocabulary = []string{
	"USA", "World", "Europe", "Australia", "England", "Japan", "Korea",
	"Brazil", "France", "Germany", "Spain", "Italy", "Netherlands",
	"Sweden", "Canada", "Asia", "Taiwan", "Hong Kong", "China",
}

// englishRegions are the regions whose releases are assumed to be in English
// absent an explicit language tag.
var englishRegions = map[string]struct{}{
	"USA":       {},
	"World":     {},
	"Europe":    {},
	"Australia": {},
	"England":   {},
}

// KnownRegion reports whether a region name belongs to the vocabulary.
func KnownRegion(region string) bool {
	for _, known := range regionVocabulary {
		if strings.EqualFold(known, region) {
			return true
		}
	}
	return false
}

// IsEnglishRegion reports whether releases from the region default to English.
func IsEnglishRegion(region string) bool {
	_, ok := englishRegions[region]
	return ok
}

var (
	extensionPattern   = regexp.MustCompile(`(?i)\.(zip|7z|rar|sfc|smc|nes|fds|n64|z64|v64|md|gen|smd|bin|gb|gbc|gba|nds|gcm|iso|cue|chd|pce|col|a26|a52|a78|jag|lnx|st|int|gg|sms|sg|32x|vb|ws|wsc|rom|mx1|mx2|min|ngp|ngc|neo)$`)
	parenPattern       = regexp.MustCompile(`\(([^)]*)\)`)
	bracketPattern     = regexp.MustCompile(`\[[^\]]*\]`)
	betaPattern        = regexp.MustCompile(`\(Beta[^)]*\)`)
	protoPattern       = regexp.MustCompile(`\(Proto[^)]*\)`)
	translationPattern = regexp.MustCompile(`\[T-En[^\]]*\]`)
	translationVerPat  = regexp.MustCompile(`v(\d+\.?\d*[a-z]?)`)
	revisionPattern    = regexp.MustCompile(`\(Rev\s*([A-Z0-9]+)\)`)
	versionPattern     = regexp.MustCompile(`\(v(\d+)\.(\d+)\)`)
	yearPattern        = regexp.MustCompile(`\((\d{4})\)`)
	englishTagPattern  = regexp.MustCompile(`\([^)]*\bEn\b[^)]*\)`)
	langListPattern    = regexp.MustCompile(`\((?:En,?)?(?:Fr|De|Es|It|Ja|Nl|Sv|Pt)(?:,[A-Za-z]+)*\)`)
	numberedPairPat    = regexp.MustCompile(`\b(\d) & (\d)\b`)
	multiCartPattern   = regexp.MustCompile(`\+ .+ \(`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	trailingParenPat   = regexp.MustCompile(`\s*\([^)]*\)`)
)

// rereleasePatterns flag digital or mini-console reissues that duplicate the
// original cartridge release.
var rereleasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Virtual Console`),
	regexp.MustCompile(`GameCube\)`),
	regexp.MustCompile(`\(LodgeNet\)`),
	regexp.MustCompile(`\(Arcade\)`),
	regexp.MustCompile(`Sega Channel`),
	regexp.MustCompile(`Switch Online`),
	regexp.MustCompile(`Classic Mini`),
	regexp.MustCompile(`Retro-Bit`),
	regexp.MustCompile(`Evercade`),
	regexp.MustCompile(`Mega Drive Mini`),
	regexp.MustCompile(`Genesis Mini`),
	regexp.MustCompile(`Collection\)`),
	regexp.MustCompile(`\(NP\)`),
	regexp.MustCompile(`\(e-Reader\)`),
	regexp.MustCompile(`\(FamicomBox\)`),
	regexp.MustCompile(`Animal Crossing`),
	regexp.MustCompile(`SegaNet`),
	regexp.MustCompile(`Sega 3D Classics`),
	regexp.MustCompile(`Capcom Town`),
	regexp.MustCompile(`iam8bit`),
	regexp.MustCompile(`GameCube Edition`),
	regexp.MustCompile(`Arcade Legends`),
	regexp.MustCompile(`\(Alt\b`),
}

var compilationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+.in.1\b`),
	regexp.MustCompile(`\d+ Super Jogos`),
	regexp.MustCompile(`^\d+-Pak`),
	regexp.MustCompile(`Compilation`),
	regexp.MustCompile(`\+ .+ \+`),
	regexp.MustCompile(`Super Mario All-Stars`),
	regexp.MustCompile(`Double Pack`),
	regexp.MustCompile(`^2 Games in 1`),
	regexp.MustCompile(`^2 Games in One`),
	regexp.MustCompile(`^Combo Pack`),
	regexp.MustCompile(`^2 Game Pack`),
	regexp.MustCompile(`Classics\)`),
	regexp.MustCompile(`Competition Cartridge`),
	regexp.MustCompile(`Twin Pack`),
}

var hackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[Hack by`),
	regexp.MustCompile(`(?i)\[Add by`),
	regexp.MustCompile(`(?i)Edition\]`),
	regexp.MustCompile(`(?i)\[FastROM`),
	regexp.MustCompile(`(?i)\[Bugfix`),
	regexp.MustCompile(`(?i)patch\]`),
	regexp.MustCompile(`(?i)\[Retranslated\]`),
	regexp.MustCompile(`(?i)GBA Script`),
	regexp.MustCompile(`(?i)\[h\d`),
}

// Parse extracts structured metadata from a release filename. It never fails;
// names that match nothing produce a best-effort Info with only BaseTitle set.
func Parse(filename string) Info {
	name := extensionPattern.ReplaceAllString(filename, "")

	info := Info{
		Filename: filename,
		Region:   RegionUnknown,
	}

	info.IsBIOS = strings.HasPrefix(name, "[BIOS]") || strings.Contains(name, "(BIOS)")
	// Metadata companions (checksum lists, documentation) ship with a leading
	// underscore and must never be selected.
	if strings.HasPrefix(name, "_") {
		info.IsBIOS = true
	}

	info.IsPirate = strings.Contains(name, "(Pirate)")
	info.IsUnlicensed = strings.Contains(name, "(Unl)")
	info.IsBeta = betaPattern.MatchString(name)
	info.IsDemo = strings.Contains(name, "(Demo)") || strings.Contains(name, "(Kiosk)") ||
		strings.Contains(name, "Caravan") || strings.Contains(name, "Taikenban")
	info.IsPromo = strings.Contains(name, "(Promo)") || strings.Contains(name, "(Movie Promo)") ||
		strings.Contains(name, "Present Campaign") || strings.Contains(name, "Senyou Cartridge")
	info.IsSample = strings.Contains(name, "(Sample)")
	info.IsProto = protoPattern.MatchString(name)
	info.IsHomebrew = strings.Contains(name, "(Aftermarket)") || strings.Contains(name, "Homebrew")

	for _, pattern := range rereleasePatterns {
		if pattern.MatchString(name) {
			info.IsRerelease = true
			break
		}
	}
	for _, pattern := range compilationPatterns {
		if pattern.MatchString(name) {
			info.IsCompilation = true
			break
		}
	}
	// Multi-game carts like "Super Mario Bros. + Duck Hunt (USA)" and numbered
	// sequel pairs like "Game 1 & 2".
	if multiCartPattern.MatchString(name) && !strings.Contains(name, "All-Stars") {
		info.IsCompilation = true
	}
	if numberedPairPat.MatchString(name) {
		info.IsCompilation = true
	}
	info.IsLockOn = strings.Contains(name, "(Lock-on Combination)") ||
		(strings.Contains(name, "Sonic & Knuckles +") && strings.Contains(name, "Sonic"))

	if match := translationPattern.FindString(name); match != "" {
		info.IsTranslation = true
		if ver := translationVerPat.FindStringSubmatch(match); ver != nil {
			info.TranslationVersion = ver[1]
		}
	}

	for _, pattern := range hackPatterns {
		if pattern.MatchString(name) {
			info.HasHacks = true
			break
		}
	}

	info.Region = extractRegion(name)
	info.Languages = extractLanguages(name)
	info.Revision = extractRevision(name)
	info.Year = extractYear(name)

	if englishTagPattern.MatchString(name) {
		info.IsEnglish = true
		info.Languages = prependUnique(info.Languages, "En")
	}
	if IsEnglishRegion(info.Region) || info.IsTranslation {
		info.IsEnglish = true
	}

	info.BaseTitle = extractBaseTitle(name)
	if info.BaseTitle == "" {
		info.BaseTitle = strings.TrimSpace(name)
	}

	return info
}

// extractRegion scans parenthesized groups in order; the first group that
// contains a vocabulary word decides the region, and within that group the
// region listed first wins (release convention places the primary region
// first).
func extractRegion(name string) string {
	for _, group := range parenPattern.FindAllStringSubmatch(name, -1) {
		contents := group[1]
		best := ""
		bestIdx := len(contents) + 1
		for _, region := range regionVocabulary {
			if idx := strings.Index(contents, region); idx >= 0 && idx < bestIdx {
				best = region
				bestIdx = idx
			}
		}
		if best != "" {
			return best
		}
	}
	return RegionUnknown
}

func extractLanguages(name string) []string {
	match := langListPattern.FindString(name)
	if match == "" {
		return nil
	}
	var langs []string
	for _, code := range []string{"Fr", "De", "Es", "It", "Ja", "Nl", "Sv", "Pt"} {
		if strings.Contains(match, code) {
			langs = append(langs, code)
		}
	}
	return langs
}

func extractRevision(name string) int {
	revision := 0
	if match := revisionPattern.FindStringSubmatch(name); match != nil {
		raw := match[1]
		if value, err := strconv.Atoi(raw); err == nil {
			revision = value
		} else if raw != "" {
			// Letter revisions: A=1, B=2, …
			first := raw[0]
			if first >= 'A' && first <= 'Z' {
				revision = int(first-'A') + 1
			}
		}
	}
	if match := versionPattern.FindStringSubmatch(name); match != nil {
		major, _ := strconv.Atoi(match[1])
		minor, _ := strconv.Atoi(match[2])
		if v := major*100 + minor; v > revision {
			revision = v
		}
	}
	return revision
}

func extractYear(name string) int {
	for _, match := range yearPattern.FindAllStringSubmatch(name, -1) {
		year, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if year >= 1970 && year <= 2030 {
			return year
		}
	}
	return 0
}

func extractBaseTitle(name string) string {
	title := bracketPattern.ReplaceAllString(name, "")
	title = trailingParenPat.ReplaceAllString(title, "")
	title = whitespacePattern.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

func prependUnique(langs []string, code string) []string {
	for _, existing := range langs {
		if existing == code {
			return langs
		}
	}
	return append([]string{code}, langs...)
}
