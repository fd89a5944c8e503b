package systems

// defaultExtensions maps ROM file extensions to system identifiers. Ambiguous
// container extensions (.bin, .iso, .chd, .cue) map to their most common
// owner; folder-based detection takes precedence during enumeration.
var defaultExtensions = map[string]string{
	// Nintendo
	".nes": "nes",
	".fds": "fds",
	".sfc": "snes",
	".smc": "snes",
	".gb":  "gameboy",
	".gbc": "gameboy-color",
	".gba": "gba",
	".n64": "n64",
	".z64": "n64",
	".v64": "n64",
	".ndd": "n64dd",
	".gcm": "gamecube",
	".gcz": "gamecube",
	".rvz": "gamecube",
	".vb":  "virtualboy",
	".nds": "nds",
	".min": "pokemini",
	// Sega
	".md":  "genesis",
	".gen": "genesis",
	".smd": "genesis",
	".gg":  "gamegear",
	".sms": "mastersystem",
	".sg":  "sg1000",
	".32x": "sega32x",
	".cue": "segacd",
	".chd": "segacd",
	".gdi": "dreamcast",
	".cdi": "dreamcast",
	// Sony
	".pbp": "psp",
	".cso": "psp",
	".iso": "psx",
	// Atari
	".a26": "atari2600",
	".a52": "atari5200",
	".a78": "atari7800",
	".j64": "atarijaguar",
	".jag": "atarijaguar",
	".lnx": "atarilynx",
	".st":  "atarist",
	// NEC
	".pce": "tg16",
	".sgx": "tg16",
	// SNK
	".neo": "neogeo",
	".ngp": "ngp",
	".ngc": "ngpc",
	// Other consoles
	".col": "colecovision",
	".int": "intellivision",
	".vec": "vectrex",
	".ws":  "wonderswan",
	".wsc": "wonderswan-color",
	".fcf": "channelf",
	// Computers
	".mx1": "msx",
	".mx2": "msx2",
	".rom": "msx",
	".tzx": "zxspectrum",
	".z80": "zxspectrum",
	".d64": "c64",
	".t64": "c64",
	".adf": "amiga",
}

// defaultKnown lists the canonical system identifiers the catalog accepts as
// folder names.
var defaultKnown = []string{
	"nes", "fds", "snes", "n64", "n64dd", "gamecube", "wii", "switch",
	"gameboy", "gameboy-color", "gba", "virtualboy", "nds", "3ds", "pokemini",
	"sg1000", "mastersystem", "genesis", "sega32x", "segacd", "saturn",
	"dreamcast", "gamegear",
	"psx", "ps2", "psp",
	"atari2600", "atari5200", "atari7800", "atarijaguar", "atarilynx",
	"atari800", "atarist",
	"tg16", "tgcd", "supergrafx",
	"neogeo", "ngp", "ngpc",
	"colecovision", "intellivision", "vectrex", "odyssey2", "channelf", "3do",
	"wonderswan", "wonderswan-color", "supervision",
	"msx", "msx2", "amstradcpc", "zxspectrum", "c64", "amiga",
	"mame", "fbneo",
}

// defaultAliases normalizes common folder spellings, including Redump-style
// "Vendor - Console" directory names, to canonical identifiers.
var defaultAliases = map[string]string{
	"famicom":             "nes",
	"nintendo entertainment system":                  "nes",
	"nintendo - nintendo entertainment system":       "nes",
	"super nintendo entertainment system":            "snes",
	"nintendo - super nintendo entertainment system": "snes",
	"sega - mega drive - genesis":                    "genesis",
	"nintendo - game boy advance":                    "gba",
	"nintendo - nintendo 64":                         "n64",
	"fc":                  "nes",
	"nintendo":            "nes",
	"famicom-disk-system": "fds",
	"supernes":            "snes",
	"super-nes":           "snes",
	"superfamicom":        "snes",
	"super-famicom":       "snes",
	"sfc":                 "snes",
	"super-nintendo":      "snes",
	"gb":                  "gameboy",
	"game-boy":            "gameboy",
	"gbc":                 "gameboy-color",
	"game-boy-color":      "gameboy-color",
	"game-boy-advance":    "gba",
	"gameboy-advance":     "gba",
	"nintendo64":          "n64",
	"nintendo-64":         "n64",
	"64dd":                "n64dd",
	"gc":                  "gamecube",
	"virtual-boy":         "virtualboy",
	"ds":                  "nds",
	"nintendo-ds":         "nds",
	"pokemon-mini":        "pokemini",
	"megadrive":           "genesis",
	"mega-drive":          "genesis",
	"md":                  "genesis",
	"sega-genesis":        "genesis",
	"sega-mega-drive":     "genesis",
	"master-system":       "mastersystem",
	"sms":                 "mastersystem",
	"sega-master-system":  "mastersystem",
	"game-gear":           "gamegear",
	"sega-game-gear":      "gamegear",
	"32x":                 "sega32x",
	"sega-32x":            "sega32x",
	"megacd":              "segacd",
	"mega-cd":             "segacd",
	"sega-cd":             "segacd",
	"sega-saturn":         "saturn",
	"sega-dreamcast":      "dreamcast",
	"dc":                  "dreamcast",
	"playstation":         "psx",
	"ps1":                 "psx",
	"psone":               "psx",
	"sony-playstation":    "psx",
	"sony - playstation":  "psx",
	"playstation-2":       "ps2",
	"playstation2":        "ps2",
	"sony - playstation 2": "ps2",
	"playstation-portable": "psp",
	"sony - playstation portable": "psp",
	"turbografx-16":     "tg16",
	"pcengine":          "tg16",
	"pc-engine":         "tg16",
	"neo-geo":           "neogeo",
	"neo-geo-pocket":    "ngp",
	"wonderswan-colour": "wonderswan-color",
	"spectrum":          "zxspectrum",
	"commodore64":       "c64",
	"commodore-64":      "c64",
	"arcade":            "mame",
}
