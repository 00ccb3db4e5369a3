// Package prefs loads, normalizes and persists user preferences. Each
// preference group is stored as one JSON file; reads and writes are
// best-effort and fall back to defaults rather than failing.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"blackjack-tui/internal/fileutil"
)

// Valid ranges per setting.
const (
	MinBankroll = 1
	MaxBankroll = 1_000_000

	MinDealerDelayMS = 0
	MaxDealerDelayMS = 5000

	MinDefaultBet = 1
	MaxDefaultBet = 1_000_000

	MinVoiceRate = 0.5
	MaxVoiceRate = 2.0

	MinAutoRounds = 1
	MaxAutoRounds = 1000
)

// NormalizedInt is the result of clamping a raw integer input.
type NormalizedInt struct {
	Value        int
	FallbackUsed bool
	ClampedToMin bool
	ClampedToMax bool
}

// NormalizeInt parses raw and clamps it into [min, max]. Empty or
// unparseable input yields the fallback, which is itself clamped.
func NormalizeInt(raw string, min, max, fallback int) NormalizedInt {
	out := NormalizedInt{}

	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if strings.TrimSpace(raw) == "" || err != nil {
		out.FallbackUsed = true
		v = fallback
	}

	if v < min {
		out.Value = min
		out.ClampedToMin = true
		return out
	}
	if v > max {
		out.Value = max
		out.ClampedToMax = true
		return out
	}
	out.Value = v
	return out
}

// NormalizedFloat is the result of clamping a raw float input.
type NormalizedFloat struct {
	Value        float64
	FallbackUsed bool
	ClampedToMin bool
	ClampedToMax bool
}

// NormalizeFloat parses raw and clamps it into [min, max].
func NormalizeFloat(raw string, min, max, fallback float64) NormalizedFloat {
	out := NormalizedFloat{}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if strings.TrimSpace(raw) == "" || err != nil {
		out.FallbackUsed = true
		v = fallback
	}

	if v < min {
		out.Value = min
		out.ClampedToMin = true
		return out
	}
	if v > max {
		out.Value = max
		out.ClampedToMax = true
		return out
	}
	out.Value = v
	return out
}

// Bankroll settings.
type Bankroll struct {
	ResetAmount int `json:"reset_amount"`
}

// Dealer display settings.
type Dealer struct {
	HitDelayMS int  `json:"hit_delay_ms"`
	HitSoft17  bool `json:"hit_soft_17"`
}

// Betting settings.
type Betting struct {
	DefaultBet int `json:"default_bet"`
}

// Voice settings. The terminal client has no speech output; the group
// survives from the browser client and gates table-talk commentary.
type Voice struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`
	Name    string  `json:"name"`
}

// Auto-play defaults.
type Auto struct {
	Rounds        int    `json:"rounds"`
	BetPerRound   int    `json:"bet_per_round"`
	InsuranceMode string `json:"insurance_mode"`
}

// Preferences is the full set of preference groups.
type Preferences struct {
	Bankroll Bankroll
	Dealer   Dealer
	Betting  Betting
	Voice    Voice
	Auto     Auto
}

// Defaults returns the stock preferences.
func Defaults() Preferences {
	return Preferences{
		Bankroll: Bankroll{ResetAmount: 1000},
		Dealer:   Dealer{HitDelayMS: 600, HitSoft17: false},
		Betting:  Betting{DefaultBet: 25},
		Voice:    Voice{Enabled: true, Rate: 1.0, Name: "dealer"},
		Auto:     Auto{Rounds: 10, BetPerRound: 25, InsuranceMode: "never"},
	}
}

// Clamp pulls every numeric setting back into its valid range.
func (p Preferences) Clamp() Preferences {
	p.Bankroll.ResetAmount = clampInt(p.Bankroll.ResetAmount, MinBankroll, MaxBankroll)
	p.Dealer.HitDelayMS = clampInt(p.Dealer.HitDelayMS, MinDealerDelayMS, MaxDealerDelayMS)
	p.Betting.DefaultBet = clampInt(p.Betting.DefaultBet, MinDefaultBet, MaxDefaultBet)
	p.Auto.Rounds = clampInt(p.Auto.Rounds, MinAutoRounds, MaxAutoRounds)
	p.Auto.BetPerRound = clampInt(p.Auto.BetPerRound, MinDefaultBet, MaxDefaultBet)
	if p.Voice.Rate < MinVoiceRate {
		p.Voice.Rate = MinVoiceRate
	}
	if p.Voice.Rate > MaxVoiceRate {
		p.Voice.Rate = MaxVoiceRate
	}
	if p.Auto.InsuranceMode != "always" && p.Auto.InsuranceMode != "never" {
		p.Auto.InsuranceMode = "never"
	}
	return p
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Store persists preference groups under a directory, one JSON file per
// group. Failures are logged and absorbed; callers always get usable
// preferences back.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, logger *log.Logger) *Store {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("Cannot create preference directory", "dir", dir, "error", err)
	}
	return &Store{dir: dir, logger: logger.WithPrefix("prefs")}
}

// group file names double as the durable storage keys.
var groupFiles = []string{"bankroll", "dealer", "betting", "voice", "auto"}

// Load reads every preference group, substituting defaults for any
// group that is missing or unreadable, and clamps the result.
func (s *Store) Load() Preferences {
	p := Defaults()

	targets := map[string]any{
		"bankroll": &p.Bankroll,
		"dealer":   &p.Dealer,
		"betting":  &p.Betting,
		"voice":    &p.Voice,
		"auto":     &p.Auto,
	}

	for _, name := range groupFiles {
		path := filepath.Join(s.dir, name+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("Cannot read preference group", "group", name, "error", err)
			}
			continue
		}
		if err := json.Unmarshal(data, targets[name]); err != nil {
			s.logger.Warn("Corrupt preference group, using defaults", "group", name, "error", err)
			resetGroup(&p, name)
		}
	}

	return p.Clamp()
}

func resetGroup(p *Preferences, name string) {
	d := Defaults()
	switch name {
	case "bankroll":
		p.Bankroll = d.Bankroll
	case "dealer":
		p.Dealer = d.Dealer
	case "betting":
		p.Betting = d.Betting
	case "voice":
		p.Voice = d.Voice
	case "auto":
		p.Auto = d.Auto
	}
}

// Save writes every preference group. Individual failures are logged
// and skipped so one bad group cannot block the rest.
func (s *Store) Save(p Preferences) {
	p = p.Clamp()

	groups := map[string]any{
		"bankroll": p.Bankroll,
		"dealer":   p.Dealer,
		"betting":  p.Betting,
		"voice":    p.Voice,
		"auto":     p.Auto,
	}

	for _, name := range groupFiles {
		data, err := json.MarshalIndent(groups[name], "", "  ")
		if err != nil {
			s.logger.Warn("Cannot encode preference group", "group", name, "error", err)
			continue
		}
		path := filepath.Join(s.dir, name+".json")
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			s.logger.Warn("Cannot write preference group", "group", name, "error", err)
		}
	}
}
