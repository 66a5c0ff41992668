// Package classify evaluates versioned threshold rulesets against window and
// delta statistics, producing a signal tier plus audit tags.
package classify

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// JumpVariant selects how the three jump clauses compose into a tier.
type JumpVariant string

const (
	// JumpOr fires the jump rule when any clause is satisfied.
	JumpOr JumpVariant = "or"
	// JumpVote fires the jump rule when at least VoteN clauses are satisfied.
	JumpVote JumpVariant = "vote"
)

// Ruleset is a versioned, named bundle of classification thresholds. Rulesets
// are injected, never hard-coded, so historical runs stay reproducible per
// ruleset id.
type Ruleset struct {
	ID string `yaml:"id" validate:"required"`

	// Extreme-level thresholds on the short-window z-score.
	ExtremeWatchZ float64 `yaml:"extreme_watch_z" default:"2.0" validate:"gt=0"`
	ExtremeAlertZ float64 `yaml:"extreme_alert_z" default:"3.0" validate:"gt=0"`

	// ActionableZ is the short-window magnitude below which a lone
	// long-extreme finding stays informational.
	ActionableZ float64 `yaml:"actionable_z" default:"2.0" validate:"gt=0"`

	// Long-window percentile bands, in percentile points from either tail.
	LongExtremeBand float64 `yaml:"long_extreme_band" default:"5" validate:"gt=0,lt=50"`
	LongExtremeTier string  `yaml:"long_extreme_tier" default:"WATCH" validate:"oneof=INFO WATCH"`
	DeepTailBand    float64 `yaml:"deep_tail_band" default:"1" validate:"gte=0,lt=50"`

	// Jump thresholds on day-over-day changes.
	JumpZ       float64     `yaml:"jump_z" default:"1.5" validate:"gt=0"`
	JumpP       float64     `yaml:"jump_p" default:"25" validate:"gt=0"`
	JumpRet     float64     `yaml:"jump_ret" default:"3" validate:"gt=0"`
	JumpVariant JumpVariant `yaml:"jump_variant" default:"or" validate:"oneof=or vote"`
	JumpVoteN   int         `yaml:"jump_vote_n" default:"2" validate:"gte=1,lte=3"`

	// NearTolerance is the relative band just below a jump threshold that
	// earns a NEAR tag without escalating.
	NearTolerance float64 `yaml:"near_tolerance" default:"0.10" validate:"gte=0,lt=1"`
}

type bundleFile struct {
	Rulesets []Ruleset `yaml:"rulesets" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadBundle reads a YAML ruleset bundle, fills defaults, and validates every
// entry. Duplicate ids are rejected.
func LoadBundle(path string) (map[string]Ruleset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulesets: %w", err)
	}

	var f bundleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse rulesets: %w", err)
	}
	for i := range f.Rulesets {
		if err := defaults.Set(&f.Rulesets[i]); err != nil {
			return nil, fmt.Errorf("ruleset defaults: %w", err)
		}
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("validate rulesets: %w", err)
	}

	out := make(map[string]Ruleset, len(f.Rulesets))
	for _, rs := range f.Rulesets {
		if _, dup := out[rs.ID]; dup {
			return nil, fmt.Errorf("duplicate ruleset id %q", rs.ID)
		}
		out[rs.ID] = rs
	}
	return out, nil
}
