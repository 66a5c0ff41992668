package models

import (
	"encoding/json"
	"fmt"
)

// Tier is the ordered risk-signal level. Ordering matters: the quality gate
// may only move a record toward TierNone, never away from it.
type Tier int

const (
	TierNone Tier = iota
	TierInfo
	TierWatch
	TierAlert
)

var tierNames = map[Tier]string{
	TierNone:  "NONE",
	TierInfo:  "INFO",
	TierWatch: "WATCH",
	TierAlert: "ALERT",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TIER(%d)", int(t))
}

// ParseTier maps a ledger string back to a Tier. Unknown values collapse to
// TierNone so a hand-edited ledger degrades instead of failing the run.
func ParseTier(s string) Tier {
	for t, name := range tierNames {
		if name == s {
			return t
		}
	}
	return TierNone
}

// Min returns the lower of two tiers.
func (t Tier) Min(o Tier) Tier {
	if o < t {
		return o
	}
	return t
}

// Max returns the higher of two tiers.
func (t Tier) Max(o Tier) Tier {
	if o > t {
		return o
	}
	return t
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tier: %w", err)
	}
	*t = ParseTier(s)
	return nil
}
