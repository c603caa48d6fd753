package stats

// Stats is a named set of integer game-state values (e.g. courage, gold).
// It is carried turn-to-turn by the caller; the engine never stores it.
type Stats map[string]int

// Config defines one stat a story tracks, including its starting value
// and the bounds the story author configured for it.
type Config struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Initial     int    `json:"initial_value"`
	Min         int    `json:"min_value"`
	Max         int    `json:"max_value"`
}

// Clone returns an independent copy of the stats map.
// Cloning a nil map returns an empty, non-nil map.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Apply returns a new stats map with the given additive effects applied.
// Keys absent from the input stats are created with a zero baseline,
// so applying {"courage": 2} to an empty map yields {"courage": 2}.
// Existing keys are never removed. The input map is not mutated.
func Apply(s Stats, effects map[string]int) Stats {
	out := s.Clone()
	for name, delta := range effects {
		out[name] = out[name] + delta
	}
	return out
}

// InitialFrom builds the starting stats map from a story's stat configs.
func InitialFrom(configs []Config) Stats {
	out := make(Stats, len(configs))
	for _, c := range configs {
		out[c.Name] = c.Initial
	}
	return out
}

// ClampTo bounds configured stats to their [Min, Max] range in place and
// returns the receiver. Stats without a config are left untouched, so
// effects can still introduce ad-hoc keys.
func (s Stats) ClampTo(configs []Config) Stats {
	for _, c := range configs {
		v, ok := s[c.Name]
		if !ok {
			continue
		}
		if c.Max > c.Min {
			if v < c.Min {
				v = c.Min
			}
			if v > c.Max {
				v = c.Max
			}
			s[c.Name] = v
		}
	}
	return s
}
