package runner

import (
	"fmt"
	"strings"

	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/engine"
)

const (
	ActionsFour  = "four"
	ActionsEight = "eight"
)

// Settings is everything needed to build and evaluate one grid.
type Settings struct {
	Name          string
	Map           []string
	Rewards       map[engine.Category]engine.RewardDistribution
	Actions       string
	Order         engine.Order
	Gamma         float64
	Threshold     float64
	BaseReward    float64
	Seed          int64
	BorderReset   engine.ResetPolicy
	TerminalReset engine.ResetPolicy
	MaxSweeps     int
}

func FromConfig(cfg config.Config) (Settings, error) {
	order, err := engine.ParseOrder(cfg.Order)
	if err != nil {
		return Settings{}, err
	}
	border, err := engine.ParseResetPolicy(cfg.BorderReset)
	if err != nil {
		return Settings{}, fmt.Errorf("border reset: %w", err)
	}
	terminal, err := engine.ParseResetPolicy(cfg.TerminalReset)
	if err != nil {
		return Settings{}, fmt.Errorf("terminal reset: %w", err)
	}
	return Settings{
		Actions:       ActionsFour,
		Order:         order,
		Gamma:         cfg.Gamma,
		Threshold:     cfg.Threshold,
		BaseReward:    cfg.BaseReward,
		Seed:          cfg.Seed,
		BorderReset:   border,
		TerminalReset: terminal,
		MaxSweeps:     cfg.MaxSweeps,
	}, nil
}

// Request is the JSON form of an evaluation as accepted over HTTP and by
// the browser driver. Zero or nil fields keep the base settings.
type Request struct {
	Name          string                               `json:"name,omitempty"`
	Map           []string                             `json:"map,omitempty"`
	Rewards       map[string]engine.RewardDistribution `json:"rewards,omitempty"`
	Actions       string                               `json:"actions,omitempty"`
	Order         string                               `json:"order,omitempty"`
	Gamma         *float64                             `json:"gamma,omitempty"`
	Threshold     *float64                             `json:"threshold,omitempty"`
	BaseReward    *float64                             `json:"baseReward,omitempty"`
	Seed          *int64                               `json:"seed,omitempty"`
	BorderReset   string                               `json:"borderReset,omitempty"`
	TerminalReset string                               `json:"terminalReset,omitempty"`
	MaxSweeps     int                                  `json:"maxSweeps,omitempty"`
}

func (r Request) Apply(base Settings) (Settings, error) {
	s := base
	if r.Name != "" {
		s.Name = r.Name
	}
	if len(r.Map) > 0 {
		s.Map = append([]string(nil), r.Map...)
	}
	if len(r.Rewards) > 0 {
		s.Rewards = make(map[engine.Category]engine.RewardDistribution, len(r.Rewards))
		for key, reward := range r.Rewards {
			category, err := engine.ParseCategory(key)
			if err != nil {
				return Settings{}, fmt.Errorf("rewards: %w", err)
			}
			s.Rewards[category] = reward
		}
	}
	if r.Actions != "" {
		s.Actions = strings.ToLower(r.Actions)
	}
	if r.Order != "" {
		order, err := engine.ParseOrder(r.Order)
		if err != nil {
			return Settings{}, err
		}
		s.Order = order
	}
	if r.Gamma != nil {
		s.Gamma = *r.Gamma
	}
	if r.Threshold != nil {
		s.Threshold = *r.Threshold
	}
	if r.BaseReward != nil {
		s.BaseReward = *r.BaseReward
	}
	if r.Seed != nil {
		s.Seed = *r.Seed
	}
	if r.BorderReset != "" {
		p, err := engine.ParseResetPolicy(r.BorderReset)
		if err != nil {
			return Settings{}, fmt.Errorf("border reset: %w", err)
		}
		s.BorderReset = p
	}
	if r.TerminalReset != "" {
		p, err := engine.ParseResetPolicy(r.TerminalReset)
		if err != nil {
			return Settings{}, fmt.Errorf("terminal reset: %w", err)
		}
		s.TerminalReset = p
	}
	if r.MaxSweeps > 0 {
		s.MaxSweeps = r.MaxSweeps
	}
	return s, nil
}

// Layout is the classic demo world when no map is set, otherwise the parsed
// map with rewards laid over the default reward table.
func (s Settings) Layout() (engine.Layout, error) {
	var layout engine.Layout
	if len(s.Map) == 0 {
		layout = engine.ClassicLayout()
		if s.Name != "" {
			layout.Name = s.Name
		}
	} else {
		rewards := engine.DefaultRewards()
		for c, r := range s.Rewards {
			rewards[c] = r
		}
		name := s.Name
		if name == "" {
			name = "custom"
		}
		parsed, err := engine.ParseLayout(name, s.Map, rewards)
		if err != nil {
			return engine.Layout{}, err
		}
		layout = parsed
	}
	layout.BaseReward = s.BaseReward
	layout.BorderReset = s.BorderReset
	layout.TerminalReset = s.TerminalReset
	return layout, nil
}

func (s Settings) ActionSet() ([]engine.Action, error) {
	switch s.Actions {
	case "", ActionsFour:
		return engine.FourNeighbors(), nil
	case ActionsEight:
		return engine.EightNeighbors(), nil
	default:
		return nil, fmt.Errorf("%w: unknown action set %q", engine.ErrEmptyActionSet, s.Actions)
	}
}

func (s Settings) EvaluatorConfig() (engine.Config, error) {
	actions, err := s.ActionSet()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		Actions:   actions,
		Gamma:     s.Gamma,
		Threshold: s.Threshold,
		Order:     s.Order,
		MaxSweeps: s.MaxSweeps,
	}, nil
}
