package engine

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Category is the semantic tag of a cell. The zero value marks a cell that
// has never been configured.
type Category int

const (
	Unset Category = iota
	Wall
	Start
	Path
	Fine
	Bonus
	Tunnel
	Ravine
	Goal
	Ditch
)

var categoryNames = [...]string{"Unset", "Wall", "Start", "Path", "Fine", "Bonus", "Tunnel", "Ravine", "Goal", "Ditch"}

var categoryTags = [...]string{".", "W", "S", "P", "F", "B", "T", "R", "G", "D"}

func (c Category) Valid() bool {
	return c > Unset && c <= Ditch
}

func (c Category) String() string {
	if c < Unset || c > Ditch {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Tag is the single-letter form used by text layouts and exports.
func (c Category) Tag() string {
	if c < Unset || c > Ditch {
		return "?"
	}
	return categoryTags[c]
}

// Traits derives accessibility and reset behaviour from the category alone.
func (c Category) Traits() (accessible, resets bool) {
	switch c {
	case Ravine, Goal, Ditch:
		return true, true
	case Start, Path, Fine, Bonus, Tunnel:
		return true, false
	default:
		return false, false
	}
}

func (c Category) terminal() bool {
	return c == Goal || c == Ditch
}

func (c Category) evaluable() bool {
	return c == Path || c == Start
}

func (c Category) occupiable() bool {
	switch c {
	case Path, Start, Fine, Bonus, Tunnel, Goal, Ditch:
		return true
	}
	return false
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.Tag()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory accepts either the tag ("G") or the name ("Goal"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for c := Wall; c <= Ditch; c++ {
		if strings.EqualFold(s, categoryTags[c]) || strings.EqualFold(s, categoryNames[c]) {
			return c, nil
		}
	}
	return Unset, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// RewardDistribution parameterises the normal reward sampled from a cell.
type RewardDistribution struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

func (r RewardDistribution) validate() error {
	if r.Variance < 0 || math.IsNaN(r.Variance) {
		return fmt.Errorf("%w: got %g", ErrNegativeVariance, r.Variance)
	}
	return nil
}

func (r RewardDistribution) sample(rng *rand.Rand) float64 {
	return r.Mean + math.Sqrt(r.Variance)*rng.NormFloat64()
}

func (r RewardDistribution) String() string {
	return fmt.Sprintf("(%g, %g)", r.Mean, r.Variance)
}

type Cell struct {
	loc        Location
	category   Category
	accessible bool
	resets     bool
	actions    Direction
	reward     RewardDistribution
	value      float64
	configured bool
}

func (c *Cell) Location() Location { return c.loc }

func (c *Cell) Category() Category { return c.category }

func (c *Cell) Accessible() bool { return c.accessible }

func (c *Cell) Resets() bool { return c.resets }

func (c *Cell) Actions() Direction { return c.actions }

func (c *Cell) Reward() RewardDistribution { return c.reward }

func (c *Cell) Value() float64 { return c.value }

func (c *Cell) Configured() bool { return c.configured }

func (c *Cell) setCategory(category Category) {
	c.category = category
	c.deriveTraits()
}

// SampleReward draws from the cell's reward distribution.
func (c *Cell) SampleReward(rng *rand.Rand) float64 {
	return c.reward.sample(rng)
}

// configure reassigns every property of the cell. Arguments are validated by
// the caller. It reports whether the cell had already been configured.
func (c *Cell) configure(category Category, loc Location, reward RewardDistribution, actions Direction) bool {
	overwritten := c.configured
	c.loc = loc
	c.category = category
	c.reward = reward
	c.actions = actions
	c.deriveTraits()
	c.configured = true
	return overwritten
}

func (c *Cell) deriveTraits() {
	c.accessible, c.resets = c.category.Traits()
	if !c.accessible || c.resets {
		c.actions = NoActions
	}
}

func validateCell(category Category, reward RewardDistribution) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return reward.validate()
}
