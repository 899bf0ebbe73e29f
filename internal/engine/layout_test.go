package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayoutMatchesClassic(t *testing.T) {
	lines := []string{
		"WWWWW",
		"WPDGW",
		"WPPPW",
		"WPWPW",
		"WSPPW",
		"WWWWW",
	}
	layout, err := ParseLayout("text", lines, DefaultRewards())
	require.NoError(t, err)
	assert.Equal(t, 4, layout.Rows)
	assert.Equal(t, 3, layout.Cols)

	parsed, err := layout.Build(rand.New(rand.NewSource(7)), discardLogger())
	require.NoError(t, err)
	classic := newClassicGrid(t, 7)
	assert.Equal(t, classic.Render(), parsed.Render())

	goal := mustCell(t, parsed, 4, 3)
	assert.Equal(t, RewardDistribution{Mean: 10}, goal.Reward())

	a, err := NewEvaluator(parsed, classicConfig(OrderForward, 1e-5))
	require.NoError(t, err)
	b, err := NewEvaluator(classic, classicConfig(OrderForward, 1e-5))
	require.NoError(t, err)
	a.Init()
	b.Init()
	ra, err := a.Solve()
	require.NoError(t, err)
	rb, err := b.Solve()
	require.NoError(t, err)
	assert.Equal(t, rb.Values, ra.Values)
}

func TestParseLayoutSpacedTokensAndNames(t *testing.T) {
	lines := []string{
		"R R R R",
		"R Bonus Goal R",
		"R S Fine R",
		"R R R R",
	}
	layout, err := ParseLayout("spaced", lines, nil)
	require.NoError(t, err)

	grid, err := layout.Build(nil, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"RRRR", "RBGR", "RSFR", "RRRR"}, grid.Render())
	start, ok := grid.StartCell()
	require.True(t, ok)
	assert.Equal(t, Location{Row: 1, Col: 1}, start.Location())
	assert.Equal(t, RewardDistribution{}, mustCell(t, grid, 2, 2).Reward())
}

func TestParseLayoutRejectsBadMaps(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"unknown tag", []string{"WWW", "WXW", "WWW"}},
		{"ragged", []string{"WWW", "WPPW", "WWW"}},
		{"too small", []string{"WW", "WW"}},
		{"empty", nil},
		{"open perimeter", []string{"PPP", "PSP", "PPP"}},
		{"goal on perimeter", []string{"WWWW", "WSPG", "WWWW"}},
		{"start on perimeter", []string{"WSW", "WPW", "WWW"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout(tt.name, tt.lines, nil)
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestLayoutBuildAppliesResetPolicies(t *testing.T) {
	layout := ClassicLayout()
	layout.BorderReset = ResetToStart
	layout.TerminalReset = ResetToRandomPath
	layout.BaseReward = -0.5

	grid, err := layout.Build(nil, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ResetToStart, grid.BorderReset())
	assert.Equal(t, ResetToRandomPath, grid.TerminalReset())
	assert.Equal(t, -0.5, grid.BaseReward())

	layout.TerminalReset = "elsewhere"
	_, err = layout.Build(nil, discardLogger())
	assert.ErrorIs(t, err, ErrUnknownResetPolicy)
}

func TestLayoutBuildReportsPlacementErrors(t *testing.T) {
	layout := ClassicLayout()
	layout.Placements = append(layout.Placements, Placement{Location: Location{Row: 7, Col: 1}, Category: Goal})
	_, err := layout.Build(nil, discardLogger())
	assert.ErrorIs(t, err, ErrOutOfBounds)

	layout = ClassicLayout()
	layout.Rows = 0
	_, err = layout.Build(nil, discardLogger())
	assert.ErrorIs(t, err, ErrInvalidShape)
}
