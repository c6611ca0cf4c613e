package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryModeHasConfig(t *testing.T) {
	require.Len(t, All(), 11)
	for _, m := range All() {
		t.Run(string(m), func(t *testing.T) {
			cfg := ConfigFor(m)
			assert.NotEmpty(t, cfg.Title)
			assert.NotEmpty(t, cfg.Description)
			assert.NotEmpty(t, cfg.SystemPrompt)
		})
	}
	assert.Len(t, registry, len(order), "registry and display order must agree")
}

func TestEveryModifierPopulated(t *testing.T) {
	for _, l := range ExpertiseLevels() {
		assert.NotEmpty(t, ExpertiseModifier(l), l)
	}
	for _, g := range Goals() {
		assert.NotEmpty(t, GoalModifier(g), g)
	}
}

func TestUnknownKeyPanics(t *testing.T) {
	assert.Panics(t, func() { ConfigFor(Mode("CRYPTO")) })
	assert.Panics(t, func() { ExpertiseModifier(ExpertiseLevel("GURU")) })
	assert.Panics(t, func() { GoalModifier(FinancialGoal("YOLO")) })
}

func TestParse(t *testing.T) {
	m, err := Parse(" trading ")
	require.NoError(t, err)
	assert.Equal(t, Trading, m)

	_, err = Parse("crypto")
	assert.Error(t, err)

	l, err := ParseExpertise("pro")
	require.NoError(t, err)
	assert.Equal(t, Pro, l)

	g, err := ParseGoal("Income")
	require.NoError(t, err)
	assert.Equal(t, Income, g)

	_, err = ParseGoal("lottery")
	assert.Error(t, err)
}

func TestNextWraps(t *testing.T) {
	assert.Equal(t, Portfolio, Next(Trading))
	assert.Equal(t, Trading, Next(History))
	assert.Equal(t, Intermediate, Beginner.Next())
	assert.Equal(t, Beginner, Pro.Next())
	assert.Equal(t, Accumulation, Income.Next())
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = History
	assert.Equal(t, Trading, All()[0])
}
