package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleEquality(t *testing.T) {
	c, err := Compile("type = 'order'")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"type": "order"}))
	assert.False(t, c.Matches(map[string]string{"type": "invoice"}))
}

func TestNumericComparison(t *testing.T) {
	c, err := Compile("priority > 5")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"priority": "9"}))
	assert.False(t, c.Matches(map[string]string{"priority": "3"}))
}

func TestAndOrPrecedence(t *testing.T) {
	c, err := Compile("type = 'order' AND priority > 5 OR urgent = 'true'")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"type": "order", "priority": "9"}))
	assert.True(t, c.Matches(map[string]string{"urgent": "true"}))
	assert.False(t, c.Matches(map[string]string{"type": "invoice", "priority": "1"}))
}

func TestParentheses(t *testing.T) {
	c, err := Compile("(type = 'order' OR type = 'invoice') AND priority >= 3")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"type": "invoice", "priority": "3"}))
	assert.False(t, c.Matches(map[string]string{"type": "invoice", "priority": "1"}))
}

func TestNot(t *testing.T) {
	c, err := Compile("NOT (status = 'cancelled')")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"status": "open"}))
	assert.False(t, c.Matches(map[string]string{"status": "cancelled"}))
}

func TestIsNullAndIsNotNull(t *testing.T) {
	c, err := Compile("region IS NULL")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{}))
	assert.False(t, c.Matches(map[string]string{"region": "eu"}))

	c2, err := Compile("region IS NOT NULL")
	require.NoError(t, err)
	assert.False(t, c2.Matches(map[string]string{}))
	assert.True(t, c2.Matches(map[string]string{"region": "eu"}))
}

func TestLike(t *testing.T) {
	c, err := Compile("destination LIKE '/topic/%'")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"destination": "/topic/orders"}))
	assert.False(t, c.Matches(map[string]string{"destination": "/queue/orders"}))
}

func TestNotLike(t *testing.T) {
	c, err := Compile("destination NOT LIKE '/queue/%'")
	require.NoError(t, err)
	assert.True(t, c.Matches(map[string]string{"destination": "/topic/orders"}))
	assert.False(t, c.Matches(map[string]string{"destination": "/queue/orders"}))
}

func TestMissingHeaderComparisonIsFalseNotError(t *testing.T) {
	c, err := Compile("region = 'eu'")
	require.NoError(t, err)
	assert.False(t, c.Matches(map[string]string{}))
}

func TestCompileErrorOnMalformedSelector(t *testing.T) {
	_, err := Compile("type = ")
	require.Error(t, err)
}

func TestRawPreservesOriginalText(t *testing.T) {
	c, err := Compile("type = 'order'")
	require.NoError(t, err)
	assert.Equal(t, "type = 'order'", c.Raw())
}
