package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		expected string
	}{
		{"single", K("trending"), "trending"},
		{"category page", K("category", "action", 2), "category:action:#2"},
		{"mixed primitives", K("x", true, int64(-3), uint8(7), 1.5), "x:?true:#-3:#7:~1.5"},
		{"string with sigil", K("tag", "#2"), `tag:\#2`},
		{"escaped colon", K("search", "star wars: a new hope"), `search:star wars\: a new hope`},
		{"escaped backslash", K(`a\`, "b"), `a\\:b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.key.String())
		})
	}
}

func TestKey_NoCollisions(t *testing.T) {
	assert.False(t, K("a:b").Equal(K("a", "b")))
	assert.True(t, K("genre", 28).Equal(K("genre", 28)))
	assert.True(t, K("genre", 28).Equal(K("genre", int64(28))))

	distinct := []Key{
		K("genre", 28),
		K("genre", "28"),
		K("genre", "#28"),
		K("genre", 28.0),
		K("flag", true),
		K("flag", "true"),
		K("flag", "?true"),
	}
	for i := range distinct {
		for j := range distinct {
			if i != j {
				assert.False(t, distinct[i].Equal(distinct[j]), "%v vs %v", distinct[i], distinct[j])
			}
		}
	}
}

func TestKey_AppendDoesNotAlias(t *testing.T) {
	base := make(Key, 2, 8)
	base[0], base[1] = "category", "action"

	p1 := base.Append(1)
	p2 := base.Append(2)

	assert.Equal(t, "category:action:#1", p1.String())
	assert.Equal(t, "category:action:#2", p2.String())
	assert.Len(t, base, 2)
}

func TestKey_Validate(t *testing.T) {
	assert.NoError(t, K("a", 1, false, 2.5).validate())
	assert.Error(t, K().validate())
	assert.Error(t, K("a", struct{}{}).validate())
	assert.Error(t, K("a", nil).validate())
}
