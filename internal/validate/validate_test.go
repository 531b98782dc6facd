package validate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain", "jerry", true},
		{"mixed case", "Elaine", true},
		{"leading underscore", "_kramer", true},
		{"digits and dashes", "george-costanza_2", true},
		{"single letter", "j", true},
		{"single underscore", "_", true},
		{"empty", "", false},
		{"leading digit", "1newman", false},
		{"leading dash", "-newman", false},
		{"inner space", "uncle leo", false},
		{"surrounding space is not trimmed here", " jerry ", false},
		{"dot", "j.seinfeld", false},
		{"brace", "jerry{", false},
		{"angle", "<script>", false},
		{"tab", "jer\try", false},
		{"non-ascii letter", "jérry", false},
		{"emoji", "jerry🙂", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidUsername(tt.in))
		})
	}
}

func TestIsValidUsername_AgreesWithGrammar(t *testing.T) {
	grammar := regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	samples := []string{
		"a", "Z9", "_-", "a-b-c", "abc_", "9", "-", "a b", "a.b", "a\nb",
		"ñ", "a/b", "a@b", "ab", "A_B-C_9",
	}
	for _, s := range samples {
		assert.Equal(t, grammar.MatchString(s), IsValidUsername(s), "sample %q", s)
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "jerry", NormalizeUsername("  jerry\t\n"))
	assert.Equal(t, "", NormalizeUsername("   "))
	assert.Equal(t, "uncle leo", NormalizeUsername(" uncle leo "))
}

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword("", 0))
	assert.False(t, IsValidPassword("", 1))
	assert.True(t, IsValidPassword("x", 0))
	assert.True(t, IsValidPassword("x", 1))
	assert.False(t, IsValidPassword("short", 8))
	assert.True(t, IsValidPassword("longenough", 8))
}
