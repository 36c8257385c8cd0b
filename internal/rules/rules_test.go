package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_Cat(t *testing.T) {
	want := []string{
		"cat", "Cat", "CAT",
		"cat1", "cat123", "cat!", "cat2024", "cat2025",
		"!cat", "@cat", "#cat", "$cat",
		"c@t",
	}
	assert.Equal(t, want, Apply("cat"))
	assert.Equal(t, Apply("cat"), Apply("cat"), "order must be stable across calls")
	assert.Len(t, want, MaxVariants)
}

func TestApply_NoLeetVowel(t *testing.T) {
	got := Apply("xyz")
	assert.Len(t, got, MaxVariants-1)
	assert.Equal(t, "$xyz", got[len(got)-1])
}

func TestApply_LeetSubstitution(t *testing.T) {
	got := Apply("password")
	assert.Equal(t, "p@ssw0rd", got[len(got)-1])
	assert.Contains(t, got, "password1")

	got = Apply("eoa")
	assert.Equal(t, "30@", got[len(got)-1])
}

func TestApply_CapitalizeLowersTail(t *testing.T) {
	got := Apply("hELLO")
	assert.Equal(t, "Hello", got[1])
	assert.Equal(t, "HELLO", got[2])
}

func TestApply_EmptyWord(t *testing.T) {
	got := Apply("")
	assert.Equal(t, []string{"", "", "1", "123", "!", "2024", "2025", "!", "@", "#", "$"}, got)
}

func TestCount(t *testing.T) {
	for _, w := range []string{"", "cat", "xyz", "Éclair", "ooo", "123"} {
		assert.Equal(t, len(Apply(w)), Count(w), w)
	}
}

func TestEach_StopsEarly(t *testing.T) {
	var seen []string
	completed := Each("cat", func(v string) bool {
		seen = append(seen, v)
		return v != "cat1"
	})
	assert.False(t, completed)
	assert.Equal(t, []string{"cat", "Cat", "CAT", "cat1"}, seen)
}
