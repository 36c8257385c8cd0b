// Package rules expands dictionary words into mangled variants.
//
// The variants of a word, in order:
//
//	word
//	Capitalized        (only for non-empty words)
//	UPPERCASE
//	word + suffix      for each of Suffixes
//	prefix + word      for each of Prefixes
//	leetspeak          (only if the word contains e, o or a)
//
// Variants are not deduplicated; the list and its order are fixed.
package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	Suffixes = []string{"1", "123", "!", "2024", "2025"}
	Prefixes = []string{"!", "@", "#", "$"}
)

// MaxVariants bounds the number of variants of any word.
var MaxVariants = 3 + len(Suffixes) + len(Prefixes) + 1

var leet = strings.NewReplacer("e", "3", "o", "0", "a", "@")

// Each calls yield with every variant of word in order. It returns false if yield
// stopped the expansion.
func Each(word string, yield func(string) bool) bool {
	if !yield(word) {
		return false
	}
	if word != "" && !yield(Capitalize(word)) {
		return false
	}
	if !yield(strings.ToUpper(word)) {
		return false
	}
	for _, s := range Suffixes {
		if !yield(word + s) {
			return false
		}
	}
	for _, p := range Prefixes {
		if !yield(p + word) {
			return false
		}
	}
	if hasLeetVowel(word) {
		return yield(leet.Replace(word))
	}
	return true
}

// Apply returns every variant of word.
func Apply(word string) []string {
	out := make([]string, 0, MaxVariants)
	Each(word, func(v string) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Count is len(Apply(word)) without building the variants.
func Count(word string) int {
	n := MaxVariants
	if word == "" {
		n--
	}
	if !hasLeetVowel(word) {
		n--
	}
	return n
}

// Capitalize upper-cases the first character and lower-cases the rest.
func Capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return word
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(word[size:])
}

func hasLeetVowel(word string) bool {
	return strings.ContainsAny(word, "eoa")
}
