// Package humanize makes generated replies read less machine-perfect.
package humanize

import (
	"math/rand"
	"strings"
)

const DefaultTypoRate = 0.02

// IntroduceTypos injects small typos (adjacent-letter swap or letter removal)
// into roughly rate of the words, at least one for short texts. Words of a
// single rune are left alone.
func IntroduceTypos(text string, rate float64, rng *rand.Rand) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	if rate <= 0 {
		rate = DefaultTypoRate
	}

	numTypos := int(float64(len(words)) * rate)
	if numTypos < 1 {
		numTypos = 1
	}
	if numTypos > len(words) {
		numTypos = len(words)
	}

	for _, idx := range rng.Perm(len(words))[:numTypos] {
		word := []rune(words[idx])
		if len(word) < 2 {
			continue
		}
		if rng.Intn(2) == 0 {
			pos := rng.Intn(len(word) - 1)
			word[pos], word[pos+1] = word[pos+1], word[pos]
			words[idx] = string(word)
		} else {
			pos := rng.Intn(len(word))
			words[idx] = string(word[:pos]) + string(word[pos+1:])
		}
	}
	return strings.Join(words, " ")
}
