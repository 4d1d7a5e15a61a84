package game

import (
	"math/rand/v2"
	"slices"
	"unicode/utf8"

	"github.com/samber/lo"
)

var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F1E0, 0x1F1FF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
	{0x1F900, 0x1F9FF},
	{0x1FA70, 0x1FAFF},
	{0x2B50, 0x2B55},
	{0x1F0CF, 0x1F0CF},
}

const (
	variationSelector = 0xFE0F
	zeroWidthJoiner   = 0x200D
	maxEmojiRunes     = 8
)

// emojiPool feeds RandomEmojis.
var emojiPool = []string{
	"🎁", "🎀", "📦", "🎊", "✨", "🎂", "🍰", "🧁", "🍭", "🍬",
	"🚀", "🌟", "⭐", "💎", "🔥", "❤", "🎯", "🏆", "👑", "💫",
	"🌈", "🦄", "🎪", "🎨", "🎭", "🎬", "🎮", "🎲", "🃏", "🎺",
	"🎸", "🥳", "🤩", "😎", "🤖", "👾", "🔮", "💝", "🎟", "🏅",
}

func isEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// ParseEmojis extracts the distinct emoji code points from free text, in
// order of first appearance. Input without any emoji yields DefaultEmojis.
func ParseEmojis(input string) []string {
	found := lo.FilterMap([]rune(input), func(r rune, _ int) (string, bool) {
		return string(r), isEmoji(r)
	})
	found = lo.Uniq(found)
	if len(found) == 0 {
		return slices.Clone(DefaultEmojis)
	}
	return found
}

// ValidEmoji reports whether s is a single gift symbol: an emoji code point,
// optionally joined with further emoji or variation selectors.
func ValidEmoji(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxEmojiRunes {
		return false
	}
	for i, r := range []rune(s) {
		if isEmoji(r) {
			continue
		}
		if i == 0 || (r != variationSelector && r != zeroWidthJoiner) {
			return false
		}
	}
	return true
}

// RandomEmojis draws n emojis from the built-in pool and drops repeats, so
// the result may be shorter than n.
func RandomEmojis(rng *rand.Rand, n int) []string {
	picks := make([]string, 0, n)
	for range n {
		picks = append(picks, emojiPool[rng.IntN(len(emojiPool))])
	}
	return lo.Uniq(picks)
}
