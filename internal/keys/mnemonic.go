package keys

import (
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

var (
	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// GenerateMnemonic creates a new 12-word BIP39 mnemonic phrase from
// 128 bits of fresh entropy.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", err
	}

	return mnemonic, nil
}

// ValidateMnemonic checks word count, word validity, and checksum.
func ValidateMnemonic(mnemonic string) error {
	if mnemonic == "" {
		return walleterr.ErrInvalidMnemonic
	}

	normalized := NormalizeMnemonic(mnemonic)

	// Fast word count check before the checksum work.
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return walleterr.ErrInvalidMnemonic
	}

	if !bip39.IsMnemonicValid(normalized) {
		// Point the user at the first misspelled word, if any.
		for _, w := range words {
			if suggestion := SuggestWord(w); suggestion != "" && suggestion != w {
				return walleterr.WithDetail(
					walleterr.WithDetail(walleterr.ErrInvalidMnemonic, "word", w),
					"did_you_mean", suggestion,
				)
			}
		}
		return walleterr.ErrInvalidMnemonic
	}

	return nil
}

// NormalizeMnemonic lowercases, trims, and collapses whitespace.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// SuggestWord returns the closest BIP39 wordlist entry for a word, or
// empty when nothing is within editing distance 2.
func SuggestWord(word string) string {
	if _, ok := bip39.GetWordIndex(word); ok {
		return word
	}

	best := ""
	bestDistance := math.MaxInt
	for _, candidate := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(word, candidate)
		if d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}

	if bestDistance > 2 {
		return ""
	}
	return best
}

// MnemonicToSeed converts a mnemonic phrase to a 64-byte BIP39 seed.
// The returned seed should be zeroed by the caller after use.
func MnemonicToSeed(mnemonic string) ([]byte, error) {
	normalized := NormalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(normalized) {
		return nil, walleterr.ErrInvalidMnemonic
	}

	return bip39.NewSeed(normalized, ""), nil
}
