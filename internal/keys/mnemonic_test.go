package keys

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

func TestGenerateMnemonic(t *testing.T) {
	t.Parallel()
	mnemonic, err := GenerateMnemonic()
	require.NoError(t, err)

	assert.Len(t, strings.Fields(mnemonic), 12)
	require.NoError(t, ValidateMnemonic(mnemonic))
}

func TestGenerateMnemonicUnique(t *testing.T) {
	t.Parallel()
	first, err := GenerateMnemonic()
	require.NoError(t, err)
	second, err := GenerateMnemonic()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateMnemonic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12 words", testMnemonic, true},
		{"valid with extra whitespace", "  abandon  abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about ", true},
		{"valid uppercase", strings.ToUpper(testMnemonic), true},
		{"empty", "", false},
		{"wrong word count", "abandon abandon abandon", false},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", false},
		{"misspelled word", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abuot", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMnemonic(tt.mnemonic)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.ErrorIs(t, err, walleterr.ErrInvalidMnemonic)
			}
		})
	}
}

func TestValidateMnemonicSuggestsWord(t *testing.T) {
	t.Parallel()
	err := ValidateMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abuot")
	require.ErrorIs(t, err, walleterr.ErrInvalidMnemonic)

	we, ok := walleterr.GetWalletError(err)
	require.True(t, ok)
	assert.Equal(t, "abuot", we.Details["word"])
	assert.Equal(t, "about", we.Details["did_you_mean"])
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()
	// Exact wordlist entries come back unchanged.
	assert.Equal(t, "zoo", SuggestWord("zoo"))
	// Close misspellings resolve to the nearest entry.
	assert.Equal(t, "about", SuggestWord("abuot"))
	// Nothing within distance 2 yields no suggestion.
	assert.Empty(t, SuggestWord("xylophone"))
}

func TestMnemonicToSeedVector(t *testing.T) {
	t.Parallel()
	// Trezor BIP39 vector, empty passphrase differs from the published
	// "TREZOR" passphrase vectors; this value is for passphrase "".
	seed, err := MnemonicToSeed(testMnemonic)
	require.NoError(t, err)
	assert.Equal(t,
		"5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4",
		hex.EncodeToString(seed),
	)
}

func TestMnemonicToSeedRejectsInvalid(t *testing.T) {
	t.Parallel()
	_, err := MnemonicToSeed("not a mnemonic at all")
	require.ErrorIs(t, err, walleterr.ErrInvalidMnemonic)
}

func TestNormalizeMnemonic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abandon about", NormalizeMnemonic("  Abandon\t ABOUT \n"))
}
