package keys

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/goodwallet/goodwallet/internal/secure"
)

// hdNetParams satisfies hdkeychain.NetworkParams for BIP32 key derivation.
// Uses standard Bitcoin mainnet HD version bytes.
type hdNetParams struct{}

func (hdNetParams) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xAD, 0xE4} }
func (hdNetParams) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xB2, 0x1E} }

// Account is a derived keypair bound to a usage tag. Accounts are
// recomputed from the seed on every initialization and the private
// material never leaves process memory.
type Account struct {
	Usage   Usage
	Index   uint32
	Path    string
	Address common.Address

	priv *ecdsa.PrivateKey
}

// PrivateKey returns the account's signing key.
func (a *Account) PrivateKey() *ecdsa.PrivateKey {
	return a.priv
}

// Destroy zeros the private scalar. The account cannot sign afterwards.
func (a *Account) Destroy() {
	if a.priv != nil && a.priv.D != nil {
		a.priv.D.SetInt64(0)
	}
	a.priv = nil
}

// Derive deterministically derives the account for a usage from a BIP39
// seed. The same seed and usage always yield the same address; distinct
// usages map to distinct, fixed derivation indexes.
func Derive(seed []byte, usage Usage) (*Account, error) {
	index, err := usage.Index()
	if err != nil {
		return nil, err
	}

	masterKey, err := hdkeychain.NewMaster(seed, hdNetParams{})
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	key, err := deriveBIP44Key(masterKey, index)
	if err != nil {
		return nil, err
	}

	serialized, err := key.SerializedPrivKey()
	if err != nil {
		return nil, fmt.Errorf("serializing private key: %w", err)
	}
	defer secure.Zero(serialized)

	priv, err := ethcrypto.ToECDSA(serialized)
	if err != nil {
		return nil, fmt.Errorf("building ecdsa key: %w", err)
	}

	return &Account{
		Usage:   usage,
		Index:   index,
		Path:    usage.DerivationPath(),
		Address: ethcrypto.PubkeyToAddress(priv.PublicKey),
		priv:    priv,
	}, nil
}

// DeriveAll derives accounts for every usage.
func DeriveAll(seed []byte) (map[Usage]*Account, error) {
	accounts := make(map[Usage]*Account, len(AllUsages()))
	for _, usage := range AllUsages() {
		account, err := Derive(seed, usage)
		if err != nil {
			for _, a := range accounts {
				a.Destroy()
			}
			return nil, fmt.Errorf("deriving %s account: %w", usage, err)
		}
		accounts[usage] = account
	}
	return accounts, nil
}

// deriveBIP44Key derives a key following the BIP44 path structure
// m/44'/60'/0'/0/index.
func deriveBIP44Key(masterKey *hdkeychain.ExtendedKey, index uint32) (*hdkeychain.ExtendedKey, error) {
	purposeKey, err := masterKey.ChildBIP32Std(hdkeychain.HardenedKeyStart + 44)
	if err != nil {
		return nil, fmt.Errorf("deriving purpose key: %w", err)
	}

	coinTypeKey, err := purposeKey.ChildBIP32Std(hdkeychain.HardenedKeyStart + 60)
	if err != nil {
		return nil, fmt.Errorf("deriving coin type key: %w", err)
	}

	accountKey, err := coinTypeKey.ChildBIP32Std(hdkeychain.HardenedKeyStart)
	if err != nil {
		return nil, fmt.Errorf("deriving account key: %w", err)
	}

	changeKey, err := accountKey.ChildBIP32Std(0)
	if err != nil {
		return nil, fmt.Errorf("deriving change key: %w", err)
	}

	indexKey, err := changeKey.ChildBIP32Std(index)
	if err != nil {
		return nil, fmt.Errorf("deriving index key: %w", err)
	}

	return indexKey, nil
}
