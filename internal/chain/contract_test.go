package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenAddr = "0x495d133B938596C9984d462F007B676bDc57eCEC"

func TestNewContract(t *testing.T) {
	t.Parallel()
	token, err := NewContract("token", TokenABI, testTokenAddr)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testTokenAddr), token.Address)
	assert.Equal(t, "token", token.Name)
}

func TestNewContractRejectsBadAddress(t *testing.T) {
	t.Parallel()
	_, err := NewContract("token", TokenABI, "not-an-address")
	require.Error(t, err)
}

func TestNewContractRejectsBadABI(t *testing.T) {
	t.Parallel()
	_, err := NewContract("broken", `{"oops"`, testTokenAddr)
	require.Error(t, err)
}

func TestPackTransfer(t *testing.T) {
	t.Parallel()
	token, err := NewContract("token", TokenABI, testTokenAddr)
	require.NoError(t, err)

	data, err := token.Pack("transfer",
		common.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"),
		big.NewInt(1000),
	)
	require.NoError(t, err)

	// transfer(address,uint256) selector.
	assert.Equal(t, crypto.Keccak256([]byte("transfer(address,uint256)"))[:4], data[:4])
	// Selector plus two 32-byte words.
	assert.Len(t, data, 4+32+32)
}

func TestPackRejectsWrongArguments(t *testing.T) {
	t.Parallel()
	token, err := NewContract("token", TokenABI, testTokenAddr)
	require.NoError(t, err)

	_, err = token.Pack("transfer", "not an address", big.NewInt(1))
	require.Error(t, err)

	_, err = token.Pack("mint", big.NewInt(1))
	require.Error(t, err)
}

func TestUnpackBalance(t *testing.T) {
	t.Parallel()
	token, err := NewContract("token", TokenABI, testTokenAddr)
	require.NoError(t, err)

	encoded := common.LeftPadBytes(big.NewInt(123456).Bytes(), 32)

	var balance *big.Int
	require.NoError(t, token.Unpack("balanceOf", encoded, &balance))
	assert.Equal(t, big.NewInt(123456), balance)
}

func TestTransferEventID(t *testing.T) {
	t.Parallel()
	token, err := NewContract("token", TokenABI, testTokenAddr)
	require.NoError(t, err)

	id, err := token.EventID("Transfer")
	require.NoError(t, err)
	assert.Equal(t,
		common.BytesToHash(crypto.Keccak256([]byte("Transfer(address,address,uint256)"))),
		id,
	)

	_, err = token.EventID("Approval")
	require.Error(t, err)
}

func TestPaymentLinkABIs(t *testing.T) {
	t.Parallel()
	links, err := NewContract("paymentLinks", PaymentLinksABI, testTokenAddr)
	require.NoError(t, err)

	var code [32]byte
	copy(code[:], crypto.Keccak256([]byte("entropy")))

	inner, err := links.Pack("deposit",
		common.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"),
		code,
		big.NewInt(500),
	)
	require.NoError(t, err)
	assert.Len(t, inner, 4+3*32)

	_, err = links.Pack("withdraw", code)
	require.NoError(t, err)
}
