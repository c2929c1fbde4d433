// Package chain abstracts the blockchain RPC transport the wallet core
// talks to. The chain is treated as an opaque, possibly slow, possibly
// flaky JSON-RPC service.
package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal contract ABIs for the wallet's fixed contract set.
const (
	// TokenABI covers the community token: an ERC-20 with an ERC-677
	// style transferAndCall used for payment link deposits.
	TokenABI = `[
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"type":"function","name":"transferAndCall","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]},
		{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
	]`

	// IdentityABI covers the identity registry read used for citizenship
	// checks.
	IdentityABI = `[
		{"type":"function","name":"isVerified","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
	]`

	// ClaimABI covers the entitlement contract: periodic claimable
	// amounts for verified identities.
	ClaimABI = `[
		{"type":"function","name":"checkEntitlement","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"claimTokens","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"bool"}]}
	]`

	// PaymentLinksABI covers the one-time payment link registry.
	PaymentLinksABI = `[
		{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"hash","type":"bytes32"},{"name":"amount","type":"uint256"}],"outputs":[]},
		{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"hash","type":"bytes32"}],"outputs":[]},
		{"type":"function","name":"isLinkUsed","stateMutability":"view","inputs":[{"name":"hash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]}
	]`
)

// Contract binds a parsed ABI to a deployed address.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// NewContract parses an ABI and binds it to an address.
func NewContract(name, abiJSON, address string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("contract %s: invalid address %q", name, address)
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("contract %s: parsing ABI: %w", name, err)
	}

	return &Contract{
		Name:    name,
		Address: common.HexToAddress(address),
		ABI:     parsed,
	}, nil
}

// Pack encodes a method call with its arguments.
func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("contract %s: packing %s: %w", c.Name, method, err)
	}
	return data, nil
}

// Unpack decodes a method's return data into result.
func (c *Contract) Unpack(method string, data []byte, result interface{}) error {
	if err := c.ABI.UnpackIntoInterface(result, method, data); err != nil {
		return fmt.Errorf("contract %s: unpacking %s: %w", c.Name, method, err)
	}
	return nil
}

// EventID returns the topic hash of a named event.
func (c *Contract) EventID(name string) (common.Hash, error) {
	event, ok := c.ABI.Events[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("contract %s: no event %s", c.Name, name)
	}
	return event.ID, nil
}
