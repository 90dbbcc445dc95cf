/**
 * @description
 * Read-only client for the marketplace escrow contract. It answers exactly one
 * question: what is an address's withdrawable balance and is auto-withdraw
 * enabled for it. RPC failures are translated into the service's error
 * vocabulary; a syntactically invalid address never reaches the network.
 *
 * @dependencies
 * - github.com/ethereum/go-ethereum: ethclient, ABI packing, address checks.
 * - github.com/shopspring/decimal: wei-to-ether decimal-string conversion.
 */

package ledgerclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAddress marks a malformed wallet address; no ledger call is made.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrConnect marks a connectivity-class failure reaching the RPC node.
	ErrConnect = errors.New("failed to connect")
)

const contractABI = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"getAutoWithdraw","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

// BalanceResult is the answer to a balance query. Balance is the withdrawable
// amount in ether as a decimal string.
type BalanceResult struct {
	Balance      string `json:"balance"`
	AutoWithdraw bool   `json:"status"`
}

// Client queries the escrow contract over an Ethereum JSON-RPC endpoint.
type Client struct {
	caller          ethereum.ContractCaller
	contractAddress common.Address
	parsedABI       abi.ABI
}

// NewClient dials the RPC endpoint and prepares the contract bindings.
func NewClient(rpcURL, contractAddress string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("ledger rpc dial: %w", err)
	}
	return newClient(eth, contractAddress)
}

// NewClientWithCaller builds a Client on an existing contract caller. Used by
// tests and by callers that manage the RPC connection themselves.
func NewClientWithCaller(caller ethereum.ContractCaller, contractAddress string) (*Client, error) {
	return newClient(caller, contractAddress)
}

func newClient(caller ethereum.ContractCaller, contractAddress string) (*Client, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("malformed contract address %q", contractAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("contract abi parse: %w", err)
	}
	return &Client{
		caller:          caller,
		contractAddress: common.HexToAddress(contractAddress),
		parsedABI:       parsed,
	}, nil
}

// BalanceAndAutoWithdraw returns the withdrawable balance (ether, decimal
// string) and the auto-withdraw flag for an address. Malformed addresses fail
// with ErrInvalidAddress before any RPC call; connectivity failures map to
// ErrConnect, everything else surfaces as an upstream error.
func (c *Client) BalanceAndAutoWithdraw(ctx context.Context, address string) (*BalanceResult, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	account := common.HexToAddress(address)

	var balanceWei *big.Int
	if err := c.call(ctx, "balanceOf", []interface{}{account}, func(out []interface{}) error {
		wei, ok := out[0].(*big.Int)
		if !ok {
			return fmt.Errorf("unexpected balanceOf return type %T", out[0])
		}
		balanceWei = wei
		return nil
	}); err != nil {
		return nil, err
	}

	var autoWithdraw bool
	if err := c.call(ctx, "getAutoWithdraw", []interface{}{account}, func(out []interface{}) error {
		flag, ok := out[0].(bool)
		if !ok {
			return fmt.Errorf("unexpected getAutoWithdraw return type %T", out[0])
		}
		autoWithdraw = flag
		return nil
	}); err != nil {
		return nil, err
	}

	return &BalanceResult{
		Balance:      decimal.NewFromBigInt(balanceWei, -18).String(),
		AutoWithdraw: autoWithdraw,
	}, nil
}

func (c *Client) call(ctx context.Context, method string, args []interface{}, decode func([]interface{}) error) error {
	data, err := c.parsedABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("%s pack: %w", method, err)
	}

	raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.contractAddress, Data: data}, nil)
	if err != nil {
		return translateRPCError(method, err)
	}

	out, err := c.parsedABI.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("%s unpack: %w", method, err)
	}
	if len(out) == 0 {
		return fmt.Errorf("%s returned no values", method)
	}
	return decode(out)
}

func translateRPCError(method string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%s: %w", method, ErrConnect)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%s: %w", method, ErrConnect)
	}
	msg := err.Error()
	if strings.Contains(msg, "no such host") || strings.Contains(msg, "getaddrinfo") || strings.Contains(msg, "connection refused") {
		return fmt.Errorf("%s: %w", method, ErrConnect)
	}
	return fmt.Errorf("%s call: %w", method, err)
}
