package ledgerclient

import (
	"context"
	"math/big"
	"net"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0xca5c9a13495152AB6390d0A26715fF56db404B36"

type stubCaller struct {
	calls     int
	responses [][]byte
	err       error
}

func (s *stubCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

// abiWord left-pads b to a 32-byte ABI word.
func abiWord(b []byte) []byte {
	word := make([]byte, 32)
	copy(word[32-len(b):], b)
	return word
}

func TestBalanceAndAutoWithdraw(t *testing.T) {
	// 1.5 ETH in wei, then auto-withdraw = true.
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	caller := &stubCaller{responses: [][]byte{
		abiWord(wei.Bytes()),
		abiWord([]byte{1}),
	}}

	client, err := NewClientWithCaller(caller, testContract)
	require.NoError(t, err)

	result, err := client.BalanceAndAutoWithdraw(context.Background(), "0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	require.NoError(t, err)

	assert.Equal(t, "1.5", result.Balance)
	assert.True(t, result.AutoWithdraw)
	assert.Equal(t, 2, caller.calls)
}

func TestBalanceRejectsMalformedAddressWithoutCalling(t *testing.T) {
	caller := &stubCaller{}
	client, err := NewClientWithCaller(caller, testContract)
	require.NoError(t, err)

	for _, address := range []string{"", "not-an-address", "0x123", "0xZZa1f109551bD432803012645Ac136ddd64DBA72"} {
		_, err := client.BalanceAndAutoWithdraw(context.Background(), address)
		assert.ErrorIs(t, err, ErrInvalidAddress, "address %q", address)
	}
	assert.Equal(t, 0, caller.calls, "no ledger call may be attempted for malformed input")
}

func TestBalanceMapsDNSFailureToConnectError(t *testing.T) {
	caller := &stubCaller{err: &net.DNSError{Err: "no such host", Name: "eth-sepolia.example"}}
	client, err := NewClientWithCaller(caller, testContract)
	require.NoError(t, err)

	_, err = client.BalanceAndAutoWithdraw(context.Background(), "0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	assert.ErrorIs(t, err, ErrConnect)
}

func TestBalanceSurfacesOtherRPCErrors(t *testing.T) {
	caller := &stubCaller{err: assert.AnError}
	client, err := NewClientWithCaller(caller, testContract)
	require.NoError(t, err)

	_, err = client.BalanceAndAutoWithdraw(context.Background(), "0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConnect)
	assert.NotErrorIs(t, err, ErrInvalidAddress)
}

func TestNewClientRejectsMalformedContractAddress(t *testing.T) {
	_, err := NewClientWithCaller(&stubCaller{}, "nope")
	assert.Error(t, err)
}
