package bundler

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

func TestFromUserOp(t *testing.T) {
	op := &userop.UserOperation{
		Sender:   common.HexToAddress("0x1000000000000000000000000000000000000001"),
		Nonce:    big.NewInt(2),
		CallData: common.FromHex("0xb61d27f6"),
	}

	out := FromUserOp(op)
	assert.Equal(t, "0x2", out.Nonce)
	assert.Equal(t, "0x", out.InitCode)
	assert.Equal(t, "0xb61d27f6", out.CallData)
	assert.Equal(t, "0x0", out.MaxFeePerGas)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"paymasterAndData":"0x"`)
}
