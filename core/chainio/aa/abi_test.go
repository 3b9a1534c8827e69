package aa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustParseABIPanicsOnBrokenJSON(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(err.Error(), "invalid Broken ABI: "), err.Error())
	}()

	mustParseABI("Broken", "{not json")
}

func TestEmbeddedABIsParse(t *testing.T) {
	assert.Contains(t, EntryPointABI.Methods, "handleOps")
	assert.Contains(t, EntryPointABI.Events, "UserOperationEvent")
	assert.Contains(t, VerifyingPaymasterABI.Methods, "getHash")
	assert.Contains(t, SimpleAccountFactoryABI.Methods, "getAddress")
	assert.Contains(t, KernelFactoryABI.Methods, "getAccountAddress")
}
