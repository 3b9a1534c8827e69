package byte4

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// GetMethodFromCalldata returns the ABI method selected by the first four
// bytes of calldata, looking through every given ABI in order.
func GetMethodFromCalldata(calldata []byte, abis ...abi.ABI) (*abi.Method, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("invalid selector length: %d", len(calldata))
	}

	// Function calls in the EVM are selected by the first four bytes of
	// keccak256("name(type1,type2,...)").
	methodID := calldata[:4]

	for _, parsedABI := range abis {
		for _, method := range parsedABI.Methods {
			if bytes.Equal(method.ID, methodID) {
				m := method
				return &m, nil
			}
		}
	}

	return nil, fmt.Errorf("no matching method found for selector: 0x%x", methodID)
}

// DecodeCalldata resolves the method of calldata and unpacks its arguments.
func DecodeCalldata(calldata []byte, abis ...abi.ABI) (*abi.Method, []interface{}, error) {
	method, err := GetMethodFromCalldata(calldata, abis...)
	if err != nil {
		return nil, nil, err
	}

	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", method.Name, err)
	}
	return method, args, nil
}

// MethodName names the call for logs, "transfer" or "0xa9059cbb" when the
// selector is unknown. Empty calldata is a plain transfer.
func MethodName(calldata []byte, abis ...abi.ABI) string {
	if len(calldata) == 0 {
		return ""
	}
	if method, err := GetMethodFromCalldata(calldata, abis...); err == nil {
		return method.Name
	}
	if len(calldata) < 4 {
		return fmt.Sprintf("0x%x", calldata)
	}
	return fmt.Sprintf("0x%x", calldata[:4])
}
