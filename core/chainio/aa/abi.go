package aa

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const userOpTuple = `{"name":"userOp","type":"tuple","components":[` +
	`{"name":"sender","type":"address"},` +
	`{"name":"nonce","type":"uint256"},` +
	`{"name":"initCode","type":"bytes"},` +
	`{"name":"callData","type":"bytes"},` +
	`{"name":"callGasLimit","type":"uint256"},` +
	`{"name":"verificationGasLimit","type":"uint256"},` +
	`{"name":"preVerificationGas","type":"uint256"},` +
	`{"name":"maxFeePerGas","type":"uint256"},` +
	`{"name":"maxPriorityFeePerGas","type":"uint256"},` +
	`{"name":"paymasterAndData","type":"bytes"},` +
	`{"name":"signature","type":"bytes"}]}`

// EntryPoint v0.6, restricted to what the benchmark calls.
const EntryPointABIJSON = `[
{"type":"function","name":"handleOps","stateMutability":"nonpayable","inputs":[{"name":"ops","type":"tuple[]","components":[` +
	`{"name":"sender","type":"address"},{"name":"nonce","type":"uint256"},{"name":"initCode","type":"bytes"},{"name":"callData","type":"bytes"},` +
	`{"name":"callGasLimit","type":"uint256"},{"name":"verificationGasLimit","type":"uint256"},{"name":"preVerificationGas","type":"uint256"},` +
	`{"name":"maxFeePerGas","type":"uint256"},{"name":"maxPriorityFeePerGas","type":"uint256"},{"name":"paymasterAndData","type":"bytes"},{"name":"signature","type":"bytes"}]},` +
	`{"name":"beneficiary","type":"address"}],"outputs":[]},
{"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]},
{"type":"function","name":"incrementNonce","stateMutability":"nonpayable","inputs":[{"name":"key","type":"uint192"}],"outputs":[]},
{"type":"function","name":"depositTo","stateMutability":"payable","inputs":[{"name":"account","type":"address"}],"outputs":[]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"event","name":"UserOperationEvent","anonymous":false,"inputs":[` +
	`{"name":"userOpHash","type":"bytes32","indexed":true},{"name":"sender","type":"address","indexed":true},{"name":"paymaster","type":"address","indexed":true},` +
	`{"name":"nonce","type":"uint256","indexed":false},{"name":"success","type":"bool","indexed":false},` +
	`{"name":"actualGasCost","type":"uint256","indexed":false},{"name":"actualGasUsed","type":"uint256","indexed":false}]}
]`

const SimpleAccountFactoryABIJSON = `[
{"type":"function","name":"createAccount","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"ret","type":"address"}]},
{"type":"function","name":"getAddress","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

const SimpleAccountABIJSON = `[
{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"dest","type":"address"},{"name":"value","type":"uint256"},{"name":"func","type":"bytes"}],"outputs":[]}
]`

// Kernel v2.3 factory and the Kernel Lite account.
const KernelFactoryABIJSON = `[
{"type":"function","name":"createAccount","stateMutability":"payable","inputs":[{"name":"_implementation","type":"address"},{"name":"_data","type":"bytes"},{"name":"_index","type":"uint256"}],"outputs":[{"name":"proxy","type":"address"}]},
{"type":"function","name":"getAccountAddress","stateMutability":"view","inputs":[{"name":"_data","type":"bytes"},{"name":"_index","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

const KernelAccountABIJSON = `[
{"type":"function","name":"initialize","stateMutability":"payable","inputs":[{"name":"_defaultValidator","type":"address"},{"name":"_data","type":"bytes"}],"outputs":[]},
{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"}],"outputs":[]}
]`

const VerifyingPaymasterABIJSON = `[
{"type":"function","name":"getHash","stateMutability":"view","inputs":[` + userOpTuple + `,{"name":"validUntil","type":"uint48"},{"name":"validAfter","type":"uint48"}],"outputs":[{"name":"","type":"bytes32"}]},
{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
{"type":"function","name":"getDeposit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"verifyingSigner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"senderNonce","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const TokenABIJSON = `[
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	EntryPointABI           = mustParseABI("EntryPoint", EntryPointABIJSON)
	SimpleAccountFactoryABI = mustParseABI("SimpleAccountFactory", SimpleAccountFactoryABIJSON)
	SimpleAccountABI        = mustParseABI("SimpleAccount", SimpleAccountABIJSON)
	KernelFactoryABI        = mustParseABI("KernelFactory", KernelFactoryABIJSON)
	KernelAccountABI        = mustParseABI("KernelAccount", KernelAccountABIJSON)
	VerifyingPaymasterABI   = mustParseABI("VerifyingPaymaster", VerifyingPaymasterABIJSON)
	TokenABI                = mustParseABI("Token", TokenABIJSON)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Errorf("invalid %s ABI: %w", name, err))
	}
	return parsed
}
