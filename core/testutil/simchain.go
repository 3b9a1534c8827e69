package testutil

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/core/chainio/signer"
	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/byte4"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

// Gas schedule of the in-memory chain. Absolute numbers are arbitrary, only
// the shape matters: every transaction pays a fixed base once, every user
// operation pays its own verification and execution.
const (
	SimTxBaseGas         uint64 = 21_000
	SimHandleOpsGas      uint64 = 10_000
	SimOpVerifyGas       uint64 = 40_000
	SimOpPaymasterGas    uint64 = 15_000
	SimOpDeployGas       uint64 = 120_000
	SimOpValueCallGas    uint64 = 9_000
	SimOpContractGas     uint64 = 30_000
	SimDefaultChainID    int64  = 31337
	SimDefaultBaseFeeWei int64  = 1_000_000_000
)

var (
	simOwnerFunds = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	simPriority   = big.NewInt(1_000_000_000)
)

// SimAddresses is a fixed contract layout for SimChain.
func SimAddresses() aa.Addresses {
	return aa.Addresses{
		EntryPoint:           aa.DefaultEntryPointAddress,
		SimpleAccountFactory: common.HexToAddress("0x9406Cc6185a346906296840746125a0E44976454"),
		KernelFactory:        common.HexToAddress("0x5de4839a76cf55d0c90e2061ef4386d962E15ae3"),
		KernelImplementation: common.HexToAddress("0x0DA6a956B9488eD4dd761E59f52FDc6c8068E6B5"),
		KernelECDSAValidator: common.HexToAddress("0xd9AB5096a832b9ce79914329DAEE236f8Eea0390"),
		VerifyingPaymaster:   common.HexToAddress("0xE93ECa6595fe94091DC1af46aaC2A8b5D7990770"),
		Token:                common.HexToAddress("0x3870419Ba2BBf0127060bCB37f69A1b1C090992B"),
	}
}

// SimTx is a transaction the chain executed.
type SimTx struct {
	Hash   common.Hash
	To     common.Address
	Value  *big.Int
	Method string
	Status uint64
}

type simAccount struct {
	kind  model.WalletKind
	owner common.Address
}

type simState struct {
	balances       map[common.Address]*big.Int
	deposits       map[common.Address]*big.Int
	nonces         map[common.Address]*big.Int
	tokens         map[common.Address]*big.Int
	paymasterNonce map[common.Address]*big.Int
	accounts       map[common.Address]simAccount
}

func newSimState() *simState {
	return &simState{
		balances:       map[common.Address]*big.Int{},
		deposits:       map[common.Address]*big.Int{},
		nonces:         map[common.Address]*big.Int{},
		tokens:         map[common.Address]*big.Int{},
		paymasterNonce: map[common.Address]*big.Int{},
		accounts:       map[common.Address]simAccount{},
	}
}

func copyBalances(m map[common.Address]*big.Int) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(m))
	for k, v := range m {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

func (s *simState) clone() *simState {
	accounts := make(map[common.Address]simAccount, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	return &simState{
		balances:       copyBalances(s.balances),
		deposits:       copyBalances(s.deposits),
		nonces:         copyBalances(s.nonces),
		tokens:         copyBalances(s.tokens),
		paymasterNonce: copyBalances(s.paymasterNonce),
		accounts:       accounts,
	}
}

func get(m map[common.Address]*big.Int, a common.Address) *big.Int {
	if v, ok := m[a]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func add(m map[common.Address]*big.Int, a common.Address, v *big.Int) {
	m[a] = new(big.Int).Add(get(m, a), v)
}

func sub(m map[common.Address]*big.Int, a common.Address, v *big.Int) bool {
	cur := get(m, a)
	if cur.Cmp(v) < 0 {
		return false
	}
	m[a] = cur.Sub(cur, v)
	return true
}

// SimChain is an in-memory chainio.Chain that executes the entry point, both
// account factories, the accounts, the verifying paymaster and the test token
// at the ABI level. Signatures are checked for real, so a user operation only
// passes when it was hashed, signed and wrapped correctly.
type SimChain struct {
	mu sync.Mutex

	chainID *big.Int
	baseFee *big.Int
	from    common.Address
	addrs   aa.Addresses
	state   *simState

	block    uint64
	requests int
	txs      []SimTx

	// FailInnerCalls makes every operation's inner call report failure in
	// its UserOperationEvent while handleOps itself succeeds.
	FailInnerCalls bool
}

var _ chainio.Chain = (*SimChain)(nil)

// NewSimChain returns a chain where from is a funded EOA and also the
// verifying paymaster's signer.
func NewSimChain(from common.Address, addrs aa.Addresses) *SimChain {
	c := &SimChain{
		chainID: big.NewInt(SimDefaultChainID),
		baseFee: big.NewInt(SimDefaultBaseFeeWei),
		from:    from,
		addrs:   addrs,
		state:   newSimState(),
		block:   1,
	}
	c.state.balances[from] = new(big.Int).Set(simOwnerFunds)
	return c
}

// Requests counts every Chain method invocation, reads included.
func (c *SimChain) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

func (c *SimChain) Txs() []SimTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SimTx(nil), c.txs...)
}

// TxsTo returns the executed transactions calling method on to.
func (c *SimChain) TxsTo(to common.Address, method string) []SimTx {
	var out []SimTx
	for _, tx := range c.Txs() {
		if tx.To == to && tx.Method == method {
			out = append(out, tx)
		}
	}
	return out
}

func (c *SimChain) Balance(a common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return get(c.state.balances, a)
}

func (c *SimChain) Deposit(a common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return get(c.state.deposits, a)
}

func (c *SimChain) Nonce(a common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return get(c.state.nonces, a)
}

func (c *SimChain) TokenBalance(a common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return get(c.state.tokens, a)
}

func (c *SimChain) IsDeployed(a common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.state.accounts[a]
	return ok
}

func (c *SimChain) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	return new(big.Int).Set(c.chainID), nil
}

func (c *SimChain) BaseFee(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	return new(big.Int).Set(c.baseFee), nil
}

func (c *SimChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	return get(c.state.balances, account), nil
}

func (c *SimChain) From() common.Address {
	return c.from
}

func (c *SimChain) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++

	contract, ok := c.contractABI(to)
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	method, args, err := decodeCall(contract, data)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	switch {
	case to == c.addrs.EntryPoint && method.Name == "getNonce":
		out = []interface{}{get(c.state.nonces, args[0].(common.Address))}
	case to == c.addrs.EntryPoint && method.Name == "balanceOf":
		out = []interface{}{get(c.state.deposits, args[0].(common.Address))}
	case to == c.addrs.SimpleAccountFactory && method.Name == "getAddress":
		out = []interface{}{deriveAccount(to, args[0].(common.Address).Bytes(), args[1].(*big.Int))}
	case to == c.addrs.KernelFactory && method.Name == "getAccountAddress":
		out = []interface{}{deriveAccount(to, args[0].([]byte), args[1].(*big.Int))}
	case to == c.addrs.VerifyingPaymaster && method.Name == "getHash":
		op := *abi.ConvertType(args[0], new(userop.UserOperation)).(*userop.UserOperation)
		out = []interface{}{c.paymasterHash(&op, args[1].(*big.Int), args[2].(*big.Int))}
	case to == c.addrs.VerifyingPaymaster && method.Name == "getDeposit":
		out = []interface{}{get(c.state.deposits, to)}
	case to == c.addrs.VerifyingPaymaster && method.Name == "verifyingSigner":
		out = []interface{}{c.from}
	case to == c.addrs.VerifyingPaymaster && method.Name == "senderNonce":
		out = []interface{}{get(c.state.paymasterNonce, args[0].(common.Address))}
	case to == c.addrs.Token && method.Name == "balanceOf":
		out = []interface{}{get(c.state.tokens, args[0].(common.Address))}
	default:
		return nil, fmt.Errorf("%s is not callable on %s", method.Name, to.Hex())
	}

	return method.Outputs.Pack(out...)
}

// Transact executes the call immediately and mines it in its own block.
// A reverted transaction leaves the state untouched.
func (c *SimChain) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++

	if value == nil {
		value = new(big.Int)
	}

	c.block++
	hash := crypto.Keccak256Hash(big.NewInt(int64(c.block)).Bytes(), to.Bytes(), data)
	gasPrice := new(big.Int).Add(c.baseFee, simPriority)

	snapshot := c.state.clone()
	method, logs, gasUsed, err := c.execute(to, value, data, gasPrice)

	receipt := &types.Receipt{
		TxHash:            hash,
		GasUsed:           gasUsed,
		BlockNumber:       new(big.Int).SetUint64(c.block),
		EffectiveGasPrice: gasPrice,
		Status:            types.ReceiptStatusSuccessful,
	}
	if err != nil {
		c.state = snapshot
		receipt.Status = types.ReceiptStatusFailed
		c.txs = append(c.txs, SimTx{Hash: hash, To: to, Value: value, Method: method, Status: receipt.Status})
		return receipt, &chainio.RevertError{TxHash: hash, To: to}
	}

	for i, l := range logs {
		l.TxHash = hash
		l.BlockNumber = c.block
		l.Index = uint(i)
	}
	receipt.Logs = logs
	c.txs = append(c.txs, SimTx{Hash: hash, To: to, Value: value, Method: method, Status: receipt.Status})
	return receipt, nil
}

func (c *SimChain) contractABI(to common.Address) (abi.ABI, bool) {
	switch to {
	case c.addrs.EntryPoint:
		return aa.EntryPointABI, true
	case c.addrs.SimpleAccountFactory:
		return aa.SimpleAccountFactoryABI, true
	case c.addrs.KernelFactory:
		return aa.KernelFactoryABI, true
	case c.addrs.VerifyingPaymaster:
		return aa.VerifyingPaymasterABI, true
	case c.addrs.Token:
		return aa.TokenABI, true
	}
	if acct, ok := c.state.accounts[to]; ok {
		if acct.kind == model.KernelLiteV23 {
			return aa.KernelAccountABI, true
		}
		return aa.SimpleAccountABI, true
	}
	return abi.ABI{}, false
}

func decodeCall(contract abi.ABI, data []byte) (*abi.Method, []interface{}, error) {
	return byte4.DecodeCalldata(data, contract)
}

func calldataGas(data []byte) uint64 {
	var gas uint64
	for _, b := range data {
		if b == 0 {
			gas += 4
		} else {
			gas += 16
		}
	}
	return gas
}

func deriveAccount(factory common.Address, seed []byte, salt *big.Int) common.Address {
	return crypto.CreateAddress2(factory, common.BigToHash(salt), crypto.Keccak256(seed))
}

// execute runs a top level transaction from c.from.
func (c *SimChain) execute(to common.Address, value *big.Int, data []byte, gasPrice *big.Int) (string, []*types.Log, uint64, error) {
	gas := SimTxBaseGas + calldataGas(data)

	if !sub(c.state.balances, c.from, value) {
		return "", nil, gas, fmt.Errorf("insufficient funds")
	}

	if len(data) == 0 {
		add(c.state.balances, to, value)
		return "", nil, gas, nil
	}

	contract, ok := c.contractABI(to)
	if !ok {
		return "", nil, gas, fmt.Errorf("no contract at %s", to.Hex())
	}
	method, args, err := decodeCall(contract, data)
	if err != nil {
		return "", nil, gas, err
	}

	switch {
	case to == c.addrs.EntryPoint && method.Name == "depositTo":
		add(c.state.deposits, args[0].(common.Address), value)
	case to == c.addrs.EntryPoint && method.Name == "handleOps":
		ops := *abi.ConvertType(args[0], new([]userop.UserOperation)).(*[]userop.UserOperation)
		logs, opsGas, err := c.handleOps(ops, args[1].(common.Address), gasPrice)
		return method.Name, logs, gas + SimHandleOpsGas + opsGas, err
	case to == c.addrs.SimpleAccountFactory || to == c.addrs.KernelFactory:
		if _, err := c.createAccount(to, data); err != nil {
			return method.Name, nil, gas, err
		}
		gas += SimOpDeployGas
	case to == c.addrs.VerifyingPaymaster && method.Name == "deposit":
		add(c.state.deposits, to, value)
	case to == c.addrs.Token && method.Name == "mint":
		add(c.state.tokens, args[0].(common.Address), args[1].(*big.Int))
	default:
		acct, isAccount := c.state.accounts[to]
		if !isAccount {
			return method.Name, nil, gas, fmt.Errorf("%s not supported on %s", method.Name, to.Hex())
		}
		if acct.owner != c.from {
			return method.Name, nil, gas, fmt.Errorf("account %s: caller is not the owner", to.Hex())
		}
		add(c.state.balances, to, value)
		if err := c.executeAccount(to, method, args); err != nil {
			return method.Name, nil, gas, err
		}
	}

	return method.Name, nil, gas, nil
}

// createAccount deploys the account described by a factory createAccount
// call and returns its address. Deploying an existing account is a no-op.
func (c *SimChain) createAccount(factory common.Address, data []byte) (common.Address, error) {
	contract, _ := c.contractABI(factory)
	method, args, err := decodeCall(contract, data)
	if err != nil {
		return common.Address{}, err
	}
	if method.Name != "createAccount" {
		return common.Address{}, fmt.Errorf("factory %s: unexpected %s", factory.Hex(), method.Name)
	}

	var (
		addr common.Address
		acct simAccount
	)
	switch factory {
	case c.addrs.SimpleAccountFactory:
		owner := args[0].(common.Address)
		addr = deriveAccount(factory, owner.Bytes(), args[1].(*big.Int))
		acct = simAccount{kind: model.SimpleAccountV06, owner: owner}
	case c.addrs.KernelFactory:
		if args[0].(common.Address) != c.addrs.KernelImplementation {
			return common.Address{}, fmt.Errorf("unknown kernel implementation")
		}
		initData := args[1].([]byte)
		_, initArgs, err := decodeCall(aa.KernelAccountABI, initData)
		if err != nil {
			return common.Address{}, err
		}
		if initArgs[0].(common.Address) != c.addrs.KernelECDSAValidator {
			return common.Address{}, fmt.Errorf("unknown kernel validator")
		}
		addr = deriveAccount(factory, initData, args[2].(*big.Int))
		acct = simAccount{kind: model.KernelLiteV23, owner: common.BytesToAddress(initArgs[1].([]byte))}
	default:
		return common.Address{}, fmt.Errorf("%s is not a factory", factory.Hex())
	}

	if _, ok := c.state.accounts[addr]; !ok {
		c.state.accounts[addr] = acct
	}
	return addr, nil
}

// executeAccount runs an account's execute call with the account as caller.
func (c *SimChain) executeAccount(account common.Address, method *abi.Method, args []interface{}) error {
	if method.Name != "execute" {
		return fmt.Errorf("account %s: unexpected %s", account.Hex(), method.Name)
	}
	target := args[0].(common.Address)
	value := args[1].(*big.Int)
	inner := args[2].([]byte)

	if !sub(c.state.balances, account, value) {
		return fmt.Errorf("account %s: insufficient balance", account.Hex())
	}
	add(c.state.balances, target, value)

	if len(inner) == 0 {
		return nil
	}

	switch target {
	case c.addrs.EntryPoint:
		m, innerArgs, err := decodeCall(aa.EntryPointABI, inner)
		if err != nil {
			return err
		}
		if m.Name != "incrementNonce" || innerArgs[0].(*big.Int).Sign() != 0 {
			return fmt.Errorf("entry point: unsupported %s", m.Name)
		}
		add(c.state.nonces, account, big.NewInt(1))
	case c.addrs.Token:
		m, innerArgs, err := decodeCall(aa.TokenABI, inner)
		if err != nil {
			return err
		}
		if m.Name != "transfer" {
			return fmt.Errorf("token: unsupported %s", m.Name)
		}
		amount := innerArgs[1].(*big.Int)
		if !sub(c.state.tokens, account, amount) {
			return fmt.Errorf("token: transfer amount exceeds balance")
		}
		add(c.state.tokens, innerArgs[0].(common.Address), amount)
	default:
		return fmt.Errorf("call to %s not supported", target.Hex())
	}
	return nil
}

// paymasterHash binds the operation, the chain, the paymaster, the sender's
// paymaster nonce, the validity window and the PaymasterAndData length.
func (c *SimChain) paymasterHash(op *userop.UserOperation, validUntil, validAfter *big.Int) common.Hash {
	return crypto.Keccak256Hash(
		op.Sender.Bytes(),
		common.BigToHash(op.Nonce).Bytes(),
		crypto.Keccak256(op.InitCode),
		crypto.Keccak256(op.CallData),
		common.BigToHash(op.CallGasLimit).Bytes(),
		common.BigToHash(op.VerificationGasLimit).Bytes(),
		common.BigToHash(op.PreVerificationGas).Bytes(),
		common.BigToHash(op.MaxFeePerGas).Bytes(),
		common.BigToHash(op.MaxPriorityFeePerGas).Bytes(),
		common.BigToHash(c.chainID).Bytes(),
		c.addrs.VerifyingPaymaster.Bytes(),
		common.BigToHash(get(c.state.paymasterNonce, op.Sender)).Bytes(),
		common.BigToHash(validUntil).Bytes(),
		common.BigToHash(validAfter).Bytes(),
		common.BigToHash(big.NewInt(int64(len(op.PaymasterAndData)))).Bytes(),
	)
}

type aaError struct {
	index  int
	reason string
}

func (e *aaError) Error() string {
	return fmt.Sprintf("FailedOp(%d, %q)", e.index, e.reason)
}

var (
	uint48Type, _ = abi.NewType("uint48", "", nil)
	validityArgs  = abi.Arguments{{Type: uint48Type}, {Type: uint48Type}}
)

func (c *SimChain) handleOps(ops []userop.UserOperation, beneficiary common.Address, gasPrice *big.Int) ([]*types.Log, uint64, error) {
	var (
		logs  []*types.Log
		total uint64
	)

	// Validation of every operation happens before any execution, a
	// failure reverts the whole bundle.
	payers := make([]common.Address, len(ops))
	for i := range ops {
		payer, err := c.validateOp(i, &ops[i])
		if err != nil {
			return nil, total, err
		}
		payers[i] = payer
	}

	for i := range ops {
		op := &ops[i]

		gas := SimOpVerifyGas + op.CalldataGas()
		if len(op.InitCode) > 0 {
			gas += SimOpDeployGas
		}
		if len(op.PaymasterAndData) > 0 {
			gas += SimOpPaymasterGas
		}

		success := !c.FailInnerCalls
		if success {
			contract, _ := c.contractABI(op.Sender)
			method, args, err := decodeCall(contract, op.CallData)
			snapshot := c.state.clone()
			if err == nil {
				err = c.executeAccount(op.Sender, method, args)
			}
			if err != nil {
				c.state = snapshot
				success = false
			} else if len(args[2].([]byte)) > 0 {
				gas += SimOpContractGas
			} else {
				gas += SimOpValueCallGas
			}
		}

		actualCost := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
		if !sub(c.state.deposits, payers[i], actualCost) {
			return nil, total, &aaError{index: i, reason: "AA51 prefund below actualGasCost"}
		}
		add(c.state.balances, beneficiary, actualCost)

		paymaster := common.Address{}
		if len(op.PaymasterAndData) >= common.AddressLength {
			paymaster = common.BytesToAddress(op.PaymasterAndData[:common.AddressLength])
		}
		log, err := aa.PackUserOperationEvent(c.addrs.EntryPoint, aa.UserOperationEvent{
			UserOpHash:    op.GetUserOpHash(c.addrs.EntryPoint, c.chainID),
			Sender:        op.Sender,
			Paymaster:     paymaster,
			Nonce:         op.Nonce,
			Success:       success,
			ActualGasCost: actualCost,
			ActualGasUsed: new(big.Int).SetUint64(gas),
		})
		if err != nil {
			return nil, total, err
		}
		logs = append(logs, log)
		total += gas
	}

	return logs, total, nil
}

// validateOp deploys the sender when init code is present, checks nonce,
// account signature and paymaster signature, and collects the prefund. It
// returns the address whose deposit pays for the operation.
func (c *SimChain) validateOp(i int, op *userop.UserOperation) (common.Address, error) {
	_, deployed := c.state.accounts[op.Sender]
	if len(op.InitCode) > 0 {
		if deployed {
			return common.Address{}, &aaError{index: i, reason: "AA10 sender already constructed"}
		}
		if len(op.InitCode) < common.AddressLength {
			return common.Address{}, &aaError{index: i, reason: "AA13 initCode failed or OOG"}
		}
		created, err := c.createAccount(common.BytesToAddress(op.InitCode[:common.AddressLength]), op.InitCode[common.AddressLength:])
		if err != nil {
			return common.Address{}, &aaError{index: i, reason: "AA13 initCode failed or OOG"}
		}
		if created != op.Sender {
			return common.Address{}, &aaError{index: i, reason: "AA14 initCode must return sender"}
		}
	} else if !deployed {
		return common.Address{}, &aaError{index: i, reason: "AA20 account not deployed"}
	}
	acct := c.state.accounts[op.Sender]

	if op.Nonce == nil || op.Nonce.Cmp(get(c.state.nonces, op.Sender)) != 0 {
		return common.Address{}, &aaError{index: i, reason: "AA25 invalid account nonce"}
	}

	sig := op.Signature
	if acct.kind == model.KernelLiteV23 {
		if len(sig) < 4 || !bytes.Equal(sig[:4], []byte{0, 0, 0, 0}) {
			return common.Address{}, &aaError{index: i, reason: "AA24 signature error"}
		}
		sig = sig[4:]
	}
	hash := op.GetUserOpHash(c.addrs.EntryPoint, c.chainID)
	recovered, err := signer.RecoverMessageSigner(hash.Bytes(), sig)
	if err != nil || recovered != acct.owner {
		return common.Address{}, &aaError{index: i, reason: "AA24 signature error"}
	}

	prefund := new(big.Int).Add(op.CallGasLimit, op.VerificationGasLimit)
	prefund.Add(prefund, op.PreVerificationGas)
	prefund.Mul(prefund, op.MaxFeePerGas)

	payer := op.Sender
	if len(op.PaymasterAndData) > 0 {
		if err := c.validatePaymaster(op); err != nil {
			return common.Address{}, &aaError{index: i, reason: err.Error()}
		}
		payer = c.addrs.VerifyingPaymaster
		if get(c.state.deposits, payer).Cmp(prefund) < 0 {
			return common.Address{}, &aaError{index: i, reason: "AA31 paymaster deposit too low"}
		}
	} else if missing := new(big.Int).Sub(prefund, get(c.state.deposits, op.Sender)); missing.Sign() > 0 {
		if !sub(c.state.balances, op.Sender, missing) {
			return common.Address{}, &aaError{index: i, reason: "AA21 didn't pay prefund"}
		}
		add(c.state.deposits, op.Sender, missing)
	}

	add(c.state.nonces, op.Sender, big.NewInt(1))
	return payer, nil
}

func (c *SimChain) validatePaymaster(op *userop.UserOperation) error {
	data := op.PaymasterAndData
	if len(data) < common.AddressLength+64+65 {
		return fmt.Errorf("AA33 reverted: invalid paymasterAndData length")
	}
	if common.BytesToAddress(data[:common.AddressLength]) != c.addrs.VerifyingPaymaster {
		return fmt.Errorf("AA30 paymaster not deployed")
	}

	validity, err := validityArgs.Unpack(data[common.AddressLength : common.AddressLength+64])
	if err != nil {
		return fmt.Errorf("AA33 reverted: %v", err)
	}
	validUntil := *abi.ConvertType(validity[0], new(*big.Int)).(**big.Int)
	validAfter := *abi.ConvertType(validity[1], new(*big.Int)).(**big.Int)

	hash := c.paymasterHash(op, validUntil, validAfter)
	recovered, err := signer.RecoverMessageSigner(hash.Bytes(), data[common.AddressLength+64:])
	if err != nil || recovered != c.from {
		return fmt.Errorf("AA34 signature error")
	}

	add(c.state.paymasterNonce, op.Sender, big.NewInt(1))
	return nil
}
