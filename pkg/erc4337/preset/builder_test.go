package preset

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/aa-gasbench/core/chainio/signer"
	"github.com/AvaProtocol/aa-gasbench/core/testutil"
	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

var (
	simpleBaseline = model.OperationDescriptor{
		WalletKind:         model.SimpleAccountV06,
		PaymasterKind:      model.NoPaymaster,
		GasPaymentStrategy: model.SelfBalance,
		CreationStrategy:   model.UsePreCreatedAccount,
		Action:             model.NativeValueTransfer,
	}
	kernelBaseline = simpleBaseline.WithWallet(model.KernelLiteV23)
)

type destinations struct {
	issued []common.Address
}

func (d *destinations) next() common.Address {
	addr := RandomAddress()
	d.issued = append(d.issued, addr)
	return addr
}

func newTestEnvironment(t *testing.T) (*Environment, *testutil.SimChain, *destinations) {
	t.Helper()

	chain := testutil.NewTestSimChain()
	dests := &destinations{}
	env := NewEnvironment(chain, testutil.TestSigner(), Options{
		Addresses:        testutil.SimAddresses(),
		PaymasterDeposit: new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18)),
		NewDestination:   dests.next,
	}, testutil.GetLogger())

	require.NoError(t, env.Init(context.Background()))
	return env, chain, dests
}

func TestScenarioSingleOperation(t *testing.T) {
	for _, desc := range []model.OperationDescriptor{simpleBaseline, kernelBaseline} {
		t.Run(desc.WalletKind.String(), func(t *testing.T) {
			ctx := context.Background()
			env, chain, dests := newTestEnvironment(t)

			result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
				Name:       "single",
				Operations: []model.OperationDescriptor{desc},
			})
			require.NoError(t, err)

			assert.Equal(t, "single", result.Name)
			assert.Equal(t, 1, result.OpCount)
			assert.Equal(t, []bool{true}, result.OpSuccess)
			assert.Greater(t, result.GasUsed, uint64(0))
			assert.Greater(t, result.CalldataGas, uint64(0))
			require.Len(t, result.Senders, 1)

			sender := result.Senders[0]
			// primed to 1 before the bundle, the operation used nonce 1
			assert.Equal(t, "2", chain.Nonce(sender).String())

			require.Len(t, dests.issued, 1)
			expected := new(big.Int).Add(DestinationWarmupWei, ValueTransferWei)
			assert.Equal(t, expected.String(), chain.Balance(dests.issued[0]).String())

			label, ok := env.Names().Label(sender)
			assert.True(t, ok)
			assert.NotEmpty(t, label)

			handleOps := chain.TxsTo(env.addrs.EntryPoint, "handleOps")
			require.Len(t, handleOps, 1)
			assert.Equal(t, result.TxHash, handleOps[0].Hash)
		})
	}
}

func TestScenarioTwoOperationsShareOverhead(t *testing.T) {
	ctx := context.Background()
	env, _, _ := newTestEnvironment(t)

	single, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "single",
		Operations: []model.OperationDescriptor{simpleBaseline},
	})
	require.NoError(t, err)

	double, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "double",
		Operations: []model.OperationDescriptor{simpleBaseline, simpleBaseline},
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true}, double.OpSuccess)
	assert.NotEqual(t, double.Senders[0], double.Senders[1])
	assert.Greater(t, double.GasUsed, single.GasUsed)
	assert.Less(t, double.GasUsed, 2*single.GasUsed)
	assert.Less(t, double.GasPerOp(), single.GasPerOp())
}

func TestScenarioSponsoredKernelTokenTransfers(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)

	desc := kernelBaseline.
		WithAction(model.TokenTransfer).
		WithPaymaster(model.VerifyingPaymaster)

	single, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "single-kernel-token-verifying",
		Operations: []model.OperationDescriptor{desc},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, single.OpSuccess)

	double, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "double-kernel-token-verifying",
		Operations: []model.OperationDescriptor{desc, desc},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, double.OpCount)
	assert.Equal(t, []bool{true, true}, double.OpSuccess)
	assert.NotEqual(t, double.Senders[0], double.Senders[1])
	assert.Greater(t, double.GasUsed, single.GasUsed)
	assert.Less(t, double.GasUsed, 2*single.GasUsed)

	for _, sender := range double.Senders {
		// sponsored, so the sender never had to fund its own deposit
		assert.Zero(t, chain.Deposit(sender).Sign())
	}
}

func TestDeployViaInitCode(t *testing.T) {
	for _, desc := range []model.OperationDescriptor{simpleBaseline, kernelBaseline} {
		desc := desc.WithCreation(model.DeployViaInitCodeInOperation)
		t.Run(desc.WalletKind.String(), func(t *testing.T) {
			ctx := context.Background()
			env, chain, _ := newTestEnvironment(t)

			result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
				Name:       "with-creation",
				Operations: []model.OperationDescriptor{desc},
			})
			require.NoError(t, err)

			sender := result.Senders[0]
			assert.True(t, chain.IsDeployed(sender))
			assert.Equal(t, "1", chain.Nonce(sender).String())
		})
	}
}

func TestVerifyingPaymasterSponsorsOperations(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)
	paymaster := env.addrs.VerifyingPaymaster
	depositBefore := chain.Deposit(paymaster)

	result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name: "verifying-paymaster",
		Operations: []model.OperationDescriptor{
			simpleBaseline.WithPaymaster(model.VerifyingPaymaster),
			kernelBaseline.WithPaymaster(model.VerifyingPaymaster),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, result.OpSuccess)

	assert.Equal(t, -1, chain.Deposit(paymaster).Cmp(depositBefore))
	for _, sender := range result.Senders {
		assert.Zero(t, chain.Deposit(sender).Sign())
	}
}

func TestPaymasterDataKeepsPlaceholderLength(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)

	op := &userop.UserOperation{
		Sender:               common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Nonce:                big.NewInt(1),
		InitCode:             []byte{},
		CallData:             []byte{0x01, 0x02},
		CallGasLimit:         big.NewInt(1_000_000),
		VerificationGasLimit: big.NewInt(1_000_000),
		PreVerificationGas:   big.NewInt(1_000_000),
		MaxFeePerGas:         big.NewInt(2_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
		PaymasterAndData:     []byte{},
		Signature:            []byte{},
	}

	data, err := env.buildPaymasterData(ctx, op, simpleBaseline.WithPaymaster(model.VerifyingPaymaster))
	require.NoError(t, err)
	require.Len(t, data, VerifyingPaymasterDataLength)
	assert.Equal(t, 149, len(data))
	assert.Equal(t, env.addrs.VerifyingPaymaster.Bytes(), data[:20])

	validity, err := validityArgs.Unpack(data[20:84])
	require.NoError(t, err)
	assert.Equal(t, MockValidUntil.String(), validity[0].(*big.Int).String())
	assert.Equal(t, MockValidAfter.String(), validity[1].(*big.Int).String())

	// the signature covers the hash the paymaster computes over the
	// placeholder, which has the final length
	op.PaymasterAndData = bytes.Repeat([]byte{0xff}, VerifyingPaymasterDataLength)
	hash, err := env.paymaster.GetHash(ctx, op, MockValidUntil, MockValidAfter)
	require.NoError(t, err)
	recovered, err := signer.RecoverMessageSigner(hash.Bytes(), data[84:])
	require.NoError(t, err)
	assert.Equal(t, chain.From(), recovered)

	none, err := env.buildPaymasterData(ctx, op, simpleBaseline)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSignatureRecoversOwner(t *testing.T) {
	ctx := context.Background()
	env, _, _ := newTestEnvironment(t)

	for _, desc := range []model.OperationDescriptor{simpleBaseline, kernelBaseline} {
		wallet, err := env.wallets.Get(desc.WalletKind)
		require.NoError(t, err)

		op, err := env.buildUserOp(ctx, desc, &bundleState{}, nil)
		require.NoError(t, err)

		sig := op.Signature
		if desc.WalletKind == model.KernelLiteV23 {
			require.Equal(t, []byte{0, 0, 0, 0}, sig[:4])
			sig = sig[4:]
		}
		recovered, err := signer.RecoverMessageSigner(op.GetUserOpHash(env.addrs.EntryPoint, env.ChainID()).Bytes(), sig)
		require.NoError(t, err)
		assert.Equal(t, env.signer.Address(), recovered, wallet.Label())
	}
}

func TestNonceLedgerWithSenderReuse(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)

	bundle := model.BundleDescriptor{
		Name: "reuse",
		Operations: []model.OperationDescriptor{
			simpleBaseline,
			simpleBaseline.WithCreation(model.DeployViaInitCodeInOperation),
			simpleBaseline,
		},
		ReuseIndex: []*int{nil, nil, model.IntRef(0)},
	}
	require.NoError(t, bundle.Validate())

	state := &bundleState{}
	op0, err := env.buildUserOp(ctx, bundle.Operations[0], state, nil)
	require.NoError(t, err)
	op1, err := env.buildUserOp(ctx, bundle.Operations[1], state, nil)
	require.NoError(t, err)

	op2, err := env.buildUserOp(ctx, bundle.Operations[2], state, model.IntRef(0))
	require.NoError(t, err)

	assert.Equal(t, "1", op0.Nonce.String())
	assert.Equal(t, "0", op1.Nonce.String())
	assert.Equal(t, "2", op2.Nonce.String())
	assert.Equal(t, op0.Sender, op2.Sender)
	assert.Empty(t, op2.InitCode)
	// the reused sender is neither deployed nor primed again
	assert.Len(t, chain.TxsTo(env.addrs.SimpleAccountFactory, "createAccount"), 1)
	assert.Len(t, chain.TxsTo(op0.Sender, "execute"), 1)

	result, err := env.SubmitBundle(ctx, bundle)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, result.OpSuccess)
	assert.Equal(t, result.Senders[0], result.Senders[2])
	assert.Equal(t, "3", chain.Nonce(result.Senders[0]).String())

	cached, ok := env.Nonces().GetCachedNonce(result.Senders[0])
	require.True(t, ok)
	assert.Equal(t, "3", cached.String())
}

func TestSponsoredSenderReusedWithoutPaymaster(t *testing.T) {
	for name, ops := range map[string][]model.OperationDescriptor{
		"sponsored first": {simpleBaseline.WithPaymaster(model.VerifyingPaymaster), simpleBaseline},
		"sponsored last":  {kernelBaseline, kernelBaseline.WithPaymaster(model.VerifyingPaymaster)},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env, chain, _ := newTestEnvironment(t)
			depositBefore := chain.Deposit(env.addrs.VerifyingPaymaster)

			result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
				Name:       "sponsored-reuse",
				Operations: ops,
				ReuseIndex: []*int{nil, model.IntRef(0)},
			})
			require.NoError(t, err)

			assert.Equal(t, []bool{true, true}, result.OpSuccess)
			assert.Equal(t, result.Senders[0], result.Senders[1])
			assert.Equal(t, "3", chain.Nonce(result.Senders[0]).String())
			assert.Equal(t, -1, chain.Deposit(env.addrs.VerifyingPaymaster).Cmp(depositBefore))
		})
	}
}

func TestReuseValidationHappensBeforeChainAccess(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)

	cases := map[string]model.BundleDescriptor{
		"forward reference": {
			Name:       "forward",
			Operations: []model.OperationDescriptor{simpleBaseline, simpleBaseline},
			ReuseIndex: []*int{model.IntRef(1), nil},
		},
		"self reference": {
			Name:       "self",
			Operations: []model.OperationDescriptor{simpleBaseline, simpleBaseline},
			ReuseIndex: []*int{nil, model.IntRef(1)},
		},
		"reuse of init code sender": {
			Name: "init-code",
			Operations: []model.OperationDescriptor{
				simpleBaseline.WithCreation(model.DeployViaInitCodeInOperation),
				simpleBaseline,
			},
			ReuseIndex: []*int{nil, model.IntRef(0)},
		},
		"different wallet kind": {
			Name:       "wallet",
			Operations: []model.OperationDescriptor{simpleBaseline, kernelBaseline},
			ReuseIndex: []*int{nil, model.IntRef(0)},
		},
		"reused sender sponsored twice": {
			Name: "paymaster",
			Operations: []model.OperationDescriptor{
				simpleBaseline.WithPaymaster(model.VerifyingPaymaster),
				simpleBaseline.WithPaymaster(model.VerifyingPaymaster),
			},
			ReuseIndex: []*int{nil, model.IntRef(0)},
		},
		"length mismatch": {
			Name:       "length",
			Operations: []model.OperationDescriptor{simpleBaseline, simpleBaseline},
			ReuseIndex: []*int{nil},
		},
	}

	for name, bundle := range cases {
		t.Run(name, func(t *testing.T) {
			requests := chain.Requests()
			txs := len(chain.Txs())

			_, err := env.SubmitBundle(ctx, bundle)
			require.Error(t, err)
			assert.True(t, model.IsConfigurationError(err), err.Error())
			assert.Equal(t, requests, chain.Requests())
			assert.Len(t, chain.Txs(), txs)
		})
	}
}

func TestUnsupportedStrategiesMoveNoFunds(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)

	cases := map[string]model.OperationDescriptor{
		"paymaster balance": simpleBaseline.WithGasPayment(model.PaymasterBalance),
		"paymaster deposit": simpleBaseline.WithGasPayment(model.PaymasterDeposit),
		"erc20 paymaster":   simpleBaseline.WithPaymaster(model.ERC20TokenPaymaster),
	}

	for name, desc := range cases {
		t.Run(name, func(t *testing.T) {
			ownerBalance := chain.Balance(chain.From())
			requests := chain.Requests()
			txs := len(chain.Txs())

			// the unsupported operation comes second, after a valid one
			_, err := env.SubmitBundle(ctx, model.BundleDescriptor{
				Name:       "unsupported",
				Operations: []model.OperationDescriptor{simpleBaseline, desc},
			})
			require.Error(t, err)
			assert.True(t, model.IsConfigurationError(err), err.Error())

			assert.Equal(t, requests, chain.Requests())
			assert.Len(t, chain.Txs(), txs)
			assert.Equal(t, ownerBalance.String(), chain.Balance(chain.From()).String())
			assert.Empty(t, chain.TxsTo(env.addrs.EntryPoint, "handleOps"))
		})
	}
}

func TestFailedOperationResetsLedger(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)
	chain.FailInnerCalls = true

	_, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "failing",
		Operations: []model.OperationDescriptor{simpleBaseline, simpleBaseline},
	})
	require.Error(t, err)
	assert.True(t, model.IsExecutionFailure(err), err.Error())

	handleOps := chain.TxsTo(env.addrs.EntryPoint, "handleOps")
	require.Len(t, handleOps, 1)

	// nothing is cached for the senders of the failed bundle
	for sender := range env.primed {
		_, ok := env.Nonces().GetCachedNonce(sender)
		assert.False(t, ok, sender.Hex())
	}

	chain.FailInnerCalls = false
	result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "recovered",
		Operations: []model.OperationDescriptor{simpleBaseline},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, result.OpSuccess)
}

func TestRevertedBundleIsExecutionFailure(t *testing.T) {
	ctx := context.Background()
	chain := testutil.NewTestSimChain()
	addrs := testutil.SimAddresses()

	// the paymaster never gets a deposit, so its operations fail validation
	env := NewEnvironment(chain, testutil.TestSigner(), Options{Addresses: addrs}, testutil.GetLogger())
	require.NoError(t, env.Init(ctx))

	_, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "unfunded-paymaster",
		Operations: []model.OperationDescriptor{simpleBaseline.WithPaymaster(model.VerifyingPaymaster)},
	})
	require.Error(t, err)
	assert.True(t, model.IsExecutionFailure(err), err.Error())

	handleOps := chain.TxsTo(addrs.EntryPoint, "handleOps")
	require.Len(t, handleOps, 1)
	assert.Equal(t, uint64(0), handleOps[0].Status)
}

func TestSubmitRequiresInit(t *testing.T) {
	chain := testutil.NewTestSimChain()
	env := NewEnvironment(chain, testutil.TestSigner(), Options{Addresses: testutil.SimAddresses()}, nil)

	_, err := env.SubmitBundle(context.Background(), model.BundleDescriptor{
		Name:       "early",
		Operations: []model.OperationDescriptor{simpleBaseline},
	})
	assert.True(t, model.IsInvariantViolation(err))
	assert.Zero(t, chain.Requests())
}

func TestInitFundsPaymasterOnce(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)
	paymaster := env.addrs.VerifyingPaymaster

	assert.Equal(t, "10000000000000000000", chain.Deposit(paymaster).String())
	require.NoError(t, env.Init(ctx))
	assert.Len(t, chain.TxsTo(paymaster, "deposit"), 1)

	labels := env.Names().Map()
	assert.Equal(t, "EntryPoint v0.6", labels[strings.ToLower(env.addrs.EntryPoint.Hex())])
	assert.Equal(t, "VerifyingPaymaster", labels[strings.ToLower(paymaster.Hex())])
}

func TestSelfDepositFunding(t *testing.T) {
	ctx := context.Background()
	env, chain, _ := newTestEnvironment(t)

	result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "self-deposit",
		Operations: []model.OperationDescriptor{simpleBaseline.WithGasPayment(model.SelfDeposit)},
	})
	require.NoError(t, err)

	sender := result.Senders[0]
	deposit := chain.Deposit(sender)
	assert.Equal(t, 1, deposit.Sign())
	assert.Equal(t, -1, deposit.Cmp(SelfDepositAmount))
	assert.Equal(t, -1, chain.Balance(sender).Cmp(SelfDepositBalance))
}

func TestTokenTransferAction(t *testing.T) {
	ctx := context.Background()
	env, chain, dests := newTestEnvironment(t)

	result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
		Name:       "token-transfer",
		Operations: []model.OperationDescriptor{kernelBaseline.WithAction(model.TokenTransfer)},
	})
	require.NoError(t, err)

	sender := result.Senders[0]
	dest := dests.issued[0]
	assert.Equal(t, new(big.Int).Sub(TokenMintAmount, TokenTransferAmount).String(), chain.TokenBalance(sender).String())
	assert.Equal(t, new(big.Int).Add(TokenMintAmount, TokenTransferAmount).String(), chain.TokenBalance(dest).String())
}

func TestSaltsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	env, _, _ := newTestEnvironment(t)

	seen := map[common.Address]bool{}
	for i := 0; i < 3; i++ {
		result, err := env.SubmitBundle(ctx, model.BundleDescriptor{
			Name:       "salt",
			Operations: []model.OperationDescriptor{simpleBaseline, simpleBaseline.WithCreation(model.DeployViaInitCodeInOperation)},
		})
		require.NoError(t, err)
		for _, sender := range result.Senders {
			assert.False(t, seen[sender])
			seen[sender] = true
		}
	}
	assert.Equal(t, int64(6), env.globalSalt)
}
