package preset

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/core/chainio/signer"
	"github.com/AvaProtocol/aa-gasbench/core/report"
	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/eip1559"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/bundler"
	"github.com/AvaProtocol/aa-gasbench/pkg/logger"
)

// Options configures an Environment. Zero values fall back to the defaults
// the benchmark normally runs with.
type Options struct {
	Addresses aa.Addresses

	// PriorityFee is the max priority fee of every operation, 1 gwei by default.
	PriorityFee *big.Int
	// PaymasterDeposit is the minimum entry point deposit Init keeps on the
	// verifying paymaster. Zero skips the top up.
	PaymasterDeposit *big.Int

	// Beneficiary receives the bundle fees; a random address when nil.
	Beneficiary *common.Address
	// NewDestination yields the recipient of each inner call; random when nil.
	NewDestination func() common.Address
}

// Environment builds and submits bundles of user operations for one
// benchmark run. It owns the run-wide deployment salt counter, the nonce
// ledger and the address name registry, so bundles are submitted one at a
// time.
type Environment struct {
	chain  chainio.Chain
	signer signer.Signer
	logger logger.Logger

	addrs      aa.Addresses
	entryPoint *aa.EntryPoint
	paymaster  *aa.VerifyingPaymaster
	token      *aa.Token
	wallets    aa.Wallets

	beneficiary      common.Address
	newDestination   func() common.Address
	priorityFee      *big.Int
	paymasterDeposit *big.Int

	chainID    *big.Int
	globalSalt int64
	nonces     *bundler.NonceManager
	names      *report.NameRegistry
	primed     map[common.Address]bool

	mu sync.Mutex
}

func NewEnvironment(chain chainio.Chain, s signer.Signer, opts Options, lgr logger.Logger) *Environment {
	log := logger.ForComponent(lgr, "preset")

	env := &Environment{
		chain:            chain,
		signer:           s,
		logger:           log,
		addrs:            opts.Addresses,
		entryPoint:       aa.NewEntryPoint(chain, opts.Addresses.EntryPoint),
		paymaster:        aa.NewVerifyingPaymaster(chain, opts.Addresses.VerifyingPaymaster),
		token:            aa.NewToken(chain, opts.Addresses.Token),
		wallets:          aa.NewWallets(chain, s.Address(), opts.Addresses),
		newDestination:   opts.NewDestination,
		priorityFee:      opts.PriorityFee,
		paymasterDeposit: opts.PaymasterDeposit,
		nonces:           bundler.NewNonceManager(log),
		names:            report.NewNameRegistry(),
		primed:           make(map[common.Address]bool),
	}

	if env.newDestination == nil {
		env.newDestination = RandomAddress
	}
	if opts.Beneficiary != nil {
		env.beneficiary = *opts.Beneficiary
	} else {
		env.beneficiary = RandomAddress()
	}
	if env.priorityFee == nil {
		env.priorityFee = eip1559.DefaultPriorityFee
	}

	return env
}

// Init reads the chain id, labels the configured contracts and tops up the
// verifying paymaster deposit. It must be called once before SubmitBundle.
func (e *Environment) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	chainID, err := e.chain.ChainID(ctx)
	if err != nil {
		return model.WrapNetworkError("failed to fetch chain id", err, nil)
	}
	e.chainID = chainID

	for addr, label := range e.addrs.Labels() {
		e.names.Add(addr, label)
	}

	if e.paymasterDeposit != nil && e.paymasterDeposit.Sign() > 0 && e.addrs.VerifyingPaymaster != (common.Address{}) {
		deposit, err := e.paymaster.GetDeposit(ctx)
		if err != nil {
			return model.WrapNetworkError("failed to read paymaster deposit", err, nil)
		}
		if deposit.Cmp(e.paymasterDeposit) < 0 {
			e.logger.Info("funding verifying paymaster", "deposit", deposit.String(), "amount", e.paymasterDeposit.String())
			if err := e.paymaster.Deposit(ctx, e.paymasterDeposit); err != nil {
				return model.WrapNetworkError("failed to fund paymaster deposit", err, nil)
			}
		}
	}

	e.logger.Info("environment initialized",
		"chainId", chainID.String(),
		"entryPoint", e.addrs.EntryPoint.Hex(),
		"beneficiary", e.beneficiary.Hex(),
		"owner", e.signer.Address().Hex())
	return nil
}

func (e *Environment) ChainID() *big.Int {
	return e.chainID
}

func (e *Environment) Beneficiary() common.Address {
	return e.beneficiary
}

// Names is the label registry of every address the run touched.
func (e *Environment) Names() *report.NameRegistry {
	return e.names
}

// Nonces exposes the ledger so callers can inspect cached nonces.
func (e *Environment) Nonces() *bundler.NonceManager {
	return e.nonces
}

// RandomAddress is the address of a freshly generated key, never used before.
func RandomAddress() common.Address {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return crypto.PubkeyToAddress(key.PublicKey)
}
