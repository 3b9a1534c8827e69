package aa

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/model"
)

// Wallet captures everything that differs between smart account
// implementations: how the factory derives and deploys an account, what the
// account's execute call looks like and how it expects its signature.
type Wallet interface {
	Kind() model.WalletKind
	// Label names accounts of this kind in results.
	Label() string
	Factory() common.Address
	PredictAddress(ctx context.Context, salt *big.Int) (common.Address, error)
	// CreateAccount deploys the account for salt with a direct factory call.
	CreateAccount(ctx context.Context, salt *big.Int) error
	// InitCode is factory || factory calldata for deployment inside an operation.
	InitCode(salt *big.Int) ([]byte, error)
	ExecuteCall(to common.Address, value *big.Int, data []byte) ([]byte, error)
	WrapSignature(sig []byte) []byte
}

// Wallets is the closed set of wallet implementations an environment serves.
type Wallets map[model.WalletKind]Wallet

// NewWallets builds every supported wallet kind for owner.
func NewWallets(chain chainio.Chain, owner common.Address, addrs Addresses) Wallets {
	return Wallets{
		model.SimpleAccountV06: NewSimpleAccountWallet(chain, addrs.SimpleAccountFactory, owner),
		model.KernelLiteV23:    NewKernelLiteWallet(chain, addrs.KernelFactory, addrs.KernelImplementation, addrs.KernelECDSAValidator, owner),
	}
}

func (w Wallets) Get(kind model.WalletKind) (Wallet, error) {
	wallet, ok := w[kind]
	if !ok {
		return nil, model.NewConfigurationError("unsupported wallet implementation", map[string]interface{}{"wallet": kind.String()})
	}
	return wallet, nil
}
