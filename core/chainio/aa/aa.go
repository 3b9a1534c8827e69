package aa

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/model"
)

// SimpleAccountWallet is the EntryPoint v0.6 sample SimpleAccount deployed by
// SimpleAccountFactory.createAccount(owner, salt).
type SimpleAccountWallet struct {
	chain   chainio.Chain
	factory common.Address
	owner   common.Address
}

func NewSimpleAccountWallet(chain chainio.Chain, factory, owner common.Address) *SimpleAccountWallet {
	return &SimpleAccountWallet{chain: chain, factory: factory, owner: owner}
}

func (w *SimpleAccountWallet) Kind() model.WalletKind  { return model.SimpleAccountV06 }
func (w *SimpleAccountWallet) Label() string           { return "SimpleAccount" }
func (w *SimpleAccountWallet) Factory() common.Address { return w.factory }

func (w *SimpleAccountWallet) PredictAddress(ctx context.Context, salt *big.Int) (common.Address, error) {
	return callAddress(ctx, w.chain, w.factory, SimpleAccountFactoryABI, "getAddress", w.owner, salt)
}

func (w *SimpleAccountWallet) CreateAccount(ctx context.Context, salt *big.Int) error {
	_, err := transact(ctx, w.chain, w.factory, nil, SimpleAccountFactoryABI, "createAccount", w.owner, salt)
	return err
}

// InitCode returns initcode for the owner's account with a given salt
func (w *SimpleAccountWallet) InitCode(salt *big.Int) ([]byte, error) {
	calldata, err := SimpleAccountFactoryABI.Pack("createAccount", w.owner, salt)
	if err != nil {
		return nil, err
	}

	var data []byte
	data = append(data, w.factory.Bytes()...)
	data = append(data, calldata...)
	return data, nil
}

// Generate calldata for UserOps
func (w *SimpleAccountWallet) ExecuteCall(to common.Address, value *big.Int, data []byte) ([]byte, error) {
	return SimpleAccountABI.Pack("execute", to, value, data)
}

func (w *SimpleAccountWallet) WrapSignature(sig []byte) []byte {
	return sig
}
