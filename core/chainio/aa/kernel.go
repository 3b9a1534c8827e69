package aa

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/model"
)

// Kernel mode prefix selecting the default (sudo) validator.
var kernelSudoMode = []byte{0x00, 0x00, 0x00, 0x00}

// Kernel operation type for a plain call, as opposed to delegatecall.
const kernelOperationCall uint8 = 0

// KernelLiteWallet is a ZeroDev Kernel v2.3 account using the ECDSA validator.
// The factory deploys a proxy to implementation and calls
// initialize(validator, owner) on it.
type KernelLiteWallet struct {
	chain          chainio.Chain
	factory        common.Address
	implementation common.Address
	validator      common.Address
	owner          common.Address
}

func NewKernelLiteWallet(chain chainio.Chain, factory, implementation, validator, owner common.Address) *KernelLiteWallet {
	return &KernelLiteWallet{
		chain:          chain,
		factory:        factory,
		implementation: implementation,
		validator:      validator,
		owner:          owner,
	}
}

func (w *KernelLiteWallet) Kind() model.WalletKind  { return model.KernelLiteV23 }
func (w *KernelLiteWallet) Label() string           { return "KernelLite v2.3" }
func (w *KernelLiteWallet) Factory() common.Address { return w.factory }

func (w *KernelLiteWallet) initData() ([]byte, error) {
	return KernelAccountABI.Pack("initialize", w.validator, w.owner.Bytes())
}

func (w *KernelLiteWallet) PredictAddress(ctx context.Context, salt *big.Int) (common.Address, error) {
	data, err := w.initData()
	if err != nil {
		return common.Address{}, err
	}
	return callAddress(ctx, w.chain, w.factory, KernelFactoryABI, "getAccountAddress", data, salt)
}

func (w *KernelLiteWallet) CreateAccount(ctx context.Context, salt *big.Int) error {
	data, err := w.initData()
	if err != nil {
		return err
	}
	_, err = transact(ctx, w.chain, w.factory, nil, KernelFactoryABI, "createAccount", w.implementation, data, salt)
	return err
}

func (w *KernelLiteWallet) InitCode(salt *big.Int) ([]byte, error) {
	data, err := w.initData()
	if err != nil {
		return nil, err
	}
	calldata, err := KernelFactoryABI.Pack("createAccount", w.implementation, data, salt)
	if err != nil {
		return nil, err
	}

	initCode := append(w.factory.Bytes(), calldata...)
	return initCode, nil
}

func (w *KernelLiteWallet) ExecuteCall(to common.Address, value *big.Int, data []byte) ([]byte, error) {
	return KernelAccountABI.Pack("execute", to, value, data, kernelOperationCall)
}

func (w *KernelLiteWallet) WrapSignature(sig []byte) []byte {
	wrapped := make([]byte, 0, len(kernelSudoMode)+len(sig))
	wrapped = append(wrapped, kernelSudoMode...)
	return append(wrapped, sig...)
}
