package preset

import (
	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

// signUserOp signs the user op hash and wraps the signature the way the
// wallet expects it. Every other field of op must be final.
func (e *Environment) signUserOp(op *userop.UserOperation, wallet aa.Wallet) ([]byte, error) {
	hash := op.GetUserOpHash(e.addrs.EntryPoint, e.chainID)

	sig, err := e.signer.SignMessage(hash.Bytes())
	if err != nil {
		return nil, err
	}

	return wallet.WrapSignature(sig), nil
}
