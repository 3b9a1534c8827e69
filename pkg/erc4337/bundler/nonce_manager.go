package bundler

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/pkg/logger"
)

// NonceFetcher reads the on-chain nonce of a sender.
type NonceFetcher func(ctx context.Context, sender common.Address) (*big.Int, error)

// NonceManager is the per-run nonce ledger. The first use of a sender is
// seeded from the chain; every further use of the same sender within a bundle
// takes the previous nonce + 1 without reading the chain, because the entry
// point only advances its nonce once the earlier operation executes.
type NonceManager struct {
	// Key: sender address, Value: next nonce to use
	pendingNonces map[common.Address]*big.Int
	mu            sync.RWMutex
	logger        logger.Logger
}

func NewNonceManager(lgr logger.Logger) *NonceManager {
	return &NonceManager{
		pendingNonces: make(map[common.Address]*big.Int),
		logger:        logger.EnsureLogger(lgr),
	}
}

// NextNonce returns the nonce the next operation of sender must carry. The
// returned value is a copy and is not reserved until IncrementNonce is called.
func (nm *NonceManager) NextNonce(ctx context.Context, sender common.Address, fetch NonceFetcher) (*big.Int, error) {
	nm.mu.RLock()
	cached, ok := nm.pendingNonces[sender]
	nm.mu.RUnlock()

	if ok {
		nm.logger.Debug("nonce ledger: using cached nonce", "sender", sender.Hex(), "nonce", cached.String())
		return new(big.Int).Set(cached), nil
	}

	onChain, err := fetch(ctx, sender)
	if err != nil {
		return nil, err
	}

	nm.logger.Debug("nonce ledger: first use of sender, using on-chain nonce", "sender", sender.Hex(), "nonce", onChain.String())
	return new(big.Int).Set(onChain), nil
}

// IncrementNonce records that used was assigned to an operation of sender,
// so the next operation of the same sender gets used + 1.
func (nm *NonceManager) IncrementNonce(sender common.Address, used *big.Int) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	next := new(big.Int).Add(used, big.NewInt(1))
	nm.pendingNonces[sender] = next

	nm.logger.Debug("nonce ledger: incremented", "sender", sender.Hex(), "used", used.String(), "next", next.String())
}

// ResetNonce clears the cached nonce for a sender, forcing the next NextNonce
// to fetch fresh state from the chain.
func (nm *NonceManager) ResetNonce(sender common.Address) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	delete(nm.pendingNonces, sender)
	nm.logger.Debug("nonce ledger: reset", "sender", sender.Hex())
}

// SetNonce explicitly sets the cached nonce for a sender.
func (nm *NonceManager) SetNonce(sender common.Address, nonce *big.Int) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nm.pendingNonces[sender] = new(big.Int).Set(nonce)
}

// GetCachedNonce returns the cached nonce for a sender without fetching from chain.
// Returns (nonce, true) if cached, (nil, false) if not cached.
func (nm *NonceManager) GetCachedNonce(sender common.Address) (*big.Int, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()

	nonce, exists := nm.pendingNonces[sender]
	if !exists {
		return nil, false
	}
	return new(big.Int).Set(nonce), true
}
