package registrar

import (
	"context"
	"fmt"

	"github.com/luxfi/paractl/pkg/relay"
)

// RegisterAll registers every parachain in cfg, in file order, one at a time.
// Nonces are assigned from the signer's current nonce, increasing by one per
// entry. The first failure aborts the batch; parachains registered before it
// stay registered.
func (r *Registrar) RegisterAll(ctx context.Context, ep *relay.Endpoint, cfg *BatchConfig, waitForFinality bool) ([]*Receipt, error) {
	nonce, err := ep.Client().AccountNonce(ctx, r.Signer.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", r.Signer.Address, err)
	}
	r.Log.Info("Registering parachains", "count", len(cfg.Parachains), "startNonce", nonce)

	receipts := make([]*Receipt, 0, len(cfg.Parachains))
	for i, entry := range cfg.Parachains {
		reg, err := entry.Load()
		if err != nil {
			return receipts, fmt.Errorf("parachain %s (entry %d): %w", entry.ID, i, err)
		}

		receipt, err := r.Submit(ctx, ep, reg, nonce+uint64(i), waitForFinality)
		if err != nil {
			return receipts, fmt.Errorf("parachain %s (entry %d): %w", entry.ID, i, err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
