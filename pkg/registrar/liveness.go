package registrar

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/luxfi/log"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/metrics"
	"github.com/luxfi/paractl/pkg/relay"
)

// Verifier checks that a registered parachain has produced blocks.
type Verifier struct {
	Log     log.Logger
	Metrics *metrics.Metrics
}

// NewVerifier creates a Verifier.
func NewVerifier(logger log.Logger, m *metrics.Metrics) *Verifier {
	return &Verifier{Log: logger, Metrics: m}
}

// VerifyHeight reads the head data the relay chain holds for id and fails with
// core.ErrHeightNotReached if its block number is below heightLimit. A head
// exactly at the limit passes. The check is a single point in time.
func (v *Verifier) VerifyHeight(ctx context.Context, ep *relay.Endpoint, id relay.ParaID, heightLimit uint64) (uint64, error) {
	raw, ok, err := ep.Client().Head(ctx, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: cannot retrieve head data for chain %s", core.ErrNoHeadData, id)
	}

	header, err := ep.Client().DecodeHeader(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode head data for chain %s: %w", id, err)
	}
	if dump, err := json.MarshalIndent(header, "", "  "); err == nil {
		v.Log.Debug("Head data", "paraID", id, "header", string(dump))
	}

	number, err := ParseBlockNumber(header.Number)
	if err != nil {
		return 0, err
	}
	v.Metrics.ParachainHeight(id.String(), number)
	v.Log.Info("Current block number", "paraID", id, "number", number)

	if number < heightLimit {
		return number, fmt.Errorf("%w: block height %d is not reached for chain %s, current block %d",
			core.ErrHeightNotReached, heightLimit, id, number)
	}
	return number, nil
}

// ParseBlockNumber parses a decimal block number that may contain grouping
// separators, e.g. "12,345".
func ParseBlockNumber(s string) (uint64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '_', ' ', '\u00a0':
			return -1
		}
		return r
	}, s)

	n, err := strconv.ParseUint(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: block number %q", core.ErrParse, s)
	}
	return n, nil
}
