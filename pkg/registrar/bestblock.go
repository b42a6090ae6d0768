package registrar

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/renameio/v2"

	"github.com/luxfi/paractl/pkg/relay"
)

// BestBlock reads the relay chain's latest header and writes its number to
// filename as a plain decimal string.
func BestBlock(ctx context.Context, ep *relay.Endpoint, filename string) (uint64, error) {
	header, err := ep.Client().BestHeader(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch best header: %w", err)
	}
	number, err := ParseBlockNumber(header.Number)
	if err != nil {
		return 0, err
	}
	if err := renameio.WriteFile(filename, []byte(strconv.FormatUint(number, 10)), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write best block to %s: %w", filename, err)
	}
	return number, nil
}
