package registrar

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/luxfi/log"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/journal"
	"github.com/luxfi/paractl/pkg/keys"
	"github.com/luxfi/paractl/pkg/metrics"
	"github.com/luxfi/paractl/pkg/relay"
)

var errSubscriptionClosed = errors.New("status subscription closed before a terminal status")

// Recorder stores submitted registrations.
type Recorder interface {
	Append(e journal.Entry) (journal.Entry, error)
}

// Receipt is the outcome of a resolved submission.
type Receipt struct {
	ParaID    relay.ParaID
	Nonce     uint64
	Status    relay.StatusKind
	BlockHash string
}

// Registrar submits parachain registrations signed by Signer.
type Registrar struct {
	Signer  keys.Account
	Log     log.Logger
	Metrics *metrics.Metrics
	// Journal is optional.
	Journal Recorder
}

// New creates a Registrar.
func New(signer keys.Account, logger log.Logger, m *metrics.Metrics) *Registrar {
	return &Registrar{Signer: signer, Log: logger, Metrics: m}
}

// InitializeCall builds the privileged call scheduling reg for initialisation.
func InitializeCall(reg *Registration) relay.Call {
	inner := relay.Call{
		Name: "ParasSudoWrapper.sudo_schedule_para_initialize",
		Args: []interface{}{
			reg.ID,
			relay.ParaGenesisArgs{
				GenesisHead:    reg.GenesisHead,
				ValidationCode: reg.ValidationCode,
				Parachain:      reg.Parachain,
			},
		},
	}
	return relay.Call{Name: "Sudo.sudo", Args: []interface{}{inner}}
}

// Register submits reg using the signer's current on-chain nonce.
func (r *Registrar) Register(ctx context.Context, ep *relay.Endpoint, reg *Registration, waitForFinality bool) (*Receipt, error) {
	nonce, err := ep.Client().AccountNonce(ctx, r.Signer.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", r.Signer.Address, err)
	}
	return r.Submit(ctx, ep, reg, nonce, waitForFinality)
}

// Submit signs and submits the registration of reg with the given nonce and
// waits for inclusion, or for finality when waitForFinality is set. The status
// subscription is released on every return path.
func (r *Registrar) Submit(ctx context.Context, ep *relay.Endpoint, reg *Registration, nonce uint64, waitForFinality bool) (*Receipt, error) {
	codeHash := keys.CodeHash(reg.ValidationCode)
	r.Log.Info("Submitting extrinsic to register parachain",
		"paraID", reg.ID,
		"nonce", nonce,
		"codeHash", hexutil.Encode(codeHash[:]),
		"finality", waitForFinality)

	sub, err := ep.Client().SubmitAndWatch(ctx, InitializeCall(reg), r.Signer, relay.SubmitOptions{Nonce: nonce})
	if err != nil {
		r.Metrics.Submission("rejected")
		return nil, fmt.Errorf("%w: parachain %s: %v", core.ErrSubmissionFailed, reg.ID, err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			r.Metrics.Submission("cancelled")
			return nil, ctx.Err()

		case err := <-sub.Err():
			if err == nil {
				err = errSubscriptionClosed
			}
			r.Metrics.Submission("error")
			return nil, fmt.Errorf("%w: parachain %s: %v", core.ErrSubmissionFailed, reg.ID, err)

		case st, ok := <-sub.Statuses():
			if !ok {
				r.Metrics.Submission("error")
				return nil, fmt.Errorf("%w: parachain %s: %v", core.ErrSubmissionFailed, reg.ID, errSubscriptionClosed)
			}
			r.Log.Info("Current status", "paraID", reg.ID, "status", st.Kind.String())

			switch {
			case st.Kind == relay.StatusInBlock:
				r.Log.Info("Transaction included", "paraID", reg.ID, "blockHash", st.BlockHash)
				if !waitForFinality {
					return r.resolved(ep, reg, nonce, st), nil
				}
			case st.Kind == relay.StatusFinalized:
				r.Log.Info("Transaction finalized", "paraID", reg.ID, "blockHash", st.BlockHash)
				return r.resolved(ep, reg, nonce, st), nil
			case st.Kind.Failed():
				r.Metrics.Submission(st.Kind.String())
				return nil, fmt.Errorf("%w: parachain %s: extrinsic %s", core.ErrSubmissionFailed, reg.ID, st.Kind)
			}
		}
	}
}

func (r *Registrar) resolved(ep *relay.Endpoint, reg *Registration, nonce uint64, st relay.Status) *Receipt {
	r.Metrics.Submission(st.Kind.String())
	receipt := &Receipt{
		ParaID:    reg.ID,
		Nonce:     nonce,
		Status:    st.Kind,
		BlockHash: st.BlockHash,
	}

	if r.Journal != nil {
		_, err := r.Journal.Append(journal.Entry{
			ParaID:    uint64(reg.ID),
			Nonce:     nonce,
			Signer:    r.Signer.Address,
			Endpoint:  ep.URL(),
			Status:    st.Kind.String(),
			BlockHash: st.BlockHash,
		})
		if err != nil {
			r.Log.Warn("Failed to journal registration", "paraID", reg.ID, "error", err)
		}
	}
	return receipt
}
