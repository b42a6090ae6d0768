// Package relay connects to a relay chain node and exposes the small query and
// submission surface paractl needs.
package relay

import (
	"context"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/luxfi/paractl/pkg/keys"
)

// ParaID identifies a parachain registered with the relay chain.
type ParaID uint64

func (id ParaID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseParaID parses a decimal parachain id.
func ParseParaID(s string) (ParaID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ParaID(v), nil
}

// Call describes a runtime call by its "Pallet.call_name" and arguments.
// Arguments may themselves be Calls, which are encoded as nested calls.
type Call struct {
	Name string
	Args []interface{}
}

// ParaGenesisArgs is the genesis description of a parachain being scheduled
// for initialisation.
type ParaGenesisArgs struct {
	GenesisHead    []byte
	ValidationCode []byte
	Parachain      bool
}

// SubmitOptions carries signing parameters for an extrinsic. Extrinsics are
// always submitted immortal.
type SubmitOptions struct {
	Nonce uint64
}

// StatusKind is the lifecycle stage of a submitted extrinsic.
type StatusKind int

const (
	StatusFuture StatusKind = iota
	StatusReady
	StatusBroadcast
	StatusInBlock
	StatusRetracted
	StatusFinalityTimeout
	StatusFinalized
	StatusUsurped
	StatusDropped
	StatusInvalid
)

var statusNames = map[StatusKind]string{
	StatusFuture:          "Future",
	StatusReady:           "Ready",
	StatusBroadcast:       "Broadcast",
	StatusInBlock:         "InBlock",
	StatusRetracted:       "Retracted",
	StatusFinalityTimeout: "FinalityTimeout",
	StatusFinalized:       "Finalized",
	StatusUsurped:         "Usurped",
	StatusDropped:         "Dropped",
	StatusInvalid:         "Invalid",
}

func (k StatusKind) String() string {
	if s, ok := statusNames[k]; ok {
		return s
	}
	return "Unknown(" + strconv.Itoa(int(k)) + ")"
}

// Failed reports whether the status ends the extrinsic lifecycle unsuccessfully.
func (k StatusKind) Failed() bool {
	switch k {
	case StatusFinalityTimeout, StatusUsurped, StatusDropped, StatusInvalid:
		return true
	}
	return false
}

// Status is one update from an extrinsic status subscription.
type Status struct {
	Kind      StatusKind
	BlockHash string
}

// Subscription delivers extrinsic status updates until Unsubscribe is called.
type Subscription interface {
	Statuses() <-chan Status
	Err() <-chan error
	Unsubscribe()
}

// Header is a block header in human readable form. Number carries grouping
// separators ("12,345").
type Header struct {
	ParentHash     string `json:"parentHash"`
	Number         string `json:"number"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
}

// Client is the chain-client surface used by paractl.
type Client interface {
	// AccountNonce returns the next nonce for the account.
	AccountNonce(ctx context.Context, accountID []byte) (uint64, error)
	// SubmitAndWatch signs and submits call, returning a status subscription.
	SubmitAndWatch(ctx context.Context, call Call, signer keys.Account, opts SubmitOptions) (Subscription, error)
	// Parachains returns the ids of the currently registered parachains.
	Parachains(ctx context.Context) ([]ParaID, error)
	// Head returns the raw head data stored for a parachain, if any.
	Head(ctx context.Context, id ParaID) ([]byte, bool, error)
	// DecodeHeader decodes raw head data into a header.
	DecodeHeader(raw []byte) (Header, error)
	// BestHeader returns the latest relay chain header.
	BestHeader(ctx context.Context) (Header, error)
	Close()
}

// FormatBlockNumber renders a block number with grouping separators.
func FormatBlockNumber(n uint64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
