package relay

import (
	"context"
	"fmt"
	"sync"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/rpc/author"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/keys"
)

// substrateClient implements Client over go-substrate-rpc-client.
type substrateClient struct {
	api        *gsrpc.SubstrateAPI
	meta       *types.Metadata
	paraIDBits int
}

// DialSubstrate connects to a substrate node over WebSocket and loads its
// latest metadata.
func DialSubstrate(ctx context.Context, url string, schema TypeSchema) (Client, error) {
	bits, err := schema.ParaIDWidth()
	if err != nil {
		return nil, err
	}

	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		api.Client.Close()
		return nil, err
	}

	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		api.Client.Close()
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}

	return &substrateClient{api: api, meta: meta, paraIDBits: bits}, nil
}

func (c *substrateClient) Close() {
	c.api.Client.Close()
}

func (c *substrateClient) AccountNonce(ctx context.Context, accountID []byte) (uint64, error) {
	key, err := types.CreateStorageKey(c.meta, "System", "Account", accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to build System.Account key: %w", err)
	}

	var info types.AccountInfo
	ok, err := c.api.RPC.State.GetStorageLatest(key, &info)
	if err != nil {
		return 0, fmt.Errorf("failed to query account: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return uint64(info.Nonce), nil
}

func (c *substrateClient) SubmitAndWatch(ctx context.Context, call Call, signer keys.Account, opts SubmitOptions) (Subscription, error) {
	if signer.Scheme != keys.Sr25519 {
		return nil, core.ErrInvalidConfigf("signer must be sr25519, got %s", signer.Scheme)
	}

	rc, err := c.buildCall(call)
	if err != nil {
		return nil, err
	}
	ext := types.NewExtrinsic(rc)

	genesisHash, err := c.api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genesis hash: %w", err)
	}
	rv, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runtime version: %w", err)
	}

	so := types.SignatureOptions{
		BlockHash:          genesisHash,
		Era:                types.ExtrinsicEra{IsImmortalEra: true},
		GenesisHash:        genesisHash,
		Nonce:              types.NewUCompactFromUInt(opts.Nonce),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}
	kp := signature.KeyringPair{
		URI:       signer.URI,
		Address:   signer.Address,
		PublicKey: signer.PublicKey,
	}
	if err := ext.Sign(kp, so); err != nil {
		return nil, fmt.Errorf("failed to sign extrinsic: %w", err)
	}

	sub, err := c.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return nil, err
	}
	return newStatusStream(sub), nil
}

// buildCall resolves a Call against the node metadata, encoding nested calls
// and paractl argument types.
func (c *substrateClient) buildCall(call Call) (types.Call, error) {
	args := make([]interface{}, 0, len(call.Args))
	for _, a := range call.Args {
		switch v := a.(type) {
		case Call:
			inner, err := c.buildCall(v)
			if err != nil {
				return types.Call{}, err
			}
			args = append(args, inner)
		case ParaID:
			id, err := c.paraIDValue(v)
			if err != nil {
				return types.Call{}, err
			}
			args = append(args, id)
		case ParaGenesisArgs:
			args = append(args, struct {
				GenesisHead    types.Bytes
				ValidationCode types.Bytes
				Parachain      types.Bool
			}{types.NewBytes(v.GenesisHead), types.NewBytes(v.ValidationCode), types.NewBool(v.Parachain)})
		default:
			args = append(args, a)
		}
	}

	rc, err := types.NewCall(c.meta, call.Name, args...)
	if err != nil {
		return types.Call{}, fmt.Errorf("%w: cannot build call %s: %v", core.ErrSchemaMismatch, call.Name, err)
	}
	return rc, nil
}

func (c *substrateClient) paraIDValue(id ParaID) (interface{}, error) {
	if err := checkParaIDWidth(id, c.paraIDBits); err != nil {
		return nil, err
	}
	if c.paraIDBits == 64 {
		return types.NewU64(uint64(id)), nil
	}
	return types.NewU32(uint32(id)), nil
}

func (c *substrateClient) Parachains(ctx context.Context) ([]ParaID, error) {
	key, err := types.CreateStorageKey(c.meta, "Paras", "Parachains")
	if err != nil {
		return nil, fmt.Errorf("%w: Paras.Parachains: %v", core.ErrSchemaMismatch, err)
	}

	var out []ParaID
	if c.paraIDBits == 64 {
		var ids []types.U64
		if _, err := c.api.RPC.State.GetStorageLatest(key, &ids); err != nil {
			return nil, fmt.Errorf("failed to query parachains: %w", err)
		}
		for _, id := range ids {
			out = append(out, ParaID(id))
		}
		return out, nil
	}

	var ids []types.U32
	if _, err := c.api.RPC.State.GetStorageLatest(key, &ids); err != nil {
		return nil, fmt.Errorf("failed to query parachains: %w", err)
	}
	for _, id := range ids {
		out = append(out, ParaID(id))
	}
	return out, nil
}

func (c *substrateClient) Head(ctx context.Context, id ParaID) ([]byte, bool, error) {
	value, err := c.paraIDValue(id)
	if err != nil {
		return nil, false, err
	}
	arg, err := codec.Encode(value)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode para id: %w", err)
	}
	key, err := types.CreateStorageKey(c.meta, "Paras", "Heads", arg)
	if err != nil {
		return nil, false, fmt.Errorf("%w: Paras.Heads: %v", core.ErrSchemaMismatch, err)
	}

	var head types.Bytes
	ok, err := c.api.RPC.State.GetStorageLatest(key, &head)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query head data: %w", err)
	}
	return head, ok, nil
}

func (c *substrateClient) DecodeHeader(raw []byte) (Header, error) {
	var h types.Header
	if err := codec.Decode(raw, &h); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", core.ErrParse, err)
	}
	return humanHeader(&h), nil
}

func (c *substrateClient) BestHeader(ctx context.Context) (Header, error) {
	h, err := c.api.RPC.Chain.GetHeaderLatest()
	if err != nil {
		return Header{}, fmt.Errorf("failed to fetch latest header: %w", err)
	}
	return humanHeader(h), nil
}

func humanHeader(h *types.Header) Header {
	return Header{
		ParentHash:     h.ParentHash.Hex(),
		Number:         FormatBlockNumber(uint64(h.Number)),
		StateRoot:      h.StateRoot.Hex(),
		ExtrinsicsRoot: h.ExtrinsicsRoot.Hex(),
	}
}

// statusStream adapts an author subscription to Subscription.
type statusStream struct {
	sub  *author.ExtrinsicStatusSubscription
	out  chan Status
	quit chan struct{}
	once sync.Once
}

func newStatusStream(sub *author.ExtrinsicStatusSubscription) *statusStream {
	s := &statusStream{
		sub:  sub,
		out:  make(chan Status),
		quit: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *statusStream) run() {
	for {
		select {
		case st, ok := <-s.sub.Chan():
			if !ok {
				close(s.out)
				return
			}
			select {
			case s.out <- convertStatus(st):
			case <-s.quit:
				return
			}
		case <-s.quit:
			return
		}
	}
}

func (s *statusStream) Statuses() <-chan Status { return s.out }

func (s *statusStream) Err() <-chan error { return s.sub.Err() }

func (s *statusStream) Unsubscribe() {
	s.once.Do(func() {
		close(s.quit)
		s.sub.Unsubscribe()
	})
}

func convertStatus(st types.ExtrinsicStatus) Status {
	switch {
	case st.IsInBlock:
		return Status{Kind: StatusInBlock, BlockHash: st.AsInBlock.Hex()}
	case st.IsFinalized:
		return Status{Kind: StatusFinalized, BlockHash: st.AsFinalized.Hex()}
	case st.IsRetracted:
		return Status{Kind: StatusRetracted, BlockHash: st.AsRetracted.Hex()}
	case st.IsFinalityTimeout:
		return Status{Kind: StatusFinalityTimeout, BlockHash: st.AsFinalityTimeout.Hex()}
	case st.IsUsurped:
		return Status{Kind: StatusUsurped, BlockHash: st.AsUsurped.Hex()}
	case st.IsDropped:
		return Status{Kind: StatusDropped}
	case st.IsInvalid:
		return Status{Kind: StatusInvalid}
	case st.IsBroadcast:
		return Status{Kind: StatusBroadcast}
	case st.IsReady:
		return Status{Kind: StatusReady}
	}
	return Status{Kind: StatusFuture}
}
