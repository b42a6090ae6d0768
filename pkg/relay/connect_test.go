package relay_test

import (
	"context"
	"errors"
	"time"

	"github.com/luxfi/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/metrics"
	"github.com/luxfi/paractl/pkg/relay"
	"github.com/luxfi/paractl/pkg/relay/relaytest"
)

var _ = Describe("Connector", func() {
	var connector *relay.Connector

	BeforeEach(func() {
		connector = &relay.Connector{
			Timeout: 50 * time.Millisecond,
			Log:     log.NewLogger("test"),
			Metrics: metrics.New(),
		}
	})

	It("should return an endpoint when the dial succeeds", func() {
		fake := relaytest.New()
		connector.Dial = func(ctx context.Context, url string, schema relay.TypeSchema) (relay.Client, error) {
			return fake, nil
		}

		ep, err := connector.Connect(context.Background(), "ws://node:9944", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ep.URL()).To(Equal("ws://node:9944"))
		Expect(ep.Client()).To(BeIdenticalTo(fake))

		ep.Close()
		ep.Close()
		Expect(fake.Closed.Load()).To(BeTrue())
	})

	It("should fail with a timeout when the dial never completes", func() {
		release := make(chan struct{})
		defer close(release)
		connector.Dial = func(ctx context.Context, url string, schema relay.TypeSchema) (relay.Client, error) {
			<-release
			return relaytest.New(), nil
		}

		start := time.Now()
		_, err := connector.Connect(context.Background(), "ws://node:9944", nil)
		Expect(err).To(MatchError(core.ErrConnectionTimeout))
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})

	It("should close a connection that completes after the timeout", func() {
		late := relaytest.New()
		release := make(chan struct{})
		connector.Dial = func(ctx context.Context, url string, schema relay.TypeSchema) (relay.Client, error) {
			<-release
			return late, nil
		}

		_, err := connector.Connect(context.Background(), "ws://node:9944", nil)
		Expect(err).To(MatchError(core.ErrConnectionTimeout))

		close(release)
		Eventually(late.Closed.Load).Should(BeTrue())
	})

	It("should map transport failures to connection errors", func() {
		connector.Dial = func(ctx context.Context, url string, schema relay.TypeSchema) (relay.Client, error) {
			return nil, errors.New("connection refused")
		}

		_, err := connector.Connect(context.Background(), "ws://node:9944", nil)
		Expect(err).To(MatchError(core.ErrConnectionError))
		Expect(err.Error()).To(ContainSubstring("connection refused"))
	})
})

var _ = Describe("TypeSchema", func() {
	It("should reject para ids wider than the ParaId type", func() {
		var schema relay.TypeSchema
		Expect(schema.CheckParaID(relay.ParaID(4294967295))).To(Succeed())
		Expect(schema.CheckParaID(relay.ParaID(4294969296))).To(MatchError(core.ErrSchemaMismatch))

		wide, err := relay.ParseTypeSchema([]byte(`{"ParaId": "u64"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(wide.CheckParaID(relay.ParaID(4294969296))).To(Succeed())
	})

	It("should default para ids to 32 bits", func() {
		var schema relay.TypeSchema
		bits, err := schema.ParaIDWidth()
		Expect(err).NotTo(HaveOccurred())
		Expect(bits).To(Equal(32))
	})

	It("should accept a u64 para id alias", func() {
		schema, err := relay.ParseTypeSchema([]byte(`{"ParaId": "u64", "Address": "MultiAddress"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(schema).To(HaveKey("Address"))

		bits, err := schema.ParaIDWidth()
		Expect(err).NotTo(HaveOccurred())
		Expect(bits).To(Equal(64))
	})

	It("should reject unsupported para id types", func() {
		_, err := relay.ParseTypeSchema([]byte(`{"ParaId": "u128"}`))
		Expect(err).To(MatchError(core.ErrSchemaMismatch))
	})

	It("should reject malformed documents", func() {
		_, err := relay.ParseTypeSchema([]byte(`{"ParaId": `))
		Expect(err).To(MatchError(core.ErrParse))
	})

	It("should report unreadable files", func() {
		_, err := relay.LoadTypeSchema("/nonexistent/types.json")
		Expect(err).To(MatchError(core.ErrFileRead))
	})
})

var _ = Describe("FormatBlockNumber", func() {
	It("should group thousands", func() {
		Expect(relay.FormatBlockNumber(12345)).To(Equal("12,345"))
		Expect(relay.FormatBlockNumber(7)).To(Equal("7"))
	})
})
