package registrar_test

import (
	"context"

	"github.com/luxfi/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/metrics"
	"github.com/luxfi/paractl/pkg/registrar"
	"github.com/luxfi/paractl/pkg/relay"
	"github.com/luxfi/paractl/pkg/relay/relaytest"
)

var _ = Describe("Verifier", func() {
	const paraID = relay.ParaID(2000)

	var (
		fake     *relaytest.Client
		verifier *registrar.Verifier
	)

	BeforeEach(func() {
		fake = relaytest.New()
		fake.SetHead(paraID, []byte{0x01, 0x02}, relay.Header{Number: "12,345"})
		verifier = registrar.NewVerifier(log.NewLogger("test"), metrics.New())
	})

	It("should pass when the head is above the limit", func() {
		n, err := verifier.VerifyHeight(context.Background(), fake.Endpoint(), paraID, 12000)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(uint64(12345)))
	})

	It("should pass when the head is exactly at the limit", func() {
		_, err := verifier.VerifyHeight(context.Background(), fake.Endpoint(), paraID, 12345)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail when the head is below the limit", func() {
		n, err := verifier.VerifyHeight(context.Background(), fake.Endpoint(), paraID, 13000)
		Expect(err).To(MatchError(core.ErrHeightNotReached))
		Expect(n).To(Equal(uint64(12345)))
	})

	It("should fail without head data", func() {
		_, err := verifier.VerifyHeight(context.Background(), fake.Endpoint(), relay.ParaID(3000), 1)
		Expect(err).To(MatchError(core.ErrNoHeadData))
	})

	It("should reject malformed block numbers", func() {
		fake.SetHead(paraID, []byte{0x03}, relay.Header{Number: "twelve"})
		_, err := verifier.VerifyHeight(context.Background(), fake.Endpoint(), paraID, 1)
		Expect(err).To(MatchError(core.ErrParse))
	})
})

var _ = DescribeTable("ParseBlockNumber",
	func(in string, want uint64) {
		got, err := registrar.ParseBlockNumber(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	},
	Entry("plain", "42", uint64(42)),
	Entry("one separator", "12,345", uint64(12345)),
	Entry("many separators", "1,234,567", uint64(1234567)),
	Entry("underscores", "1_000", uint64(1000)),
	Entry("zero", "0", uint64(0)),
)
