package journal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/paractl/pkg/journal"
)

var _ = Describe("Journal", func() {
	var j *journal.Journal

	BeforeEach(func() {
		var err error
		j, err = journal.Open(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(j.Close)
	})

	It("should start empty", func() {
		entries, err := j.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("should list entries in insertion order", func() {
		for i := uint64(0); i < 5; i++ {
			stored, err := j.Append(journal.Entry{ParaID: 2000 + i, Nonce: 7 + i, Status: "InBlock"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).NotTo(BeEmpty())
			Expect(stored.SubmittedAt.IsZero()).To(BeFalse())
		}

		entries, err := j.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(5))
		for i, e := range entries {
			Expect(e.ParaID).To(Equal(2000 + uint64(i)))
			Expect(e.Nonce).To(Equal(7 + uint64(i)))
		}
	})
})
