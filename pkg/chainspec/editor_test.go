package chainspec_test

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/paractl/pkg/chainspec"
	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/keys"
)

func load(path string) *chainspec.Document {
	doc, err := chainspec.Load(path)
	Expect(err).NotTo(HaveOccurred())
	return doc
}

func stashes(doc *chainspec.Document) []string {
	var out []string
	for _, a := range doc.AuthorityKeys() {
		out = append(out, a.Stash)
	}
	return out
}

func stashOf(name string) string {
	id, err := keys.DeriveAuthority(name, keys.GenericPrefix)
	Expect(err).NotTo(HaveOccurred())
	return id.Stash.Address
}

var _ = Describe("Editor", func() {
	var editor *chainspec.Editor

	BeforeEach(func() {
		editor = chainspec.NewEditor(log.NewLogger("test"))
	})

	Describe("ClearAuthorities", func() {
		DescribeTable("should empty the keys and keep balances",
			func(spec string) {
				path := writeSpec(spec)
				before := len(load(path).AccountBalances())

				Expect(editor.ClearAuthorities(path)).To(Succeed())

				doc := load(path)
				Expect(doc.AuthorityKeys()).To(BeEmpty())
				Expect(doc.AccountBalances()).To(HaveLen(before))
			},
			Entry("current schema", currentSpec),
			Entry("legacy schema", legacySpec),
		)

		It("should keep large balance literals intact", func() {
			path := writeSpec(currentSpec)
			Expect(editor.ClearAuthorities(path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("1000000000000000000000"))
			Expect(string(data)).To(ContainSubstring("\n  \"name\": \"Local Testnet\","))
		})
	})

	Describe("AddAuthorities", func() {
		It("should append one record per name in order", func() {
			path := writeSpec(currentSpec)
			Expect(editor.ClearAuthorities(path)).To(Succeed())
			before := len(load(path).AccountBalances())

			Expect(editor.AddAuthorities(path, []string{"charlie", "bob", "dave"})).To(Succeed())

			doc := load(path)
			Expect(stashes(doc)).To(Equal([]string{stashOf("Charlie"), stashOf("Bob"), stashOf("Dave")}))
			Expect(doc.AccountBalances()).To(HaveLen(before + 3))
		})

		It("should derive the capability map from the capitalised name", func() {
			path := writeSpec(legacySpec)
			Expect(editor.AddAuthorities(path, []string{"bob"})).To(Succeed())

			bob, err := keys.DeriveAuthority("Bob", keys.GenericPrefix)
			Expect(err).NotTo(HaveOccurred())

			authorities := load(path).AuthorityKeys()
			Expect(authorities).To(HaveLen(1))
			Expect(authorities[0].Stash).To(Equal(bob.Stash.Address))
			Expect(authorities[0].Validator).To(Equal(bob.Stash.Address))
			Expect(authorities[0].Keys).To(Equal(map[string]string{
				"grandpa":             bob.Grandpa.Address,
				"babe":                bob.Session.Address,
				"im_online":           bob.Session.Address,
				"authority_discovery": bob.Session.Address,
				"para_validator":      bob.Session.Address,
				"para_assignment":     bob.Session.Address,
			}))
		})

		It("should write capability keys in a fixed order", func() {
			path := writeSpec(legacySpec)
			Expect(editor.AddAuthorities(path, []string{"bob"})).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			text := string(data)
			order := []string{`"grandpa"`, `"babe"`, `"im_online"`, `"authority_discovery"`, `"para_validator"`, `"para_assignment"`}
			for i := 1; i < len(order); i++ {
				Expect(strings.Index(text, order[i-1])).To(BeNumerically("<", strings.Index(text, order[i])))
			}
		})

		It("should credit new stashes with the default balance", func() {
			path := writeSpec(legacySpec)
			Expect(editor.AddAuthorities(path, []string{"bob"})).To(Succeed())

			balances := load(path).AccountBalances()
			Expect(balances).To(HaveLen(3))
			Expect(balances[2]).To(Equal(chainspec.Balance{Address: stashOf("Bob"), Amount: "1152921504606846976"}))
		})

		It("should not add a second balance for a funded stash", func() {
			path := writeSpec(legacySpec)
			Expect(editor.AddAuthorities(path, []string{"alice"})).To(Succeed())

			doc := load(path)
			Expect(stashes(doc)).To(Equal([]string{aliceStash}))
			Expect(doc.AccountBalances()).To(HaveLen(2))
		})

		It("should use a configured default balance", func() {
			amount, err := chainspec.ParseBalance("0x10")
			Expect(err).NotTo(HaveOccurred())
			editor.DefaultBalance = amount

			path := writeSpec(legacySpec)
			Expect(editor.AddAuthorities(path, []string{"bob"})).To(Succeed())
			Expect(load(path).AccountBalances()[2].Amount).To(Equal("16"))
		})

		DescribeTable("should abort without touching the file on duplicates",
			func(names []string) {
				path := writeSpec(currentSpec)
				before, err := os.ReadFile(path)
				Expect(err).NotTo(HaveOccurred())

				err = editor.AddAuthorities(path, names)
				Expect(err).To(MatchError(core.ErrDuplicateAuthority))

				after, err := os.ReadFile(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(after).To(Equal(before))
			},
			Entry("existing authority", []string{"alice"}),
			Entry("existing authority after a new one", []string{"dave", "alice"}),
			Entry("repeated name", []string{"eve", "eve"}),
			Entry("names differing only in case", []string{"ferdie", "Ferdie"}),
		)

		It("should fail when the chainspec has no balances", func() {
			path := writeSpec(`{"genesis":{"runtime":{"palletSession":{"keys":[]}}}}`)
			err := editor.AddAuthorities(path, []string{"bob"})
			Expect(err).To(MatchError(core.ErrSchemaMismatch))
		})
	})

	Describe("AddAuthoritiesFromFile", func() {
		var seeds string

		BeforeEach(func() {
			seeds = filepath.Join(GinkgoT().TempDir(), "seeds")
			Expect(os.WriteFile(seeds, []byte("bob\ncharlie\n"), 0o644)).To(Succeed())
		})

		It("should replace the authority set with the seeds", func() {
			path := writeSpec(currentSpec)
			Expect(editor.AddAuthoritiesFromFile(path, seeds)).To(Succeed())
			Expect(stashes(load(path))).To(Equal([]string{stashOf("Bob"), stashOf("Charlie")}))
		})

		It("should give the same set when applied twice", func() {
			path := writeSpec(currentSpec)
			Expect(editor.AddAuthoritiesFromFile(path, seeds)).To(Succeed())
			first := stashes(load(path))

			Expect(editor.AddAuthoritiesFromFile(path, seeds)).To(Succeed())
			Expect(stashes(load(path))).To(Equal(first))
		})

		It("should match clearing then adding", func() {
			viaFile := writeSpec(currentSpec)
			Expect(editor.AddAuthoritiesFromFile(viaFile, seeds)).To(Succeed())

			manual := writeSpec(currentSpec)
			Expect(editor.ClearAuthorities(manual)).To(Succeed())
			Expect(editor.AddAuthorities(manual, []string{"bob", "charlie"})).To(Succeed())

			a, err := os.ReadFile(viaFile)
			Expect(err).NotTo(HaveOccurred())
			b, err := os.ReadFile(manual)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))
		})

		It("should report a missing seeds file", func() {
			path := writeSpec(currentSpec)
			err := editor.AddAuthoritiesFromFile(path, filepath.Join(GinkgoT().TempDir(), "missing"))
			Expect(err).To(MatchError(core.ErrFileRead))
		})
	})

	It("should list authorities", func() {
		authorities, err := editor.Authorities(writeSpec(currentSpec))
		Expect(err).NotTo(HaveOccurred())
		Expect(authorities).To(HaveLen(1))
		Expect(authorities[0].Keys).To(HaveKeyWithValue("babe", aliceSession))
	})
})

var _ = Describe("ReadSeeds", func() {
	read := func(content string) []string {
		path := filepath.Join(GinkgoT().TempDir(), "seeds")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		names, err := chainspec.ReadSeeds(path)
		Expect(err).NotTo(HaveOccurred())
		return names
	}

	It("should keep line order", func() {
		Expect(read("dave\nbob\n")).To(Equal([]string{"dave", "bob"}))
	})

	It("should keep blank lines between names", func() {
		Expect(read("a\n\nb")).To(Equal([]string{"a", "", "b"}))
	})

	It("should pass carriage returns through", func() {
		Expect(read("a\r\nb\r\n")).To(Equal([]string{"a\r", "b\r"}))
	})

	It("should keep surrounding whitespace", func() {
		Expect(read(" alice\nbob \n")).To(Equal([]string{" alice", "bob "}))
	})

	It("should return nothing for an empty file", func() {
		Expect(read("")).To(BeEmpty())
	})
})
