package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/luxfi/paractl/cmd"
	"github.com/luxfi/paractl/pkg/core"
)

const emptySpec = `{"name":"Local","genesis":{"runtime":{"runtime_genesis_config":{
  "palletBalances":{"balances":[]},
  "palletSession":{"keys":[]}}}}}`

var _ = Describe("paractl", func() {
	var (
		dir  string
		spec string
	)

	run := func(args ...string) (string, error) {
		root := cmd.NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"--base-dir", dir}, args...))
		err := root.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		spec = filepath.Join(dir, "spec.json")
		Expect(os.WriteFile(spec, []byte(emptySpec), 0o644)).To(Succeed())
	})

	It("should add and list authorities", func() {
		out, err := run("add_authority", spec, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Added authority alice"))

		out, err = run("list_authorities", spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("5GNJqTPyNqANBkUVMN1LPPrxXnFouWXoe2wNSmmEoLctxiZY"))
	})

	It("should record the authority count after adding one", func() {
		_, err := run("add_authority", spec, "alice")
		Expect(err).NotTo(HaveOccurred())
		_, err = run("add_authority", spec, "bob")
		Expect(err).NotTo(HaveOccurred())

		expected := `
# HELP paractl_authorities Authorities in the last written chainspec.
# TYPE paractl_authorities gauge
paractl_authorities 2
`
		Expect(testutil.GatherAndCompare(cmd.MetricsRegistry(), strings.NewReader(expected), "paractl_authorities")).To(Succeed())
	})

	It("should fail on a duplicate authority", func() {
		_, err := run("add_authority", spec, "alice")
		Expect(err).NotTo(HaveOccurred())

		_, err = run("add_authority", spec, "Alice")
		Expect(err).To(MatchError(core.ErrDuplicateAuthority))
	})

	It("should replace authorities from a seeds file", func() {
		seeds := filepath.Join(dir, "seeds")
		Expect(os.WriteFile(seeds, []byte("bob\ncharlie\n"), 0o644)).To(Succeed())

		_, err := run("add_authority", spec, "alice")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("add_authorities_from_file", spec, seeds)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("now has 2 authorities"))

		_, err = run("clear_authorities", spec)
		Expect(err).NotTo(HaveOccurred())
		out, err = run("list_authorities", "--json", spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("null"))
	})

	It("should require a para id", func() {
		_, err := run("check_registration", "ws://localhost:1")
		Expect(err).To(HaveOccurred())
		Expect(core.IsConfigError(err)).To(BeTrue())
	})

	It("should report unreadable registration files before connecting", func() {
		_, err := run("register_parachain", filepath.Join(dir, "missing.wasm"), filepath.Join(dir, "missing.head"), "2000")
		Expect(err).To(MatchError(core.ErrFileRead))
	})

	It("should reject para ids wider than 32 bits before reading files", func() {
		_, err := run("register_parachain", filepath.Join(dir, "missing.wasm"), filepath.Join(dir, "missing.head"), "4294969296")
		Expect(err).To(MatchError(core.ErrSchemaMismatch))

		_, err = run("check_registration", "ws://localhost:1", "4294969296")
		Expect(err).To(MatchError(core.ErrSchemaMismatch))
	})

	It("should accept is_parachain but still validate it", func() {
		_, err := run("register_parachain", filepath.Join(dir, "missing.wasm"), filepath.Join(dir, "missing.head"), "2000", "false")
		Expect(err).To(MatchError(core.ErrFileRead))

		_, err = run("register_parachain", filepath.Join(dir, "missing.wasm"), filepath.Join(dir, "missing.head"), "2000", "maybe")
		Expect(err).To(HaveOccurred())
		Expect(core.IsConfigError(err)).To(BeTrue())
	})

	It("should reject unknown commands", func() {
		_, err := run("register_everything")
		Expect(err).To(HaveOccurred())
	})

	It("should show an empty journal", func() {
		out, err := run("journal")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No registrations recorded"))
	})
})
