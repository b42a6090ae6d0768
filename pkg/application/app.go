package application

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/luxfi/log"
	"github.com/spf13/viper"

	"github.com/luxfi/paractl/pkg/chainspec"
	"github.com/luxfi/paractl/pkg/journal"
	"github.com/luxfi/paractl/pkg/keys"
	"github.com/luxfi/paractl/pkg/metrics"
	"github.com/luxfi/paractl/pkg/registrar"
	"github.com/luxfi/paractl/pkg/relay"
)

// Configuration keys.
const (
	KeyRPCURL            = "rpc.url"
	KeyConnectTimeout    = "rpc.connect_timeout"
	KeySignerSeed        = "signer.seed"
	KeySS58Prefix        = "signer.ss58_prefix"
	KeyPollAttempts      = "poll.max_attempts"
	KeyPollInterval      = "poll.interval"
	KeyDefaultBalance    = "chainspec.default_balance"
	KeyJournalPath       = "journal.path"
	KeyMetricsFile       = "metrics.file"
	KeyLogLevel          = "log.level"
	DefaultRPCURL        = "ws://localhost:8080"
	DefaultSignerSeed    = "//Alice"
	DefaultHeightLimit   = 100
	DefaultBestBlockFile = "best_block"
)

// Paractl is the main application context that holds all dependencies
type Paractl struct {
	Log     log.Logger
	BaseDir string
	Config  *viper.Viper
	Metrics *metrics.Metrics
}

// New creates a new Paractl application instance
func New() *Paractl {
	return &Paractl{Metrics: metrics.New()}
}

// Setup initializes the application with dependencies
func (p *Paractl) Setup(baseDir string, logger log.Logger, config *viper.Viper) {
	p.BaseDir = baseDir
	p.Log = logger
	p.Config = config
	SetDefaults(config)
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRPCURL, DefaultRPCURL)
	v.SetDefault(KeyConnectTimeout, relay.DefaultConnectTimeout)
	v.SetDefault(KeySignerSeed, DefaultSignerSeed)
	v.SetDefault(KeySS58Prefix, keys.GenericPrefix)
	v.SetDefault(KeyPollAttempts, registrar.DefaultPollAttempts)
	v.SetDefault(KeyPollInterval, registrar.DefaultPollInterval)
	v.SetDefault(KeyDefaultBalance, chainspec.DefaultBalance.Dec())
	v.SetDefault(KeyLogLevel, "info")
}

// GetJournalDir returns the default journal directory
func (p *Paractl) GetJournalDir() string {
	return filepath.Join(p.BaseDir, "journal")
}

// URL returns arg when set, the configured endpoint otherwise.
func (p *Paractl) URL(arg string) string {
	if arg != "" {
		return arg
	}
	return p.Config.GetString(KeyRPCURL)
}

// Prefix is the configured SS58 address prefix.
func (p *Paractl) Prefix() uint16 {
	return uint16(p.Config.GetUint(KeySS58Prefix))
}

// Signer derives the account that signs registrations.
func (p *Paractl) Signer() (keys.Account, error) {
	seed := p.Config.GetString(KeySignerSeed)
	acct, err := keys.Derive(seed, keys.Sr25519, p.Prefix())
	if err != nil {
		return keys.Account{}, fmt.Errorf("failed to derive signer: %w", err)
	}
	return acct, nil
}

// Connector returns a connection manager using the configured timeout.
func (p *Paractl) Connector() *relay.Connector {
	return relay.NewConnector(p.Log, p.Metrics, p.Config.GetDuration(KeyConnectTimeout))
}

// LoadSchema loads the type schema at path. An empty path or "-" means the
// defaults.
func (p *Paractl) LoadSchema(path string) (relay.TypeSchema, error) {
	if path == "" || path == "-" {
		return nil, nil
	}
	return relay.LoadTypeSchema(path)
}

// Connect opens an endpoint to url.
func (p *Paractl) Connect(ctx context.Context, url string, schema relay.TypeSchema) (*relay.Endpoint, error) {
	return p.Connector().Connect(ctx, url, schema)
}

// Poller returns a registration poller using the configured attempts and interval.
func (p *Paractl) Poller() *registrar.Poller {
	return registrar.NewPoller(
		p.Config.GetInt(KeyPollAttempts),
		p.Config.GetDuration(KeyPollInterval),
		p.Log,
		p.Metrics,
	)
}

// Registrar builds a registrar for the configured signer. When a journal
// path is configured the journal is opened and must be closed by the caller
// through the returned func.
func (p *Paractl) Registrar() (*registrar.Registrar, func(), error) {
	signer, err := p.Signer()
	if err != nil {
		return nil, nil, err
	}
	r := registrar.New(signer, p.Log, p.Metrics)

	path := p.Config.GetString(KeyJournalPath)
	if path == "" {
		return r, func() {}, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r.Journal = j
	return r, func() {
		if err := j.Close(); err != nil {
			p.Log.Warn("Failed to close journal", "error", err)
		}
	}, nil
}

// OpenJournal opens the configured journal, or the default one under the
// base directory.
func (p *Paractl) OpenJournal() (*journal.Journal, error) {
	path := p.Config.GetString(KeyJournalPath)
	if path == "" {
		path = p.GetJournalDir()
	}
	return journal.Open(path)
}

// Editor returns a chainspec editor using the configured prefix and
// default balance.
func (p *Paractl) Editor() (*chainspec.Editor, error) {
	balance, err := chainspec.ParseBalance(p.Config.GetString(KeyDefaultBalance))
	if err != nil {
		return nil, err
	}
	e := chainspec.NewEditor(p.Log)
	e.Prefix = p.Prefix()
	e.DefaultBalance = balance
	return e, nil
}

// WriteMetrics exports the metrics registry when a metrics file is
// configured.
func (p *Paractl) WriteMetrics() error {
	path := p.Config.GetString(KeyMetricsFile)
	if path == "" {
		return nil
	}
	return p.Metrics.WriteFile(path)
}
