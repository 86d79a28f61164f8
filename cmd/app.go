package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/config"
	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/logging"
	"github.com/bcamacho/RightsContract/internal/secrets"
	"github.com/bcamacho/RightsContract/internal/txopts"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoRPC = errors.New("no rpc_url configured; pass --rpc-url or run `rights config set rpc_url <url>`")

// app is the per-invocation state shared by commands.
type app struct {
	env

	v        *viper.Viper
	cfg      *config.Config
	workDir  string
	logger   *slog.Logger
	store    *artifact.Store
	registry *chain.Registry
	observe  *ui.Observe

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	tty    bool

	address   string
	assumeYes bool
	asJSON    bool

	client       *chain.EVMClient
	tokens       *secrets.Store
	artifactPath string
}

func newApp(cmd *cobra.Command, e env) (*app, error) {
	flags := cmd.Flags()
	workDir, _ := flags.GetString("dir")
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("finding working directory: %w", err)
		}
		workDir = wd
	}

	if err := config.LoadDotEnv(workDir); err != nil {
		return nil, err
	}
	v, err := config.SetupViper(workDir, flags)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{
		env:      e,
		v:        v,
		cfg:      cfg,
		workDir:  workDir,
		logger:   logging.New(cfg.LogLevel, cmd.ErrOrStderr()),
		store:    artifact.NewStore(inDir(workDir, cfg.ArtifactDir)),
		registry: chain.NewRegistry(),
		observe:  &ui.Observe{},
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}
	a.tty = e.isTerminal(a.out)
	a.address, _ = flags.GetString("address")
	a.assumeYes, _ = flags.GetBool("yes")
	a.asJSON, _ = flags.GetBool("json")
	return a, nil
}

func appFrom(cmd *cobra.Command) *app {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok {
		panic("rights: command ran without setup")
	}
	return a
}

func inDir(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
}

// bearerToken resolves the RPC token: RIGHTS_RPC_TOKEN, then the keyring
// entry named by auth_ref. No auth_ref means no token.
func (a *app) bearerToken() (string, error) {
	if tok := os.Getenv(secrets.EnvToken); tok != "" {
		return tok, nil
	}
	if a.cfg.AuthRef == "" {
		return "", nil
	}
	store, err := a.tokenStore()
	if err != nil {
		return "", err
	}
	return store.Token(a.cfg.AuthRef)
}

func (a *app) tokenStore() (*secrets.Store, error) {
	if a.tokens != nil {
		return a.tokens, nil
	}
	dir := config.DefaultDir()
	if dir == "" {
		dir = a.workDir
	}
	store, err := a.openTokens(dir)
	if err != nil {
		return nil, err
	}
	a.tokens = store
	return store, nil
}

func (a *app) dial(ctx context.Context) (*chain.EVMClient, error) {
	if a.client != nil {
		return a.client, nil
	}
	if a.cfg.RPCURL == "" {
		return nil, errNoRPC
	}
	token, err := a.bearerToken()
	if err != nil {
		return nil, fmt.Errorf("loading RPC token: %w", err)
	}
	client, err := chain.Dial(ctx, a.cfg.RPCURL,
		chain.WithLogger(a.logger),
		chain.WithBearerToken(token),
		chain.WithConfirmation(a.cfg.PollInterval, a.cfg.Timeout),
		chain.WithObserver(a.observe.Notify),
	)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// loadArtifact resolves the configured artifact. Relative file paths are
// taken from the working directory.
func (a *app) loadArtifact() (*artifact.Artifact, string, error) {
	ref := a.cfg.Artifact
	if p := inDir(a.workDir, ref); ref != "" && fileExists(p) {
		ref = p
	}
	return a.store.Resolve(ref)
}

func (a *app) txDefaults() txopts.Options {
	opts := txopts.Options{}
	if a.cfg.From != "" {
		opts[txopts.KeyFrom] = a.cfg.From
	}
	if a.cfg.Gas != 0 {
		opts[txopts.KeyGas] = a.cfg.Gas
	}
	if a.cfg.GasPrice != "" {
		opts[txopts.KeyGasPrice] = a.cfg.GasPrice
	}
	return opts
}

// factory loads the artifact and pins the configured network. When online
// it also dials the node and, with no network configured, asks the node
// which network it serves.
func (a *app) factory(ctx context.Context, online bool) (*contract.Factory, error) {
	f, err := a.newFactory()
	if err != nil || !online {
		return f, err
	}
	if err := a.connect(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *app) newFactory() (*contract.Factory, error) {
	art, path, err := a.loadArtifact()
	if err != nil {
		return nil, err
	}
	a.artifactPath = path

	f := contract.NewFactory("", art,
		contract.WithLogger(a.logger),
		contract.WithSyncTimeout(a.cfg.Timeout),
		contract.WithPollInterval(a.cfg.PollInterval),
		contract.WithObserver(a.observe.Notify),
		contract.WithDefaults(a.txDefaults()),
	)
	if a.cfg.Network != "" {
		f.SetNetwork(a.registry.ResolveID(a.cfg.Network))
	}
	return f, nil
}

func (a *app) connect(ctx context.Context, f *contract.Factory) error {
	client, err := a.dial(ctx)
	if err != nil {
		return err
	}
	f.SetProvider(client)
	return f.CheckNetwork(ctx)
}

// deployFactory is factory for deployments. A network the artifact has no
// bytecode for gets a record seeded from the default one.
func (a *app) deployFactory(ctx context.Context) (*contract.Factory, error) {
	f, err := a.newFactory()
	if err != nil {
		return nil, err
	}
	err = a.connect(ctx, f)
	if errors.Is(err, contract.ErrUnknownNetwork) {
		id, idErr := a.client.NetworkID(ctx)
		if idErr != nil {
			return nil, idErr
		}
		f.SetNetwork(id)
		err = nil
	}
	if err != nil {
		return nil, err
	}

	if f.UnlinkedBinary() != "" {
		return f, nil
	}
	base, ok := f.Artifact().Network(artifact.DefaultNetwork)
	if !ok || base.UnlinkedBinary == "" {
		return f, nil
	}
	a.logger.Info("seeding network record", "network", f.NetworkID(), "from", artifact.DefaultNetwork)
	base = base.Clone()
	f.Artifact().Networks[f.NetworkID()] = artifact.Record{ABI: base.ABI, UnlinkedBinary: base.UnlinkedBinary, Links: base.Links}
	f.SetNetwork(f.NetworkID())
	return f, nil
}

// instance binds to --address when given, else to the recorded deployment.
func (a *app) instance(f *contract.Factory) (*contract.Instance, error) {
	if a.address != "" {
		return f.At(a.address)
	}
	return f.Deployed()
}

// saveArtifact writes f's artifact back to the file it was loaded from.
// Builtins are written into the artifact directory.
func (a *app) saveArtifact(f *contract.Factory) (string, error) {
	path := a.artifactPath
	if path == "" {
		path = a.store.Path(f.Name())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := artifact.WriteFile(path, f.Artifact()); err != nil {
		return "", fmt.Errorf("saving artifact: %w", err)
	}
	return path, nil
}

// confirmSend asks before a transaction unless --yes is set or no one is at
// the terminal.
func (a *app) confirmSend(prompt string) bool {
	if a.assumeYes || !a.tty {
		return true
	}
	return ui.Confirm(a.in, a.out, prompt)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// networkLabel names the pinned network for prompts.
func (a *app) networkLabel(f *contract.Factory) string {
	id := f.NetworkID()
	if id == "" {
		id = artifact.DefaultNetwork
	}
	return a.registry.Describe(id)
}
