package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/bcamacho/RightsContract/internal/secrets"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/bcamacho/RightsContract/cmd.Version=1.2.3" .
var Version = "0.1.0"

type contextKey string

const appKey contextKey = "app"

// env holds the process-level hooks commands depend on. Tests swap them.
type env struct {
	openTokens func(dir string) (*secrets.Store, error)
	isTerminal func(w io.Writer) bool
	now        func() time.Time
}

func defaultEnv() env {
	return env{
		openTokens: secrets.Open,
		isTerminal: isTerminal,
		now:        time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewRootCmd builds the rights command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnv())
}

func newRootCmd(e env) *cobra.Command {
	root := &cobra.Command{
		Use:   "rights",
		Short: "Deploy and drive RightsContractFactory contracts",
		Long: `rights binds a compiled contract artifact to a JSON-RPC node.

By default it uses the embedded RightsContractFactory artifact. Point
--artifact at a truffle build file (or a name stored in --artifact-dir) to
work with another contract.

Settings come from flags, RIGHTS_* environment variables, rights.yaml in the
working directory or ~/.rights, in that order. Persist them with:
  rights config set rpc_url http://127.0.0.1:8545`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipSetup(cmd) {
				return nil
			}
			a, err := newApp(cmd, e)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a, ok := cmd.Context().Value(appKey).(*app); ok {
				a.close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.String("dir", "", "working directory holding rights.yaml and .env (default: current directory)")
	pf.String("rpc-url", "", "JSON-RPC endpoint of the node")
	pf.StringP("network", "n", "", "network id or name to pin (default: ask the node)")
	pf.StringP("artifact", "a", "", "artifact file, stored name or builtin (default: RightsContractFactory)")
	pf.String("artifact-dir", "", "directory of stored artifacts (default: build/contracts)")
	pf.Duration("timeout", 0, "how long to wait for a transaction to be mined; 0 waits forever (default 4m0s)")
	pf.Duration("poll-interval", 0, "delay between receipt and event polls (default 1s)")
	pf.String("from", "", "default sender address")
	pf.Uint64("gas", 0, "default gas limit")
	pf.String("gas-price", "", "default gas price in wei")
	pf.String("log-level", "", "debug, info, warn or error (default: warn)")
	pf.String("auth-ref", "", "keyring entry holding the RPC bearer token")
	pf.String("address", "", "contract address to use instead of the artifact's")
	pf.BoolP("yes", "y", false, "do not ask for confirmation before sending transactions")
	pf.Bool("json", false, "print machine-readable JSON")

	root.AddCommand(
		newNetworksCmd(),
		newInfoCmd(),
		newABICmd(),
		newCallCmd(),
		newSendCmd(),
		newEstimateCmd(),
		newRequestCmd(),
		newDeployCmd(),
		newLinkCmd(),
		newEventsCmd(),
		newReceiptCmd(),
		newConfigCmd(),
		newAuthCmd(),
	)
	return root
}

// skipSetup reports commands that run without configuration.
func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "__complete", "__completeNoDesc":
		return true
	}
	return false
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		stop()
		os.Exit(1)
	}
}
