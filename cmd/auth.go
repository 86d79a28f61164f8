package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
	"github.com/bcamacho/RightsContract/internal/config"
	"github.com/bcamacho/RightsContract/internal/secrets"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage RPC bearer tokens in the OS keyring",
		Long: `Store bearer tokens for authenticated RPC endpoints in the OS keyring
and choose which one requests use. ` + secrets.EnvToken + ` overrides the stored
token for a single run.`,
	}
	cmd.AddCommand(newAuthSetCmd(), newAuthUseCmd(), newAuthListCmd(), newAuthRemoveCmd())
	return cmd
}

// readToken returns the token from --token, a hidden prompt on a terminal,
// or the first line of stdin.
func readToken(a *app, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.tty {
		return keyring.TerminalPrompt("Token: ")
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no token given; pass --token or pipe it on stdin")
	}
	return strings.TrimSpace(line), nil
}

func newAuthSetCmd() *cobra.Command {
	var (
		token string
		use   bool
	)
	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a token under name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			tok, err := readToken(a, token)
			if err != nil {
				return err
			}
			if strings.TrimSpace(tok) == "" {
				return errors.New("token is empty")
			}
			store, err := a.tokenStore()
			if err != nil {
				return err
			}
			ref, err := store.Put(args[0], tok)
			if err != nil {
				return err
			}
			a.println(ui.Success(fmt.Sprintf("stored %s (%s)", ref, secrets.Mask(strings.TrimSpace(tok)))))
			if use {
				return setAuthRef(a, ref)
			}
			a.println(ui.Hint("select it with: rights auth use " + args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token value (default: prompt or read stdin)")
	cmd.Flags().BoolVar(&use, "use", false, "also make it the active token")
	return cmd
}

func setAuthRef(a *app, ref string) error {
	path := config.FilePath(a.v, a.workDir)
	if err := config.Set(path, config.KeyAuthRef, ref); err != nil {
		return err
	}
	a.println(ui.Success(fmt.Sprintf("requests now authenticate with %s", ref)))
	return nil
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Authenticate requests with a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			store, err := a.tokenStore()
			if err != nil {
				return err
			}
			ref := secrets.Ref(args[0])
			if _, err := store.Token(ref); err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
			return setAuthRef(a, ref)
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored tokens",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			store, err := a.tokenStore()
			if err != nil {
				return err
			}
			refs, err := store.Refs()
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(a, refs)
			}
			if len(refs) == 0 {
				a.println(ui.Info("no tokens stored"))
				return nil
			}
			t := ui.NewTable("", "REF")
			for _, ref := range refs {
				mark := ""
				if ref == a.cfg.AuthRef {
					mark = ui.StyleSuccess.Render("*")
				}
				t.AddRow(mark, ref)
			}
			a.println(t.Render())
			return nil
		},
	}
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Delete a stored token",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			store, err := a.tokenStore()
			if err != nil {
				return err
			}
			ref := secrets.Ref(args[0])
			if err := store.Delete(ref); err != nil {
				return err
			}
			a.println(ui.Success("removed " + ref))
			if ref == a.cfg.AuthRef {
				a.println(ui.Warn(config.KeyAuthRef + " still points at it; run `rights config unset auth_ref`"))
			}
			return nil
		},
	}
}
