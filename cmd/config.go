package cmd

import (
	"fmt"

	"github.com/bcamacho/RightsContract/internal/config"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change persistent settings",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd(), newConfigUnsetCmd(), newConfigKeysCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"list"},
		Short:   "Show the resolved configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a.asJSON {
				return writeJSON(a, a.v.AllSettings())
			}
			t := ui.NewTable("KEY", "VALUE")
			for _, k := range config.Keys() {
				val := a.v.GetString(k.Key)
				if val == "" {
					val = ui.Meta("-")
				}
				t.AddRow(k.Key, val)
			}
			a.println(t.Render())
			file := a.cfg.File()
			if file == "" {
				file = "none (defaults, flags and environment only)"
			}
			a.println(ui.Meta("config file: " + file))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting",
		Long: `Write a setting into the config file in use, or rights.yaml in the
working directory when none exists. Run "rights config keys" for the list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			path := config.FilePath(a.v, a.workDir)
			if err := config.Set(path, args[0], args[1]); err != nil {
				return err
			}
			a.println(ui.Success(fmt.Sprintf("%s set to %q in %s", args[0], args[1], path)))
			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a persisted setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			path := config.FilePath(a.v, a.workDir)
			if err := config.Unset(path, args[0]); err != nil {
				return err
			}
			a.println(ui.Success(fmt.Sprintf("%s removed from %s", args[0], path)))
			return nil
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the settable keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			t := ui.NewTable("KEY", "ENV", "DESCRIPTION")
			for _, k := range config.Keys() {
				t.AddRow(k.Key, config.EnvName(k.Key), k.Description)
			}
			a.println(t.Render())
			return nil
		},
	}
}
