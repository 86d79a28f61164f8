package cmd

import (
	"fmt"
	"strings"

	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newLinkCmd() *cobra.Command {
	var (
		library string
		noSave  bool
	)

	cmd := &cobra.Command{
		Use:   "link [name address]",
		Short: "Link a deployed library into the contract bytecode",
		Long: `Record the address of a library the contract calls. Its placeholders in
the bytecode are replaced at deploy time. Either give the library name and
address, or point --library at the library's own artifact to take both from
its deployment record (its events are then decoded too).

Links are saved into the artifact under the selected network unless
--no-save is given.

Examples:
  rights link RightsLib 0x1234...
  rights link --library build/contracts/RightsLib.json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if library != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			f, err := a.factory(cmd.Context(), false)
			if err != nil {
				return err
			}

			if library != "" {
				lib, err := a.libraryFactory(library, f)
				if err != nil {
					return err
				}
				if err := f.LinkLibrary(lib); err != nil {
					return err
				}
			} else {
				name, addr := args[0], args[1]
				if !common.IsHexAddress(addr) {
					return fmt.Errorf("%w: %s", contract.ErrInvalidAddress, addr)
				}
				f.Link(name, common.HexToAddress(addr))
			}

			rec := f.RecordLinks()
			saved := ""
			if !noSave {
				if saved, err = a.saveArtifact(f); err != nil {
					return err
				}
			}

			if a.asJSON {
				return writeJSON(a, map[string]any{
					"links":      rec.Links,
					"unresolved": f.Unresolved(),
					"artifact":   saved,
				})
			}
			a.println(ui.Success("links: " + formatLinks(rec.Links)))
			if missing := f.Unresolved(); len(missing) > 0 {
				a.println(ui.Warn("still unlinked: " + strings.Join(missing, ", ")))
			}
			if saved != "" {
				a.println(ui.Meta("saved to " + saved))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&library, "library", "", "artifact of a deployed library to link")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the links into the artifact")
	return cmd
}

// libraryFactory loads a library artifact pinned to the same network as f.
func (a *app) libraryFactory(ref string, f *contract.Factory) (*contract.Factory, error) {
	if p := inDir(a.workDir, ref); fileExists(p) {
		ref = p
	}
	art, _, err := a.store.Resolve(ref)
	if err != nil {
		return nil, err
	}
	lib := contract.NewFactory("", art, contract.WithLogger(a.logger))
	if id := f.NetworkID(); id != "" {
		lib.SetNetwork(id)
	}
	return lib, nil
}
