package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	nacc "github.com/SimonDaKappa/go-nacc"
)

func extractCmd(a *app) *cobra.Command {
	var (
		file   string
		filter nacc.ExtractFilter
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Copy one participant's rows to a new CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			n, err := nacc.ExtractPTID(in, cmd.OutOrStdout(), filter)
			if err != nil {
				return err
			}
			a.logger.Info("extracted rows", "ptid", filter.PTID, "rows", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "REDCap CSV export (default stdin)")
	cmd.Flags().StringVar(&filter.PTID, "ptid", "", "participant to extract")
	cmd.Flags().StringVar(&filter.VisitNum, "vnum", "", "only rows with this visit number")
	cmd.Flags().StringVar(&filter.Event, "vtype", "", "only rows whose event name contains this")
	_ = cmd.MarkFlagRequired("ptid")
	return cmd
}

func protocolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "protocols",
		Short: "List the protocols in the embedded catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, spec := range a.catalog.Protocols.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s packet=%-2s version=%-4s rules=%s\n",
					spec.Name, spec.Packet, spec.Version, spec.RuleSet)
			}
			return nil
		},
	}
}
