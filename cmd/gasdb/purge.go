package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/surfcat/gasdb/internal/app"
)

func newPurgeCommand(root *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <fw_id>...",
		Short: "Defuse FireWorks jobs and delete their documents",
		Long: `Defuse the given FireWorks jobs and delete their atoms documents and the
adsorption documents of every calculator that reference them.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			fwids, err := parseFWIDs(args)
			if err != nil {
				return commandError(err)
			}
			if !yes {
				return commandError(fmt.Errorf("purge deletes documents; pass --yes to confirm"))
			}
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			return s.finish(runPurge(s, fwids))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func parseFWIDs(args []string) ([]int, error) {
	fwids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid FireWorks ID %q", a)
		}
		fwids = append(fwids, id)
	}
	slices.Sort(fwids)
	return slices.Compact(fwids), nil
}

func runPurge(s *session, fwids []int) error {
	a, err := app.Open(s.ctx, s.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Purge.Purge(s.ctx, fwids)
	if err != nil {
		return err
	}
	return s.out.success(report, func(w io.Writer) {
		fmt.Fprintf(w, "defused:       %d\n", report.Defused)
		fmt.Fprintf(w, "atoms deleted: %d\n", report.AtomsDeleted)
		for _, calc := range a.Policy.Calculators() {
			coll := a.Policy.AdsorptionCollection(calc)
			fmt.Fprintf(w, "%s deleted: %d\n", coll, report.AdsorptionDeleted[coll])
		}
	})
}
