package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/app"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/merge"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
)

func newUnsimulatedCommand(root *rootOptions) *cobra.Command {
	var calculator string

	cmd := &cobra.Command{
		Use:   "unsimulated <adsorbate>",
		Short: "List catalog sites no calculation was attempted for",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			return s.finish(runUnsimulated(s, args[0], calculator))
		},
	}
	cmd.Flags().StringVar(&calculator, "calculator", "", "calculator (vasp|qe|rism); defaults to reconcile.calculator")
	return cmd
}

func runUnsimulated(s *session, adsorbate, calculator string) error {
	a, err := app.Open(s.ctx, s.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if calculator == "" {
		calculator = s.cfg.Reconcile.Calculator
	}
	docs, err := a.Catalog.Unsimulated(s.ctx, cataloguc.Request{
		Adsorbate:  adsorbate,
		Calculator: calculator,
		Rotations:  a.Rotations(),
	})
	if err != nil {
		return err
	}
	s.logger.Info("Unsimulated sites", zap.String("adsorbate", adsorbate), zap.Int("count", len(docs)))

	return s.out.success(docs, func(w io.Writer) { writeDocuments(w, docs) })
}

func newLowCoverageCommand(root *rootOptions) *cobra.Command {
	var calculator, model string

	cmd := &cobra.Command{
		Use:   "low-coverage <adsorbate>",
		Short: "Show the strongest-binding site of every surface",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			return s.finish(runLowCoverage(s, args[0], model, calculator))
		},
	}
	cmd.Flags().StringVar(&calculator, "calculator", "", "calculator (vasp|qe|rism); defaults to reconcile.calculator")
	cmd.Flags().StringVar(&model, "model", "", "surrogate model; defaults to reconcile.model")
	return cmd
}

// site is the CLI view of a merge outcome.
type site struct {
	MaterialID    string            `json:"mpid"`
	Miller        string            `json:"miller"`
	Shift         float64           `json:"shift"`
	Top           bool              `json:"top"`
	State         string            `json:"state"`
	Authoritative bool              `json:"authoritative"`
	Document      document.Document `json:"document"`
}

func runLowCoverage(s *session, adsorbate, model, calculator string) error {
	a, err := app.Open(s.ctx, s.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if calculator == "" {
		calculator = s.cfg.Reconcile.Calculator
	}
	if model == "" {
		model = s.cfg.Reconcile.Model
	}
	outcomes, err := a.Coverage.LowCoverage(s.ctx, coverageuc.Request{
		Adsorbate:  adsorbate,
		Model:      model,
		Calculator: calculator,
	})
	if err != nil {
		return err
	}

	sites := toSites(outcomes)
	return s.out.success(sites, func(w io.Writer) { writeSites(w, sites) })
}

func toSites(outcomes []merge.Outcome) []site {
	sites := make([]site, len(outcomes))
	for i, o := range outcomes {
		sites[i] = site{
			MaterialID:    o.Key.MaterialID,
			Miller:        o.Key.Miller,
			Shift:         o.Key.Shift,
			Top:           o.Key.Top,
			State:         o.State.String(),
			Authoritative: o.State.Authoritative(),
			Document:      o.Doc,
		}
	}
	return sites
}

func writeSites(w io.Writer, sites []site) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MPID\tMILLER\tSHIFT\tTOP\tENERGY\tSOURCE\tSTATE")
	for _, st := range sites {
		energy := "-"
		if e, err := st.Document.Number("energy"); err == nil {
			energy = fmt.Sprintf("%.3f", e)
		}
		source := "estimated"
		if st.Authoritative {
			source = "simulated"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%t\t%s\t%s\t%s\n",
			st.MaterialID, st.Miller, st.Shift, st.Top, energy, source, st.State)
	}
	_ = tw.Flush()
}

// writeDocuments writes one JSON document per line.
func writeDocuments(w io.Writer, docs []document.Document) {
	for _, d := range docs {
		b, err := d.MarshalJSON()
		if err != nil {
			continue
		}
		fmt.Fprintln(w, string(b))
	}
}
