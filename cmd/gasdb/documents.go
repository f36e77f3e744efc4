package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/app"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
)

// fetchFlags are shared by the document subcommands.
type fetchFlags struct {
	calculator string
	where      []string
	project    []string
	unfiltered bool
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.calculator, "calculator", "", "calculator (vasp|qe|rism); defaults to reconcile.calculator")
	cmd.Flags().StringArrayVar(&f.where, "where", nil, "filter path=value, path<value, path>=value or path? in place of the quality filters (repeatable)")
	cmd.Flags().StringArrayVar(&f.project, "project", nil, "add field=path to the projection (repeatable)")
	cmd.Flags().BoolVar(&f.unfiltered, "unfiltered", false, "drop the quality filters without replacing them")
}

// params turns the flags into fetch parameters. Bad expressions are usage errors.
func (f *fetchFlags) params(defaultCalc string) (fetchuc.Params, error) {
	p := fetchuc.Params{Calculator: f.calculator}
	if p.Calculator == "" {
		p.Calculator = defaultCalc
	}
	if len(f.where) > 0 || f.unfiltered {
		p.Filters = []query.Condition{}
	}
	for _, w := range f.where {
		c, err := query.ParseCondition(w)
		if err != nil {
			return fetchuc.Params{}, commandError(err)
		}
		p.Filters = append(p.Filters, c)
	}
	for _, pr := range f.project {
		proj, err := query.ParseProjection(pr)
		if err != nil {
			return fetchuc.Params{}, commandError(err)
		}
		p.ExtraProjections = append(p.ExtraProjections, proj)
	}
	return p, nil
}

func newDocumentsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Fetch adsorption or surface energy documents",
	}
	cmd.AddCommand(
		newAdsorptionDocumentsCommand(root),
		newSurfaceDocumentsCommand(root),
	)
	return cmd
}

func newAdsorptionDocumentsCommand(root *rootOptions) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "adsorption [adsorbate]",
		Short: "List relaxed adsorption documents, of every adsorbate when none is given",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			adsorbate := ""
			if len(args) == 1 {
				adsorbate = args[0]
			}
			p, err := flags.params(s.cfg.Reconcile.Calculator)
			if err != nil {
				return s.finish(err)
			}
			return s.finish(runDocuments(s, "adsorption", func(a *app.App) ([]document.Document, error) {
				return a.Fetch.Adsorption(s.ctx, adsorbate, p)
			}))
		},
	}
	flags.register(cmd)
	return cmd
}

func newSurfaceDocumentsCommand(root *rootOptions) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "surface",
		Short: "List converged surface energy documents",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			p, err := flags.params(s.cfg.Reconcile.Calculator)
			if err != nil {
				return s.finish(err)
			}
			return s.finish(runDocuments(s, "surface", func(a *app.App) ([]document.Document, error) {
				return a.Fetch.Surface(s.ctx, p)
			}))
		},
	}
	flags.register(cmd)
	return cmd
}

func runDocuments(s *session, category string, fetch func(*app.App) ([]document.Document, error)) error {
	a, err := app.Open(s.ctx, s.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := fetch(a)
	if err != nil {
		return err
	}
	s.logger.Info("Fetched documents", zap.String("category", category), zap.Int("count", len(docs)))

	return s.out.success(docs, func(w io.Writer) { writeDocuments(w, docs) })
}
