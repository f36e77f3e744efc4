package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/surfcat/gasdb/internal/app"
	dbsqlite "github.com/surfcat/gasdb/internal/db/sqlite"
	documentrepo "github.com/surfcat/gasdb/internal/repository/document"
	snapshotuc "github.com/surfcat/gasdb/internal/usecase/snapshot"
)

func newSnapshotCommand(root *rootOptions) *cobra.Command {
	var (
		out         string
		collections []string
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "snapshot --out <file>",
		Short: "Copy collections into a SQLite snapshot for offline reconciliation",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return commandError(errors.New("--out is required"))
			}
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			return s.finish(runSnapshot(s, out, collections, batchSize))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "SQLite file to write")
	cmd.Flags().StringSliceVar(&collections, "collection", nil,
		"collection tag to copy (repeatable); defaults to every adsorption, surface and catalog collection")
	cmd.Flags().IntVar(&batchSize, "batch-size", snapshotuc.DefaultBatchSize, "documents per write")
	return cmd
}

func runSnapshot(s *session, out string, collections []string, batchSize int) error {
	a, err := app.Open(s.ctx, s.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := dbsqlite.Open(out)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(collections) == 0 {
		collections = snapshotuc.Collections(a.Policy)
	}
	counts, err := snapshotuc.New(a.Source, documentrepo.New(store)).
		WithBatchSize(batchSize).
		Copy(s.ctx, collections)
	if err != nil {
		return err
	}
	return s.out.success(counts, func(w io.Writer) {
		for _, c := range collections {
			fmt.Fprintf(w, "%s\t%d\n", c, counts[c])
		}
	})
}
