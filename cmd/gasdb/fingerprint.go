package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/fingerprint"
)

func newFingerprintCommand(root *rootOptions) *cobra.Command {
	var (
		ignore    []string
		canonical bool
	)

	cmd := &cobra.Command{
		Use:   "fingerprint [file]",
		Short: "Hash JSON documents the way reconciliation compares them",
		Long: `Read a stream of JSON objects from file (or stdin) and print each one's
fingerprint. Storage identifiers (_id, mongo_id) never take part.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, false)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return commandError(err)
				}
				defer f.Close()
				in = f
			}
			return s.finish(runFingerprint(s, in, ignore, canonical))
		},
	}
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "top-level keys to drop before hashing")
	cmd.Flags().BoolVar(&canonical, "canonical", false, "also print the canonical serialization")
	return cmd
}

type fingerprintResult struct {
	Fingerprint string `json:"fingerprint"`
	Canonical   string `json:"canonical,omitempty"`
}

func runFingerprint(s *session, in io.Reader, ignore []string, canonical bool) error {
	dec := json.NewDecoder(in)
	var results []fingerprintResult
	for n := 1; ; n++ {
		var doc document.Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("document %d: %w", n, err)
		}
		fp, err := fingerprint.Of(doc, ignore)
		if err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
		r := fingerprintResult{Fingerprint: fp.String()}
		if canonical {
			if r.Canonical, err = fingerprint.Canonical(doc, ignore); err != nil {
				return fmt.Errorf("document %d: %w", n, err)
			}
		}
		results = append(results, r)
	}

	return s.out.success(results, func(w io.Writer) {
		for _, r := range results {
			if r.Canonical == "" {
				fmt.Fprintln(w, r.Fingerprint)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\n", r.Fingerprint, r.Canonical)
		}
	})
}
