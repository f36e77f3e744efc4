// Package purge removes adsorption calculations: their FireWorks jobs are
// defused and their documents deleted from every collection that holds them.
package purge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/domain/query"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/metrics"
	"github.com/surfcat/gasdb/internal/policy"
)

const (
	atomsKey      = "fwid"
	adsorptionKey = "fwids.slab+adsorbate"
)

// Report counts what a purge touched.
type Report struct {
	Defused           int64            `json:"defused"`
	AtomsDeleted      int64            `json:"atoms_deleted"`
	AdsorptionDeleted map[string]int64 `json:"adsorption_deleted"`
}

// Service purges calculations.
type Service struct {
	defuser Defuser
	docs    Deleter
	policy  *policy.Provider
}

// New creates a purge service. defuser may be nil when the backend has no
// launchpad; jobs are then left untouched.
func New(defuser Defuser, docs Deleter, p *policy.Provider) *Service {
	return &Service{defuser: defuser, docs: docs, policy: p}
}

// Purge defuses fwids and deletes their atoms and adsorption documents for
// every calculator. It stops at the first failure; the report covers the
// steps that completed.
func (s *Service) Purge(ctx context.Context, fwids []int) (Report, error) {
	defer metrics.ObserveDuration("purge", time.Now())
	log := logger.FromContext(ctx).With(zap.Int("fireworks", len(fwids)))

	report := Report{AdsorptionDeleted: map[string]int64{}}
	if len(fwids) == 0 {
		return report, errors.New("no FireWorks IDs given")
	}

	if s.defuser != nil {
		n, err := s.defuser.Defuse(ctx, s.policy.LaunchpadCollection(), fwids)
		if err != nil {
			return report, fmt.Errorf("purge: %w", err)
		}
		report.Defused = n
	} else {
		log.Warn("No launchpad configured, FireWorks jobs left as they are")
	}

	ids := make([]any, len(fwids))
	for i, id := range fwids {
		ids[i] = id
	}

	spec, err := query.New(s.policy.AtomsCollection()).WhereIn(atomsKey, ids...).Build()
	if err != nil {
		return report, err
	}
	if report.AtomsDeleted, err = s.docs.Delete(ctx, spec); err != nil {
		return report, fmt.Errorf("purge atoms: %w", err)
	}

	for _, calc := range s.policy.Calculators() {
		coll := s.policy.AdsorptionCollection(calc)
		spec, err := query.New(coll).WhereIn(adsorptionKey, ids...).Build()
		if err != nil {
			return report, err
		}
		n, err := s.docs.Delete(ctx, spec)
		if err != nil {
			return report, fmt.Errorf("purge %s: %w", coll, err)
		}
		report.AdsorptionDeleted[coll] = n
	}

	log.Info("Purged calculations",
		zap.Int64("defused", report.Defused),
		zap.Int64("atoms_deleted", report.AtomsDeleted),
		zap.Any("adsorption_deleted", report.AdsorptionDeleted),
	)
	return report, nil
}
