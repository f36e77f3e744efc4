package gasdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbsqlite "github.com/surfcat/gasdb/internal/db/sqlite"
	documentrepo "github.com/surfcat/gasdb/internal/repository/document"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	snapshotuc "github.com/surfcat/gasdb/internal/usecase/snapshot"
)

// Unsimulated returns the catalog sites, one per rotation, for which no
// calculation of adsorbate has been attempted. Each document carries its
// rotation under "adsorbate_rotation".
func (c *Client) Unsimulated(ctx context.Context, adsorbate string, opts ...QueryOption) ([]Document, error) {
	start := time.Now()
	q := c.query(opts)

	docs, err := c.catalog.Unsimulated(ctx, cataloguc.Request{
		Adsorbate:  adsorbate,
		Calculator: q.calculator,
		Rotations:  toRotations(q.rotations),
	})
	c.obs.observe("unsimulated", start, len(docs), err)
	if err != nil {
		return nil, err
	}
	return toDocuments(docs), nil
}

// LowCoverage returns the lowest-energy site of every surface, from
// simulations where they settle it and from surrogate estimates elsewhere.
// Sites are ordered by surface.
func (c *Client) LowCoverage(ctx context.Context, adsorbate string, opts ...QueryOption) ([]Site, error) {
	start := time.Now()
	q := c.query(opts)

	outcomes, err := c.coverage.LowCoverage(ctx, coverageuc.Request{
		Adsorbate:  adsorbate,
		Model:      q.model,
		Calculator: q.calculator,
	})
	c.obs.observe("low_coverage", start, len(outcomes), err)
	if err != nil {
		return nil, err
	}

	sites := make([]Site, len(outcomes))
	for i, o := range outcomes {
		sites[i] = toSite(o)
	}
	return sites, nil
}

// Adsorption returns relaxed adsorption documents of adsorbate. An empty
// adsorbate returns every adsorbate. WithFilters replaces the default quality
// window and WithProjection adds fields to the default projection.
func (c *Client) Adsorption(ctx context.Context, adsorbate string, opts ...QueryOption) ([]Document, error) {
	start := time.Now()
	q := c.query(opts)

	docs, err := c.documents.Adsorption(ctx, adsorbate, q.fetchParams())
	c.obs.observe("adsorption", start, len(docs), err)
	if err != nil {
		return nil, err
	}
	return toDocuments(docs), nil
}

// Surfaces returns surface energy documents. WithFilters replaces the default
// convergence limits and WithProjection adds fields to the default projection.
func (c *Client) Surfaces(ctx context.Context, opts ...QueryOption) ([]Document, error) {
	start := time.Now()
	q := c.query(opts)

	docs, err := c.documents.Surface(ctx, q.fetchParams())
	c.obs.observe("surfaces", start, len(docs), err)
	if err != nil {
		return nil, err
	}
	return toDocuments(docs), nil
}

// Purge defuses the given FireWorks and deletes their atoms and adsorption
// documents. On failure the report covers the steps that completed.
func (c *Client) Purge(ctx context.Context, fwids ...int) (PurgeReport, error) {
	start := time.Now()
	report, err := c.purge.Purge(ctx, fwids)
	c.obs.observe("purge", start, -1, err)
	return toPurgeReport(report), err
}

// Predictions lists the surrogate predictions the catalog carries.
func (c *Client) Predictions(ctx context.Context, opts ...QueryOption) (Predictions, error) {
	start := time.Now()
	q := c.query(opts)

	keys, err := c.predictions.DiscoverPredictions(ctx, q.calculator)
	c.obs.observe("predictions", start, -1, err)
	if err != nil {
		return Predictions{}, err
	}
	return toPredictions(keys), nil
}

// CatalogWithPredictions returns catalog sites along with their surrogate
// predictions. With latest set, each history is reduced to its newest
// [timestamp, value] pair.
func (c *Client) CatalogWithPredictions(ctx context.Context, latest bool, opts ...QueryOption) ([]Document, error) {
	start := time.Now()
	q := c.query(opts)

	docs, err := c.predictions.CatalogWithPredictions(ctx, q.calculator, latest)
	c.obs.observe("catalog_predictions", start, len(docs), err)
	if err != nil {
		return nil, err
	}
	return toDocuments(docs), nil
}

// Snapshot copies collections into the SQLite file at path. With no
// collections it copies every adsorption, surface and catalog collection.
// It returns the number of documents copied per collection.
func (c *Client) Snapshot(ctx context.Context, path string, collections ...string) (map[string]int, error) {
	start := time.Now()
	counts, err := c.snapshot(ctx, path, collections)
	total := 0
	for _, n := range counts {
		total += n
	}
	c.obs.observe("snapshot", start, total, err)
	return counts, err
}

func (c *Client) snapshot(ctx context.Context, path string, collections []string) (map[string]int, error) {
	if c.app == nil {
		return nil, errors.New("gasdb: client has no store")
	}
	store, err := dbsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gasdb: %w", err)
	}
	defer store.Close()

	if len(collections) == 0 {
		collections = snapshotuc.Collections(c.app.Policy)
	}
	return snapshotuc.New(c.app.Source, documentrepo.New(store)).Copy(ctx, collections)
}
