// =============================================================================
// Purchase Order Consolidator - Pipeline
// =============================================================================
//
// This module orchestrates one consolidation request, from the uploaded files
// to the stored artifacts and the reconciliation statistics.
//
// PIPELINE:
//   1. Reject duplicate file names
//   2. Parse every file (bounded concurrency, arrival order kept)
//   3. Consolidate the accepted tables
//   4. Compute the derived pricing fields
//   5. Aggregate the product table by lot
//   6. Reconcile item identifiers against the reference catalog
//   7. Render the artifacts in memory
//   8. Hand the artifacts to the sink
//
// FAILURE MODEL:
//   - A file that cannot be read is reported in Result.FileErrors and skipped
//   - No accepted file, duplicate names or an emitter failure abort the run
//   - An unavailable catalog only sets a warning on the reconciliation
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/aggregate"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/consolidator"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/ingest"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/metrics"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/numeric"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/pricing"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/reconcile"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// InputFile is one uploaded file.
type InputFile struct {
	Name string

	// Extension is the declared format ("csv", "xlsx"), with or without dot.
	Extension string

	Content []byte
}

// Request is one consolidation request.
type Request struct {
	// Scope selects the reference catalog (e.g. a user id).
	Scope string

	Files []InputFile

	// DiscountRate is a percentage: 3 means 3%.
	DiscountRate float64

	Metadata types.POMetadata
}

// Stats describes the processed data.
type Stats struct {
	RowsConsolidated int                      `json:"rows_consolidated"`
	Lots             int                      `json:"lots"`
	TotalQuantity    int64                    `json:"total_quantity"`
	TotalAmount      decimal.Decimal          `json:"total_amount"`
	Stages           map[string]time.Duration `json:"stage_durations_ns"`
}

// Result is the outcome of a successful (possibly partial) run.
type Result struct {
	RunID          string                     `json:"run_id"`
	StartedAt      time.Time                  `json:"started_at"`
	FinishedAt     time.Time                  `json:"finished_at"`
	Artifacts      []types.ArtifactRef        `json:"artifacts"`
	Reconciliation types.ReconciliationResult `json:"reconciliation"`
	AcceptedFiles  []string                   `json:"accepted_files"`
	FileErrors     []types.FileError          `json:"file_errors"`
	Stats          Stats                      `json:"stats"`
}

// Partial reports whether some files were skipped.
func (r *Result) Partial() bool { return len(r.FileErrors) > 0 }

// =============================================================================
// PIPELINE
// =============================================================================

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Catalog CatalogReader
	Sink    ArtifactSink

	// Optional.
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Now     func() time.Time
	NewID   func() string
}

// Pipeline runs consolidation requests. It holds no per-request state and
// may serve concurrent calls to Run.
type Pipeline struct {
	opts Options
	deps Deps
}

// New creates a Pipeline.
func New(opts Options, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Pipeline{opts: opts.withDefaults(), deps: deps}
}

// Run processes req.
//
// RETURNS:
//   - The result, with per-file errors for skipped files.
//   - A *DuplicateFilesError, *consolidator.NoValidFilesError or
//     *EmitterError when the run is aborted; no artifact is kept then.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID:     p.deps.NewID(),
		StartedAt: p.deps.Now(),
		Stats:     Stats{Stages: make(map[string]time.Duration)},
	}
	log := p.deps.Logger.With("run_id", res.RunID, "scope", req.Scope)
	log.Info("Processing request", "files", len(req.Files), "discount_rate", req.DiscountRate)

	out, err := p.run(ctx, req, res, log)
	if err != nil {
		p.deps.Metrics.RunFinished("failed")
		log.Error("Request failed", "error", err)
		return nil, err
	}

	outcome := "success"
	if res.Partial() {
		outcome = "partial"
	}
	p.deps.Metrics.RunFinished(outcome)
	log.Info("Request complete",
		"outcome", outcome,
		"artifacts", len(out.Artifacts),
		"match_percentage", out.Reconciliation.MatchPercentage)
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, res *Result, log *slog.Logger) (*Result, error) {
	// =========================================================================
	// STEP 1: REJECT DUPLICATE FILE NAMES
	// =========================================================================

	if dups := duplicateNames(req.Files); len(dups) > 0 {
		return nil, &DuplicateFilesError{Names: dups}
	}

	// =========================================================================
	// STEP 2: PARSE FILES
	// =========================================================================
	// Files are parsed into indexed slots, so the accepted tables keep the
	// arrival order whatever the concurrency.

	stage := p.stage(res, "parse")
	tables, err := p.parse(ctx, req.Files)
	stage()
	if err != nil {
		return nil, err
	}

	var accepted []*types.Table
	for i, t := range tables {
		if t.err != nil {
			log.Warn("Skipping file", "file", req.Files[i].Name, "error", t.err)
			res.FileErrors = append(res.FileErrors, types.FileError{File: req.Files[i].Name, Err: t.err})
			p.deps.Metrics.FileRejected()
			continue
		}
		log.Debug("Parsed file", "file", t.table.SourceFile, "rows", len(t.table.Rows))
		accepted = append(accepted, t.table)
		res.AcceptedFiles = append(res.AcceptedFiles, t.table.SourceFile)
		p.deps.Metrics.FileAccepted()
	}

	// =========================================================================
	// STEP 3: CONSOLIDATE
	// =========================================================================

	stage = p.stage(res, "consolidate")
	rows, err := consolidator.Consolidate(accepted, res.FileErrors)
	stage()
	if err != nil {
		return nil, err
	}
	res.Stats.RowsConsolidated = len(rows)
	p.deps.Metrics.RowsConsolidated(len(rows))

	// =========================================================================
	// STEP 4: DERIVED FIELDS
	// =========================================================================

	stage = p.stage(res, "price")
	calc := pricing.Calculator{
		Formula:        p.opts.Formula,
		Normalizer:     numeric.Normalizer{Strict: p.opts.StrictNumeric},
		QuantityColumn: p.opts.QuantityColumn,
		PriceColumn:    p.opts.PriceColumn,
	}
	priced, err := calc.Apply(rows, req.DiscountRate)
	stage()
	if err != nil {
		return nil, fmt.Errorf("failed to compute derived fields: %w", err)
	}

	// =========================================================================
	// STEP 5: AGGREGATE BY LOT
	// =========================================================================

	stage = p.stage(res, "aggregate")
	lots := aggregate.ByLot(priced, p.opts.Lots)
	res.Stats.Lots = len(lots)
	res.Stats.TotalQuantity, res.Stats.TotalAmount = aggregate.Totals(lots)
	stage()

	// =========================================================================
	// STEP 6: RECONCILE
	// =========================================================================

	stage = p.stage(res, "reconcile")
	res.Reconciliation = p.reconcile(ctx, req.Scope, priced, log)
	stage()
	p.deps.Metrics.SetMatchPercentage(res.Reconciliation.MatchPercentage)

	// =========================================================================
	// STEP 7: RENDER ARTIFACTS
	// =========================================================================

	stage = p.stage(res, "render")
	artifacts, err := p.render(req, res, accepted, priced, lots)
	stage()
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 8: STORE ARTIFACTS
	// =========================================================================

	stage = p.stage(res, "store")
	refs, err := p.store(ctx, artifacts, log)
	stage()
	if err != nil {
		return nil, err
	}
	res.Artifacts = refs
	res.FinishedAt = p.deps.Now()

	return res, nil
}

// stage starts timing a stage and returns the function that stops it.
func (p *Pipeline) stage(res *Result, name string) func() {
	start := p.deps.Now()
	return func() {
		d := p.deps.Now().Sub(start)
		res.Stats.Stages[name] = d
		p.deps.Metrics.ObserveStage(name, d)
	}
}

// =============================================================================
// PARSING
// =============================================================================

type parsed struct {
	table *types.Table
	err   error
}

// parse reads every file with at most MaxConcurrency in flight. Per-file
// failures are returned in the slots; only cancellation fails the call.
func (p *Pipeline) parse(ctx context.Context, files []InputFile) ([]parsed, error) {
	opts := ingest.Options{
		CSV:            p.opts.CSV,
		Required:       p.opts.Required,
		NumericColumns: []string{p.opts.QuantityColumn, p.opts.PriceColumn},
		StrictNumeric:  p.opts.StrictNumeric,
	}

	out := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrency)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := ingest.ReadFile(f.Name, f.Content, f.Extension, opts)
			out[i] = parsed{table: table, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func duplicateNames(files []InputFile) []string {
	seen := make(map[string]int, len(files))
	var dups []string
	for _, f := range files {
		seen[f.Name]++
		if seen[f.Name] == 2 {
			dups = append(dups, f.Name)
		}
	}
	return dups
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// reconcile matches the processed identifiers against the scope's catalog.
// A catalog failure leaves the catalog empty and sets the warning.
func (p *Pipeline) reconcile(ctx context.Context, scope string, rows []types.ConsolidatedRow, log *slog.Logger) types.ReconciliationResult {
	items := reconcile.CollectItems(rows, p.opts.ItemIDColumns)

	entries, err := p.fetchCatalog(ctx, scope)
	if err != nil {
		log.Warn("Reference catalog unavailable", "error", err)
		result := reconcile.Reconcile(items, nil)
		result.Warning = "reference catalog unavailable: " + err.Error()
		return result
	}
	log.Debug("Loaded reference catalog", "entries", len(entries))
	return reconcile.Reconcile(items, entries)
}

func (p *Pipeline) fetchCatalog(ctx context.Context, scope string) ([]types.CatalogEntry, error) {
	if p.deps.Catalog == nil {
		return nil, fmt.Errorf("no catalog configured")
	}
	var entries []types.CatalogEntry
	for e, err := range p.deps.Catalog.Entries(ctx, scope) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// =============================================================================
// STORAGE
// =============================================================================

// store hands the artifacts to the sink in order. If one fails, the ones
// already stored are discarded.
func (p *Pipeline) store(ctx context.Context, artifacts []types.Artifact, log *slog.Logger) ([]types.ArtifactRef, error) {
	refs := make([]types.ArtifactRef, 0, len(artifacts))
	for _, a := range artifacts {
		ref, err := p.deps.Sink.Store(ctx, a)
		if err != nil {
			for _, stored := range refs {
				if derr := p.deps.Sink.Discard(ctx, stored); derr != nil {
					log.Error("Failed to discard artifact", "artifact", stored.Name, "error", derr)
				}
			}
			return nil, &EmitterError{Artifact: a.Kind, Err: err}
		}
		log.Info("Stored artifact", "kind", ref.Kind, "location", ref.Location, "size", ref.Size)
		refs = append(refs, ref)
	}
	return refs, nil
}
