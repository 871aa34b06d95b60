package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/consolidator"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/ingest"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/metrics"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/pipeline"
	mock_pipeline "github.com/CaessarCZX/ERP-Books4less-BE/internal/pipeline/mocks"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/validation"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "series_desc,pallet_id,item_id,item_desc,us_price,quantity\n"

var fixedNow = time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)

func csvFile(name string, lines ...string) pipeline.InputFile {
	return pipeline.InputFile{
		Name:      name,
		Extension: strings.TrimPrefix(path.Ext(name), "."),
		Content:   []byte(header + strings.Join(lines, "\n") + "\n"),
	}
}

func catalogOf(ids ...string) iter.Seq2[types.CatalogEntry, error] {
	return func(yield func(types.CatalogEntry, error) bool) {
		for _, id := range ids {
			if !yield(types.CatalogEntry{ItemNumber: id, Description: "ref " + id}, nil) {
				return
			}
		}
	}
}

func failingCatalog(err error) iter.Seq2[types.CatalogEntry, error] {
	return func(yield func(types.CatalogEntry, error) bool) {
		yield(types.CatalogEntry{}, err)
	}
}

type fixture struct {
	catalog *mock_pipeline.MockCatalogReader
	sink    *mock_pipeline.MockArtifactSink
	metrics *metrics.Recorder
	stored  []types.Artifact
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	return &fixture{
		catalog: mock_pipeline.NewMockCatalogReader(ctrl),
		sink:    mock_pipeline.NewMockArtifactSink(ctrl),
		metrics: metrics.NewRecorder(),
	}
}

func (f *fixture) pipeline(opts pipeline.Options) *pipeline.Pipeline {
	return pipeline.New(opts, pipeline.Deps{
		Catalog: f.catalog,
		Sink:    f.sink,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: f.metrics,
		Now:     func() time.Time { return fixedNow },
		NewID:   func() string { return "run-1" },
	})
}

// expectStores accepts every artifact and records it.
func (f *fixture) expectStores(times int) {
	f.sink.EXPECT().Store(gomock.Any(), gomock.Any()).Times(times).DoAndReturn(
		func(_ context.Context, a types.Artifact) (types.ArtifactRef, error) {
			f.stored = append(f.stored, a)
			return types.ArtifactRef{Kind: a.Kind, Name: a.Name, Location: "/out/" + a.Name, Size: int64(len(a.Data))}, nil
		})
}

func TestPipeline_Run(t *testing.T) {
	tests := []struct {
		name        string
		files       []pipeline.InputFile
		catalog     iter.Seq2[types.CatalogEntry, error]
		wantPct     float64
		wantMatched int
		wantUnmatch []types.UnmatchedItem
		wantFiles   []string
		wantErrors  int
		wantWarning bool
	}{
		{
			name: "three files with zero padding",
			files: []pipeline.InputFile{
				csvFile("f1.csv", "Classics,P1,12,Dune,$10.00,2"),
				csvFile("f2.csv", "Classics,P1,012,Dune,$10.00,1"),
				csvFile("f3.csv", "Poetry,P2,99,Odes,5,4"),
			},
			catalog:     catalogOf("12"),
			wantPct:     66.67,
			wantMatched: 2,
			wantUnmatch: []types.UnmatchedItem{{ItemID: "99", SourceFiles: []string{"f3.csv"}}},
			wantFiles:   []string{"f1.csv", "f2.csv", "f3.csv"},
		},
		{
			name: "one file missing a required column",
			files: []pipeline.InputFile{
				{Name: "bad.csv", Extension: "csv", Content: []byte("series_desc,pallet_id,item_id,item_desc,us_price\nA,P1,1,x,2\n")},
				csvFile("good.csv", "Classics,P1,7,Emma,3,1"),
			},
			catalog:     catalogOf("007"),
			wantPct:     100,
			wantMatched: 1,
			wantUnmatch: []types.UnmatchedItem{},
			wantFiles:   []string{"good.csv"},
			wantErrors:  1,
		},
		{
			name: "catalog unavailable",
			files: []pipeline.InputFile{
				csvFile("a.csv", "Classics,P1,1,Emma,3,1", "Classics,P1,2,Dune,3,1"),
			},
			catalog:     failingCatalog(errors.New("connection refused")),
			wantPct:     0,
			wantMatched: 0,
			wantUnmatch: []types.UnmatchedItem{
				{ItemID: "1", SourceFiles: []string{"a.csv"}},
				{ItemID: "2", SourceFiles: []string{"a.csv"}},
			},
			wantFiles:   []string{"a.csv"},
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.catalog.EXPECT().Entries(gomock.Any(), "u1").Return(tt.catalog)
			f.expectStores(2)

			res, err := f.pipeline(pipeline.Options{}).Run(context.Background(), pipeline.Request{
				Scope:        "u1",
				Files:        tt.files,
				DiscountRate: 50,
			})
			require.NoError(t, err)

			rec := res.Reconciliation
			assert.Equal(t, tt.wantPct, rec.MatchPercentage)
			assert.Equal(t, tt.wantMatched, rec.MatchedItemsCount)
			assert.Equal(t, tt.wantUnmatch, rec.UnmatchedItems)
			assert.Equal(t, rec.TotalProcessedItems, rec.MatchedItemsCount+len(rec.UnmatchedItems))
			assert.Equal(t, tt.wantFiles, res.AcceptedFiles)
			assert.Len(t, res.FileErrors, tt.wantErrors)
			assert.Equal(t, tt.wantWarning, rec.Warning != "")
			assert.Equal(t, tt.wantErrors > 0, res.Partial())

			require.Len(t, res.Artifacts, 2)
			assert.Equal(t, types.ArtifactCSV, res.Artifacts[0].Kind)
			assert.Equal(t, types.ArtifactPDF, res.Artifacts[1].Kind)
			assert.Equal(t, "run-1", res.RunID)
		})
	}
}

func TestPipeline_Run_ScenarioDetails(t *testing.T) {
	f := newFixture(t)
	f.catalog.EXPECT().Entries(gomock.Any(), "u1").Return(catalogOf("12"))
	f.expectStores(2)

	res, err := f.pipeline(pipeline.Options{}).Run(context.Background(), pipeline.Request{
		Scope: "u1",
		Files: []pipeline.InputFile{
			csvFile("f1.csv", "Classics,P1,12,Dune,$10.00,2"),
			csvFile("f2.csv", "Classics,P1,012,Dune,$10.00,1"),
			csvFile("f3.csv", "Poetry,P2,99,Odes,5,4"),
		},
		DiscountRate: 50,
	})
	require.NoError(t, err)

	notes := res.Reconciliation.ValidationNotes
	assert.Equal(t, 1, notes.ExactMatches)
	assert.Equal(t, 1, notes.NormalizedMatches)
	assert.Equal(t, []string{"f3.csv"}, res.Reconciliation.FilesWithMissingReferences)

	// P1: (5 * 2) + (5 * 1); P2: 2.5 * 4
	assert.Equal(t, 3, res.Stats.RowsConsolidated)
	assert.Equal(t, 2, res.Stats.Lots)
	assert.Equal(t, int64(7), res.Stats.TotalQuantity)
	assert.True(t, decimal.NewFromInt(25).Equal(res.Stats.TotalAmount), res.Stats.TotalAmount.String())
	assert.Contains(t, res.Stats.Stages, "parse")
	assert.Contains(t, res.Stats.Stages, "store")

	require.Len(t, f.stored, 2)
	assert.Equal(t, "csv_20240305_140700_run-1.csv", f.stored[0].Name)
	assert.Equal(t, "text/csv", f.stored[0].ContentType)
	assert.Equal(t,
		"item_id,item_desc,quantity\n12,Dune,3\n99,Odes,4\n",
		string(f.stored[0].Data))
	assert.Equal(t, "pdf_20240305_140700_run-1.pdf", f.stored[1].Name)
	assert.True(t, strings.HasPrefix(string(f.stored[1].Data), "%PDF-"))
}

func TestPipeline_Run_FatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		files []pipeline.InputFile
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty file list",
			files: nil,
			check: func(t *testing.T, err error) {
				var nve *consolidator.NoValidFilesError
				require.True(t, errors.As(err, &nve))
				assert.Empty(t, nve.Details)
			},
		},
		{
			name: "every file invalid",
			files: []pipeline.InputFile{
				{Name: "a.xls", Extension: "xls", Content: []byte("x")},
				{Name: "b.csv", Extension: "csv", Content: []byte("item_id\n1\n")},
			},
			check: func(t *testing.T, err error) {
				var nve *consolidator.NoValidFilesError
				require.True(t, errors.As(err, &nve))
				require.Len(t, nve.Details, 2)

				var ufe *ingest.UnsupportedFormatError
				assert.True(t, errors.As(nve.Details[0].Err, &ufe))
				var mce *validation.MissingColumnsError
				assert.True(t, errors.As(nve.Details[1].Err, &mce))
			},
		},
		{
			name: "duplicate file names",
			files: []pipeline.InputFile{
				csvFile("a.csv", "Classics,P1,1,Emma,3,1"),
				csvFile("a.csv", "Classics,P1,2,Dune,3,1"),
			},
			check: func(t *testing.T, err error) {
				var dfe *pipeline.DuplicateFilesError
				require.True(t, errors.As(err, &dfe))
				assert.Equal(t, []string{"a.csv"}, dfe.Names)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res, err := f.pipeline(pipeline.Options{}).Run(context.Background(), pipeline.Request{Scope: "u1", Files: tt.files})
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)
		})
	}
}

func TestPipeline_Run_SinkFailureDiscardsStoredArtifacts(t *testing.T) {
	f := newFixture(t)
	f.catalog.EXPECT().Entries(gomock.Any(), "u1").Return(catalogOf())

	csvRef := types.ArtifactRef{Kind: types.ArtifactCSV, Name: "summary.csv", Location: "/out/summary.csv"}
	gomock.InOrder(
		f.sink.EXPECT().Store(gomock.Any(), gomock.Any()).Return(csvRef, nil),
		f.sink.EXPECT().Store(gomock.Any(), gomock.Any()).Return(types.ArtifactRef{}, errors.New("disk full")),
		f.sink.EXPECT().Discard(gomock.Any(), csvRef).Return(nil),
	)

	res, err := f.pipeline(pipeline.Options{}).Run(context.Background(), pipeline.Request{
		Scope: "u1",
		Files: []pipeline.InputFile{csvFile("a.csv", "Classics,P1,1,Emma,3,1")},
	})
	assert.Nil(t, res)

	var ee *pipeline.EmitterError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, types.ArtifactPDF, ee.Artifact)
	assert.ErrorContains(t, err, "disk full")

	expected := `
# HELP po_consolidator_runs_total Pipeline runs, by outcome (success, partial, failed).
# TYPE po_consolidator_runs_total counter
po_consolidator_runs_total{outcome="failed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "po_consolidator_runs_total"))
}

func TestPipeline_Run_ConcurrentParsingKeepsArrivalOrder(t *testing.T) {
	f := newFixture(t)
	f.catalog.EXPECT().Entries(gomock.Any(), "").Return(catalogOf())
	f.expectStores(2)

	var files []pipeline.InputFile
	var want []string
	for i := range 8 {
		name := fmt.Sprintf("f%d.csv", i)
		files = append(files, csvFile(name, fmt.Sprintf("S,P%d,%d,Item %d,1,1", i, i, i)))
		want = append(want, name)
	}

	res, err := f.pipeline(pipeline.Options{MaxConcurrency: 4}).Run(context.Background(), pipeline.Request{Files: files})
	require.NoError(t, err)
	assert.Equal(t, want, res.AcceptedFiles)

	var ids []string
	for _, u := range res.Reconciliation.UnmatchedItems {
		ids = append(ids, u.ItemID)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, ids)
}

func TestPipeline_Run_WorkbookExport(t *testing.T) {
	f := newFixture(t)
	f.catalog.EXPECT().Entries(gomock.Any(), "u1").Return(catalogOf("1"))
	f.expectStores(3)

	res, err := f.pipeline(pipeline.Options{ExportWorkbook: true}).Run(context.Background(), pipeline.Request{
		Scope: "u1",
		Files: []pipeline.InputFile{csvFile("a.csv", "Classics,P1,1,Emma,3,1")},
	})
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 3)
	assert.Equal(t, types.ArtifactWorkbook, res.Artifacts[2].Kind)
	assert.Equal(t, "xlsx_20240305_140700_run-1.xlsx", f.stored[2].Name)
	assert.True(t, strings.HasPrefix(string(f.stored[2].Data), "PK"))
}

func TestPipeline_Run_PartialSuccessMetrics(t *testing.T) {
	f := newFixture(t)
	f.catalog.EXPECT().Entries(gomock.Any(), "u1").Return(catalogOf("7"))
	f.expectStores(2)

	_, err := f.pipeline(pipeline.Options{}).Run(context.Background(), pipeline.Request{
		Scope: "u1",
		Files: []pipeline.InputFile{
			{Name: "notes.txt", Extension: "txt", Content: []byte("hello")},
			csvFile("good.csv", "Classics,P1,7,Emma,3,1"),
		},
	})
	require.NoError(t, err)

	expected := `
# HELP po_consolidator_files_total Input files processed, by outcome (accepted, rejected).
# TYPE po_consolidator_files_total counter
po_consolidator_files_total{outcome="accepted"} 1
po_consolidator_files_total{outcome="rejected"} 1
# HELP po_consolidator_runs_total Pipeline runs, by outcome (success, partial, failed).
# TYPE po_consolidator_runs_total counter
po_consolidator_runs_total{outcome="partial"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected),
		"po_consolidator_files_total", "po_consolidator_runs_total"))
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline(pipeline.Options{}).Run(ctx, pipeline.Request{
		Files: []pipeline.InputFile{csvFile("a.csv", "Classics,P1,1,Emma,3,1")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
