package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	inputFiles, discountRate, scope = nil, 0, ""
	writeSummary, exportWorkbook = false, false
	metadata = types.POMetadata{}
	catalogFile, catalogScope = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCatalogImportListAndProcess(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	outDir := filepath.Join(dir, "out")
	common := []string{"--catalog-driver", "sqlite", "--catalog-dsn", db, "--output-dir", outDir, "--log-level", "error"}

	ref := writeTemp(t, dir, "reference.csv", "No.,Description\n12,Dune\n 7 ,Emma\n")
	out, err := execute(t, append([]string{"catalog", "import", "--file", ref, "--scope", "u1"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Imported 2 entries into scope "u1"`)

	out, err = execute(t, append([]string{"catalog", "list", "--scope", "u1"}, common...)...)
	require.NoError(t, err)
	var listed struct {
		Count   int                  `json:"count"`
		Entries []types.CatalogEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, 2, listed.Count)
	assert.Equal(t, "7", listed.Entries[1].ItemNumber)

	input := writeTemp(t, dir, "vendor.csv",
		"series_desc,pallet_id,item_id,item_desc,us_price,quantity\n"+
			"Classics,P1,012,Dune,$10.00,2\n"+
			"Poetry,P2,99,Odes,5,4\n")
	out, err = execute(t, append([]string{
		"process", "--file", input, "--scope", "u1", "--discount-rate", "3",
		"--seller-name", "Acme", "--summary",
	}, common...)...)
	require.NoError(t, err)

	var res struct {
		Artifacts      []types.ArtifactRef        `json:"artifacts"`
		Reconciliation types.ReconciliationResult `json:"reconciliation"`
		AcceptedFiles  []string                   `json:"accepted_files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"vendor.csv"}, res.AcceptedFiles)
	assert.Equal(t, 1, res.Reconciliation.MatchedItemsCount)
	require.Len(t, res.Reconciliation.UnmatchedItems, 1)
	assert.Equal(t, "99", res.Reconciliation.UnmatchedItems[0].ItemID)
	assert.Empty(t, res.Reconciliation.Warning)

	require.Len(t, res.Artifacts, 2)
	for _, a := range res.Artifacts {
		assert.FileExists(t, a.Location)
	}
	summaries, err := filepath.Glob(filepath.Join(outDir, "run_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestProcess_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "process", "--file", filepath.Join(dir, "nope.csv"),
		"--catalog-driver", "sqlite", "--catalog-dsn", filepath.Join(dir, "c.db"),
		"--output-dir", dir, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input file")
}

func TestProcess_UnusableOutputDir(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "vendor.csv", "series_desc,pallet_id,item_id,item_desc,us_price,quantity\nC,P1,1,x,2,1\n")
	blocker := writeTemp(t, dir, "out", "not a directory")

	out, err := execute(t, "process", "--file", input,
		"--catalog-driver", "sqlite", "--catalog-dsn", filepath.Join(dir, "c.db"),
		"--output-dir", filepath.Join(blocker, "reports"), "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
	assert.Empty(t, out)
}

func TestCatalogImport_ReadOnlyFileCatalog(t *testing.T) {
	dir := t.TempDir()
	ref := writeTemp(t, dir, "reference.csv", "No.,Description\n12,Dune\n")
	_, err := execute(t, "catalog", "import", "--file", ref, "--scope", "u1",
		"--catalog-driver", "file", "--reference-file", ref,
		"--output-dir", dir, "--log-level", "error")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Purchase Order Consolidator")
	assert.Contains(t, out, "Version:    "+Version)
}
