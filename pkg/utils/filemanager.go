// =============================================================================
// Purchase Order Consolidator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the consolidator:
//   - Artifact storage in a local output directory (DirSink)
//   - Artifact naming from a placeholder format
//   - Run summary log generation
//
// STORAGE STRATEGY:
//   - Artifacts are written to a temporary file in the output directory and
//     renamed into place once complete, so a reader never sees a partial file
//   - Discard removes a stored artifact; a missing file is not an error
//   - Summary logs are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY SINK
// =============================================================================

// DirSink stores artifacts as files in a directory.
type DirSink struct {
	// Dir is the directory where artifacts are placed.
	Dir string
}

// NewDirSink creates a DirSink writing to dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// EnsureDirectory creates the output directory if it doesn't exist.
//
// RETURNS:
//   - An error if the directory cannot be created.
func (s *DirSink) EnsureDirectory() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.Dir, err)
	}
	return nil
}

// Store writes the artifact to Dir/<a.Name>.
//
// PARAMETERS:
//   - ctx: Checked before anything is written.
//   - a: The rendered artifact. Its name must be a plain file name.
//
// RETURNS:
//   - A reference to the stored file.
//   - An error if the file cannot be written; nothing is left behind.
func (s *DirSink) Store(ctx context.Context, a types.Artifact) (types.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return types.ArtifactRef{}, err
	}
	if a.Name == "" || a.Name != filepath.Base(a.Name) {
		return types.ArtifactRef{}, fmt.Errorf("invalid artifact name %q", a.Name)
	}
	if err := s.EnsureDirectory(); err != nil {
		return types.ArtifactRef{}, err
	}

	finalPath := filepath.Join(s.Dir, a.Name)

	tmp, err := os.CreateTemp(s.Dir, ".tmp-"+a.Name+"-*")
	if err != nil {
		return types.ArtifactRef{}, fmt.Errorf("failed to create artifact file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return types.ArtifactRef{}, fmt.Errorf("failed to write artifact %s: %w", a.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return types.ArtifactRef{}, fmt.Errorf("failed to sync artifact %s: %w", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return types.ArtifactRef{}, fmt.Errorf("failed to close artifact %s: %w", a.Name, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return types.ArtifactRef{}, fmt.Errorf("failed to move artifact into place: %w", err)
	}

	return types.ArtifactRef{
		Kind:     a.Kind,
		Name:     a.Name,
		Location: finalPath,
		Size:     int64(len(a.Data)),
	}, nil
}

// Discard removes a stored artifact.
func (s *DirSink) Discard(_ context.Context, ref types.ArtifactRef) error {
	if err := os.Remove(ref.Location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to discard artifact %s: %w", ref.Name, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID unless params supplies one
//     {timestamp} - Timestamp of now (YYYYMMDD_HHMMSS)
//     {date}      - Date of now (YYYYMMDD)
//     {time}      - Time of now (HHMMSS)
//     {kind}      - Artifact kind
//     {scope}     - Catalog scope
//   - params: A map of placeholder values.
//   - ext: The extension to guarantee, without the dot.
//   - now: The time used for the time placeholders.
//
// RETURNS:
//   - The generated file name. Path separators are replaced with '_'.
//
// EXAMPLE:
//
//	format: "{kind}_{timestamp}_{uuid}"
//	params: {"kind": "pdf", "uuid": "a1b2"}
//	output: "pdf_20240115_143022_a1b2.pdf"
func GenerateOutputFileName(format string, params map[string]string, ext string, now time.Time) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	// Add custom params.
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	result = strings.NewReplacer("/", "_", `\`, "_").Replace(result)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), "."+strings.ToLower(ext)) {
		result += "." + ext
	}

	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a pipeline run.
type RunSummary struct {
	RunID          string
	Scope          string
	StartTime      time.Time
	EndTime        time.Time
	AcceptedFiles  []string
	FailedFiles    []types.FileError
	RowsProcessed  int
	Lots           int
	Artifacts      []types.ArtifactRef
	Reconciliation types.ReconciliationResult
}

// WriteSummaryLog writes a run summary to a text file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	summaryFileName := fmt.Sprintf("run_summary_%s_%s.txt",
		summary.StartTime.Format("20060102_150405"), summary.RunID)
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	rec := summary.Reconciliation

	fmt.Fprintf(writer, "Purchase Order Consolidator - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Scope:          %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Accepted Files:     %d\n"+
		"  Failed Files:       %d\n"+
		"  Rows Processed:     %d\n"+
		"  Lots:               %d\n\n"+
		"Reconciliation:\n"+
		"  Reference Items:    %d\n"+
		"  Processed Items:    %d\n"+
		"  Matched Items:      %d\n"+
		"  Unmatched Items:    %d\n"+
		"  Match Percentage:   %.2f%%\n"+
		"  Exact Matches:      %d\n"+
		"  Normalized Matches: %d\n"+
		"  Zero Padding:       %d\n",
		summary.RunID,
		summary.Scope,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		len(summary.AcceptedFiles),
		len(summary.FailedFiles),
		summary.RowsProcessed,
		summary.Lots,
		rec.TotalReferenceItems,
		rec.TotalProcessedItems,
		rec.MatchedItemsCount,
		len(rec.UnmatchedItems),
		rec.MatchPercentage,
		rec.ValidationNotes.ExactMatches,
		rec.ValidationNotes.NormalizedMatches,
		rec.ValidationNotes.ZeroPaddingIssues)
	if rec.Warning != "" {
		fmt.Fprintf(writer, "  Warning:            %s\n", rec.Warning)
	}
	writer.WriteString("\n")

	if len(summary.Artifacts) > 0 {
		writer.WriteString("Artifacts:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, a := range summary.Artifacts {
			fmt.Fprintf(writer, "  %-5s %s (%d bytes)\n", a.Kind, a.Location, a.Size)
		}
		writer.WriteString("\n")
	}

	if len(summary.AcceptedFiles) > 0 {
		writer.WriteString("Accepted Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.AcceptedFiles {
			fmt.Fprintf(writer, "  %s\n", f)
		}
		writer.WriteString("\n")
	}

	if len(summary.FailedFiles) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFiles {
			fmt.Fprintf(writer, "  File:  %s\n", ff.File)
			fmt.Fprintf(writer, "  Error: %v\n\n", ff.Err)
		}
	}

	if len(rec.UnmatchedItems) > 0 {
		writer.WriteString("Unmatched Items:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, u := range rec.UnmatchedItems {
			fmt.Fprintf(writer, "  %s (%s)\n", u.ItemID, strings.Join(u.SourceFiles, ", "))
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}
