// =============================================================================
// Purchase Order Consolidator - Identifier Reconciler
// =============================================================================
//
// Compares the item identifiers found in the uploads against the reference
// catalog. Catalogs and vendor files often disagree on zero padding ("007"
// vs "7"), so matching runs in two passes:
//
//   Pass 1: exact string comparison
//   Pass 2: comparison after stripping leading '0' characters
//
// An item is unmatched only when both passes fail. Both pass results are
// reported in ValidationNotes.
//
// =============================================================================

package reconcile

import (
	"math"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// =============================================================================
// PROCESSED ITEMS
// =============================================================================

// Items is the set of identifiers found across the consolidated rows, in
// first-seen order, with the files that contributed each one.
type Items struct {
	order   []string
	sources map[string][]string
}

// Len returns the number of distinct identifiers.
func (it *Items) Len() int { return len(it.order) }

// Sources returns the distinct files that contributed id, in file order.
func (it *Items) Sources(id string) []string {
	return append([]string(nil), it.sources[id]...)
}

// CollectItems extracts item identifiers from rows. For each row the first
// column of idColumns present in the row is used; the value is trimmed and
// empty values are skipped. Case is preserved.
func CollectItems(rows []types.ConsolidatedRow, idColumns []string) *Items {
	it := &Items{sources: make(map[string][]string)}

	for _, r := range rows {
		id, ok := itemID(r.Row, idColumns)
		if !ok {
			continue
		}
		files, seen := it.sources[id]
		if !seen {
			it.order = append(it.order, id)
		}
		if !containsString(files, r.SourceFile) {
			it.sources[id] = append(files, r.SourceFile)
		}
	}
	return it
}

func itemID(row types.Row, columns []string) (string, bool) {
	for _, c := range columns {
		v, ok := row[c]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	return "", false
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// StripZeros removes leading '0' characters. An all-zero identifier becomes
// the empty string, so "0" and "000" share a normal form.
func StripZeros(id string) string {
	return strings.TrimLeft(id, "0")
}

// Reconcile classifies every processed item against the catalog.
//
// PARAMETERS:
//   - items: Processed identifiers with their source files.
//   - catalog: Reference entries for the request scope. May be empty.
//
// RETURNS:
//   - The reconciliation result. MatchedItemsCount + len(UnmatchedItems)
//     equals TotalProcessedItems; MatchPercentage uses the processed count as
//     denominator and is 0 when nothing was processed.
func Reconcile(items *Items, catalog []types.CatalogEntry) types.ReconciliationResult {
	refExact := make(map[string]struct{}, len(catalog))
	refNormal := make(map[string]struct{}, len(catalog))
	for _, e := range catalog {
		refExact[e.ItemNumber] = struct{}{}
		refNormal[StripZeros(e.ItemNumber)] = struct{}{}
	}

	exact := make(map[string]struct{})
	normalized := make(map[string]struct{})
	for _, id := range items.order {
		if _, ok := refExact[id]; ok {
			exact[id] = struct{}{}
		}
		n := StripZeros(id)
		if _, ok := refNormal[n]; ok {
			normalized[n] = struct{}{}
		}
	}

	result := types.ReconciliationResult{
		TotalReferenceItems:        len(catalog),
		TotalProcessedItems:        items.Len(),
		UnmatchedItems:             []types.UnmatchedItem{},
		FilesWithMissingReferences: []string{},
	}

	var missingFiles []string
	for _, id := range items.order {
		if _, ok := exact[id]; ok {
			continue
		}
		if _, ok := normalized[StripZeros(id)]; ok {
			continue
		}
		sources := items.Sources(id)
		result.UnmatchedItems = append(result.UnmatchedItems, types.UnmatchedItem{ItemID: id, SourceFiles: sources})
		for _, f := range sources {
			if !containsString(missingFiles, f) {
				missingFiles = append(missingFiles, f)
			}
		}
	}
	if missingFiles != nil {
		result.FilesWithMissingReferences = missingFiles
	}

	result.MatchedItemsCount = result.TotalProcessedItems - len(result.UnmatchedItems)
	result.MatchPercentage = percentage(result.MatchedItemsCount, result.TotalProcessedItems)
	result.ValidationNotes = types.ValidationNotes{
		ExactMatches:      len(exact),
		NormalizedMatches: len(normalized),
		ZeroPaddingIssues: max(0, len(normalized)-len(exact)),
	}
	return result
}

// percentage rounds matched/total*100 to two decimals.
func percentage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*100*100) / 100
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
