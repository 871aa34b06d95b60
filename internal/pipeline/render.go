package pipeline

import (
	"bytes"
	"slices"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/consolidator"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/report/csvreport"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/report/pdfreport"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/xlsxparser"
	"github.com/CaessarCZX/ERP-Books4less-BE/pkg/utils"
)

const (
	contentTypeCSV      = "text/csv"
	contentTypePDF      = "application/pdf"
	contentTypeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	workbookSheet = "Consolidated"
)

// derivedColumns are appended to the exported workbook.
var derivedColumns = []string{"source_file", "extended_retail", "extended_discounted", "line_total"}

// render produces every artifact of the run. Nothing is stored yet, so a
// failure here leaves the sink untouched.
func (p *Pipeline) render(req Request, res *Result, tables []*types.Table, rows []types.ConsolidatedRow, lots []types.LotSummary) ([]types.Artifact, error) {
	var artifacts []types.Artifact

	var csvBuf bytes.Buffer
	if err := csvreport.Render(&csvBuf, rows); err != nil {
		return nil, &EmitterError{Artifact: types.ArtifactCSV, Err: err}
	}
	artifacts = append(artifacts, p.artifact(req, res, types.ArtifactCSV, contentTypeCSV, csvBuf.Bytes()))

	pdfOpts := p.opts.PDF
	pdfOpts.Now = res.StartedAt
	var pdfBuf bytes.Buffer
	if err := pdfreport.Render(&pdfBuf, lots, req.Metadata, pdfOpts); err != nil {
		return nil, &EmitterError{Artifact: types.ArtifactPDF, Err: err}
	}
	artifacts = append(artifacts, p.artifact(req, res, types.ArtifactPDF, contentTypePDF, pdfBuf.Bytes()))

	if p.opts.ExportWorkbook {
		columns := consolidator.Columns(tables)
		var xlsxBuf bytes.Buffer
		if err := xlsxparser.WriteWorkbook(&xlsxBuf, workbookSheet, slices.Concat(columns, derivedColumns), workbookRows(columns, rows)); err != nil {
			return nil, &EmitterError{Artifact: types.ArtifactWorkbook, Err: err}
		}
		artifacts = append(artifacts, p.artifact(req, res, types.ArtifactWorkbook, contentTypeWorkbook, xlsxBuf.Bytes()))
	}

	return artifacts, nil
}

func (p *Pipeline) artifact(req Request, res *Result, kind types.ArtifactKind, contentType string, data []byte) types.Artifact {
	name := utils.GenerateOutputFileName(p.opts.NameFormat, map[string]string{
		"kind":  string(kind),
		"uuid":  res.RunID,
		"scope": req.Scope,
	}, string(kind), res.StartedAt)

	return types.Artifact{Kind: kind, Name: name, ContentType: contentType, Data: data}
}

// workbookRows lays rows out under columns followed by derivedColumns.
// Columns a row's file did not have are left blank.
func workbookRows(columns []string, rows []types.ConsolidatedRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		cells := make([]any, 0, len(columns)+len(derivedColumns))
		for _, c := range columns {
			cells = append(cells, r.Row[c])
		}
		cells = append(cells, r.SourceFile)
		if d := r.Derived; d != nil {
			cells = append(cells,
				d.ExtendedRetail.Round(2).InexactFloat64(),
				d.ExtendedDiscounted.Round(2).InexactFloat64(),
				d.LineTotal.Round(2).InexactFloat64())
		} else {
			cells = append(cells, "", "", "")
		}
		out[i] = cells
	}
	return out
}
