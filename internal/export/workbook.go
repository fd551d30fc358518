// Package export renders rankings and session progress for download.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/preston-bernstein/archery-score-client/internal/app/ranking"
)

// ContentTypeXLSX is the media type of RankingWorkbook output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var rankingHeader = []any{"Rank", "Archer ID", "Name", "Score", "X", "10"}

// RankingWorkbook writes one sheet per ranking partition. The viewer's row is
// highlighted.
func RankingWorkbook(view ranking.View) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
	})
	if err != nil {
		return nil, err
	}

	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if len(view.Groups) == 0 {
		if err := f.SetSheetName(defaultSheet, "Ranking"); err != nil {
			return nil, err
		}
		if err := writeHeader(f, "Ranking", bold); err != nil {
			return nil, err
		}
	}

	for i, g := range view.Groups {
		sheet := sheetName(g.Partition)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeHeader(f, sheet, bold); err != nil {
			return nil, err
		}
		for r, row := range g.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			values := []any{row.Rank, row.ParticipantID, row.Name, row.TotalScore, row.TotalX, row.TotalTen}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, err
			}
			if row.Viewer {
				end, _ := excelize.CoordinatesToCellName(len(values), r+2)
				if err := f.SetCellStyle(sheet, cell, end, highlight); err != nil {
					return nil, err
				}
			}
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, style int) error {
	header := rankingHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", style); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", 28)
}

func sheetName(p ranking.Partition) string {
	s := string(p)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
