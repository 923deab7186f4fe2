package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/service/exporter"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/xuri/excelize/v2"
)

type XLSXStandingsExporter struct {
	log    loggerv2.Logger
	source exporter.StandingsSource
}

var _ exporter.StandingsExporter = (*XLSXStandingsExporter)(nil)

func NewXLSXStandingsExporter(source exporter.StandingsSource, log loggerv2.Logger) *XLSXStandingsExporter {
	return &XLSXStandingsExporter{
		source: source,
		log:    log,
	}
}

func (e *XLSXStandingsExporter) Export(ctx context.Context, challengeID uint64, writer io.Writer) error {
	rows, err := e.source.StandingsRows(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("fetch standings failed: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if errClose := f.Close(); errClose != nil {
			e.log.ErrorContext(ctx, "close excel file failed", logger.Error(errClose))
		}
	}()

	sheetName := "榜单"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet failed: %w", err)
	}
	f.SetActiveSheet(index)

	if err = e.writeHeader(f, sheetName); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

	if err = e.writeRows(f, sheetName, rows); err != nil {
		return fmt.Errorf("write rows failed: %w", err)
	}

	if err = f.Write(writer); err != nil {
		return fmt.Errorf("write excel file failed: %w", err)
	}
	return nil
}

func (e *XLSXStandingsExporter) writeRows(f *excelize.File, sheetName string, rows []model.StandingsRow) error {
	// 从第二行开始写入数据（第一行是表头）
	for i, row := range rows {
		rowData := []interface{}{
			row.Rank,              // 名次
			row.UserID,            // 用户 ID
			row.Username,          // 学号
			row.Realname,          // 姓名
			row.Score,             // 总分
			row.ProblemsCompleted, // 完成题目数
		}
		for col, value := range rowData {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("get cell name failed: %w", err)
			}
			if err = f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell value failed: %w", err)
			}
		}
	}
	return nil
}

// writeHeader 写入Excel表头
func (e *XLSXStandingsExporter) writeHeader(f *excelize.File, sheetName string) error {
	headers := []string{
		"名次",
		"用户ID",
		"学号",
		"姓名",
		"总分",
		"完成题目数",
	}

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style failed: %w", err)
	}

	for col, header := range headers {
		cell, errInternal := excelize.CoordinatesToCellName(col+1, 1)
		if errInternal != nil {
			return fmt.Errorf("get cell name failed: %w", errInternal)
		}
		if errInternal = f.SetCellValue(sheetName, cell, header); errInternal != nil {
			return fmt.Errorf("set header value failed: %w", errInternal)
		}
		if errInternal = f.SetCellStyle(sheetName, cell, cell, headerStyle); errInternal != nil {
			return fmt.Errorf("set header style failed: %w", errInternal)
		}
	}

	// 设置列宽
	columnWidths := map[string]float64{
		"A": 8,  // 名次
		"B": 15, // 用户 ID
		"C": 20, // 学号
		"D": 15, // 姓名
		"E": 10, // 总分
		"F": 15, // 完成题目数
	}
	for col, width := range columnWidths {
		if err = f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width failed: %w", err)
		}
	}
	return nil
}
