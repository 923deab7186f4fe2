package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/service/exporter"
	"github.com/to404hanga/pkg404/gotools/transform"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type CSVStandingsExporter struct {
	log    loggerv2.Logger
	source exporter.StandingsSource
}

var _ exporter.StandingsExporter = (*CSVStandingsExporter)(nil)

func NewCSVStandingsExporter(source exporter.StandingsSource, log loggerv2.Logger) *CSVStandingsExporter {
	return &CSVStandingsExporter{
		source: source,
		log:    log,
	}
}

func (e *CSVStandingsExporter) Export(ctx context.Context, challengeID uint64, writer io.Writer) error {
	rows, err := e.source.StandingsRows(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("fetch standings failed: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err = e.writeHeader(csvWriter); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

	records := transform.SliceFromSlice(rows, func(idx int, row model.StandingsRow) []string {
		return []string{
			strconv.Itoa(row.Rank),                    // 名次
			strconv.FormatUint(row.UserID, 10),        // 用户 ID
			row.Username,                              // 学号
			row.Realname,                              // 姓名
			strconv.Itoa(row.Score),                   // 总分
			strconv.Itoa(row.ProblemsCompleted),       // 完成题目数
		}
	})
	if err = csvWriter.WriteAll(records); err != nil {
		return fmt.Errorf("write records failed: %w", err)
	}
	return nil
}

// writeHeader 写入 CSV 头部
func (e *CSVStandingsExporter) writeHeader(csvWriter *csv.Writer) error {
	headers := []string{
		"名次",
		"用户ID",
		"学号",
		"姓名",
		"总分",
		"完成题目数",
	}
	return csvWriter.Write(headers)
}
