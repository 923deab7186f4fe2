package csv

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_live/model"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"go.uber.org/zap"
)

type fakeSource struct {
	rows []model.StandingsRow
	err  error
}

func (s *fakeSource) StandingsRows(context.Context, uint64) ([]model.StandingsRow, error) {
	return s.rows, s.err
}

func TestCSVStandingsExport(t *testing.T) {
	source := &fakeSource{
		rows: []model.StandingsRow{
			{Rank: 1, UserID: 101, Username: "20230101", Realname: "张三", Score: 120, ProblemsCompleted: 2},
			{Rank: 2, UserID: 100, Username: "20230102", Realname: "李四", Score: 100, ProblemsCompleted: 1},
		},
	}
	exp := NewCSVStandingsExporter(source, loggerv2.NewZapContextLogger(zap.NewNop()))

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), 7, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "名次")
	assert.Contains(t, lines[1], "20230101")
	assert.Contains(t, lines[1], "120")
	assert.Contains(t, lines[2], "李四")
}

func TestCSVStandingsExportSourceError(t *testing.T) {
	exp := NewCSVStandingsExporter(&fakeSource{err: errors.New("db down")}, loggerv2.NewZapContextLogger(zap.NewNop()))

	var buf bytes.Buffer
	err := exp.Export(context.Background(), 7, &buf)
	assert.Error(t, err)
}
