package exporter

import (
	"context"
	"io"

	"github.com/to404hanga/online_judge_live/model"
)

// StandingsSource 榜单数据源, 由 service.LedgerService 满足
type StandingsSource interface {
	StandingsRows(ctx context.Context, challengeID uint64) ([]model.StandingsRow, error)
}

type StandingsExporter interface {
	Export(ctx context.Context, challengeID uint64, writer io.Writer) error
}
