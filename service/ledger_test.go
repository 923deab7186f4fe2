package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_live/model"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeParticipantRepo struct {
	mu   sync.Mutex
	rows map[[2]uint64]model.ChallengeParticipant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{rows: make(map[[2]uint64]model.ChallengeParticipant)}
}

func (r *fakeParticipantRepo) Load(_ context.Context, challengeID, userID uint64) (*model.ChallengeParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[[2]uint64{challengeID, userID}]
	if !ok {
		return nil, nil
	}
	cp := row
	cp.CompletedProblemIDs = append([]uint64{}, row.CompletedProblemIDs...)
	return &cp, nil
}

func (r *fakeParticipantRepo) Save(_ context.Context, p *model.ChallengeParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.CompletedProblemIDs = append([]uint64{}, p.CompletedProblemIDs...)
	r.rows[[2]uint64{p.ChallengeID, p.UserID}] = cp
	return nil
}

func (r *fakeParticipantRepo) ListByChallenge(_ context.Context, challengeID uint64) ([]model.ChallengeParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []model.ChallengeParticipant
	for key, row := range r.rows {
		if key[0] == challengeID {
			list = append(list, row)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		if list[i].ProblemsCompleted != list[j].ProblemsCompleted {
			return list[i].ProblemsCompleted > list[j].ProblemsCompleted
		}
		return list[i].UserID < list[j].UserID
	})
	return list, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	scopes []model.Scope
	events []ChannelEvent
}

func (b *fakeBroadcaster) Broadcast(scope model.Scope, evt ChannelEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scopes = append(b.scopes, scope)
	b.events = append(b.events, evt)
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 20, PointsFor(model.DifficultyEasy))
	assert.Equal(t, 50, PointsFor(model.DifficultyMedium))
	assert.Equal(t, 100, PointsFor(model.DifficultyHard))
	assert.Equal(t, 10, PointsFor("LEGENDARY"))
}

func TestRecordAcceptance(t *testing.T) {
	ctx := context.Background()
	repo := newFakeParticipantRepo()
	broadcaster := &fakeBroadcaster{}
	svc := NewLedgerService(repo, nil, broadcaster, nil, newTestLogger())

	p, err := svc.RecordAcceptance(ctx, 1, 7, 100, 1001, model.DifficultyMedium)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Score)
	assert.Equal(t, 1, p.ProblemsCompleted)
	assert.True(t, p.Completed(1001))

	p, err = svc.RecordAcceptance(ctx, 1, 7, 100, 1002, model.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, 150, p.Score)
	assert.Equal(t, 2, p.ProblemsCompleted)

	// 每次记分都向挑战作用域推送新榜单
	broadcaster.mu.Lock()
	require.Len(t, broadcaster.events, 2)
	assert.Equal(t, model.ChallengeScope(1, 7), broadcaster.scopes[0])
	assert.Equal(t, ChannelEventStandings, broadcaster.events[0].Type)
	broadcaster.mu.Unlock()
}

func TestRecordAcceptanceUnknownDifficultyWarns(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	svc := NewLedgerService(newFakeParticipantRepo(), nil, nil, nil, loggerv2.NewZapContextLogger(zap.New(core)))

	// 空难度与未知难度都按兜底分记分并告警
	p, err := svc.RecordAcceptance(ctx, 1, 7, 100, 1001, "")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Score)

	p, err = svc.RecordAcceptance(ctx, 1, 7, 100, 1002, "LEGENDARY")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Score)

	warns := logs.FilterMessage("RecordAcceptance unknown difficulty, falling back to default points")
	assert.Equal(t, 2, warns.Len())
}

func TestRecordAcceptanceIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeParticipantRepo()
	broadcaster := &fakeBroadcaster{}
	svc := NewLedgerService(repo, nil, broadcaster, nil, newTestLogger())

	_, err := svc.RecordAcceptance(ctx, 1, 7, 100, 1001, model.DifficultyEasy)
	require.NoError(t, err)

	// 同一题重复 Accepted 不再加分也不再广播
	p, err := svc.RecordAcceptance(ctx, 1, 7, 100, 1001, model.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Score)
	assert.Equal(t, 1, p.ProblemsCompleted)

	broadcaster.mu.Lock()
	assert.Len(t, broadcaster.events, 1)
	broadcaster.mu.Unlock()
}

func TestRecordAcceptanceConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeParticipantRepo()
	svc := NewLedgerService(repo, nil, nil, nil, newTestLogger())

	const problems = 50
	var wg sync.WaitGroup
	for i := 0; i < problems; i++ {
		wg.Add(1)
		go func(problemID uint64) {
			defer wg.Done()
			_, err := svc.RecordAcceptance(ctx, 1, 7, 100, problemID, model.DifficultyEasy)
			assert.NoError(t, err)
		}(uint64(2000 + i))
	}
	wg.Wait()

	p, err := repo.Load(ctx, 7, 100)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, problems*20, p.Score)
	assert.Equal(t, problems, p.ProblemsCompleted)
	assert.Len(t, p.CompletedProblemIDs, problems)
}

func TestStandingsOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newFakeParticipantRepo()
	svc := NewLedgerService(repo, nil, nil, nil, newTestLogger())

	_, err := svc.RecordAcceptance(ctx, 1, 7, 100, 1001, model.DifficultyHard)
	require.NoError(t, err)
	_, err = svc.RecordAcceptance(ctx, 1, 7, 101, 1001, model.DifficultyHard)
	require.NoError(t, err)
	_, err = svc.RecordAcceptance(ctx, 1, 7, 101, 1002, model.DifficultyEasy)
	require.NoError(t, err)
	_, err = svc.RecordAcceptance(ctx, 1, 7, 102, 1003, model.DifficultyMedium)
	require.NoError(t, err)

	rows, err := svc.StandingsRows(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// 101: 120 分, 100: 100 分, 102: 50 分
	assert.Equal(t, uint64(101), rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 120, rows[0].Score)
	assert.Equal(t, uint64(100), rows[1].UserID)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, uint64(102), rows[2].UserID)
	assert.Equal(t, 3, rows[2].Rank)
}
