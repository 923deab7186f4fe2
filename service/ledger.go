package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	ojmodel "github.com/to404hanga/online_judge_common/model"
	"github.com/to404hanga/online_judge_live/event"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/gotools/transform"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

// PointsFor 难度计分表
func PointsFor(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return 20
	case model.DifficultyMedium:
		return 50
	case model.DifficultyHard:
		return 100
	default:
		return 10
	}
}

const unknownDifficultyPoints = 10

type LedgerService interface {
	// RecordAcceptance 为一次 Accepted 记分. 同一用户同一题只记一次,
	// 重复调用是幂等的无操作; 返回记分后的台账行
	RecordAcceptance(ctx context.Context, groupID, challengeID, userID, problemID uint64, difficulty model.Difficulty) (*model.ChallengeParticipant, error)
	// Standings 按分数降序、完成数降序、userID 升序返回榜单
	Standings(ctx context.Context, challengeID uint64) ([]model.ChallengeParticipant, error)
	// StandingsRows 在 Standings 基础上补齐名次与用户名
	StandingsRows(ctx context.Context, challengeID uint64) ([]model.StandingsRow, error)
}

type LedgerServiceImpl struct {
	repo        ParticipantRepository
	db          *gorm.DB
	broadcaster LiveBroadcaster
	producer    event.Producer
	log         loggerv2.Logger

	// 每个 (challenge, user) 一把行锁, 读改写期间持有, 保证检查与记分的原子性
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ LedgerService = (*LedgerServiceImpl)(nil)

func NewLedgerService(repo ParticipantRepository, db *gorm.DB, broadcaster LiveBroadcaster, producer event.Producer, log loggerv2.Logger) LedgerService {
	return &LedgerServiceImpl{
		repo:        repo,
		db:          db,
		broadcaster: broadcaster,
		producer:    producer,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *LedgerServiceImpl) rowLock(challengeID, userID uint64) *sync.Mutex {
	key := fmt.Sprintf("%d:%d", challengeID, userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *LedgerServiceImpl) RecordAcceptance(ctx context.Context, groupID, challengeID, userID, problemID uint64, difficulty model.Difficulty) (*model.ChallengeParticipant, error) {
	// 空难度和未知难度都是脏数据, 一并告警
	points := PointsFor(difficulty)
	if points == unknownDifficultyPoints {
		s.log.WarnContext(ctx, "RecordAcceptance unknown difficulty, falling back to default points",
			logger.String("difficulty", string(difficulty)),
			logger.Uint64("problem_id", problemID))
	}

	lock := s.rowLock(challengeID, userID)
	lock.Lock()

	participant, err := s.repo.Load(ctx, challengeID, userID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("RecordAcceptance failed at load participant: %w", err)
	}
	if participant == nil {
		participant = &model.ChallengeParticipant{
			ChallengeID:         challengeID,
			UserID:              userID,
			CompletedProblemIDs: []uint64{},
		}
	}

	if participant.Completed(problemID) {
		lock.Unlock()
		return participant, nil
	}

	participant.Score += points
	participant.ProblemsCompleted++
	participant.CompletedProblemIDs = append(participant.CompletedProblemIDs, problemID)

	if err = s.repo.Save(ctx, participant); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("RecordAcceptance failed at save participant: %w", err)
	}
	lock.Unlock()

	// 锁外做副作用: 事件投递与榜单推送都不影响记分结果
	s.produceAcceptance(ctx, challengeID, userID, problemID, points)
	s.broadcastStandings(ctx, groupID, challengeID)

	return participant, nil
}

func (s *LedgerServiceImpl) Standings(ctx context.Context, challengeID uint64) ([]model.ChallengeParticipant, error) {
	list, err := s.repo.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("Standings failed at list participants: %w", err)
	}
	return list, nil
}

func (s *LedgerServiceImpl) StandingsRows(ctx context.Context, challengeID uint64) ([]model.StandingsRow, error) {
	list, err := s.Standings(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	names := s.loadUserNames(ctx, list)
	rows := make([]model.StandingsRow, 0, len(list))
	for i, p := range list {
		row := model.StandingsRow{
			Rank:              i + 1,
			UserID:            p.UserID,
			Score:             p.Score,
			ProblemsCompleted: p.ProblemsCompleted,
		}
		if name, ok := names[p.UserID]; ok {
			row.Username = name.Username
			row.Realname = name.Realname
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type userName struct {
	ID       uint64
	Username string
	Realname string
}

// loadUserNames 补齐用户名, 查询失败只记日志, 榜单退化为仅含 userID
func (s *LedgerServiceImpl) loadUserNames(ctx context.Context, list []model.ChallengeParticipant) map[uint64]userName {
	if s.db == nil || len(list) == 0 {
		return nil
	}

	userIDs := transform.SliceFromSlice(list, func(_ int, p model.ChallengeParticipant) uint64 {
		return p.UserID
	})

	var users []userName
	err := s.db.WithContext(ctx).Model(&ojmodel.User{}).
		Where("id IN ?", userIDs).
		Select("id", "username", "realname").
		Find(&users).Error
	if err != nil {
		s.log.WarnContext(ctx, "loadUserNames query failed, standings served without names",
			logger.Error(err))
		return nil
	}

	return transform.MapFromSlice(users, func(_ int, u userName) (uint64, userName) {
		return u.ID, u
	})
}

func (s *LedgerServiceImpl) produceAcceptance(ctx context.Context, challengeID, userID, problemID uint64, points int) {
	if s.producer == nil {
		return
	}
	evt := event.AcceptanceMessage{
		ChallengeID: challengeID,
		UserID:      userID,
		ProblemID:   problemID,
		Points:      points,
		AcceptedAt:  time.Now().UnixMilli(),
	}
	payload, err := evt.Marshal()
	if err != nil {
		s.log.ErrorContext(ctx, "produceAcceptance marshal failed",
			logger.Error(err),
			logger.Uint64("user_id", userID))
		return
	}

	// 异步投递带重试, 事件丢失不影响已落库的记分
	retryCtx := context.WithValue(context.Background(), loggerv2.FieldsKey, ctx.Value(loggerv2.FieldsKey))
	retry.Do(retryCtx, func() error {
		_, _, errInternal := s.producer.Produce(retryCtx, &sarama.ProducerMessage{
			Topic: event.AcceptanceTopic,
			Key:   sarama.StringEncoder(fmt.Sprintf("%d", challengeID)),
			Value: sarama.ByteEncoder(payload),
		})
		return errInternal
	}, retry.WithAsync(true), retry.WithCallback(func(err error) {
		if err != nil {
			s.log.ErrorContext(ctx, "produceAcceptance send failed",
				logger.Error(err),
				logger.Uint64("challenge_id", challengeID),
				logger.Uint64("user_id", userID))
		}
	}))
}

func (s *LedgerServiceImpl) broadcastStandings(ctx context.Context, groupID, challengeID uint64) {
	if s.broadcaster == nil {
		return
	}
	rows, err := s.StandingsRows(ctx, challengeID)
	if err != nil {
		s.log.ErrorContext(ctx, "broadcastStandings recompute failed",
			logger.Error(err),
			logger.Uint64("challenge_id", challengeID))
		return
	}
	s.broadcaster.Broadcast(model.ChallengeScope(groupID, challengeID), ChannelEvent{
		Type:      ChannelEventStandings,
		Standings: rows,
	})
}
