package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/to404hanga/online_judge_live/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository 消息的持久化副本, 环形缓冲冷启动时的回源数据源
type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *model.Message) error
	// LoadRecentMessages 按时间正序返回作用域下最近 limit 条
	LoadRecentMessages(ctx context.Context, scope model.Scope, limit int) ([]model.Message, error)
	// DeleteMessagesBefore 删除给定时刻之前的消息, 返回删除条数
	DeleteMessagesBefore(ctx context.Context, before time.Time) (int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

var _ MessageRepository = (*GormMessageRepository)(nil)

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) SaveMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *GormMessageRepository) LoadRecentMessages(ctx context.Context, scope model.Scope, limit int) ([]model.Message, error) {
	var list []model.Message
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("group_id = ? AND challenge_id = ?", scope.GroupID, scope.ChallengeID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("LoadRecentMessages failed at query: %w", err)
	}
	// 查询按时间倒序取最近, 返回前翻回正序
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func (r *GormMessageRepository) DeleteMessagesBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("sent_at < ?", before).Delete(&model.Message{})
	if res.Error != nil {
		return 0, fmt.Errorf("DeleteMessagesBefore failed at delete: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ParticipantRepository 挑战榜单台账的持久化, 读写均以 (challenge_id, user_id) 为键
type ParticipantRepository interface {
	// Load 不存在时返回 (nil, nil)
	Load(ctx context.Context, challengeID, userID uint64) (*model.ChallengeParticipant, error)
	Save(ctx context.Context, p *model.ChallengeParticipant) error
	// ListByChallenge 按分数降序、完成数降序、userID 升序返回
	ListByChallenge(ctx context.Context, challengeID uint64) ([]model.ChallengeParticipant, error)
}

// 完成题目列表以 JSON 列存储, 行本身是小对象且只在持有行锁时整行重写
type challengeParticipantRow struct {
	ChallengeID         uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID              uint64 `gorm:"primaryKey;autoIncrement:false"`
	Score               int
	ProblemsCompleted   int
	CompletedProblemIDs string `gorm:"type:json"`
	UpdatedAt           time.Time
}

func (challengeParticipantRow) TableName() string {
	return "live_challenge_participant"
}

type GormParticipantRepository struct {
	db *gorm.DB
}

var _ ParticipantRepository = (*GormParticipantRepository)(nil)

func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	return &GormParticipantRepository{db: db}
}

func (r *GormParticipantRepository) Load(ctx context.Context, challengeID, userID uint64) (*model.ChallengeParticipant, error) {
	var row challengeParticipantRow
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Load failed at query participant: %w", err)
	}
	return rowToParticipant(&row)
}

func (r *GormParticipantRepository) Save(ctx context.Context, p *model.ChallengeParticipant) error {
	ids, err := json.Marshal(p.CompletedProblemIDs)
	if err != nil {
		return fmt.Errorf("Save failed at marshal completed problem ids: %w", err)
	}
	row := challengeParticipantRow{
		ChallengeID:         p.ChallengeID,
		UserID:              p.UserID,
		Score:               p.Score,
		ProblemsCompleted:   p.ProblemsCompleted,
		CompletedProblemIDs: string(ids),
		UpdatedAt:           time.Now(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "challenge_id"}, {Name: "user_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("Save failed at upsert participant: %w", err)
	}
	return nil
}

func (r *GormParticipantRepository) ListByChallenge(ctx context.Context, challengeID uint64) ([]model.ChallengeParticipant, error) {
	var rows []challengeParticipantRow
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("score DESC, problems_completed DESC, user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListByChallenge failed at query participants: %w", err)
	}

	list := make([]model.ChallengeParticipant, 0, len(rows))
	for i := range rows {
		p, errInternal := rowToParticipant(&rows[i])
		if errInternal != nil {
			return nil, errInternal
		}
		list = append(list, *p)
	}
	return list, nil
}

func rowToParticipant(row *challengeParticipantRow) (*model.ChallengeParticipant, error) {
	p := &model.ChallengeParticipant{
		ChallengeID:         row.ChallengeID,
		UserID:              row.UserID,
		Score:               row.Score,
		ProblemsCompleted:   row.ProblemsCompleted,
		CompletedProblemIDs: []uint64{},
	}
	if row.CompletedProblemIDs != "" {
		if err := json.Unmarshal([]byte(row.CompletedProblemIDs), &p.CompletedProblemIDs); err != nil {
			return nil, fmt.Errorf("rowToParticipant failed at unmarshal completed problem ids: %w", err)
		}
	}
	return p, nil
}

// ChallengeRepository 管理端维护的挑战配置, 本服务只读
type ChallengeRepository interface {
	// LoadDifficulty 题目不属于该挑战时返回 ("", gorm.ErrRecordNotFound)
	LoadDifficulty(ctx context.Context, challengeID, problemID uint64) (model.Difficulty, error)
	// LoadTestPairs 按测试点 id 升序返回
	LoadTestPairs(ctx context.Context, problemID uint64) ([]model.TestPair, error)
}

type GormChallengeRepository struct {
	db *gorm.DB
}

var _ ChallengeRepository = (*GormChallengeRepository)(nil)

func NewGormChallengeRepository(db *gorm.DB) *GormChallengeRepository {
	return &GormChallengeRepository{db: db}
}

func (r *GormChallengeRepository) LoadDifficulty(ctx context.Context, challengeID, problemID uint64) (model.Difficulty, error) {
	var cp model.ChallengeProblem
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND problem_id = ?", challengeID, problemID).
		First(&cp).Error
	if err != nil {
		return "", fmt.Errorf("LoadDifficulty failed at query challenge problem: %w", err)
	}
	return cp.Difficulty, nil
}

func (r *GormChallengeRepository) LoadTestPairs(ctx context.Context, problemID uint64) ([]model.TestPair, error) {
	var cases []model.ProblemTestCase
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("id ASC").
		Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("LoadTestPairs failed at query test cases: %w", err)
	}

	pairs := make([]model.TestPair, 0, len(cases))
	for i := range cases {
		pairs = append(pairs, model.TestPair{
			Input:    cases[i].Input,
			Expected: cases[i].Expected,
		})
	}
	return pairs, nil
}
