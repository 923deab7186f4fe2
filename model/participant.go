package model

// Difficulty 题目难度, 计分表见 service.PointsFor
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ChallengeParticipant 挑战榜单台账行, 用户在挑战中首次 Accepted 时惰性创建
// 不变量: ProblemsCompleted == len(CompletedProblemIDs), Score 只增不减
type ChallengeParticipant struct {
	ChallengeID         uint64   `json:"challenge_id"`
	UserID              uint64   `json:"user_id"`
	Score               int      `json:"score"`
	ProblemsCompleted   int      `json:"problems_completed"`
	CompletedProblemIDs []uint64 `json:"completed_problem_ids"`
}

// Completed 是否已为该题记过分
func (p *ChallengeParticipant) Completed(problemID uint64) bool {
	for _, id := range p.CompletedProblemIDs {
		if id == problemID {
			return true
		}
	}
	return false
}

type StandingsRow struct {
	Rank              int    `json:"rank"`
	UserID            uint64 `json:"user_id"`
	Username          string `json:"username"`
	Realname          string `json:"realname"`
	Score             int    `json:"score"`
	ProblemsCompleted int    `json:"problems_completed"`
}

type GetStandingsParam struct {
	CommonParam `json:"-"`

	ChallengeID uint64 `form:"challenge_id" binding:"required" validate:"required"`
}

type GetStandingsResponse struct {
	List []StandingsRow `json:"list"`
}

type ExportStandingsParam struct {
	CommonParam `json:"-"`

	ChallengeID uint64 `json:"challenge_id" binding:"required" validate:"required"`
	Format      string `json:"format" binding:"required,oneof=csv xlsx" validate:"required,oneof=csv xlsx"`
}
