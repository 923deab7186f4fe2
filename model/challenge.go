package model

// ChallengeProblem 挑战内的题目及其难度, 由管理端维护, 本服务只读
type ChallengeProblem struct {
	ChallengeID uint64     `json:"challenge_id" gorm:"uniqueIndex:idx_challenge_problem,priority:1"`
	ProblemID   uint64     `json:"problem_id" gorm:"uniqueIndex:idx_challenge_problem,priority:2"`
	Difficulty  Difficulty `json:"difficulty" gorm:"size:16"`
}

func (ChallengeProblem) TableName() string {
	return "live_challenge_problem"
}

// ProblemTestCase 题目测试点, 派发评测时按 id 升序取用
type ProblemTestCase struct {
	ID        uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	ProblemID uint64 `json:"problem_id" gorm:"index"`
	Input     string `json:"input" gorm:"type:text"`
	Expected  string `json:"expected" gorm:"type:text"`
}

func (ProblemTestCase) TableName() string {
	return "live_problem_test_case"
}
