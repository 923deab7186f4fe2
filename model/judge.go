package model

// PairStatus 单个测试点的评测状态, 只会从 Queued/Running 单向迁移到终态
type PairStatus int8

const (
	PairStatusQueued       PairStatus = 0 // 排队中
	PairStatusRunning      PairStatus = 1 // 运行中
	PairStatusPassed       PairStatus = 2 // 通过
	PairStatusFailed       PairStatus = 3 // 答案错误或超时
	PairStatusRuntimeError PairStatus = 4 // 运行时错误
	PairStatusCompileError PairStatus = 5 // 编译错误
)

func (s PairStatus) Terminal() bool {
	return s != PairStatusQueued && s != PairStatusRunning
}

// 终态测试点的失败归类, 作为 Rejected 判定的标题原因透出
const (
	ReasonWrongAnswer       = "WrongAnswer"
	ReasonTimeLimitExceeded = "TimeLimitExceeded"
	ReasonRuntimeError      = "RuntimeError"
	ReasonCompileError      = "CompileError"
)

// TestPair 一组输入与期望输出, 对应评测机的一个执行任务
type TestPair struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

type JudgeRow struct {
	Token         string     `json:"token"`
	PairIndex     int        `json:"pair_index"`
	Status        PairStatus `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	Stdout        string     `json:"stdout,omitempty"`
	Stderr        string     `json:"stderr,omitempty"`
	CompileOutput string     `json:"compile_output,omitempty"`
}

// JudgeBatch 一次提交派发出的整批评测任务, 每个测试点一行
type JudgeBatch struct {
	SubmissionID string     `json:"submission_id"`
	Language     string     `json:"language"`
	Rows         []JudgeRow `json:"rows"`
}

// Resolved 所有行均到达终态
func (b *JudgeBatch) Resolved() bool {
	for i := range b.Rows {
		if !b.Rows[i].Status.Terminal() {
			return false
		}
	}
	return true
}

type PairResult struct {
	PairIndex int        `json:"pair_index"`
	Status    PairStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Stdout    string     `json:"stdout,omitempty"`
	Stderr    string     `json:"stderr,omitempty"`
}

// Verdict 对一次提交的整体判定, Accepted 当且仅当所有测试点通过
type Verdict struct {
	SubmissionID string       `json:"submission_id"`
	Accepted     bool         `json:"accepted"`
	Reason       string       `json:"reason,omitempty"` // 首个未通过测试点的归类
	Pairs        []PairResult `json:"pairs"`
}

type RunCodeParam struct {
	CommonParam `json:"-"`

	GroupID     uint64 `json:"group_id" binding:"required" validate:"required"`
	ChallengeID uint64 `json:"challenge_id" binding:"required" validate:"required"`
	ProblemID   uint64 `json:"problem_id" binding:"required" validate:"required"`
	Language    string `json:"language" binding:"required" validate:"required"`
	Code        string `json:"code" binding:"required" validate:"required"`
}

type RunCodeResponse struct {
	Verdict Verdict `json:"verdict"`
}

type SubmitCodeParam struct {
	CommonParam `json:"-"`

	GroupID     uint64 `json:"group_id" binding:"required" validate:"required"`
	ChallengeID uint64 `json:"challenge_id" binding:"required" validate:"required"`
	ProblemID   uint64 `json:"problem_id" binding:"required" validate:"required"`
	Language    string `json:"language" binding:"required" validate:"required"`
	Code        string `json:"code" binding:"required" validate:"required"`
}

type SubmitCodeResponse struct {
	Verdict     Verdict               `json:"verdict"`
	Participant *ChallengeParticipant `json:"participant,omitempty"` // 仅 Accepted 时返回
}
