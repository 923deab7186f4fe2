package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/pkg/judge0"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoTestCases         = errors.New("problem has no test cases")
	ErrJudgeUnavailable    = errors.New("judge backend unavailable")
	ErrJudgeTimeout        = errors.New("judge result wait timed out")
	ErrJudgeCanceled       = errors.New("judge result wait canceled")
)

// 业务语言名到评测机 language_id 的映射
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"java":       62,
	"python":     71,
	"go":         60,
	"javascript": 63,
}

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxWait      = 30 * time.Second
)

type JudgeService interface {
	// Dispatch 为每个测试点创建一个评测任务, 返回全部排队中的批次
	Dispatch(ctx context.Context, language, code string, pairs []model.TestPair) (*model.JudgeBatch, error)
	// AwaitResult 轮询直到批次全部到达终态; ctx 取消返回 ErrJudgeCanceled,
	// 超出最大等待返回 ErrJudgeTimeout, 两者都保留已取得的部分结果
	AwaitResult(ctx context.Context, batch *model.JudgeBatch) error
	// Summarize 把批次折叠成整体判定
	Summarize(batch *model.JudgeBatch) model.Verdict
}

type JudgeServiceImpl struct {
	client       *judge0.Judge0Service
	log          loggerv2.Logger
	pollInterval time.Duration
	maxWait      time.Duration
}

var _ JudgeService = (*JudgeServiceImpl)(nil)

func NewJudgeService(client *judge0.Judge0Service, log loggerv2.Logger, pollInterval, maxWait time.Duration) JudgeService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &JudgeServiceImpl{
		client:       client,
		log:          log,
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}
}

func (s *JudgeServiceImpl) Dispatch(ctx context.Context, language, code string, pairs []model.TestPair) (*model.JudgeBatch, error) {
	languageID, ok := languageIDs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	if len(pairs) == 0 {
		return nil, ErrNoTestCases
	}

	submissions := make([]judge0.Submission, 0, len(pairs))
	for _, pair := range pairs {
		submissions = append(submissions, judge0.Submission{
			LanguageID:     languageID,
			SourceCode:     code,
			Stdin:          pair.Input,
			ExpectedOutput: pair.Expected,
		})
	}

	tokens, err := s.client.CreateBatch(ctx, submissions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)
	}
	if len(tokens) != len(pairs) {
		return nil, fmt.Errorf("%w: expected %d tokens, got %d", ErrJudgeUnavailable, len(pairs), len(tokens))
	}

	batch := &model.JudgeBatch{
		SubmissionID: uuid.NewString(),
		Language:     language,
		Rows:         make([]model.JudgeRow, 0, len(tokens)),
	}
	for i, token := range tokens {
		batch.Rows = append(batch.Rows, model.JudgeRow{
			Token:     token,
			PairIndex: i,
			Status:    model.PairStatusQueued,
		})
	}
	return batch, nil
}

func (s *JudgeServiceImpl) AwaitResult(ctx context.Context, batch *model.JudgeBatch) error {
	if batch.Resolved() {
		return nil
	}

	deadline := time.NewTimer(s.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrJudgeCanceled, ctx.Err())
		case <-deadline.C:
			return fmt.Errorf("%w after %s", ErrJudgeTimeout, s.maxWait)
		case <-ticker.C:
		}

		pending := make([]string, 0, len(batch.Rows))
		for i := range batch.Rows {
			if !batch.Rows[i].Status.Terminal() {
				pending = append(pending, batch.Rows[i].Token)
			}
		}

		results, err := s.client.GetBatch(ctx, pending)
		if err != nil {
			// 单次轮询失败不终止等待, 评测机瞬时抖动很常见
			s.log.WarnContext(ctx, "AwaitResult poll failed, will retry",
				logger.Error(err),
				logger.String("submission_id", batch.SubmissionID))
			continue
		}

		s.mergeResults(ctx, batch, results)
		if batch.Resolved() {
			return nil
		}
	}
}

// mergeResults 按 token 回填, 终态行不会被后续轮询回退
func (s *JudgeServiceImpl) mergeResults(ctx context.Context, batch *model.JudgeBatch, results []judge0.SubmissionResult) {
	byToken := make(map[string]*model.JudgeRow, len(batch.Rows))
	for i := range batch.Rows {
		byToken[batch.Rows[i].Token] = &batch.Rows[i]
	}

	for _, res := range results {
		row, ok := byToken[res.Token]
		if !ok {
			s.log.WarnContext(ctx, "mergeResults unknown token ignored",
				logger.String("token", res.Token),
				logger.String("submission_id", batch.SubmissionID))
			continue
		}
		if row.Status.Terminal() {
			continue
		}

		status, reason := translateStatus(res.StatusID)
		row.Status = status
		row.Reason = reason
		row.Stdout = res.Stdout
		row.Stderr = res.Stderr
		row.CompileOutput = res.CompileOutput
	}
}

func (s *JudgeServiceImpl) Summarize(batch *model.JudgeBatch) model.Verdict {
	verdict := model.Verdict{
		SubmissionID: batch.SubmissionID,
		Accepted:     true,
		Pairs:        make([]model.PairResult, 0, len(batch.Rows)),
	}
	for i := range batch.Rows {
		row := &batch.Rows[i]
		verdict.Pairs = append(verdict.Pairs, model.PairResult{
			PairIndex: row.PairIndex,
			Status:    row.Status,
			Reason:    row.Reason,
			Stdout:    row.Stdout,
			Stderr:    row.Stderr,
		})
		if row.Status != model.PairStatusPassed && verdict.Accepted {
			verdict.Accepted = false
			verdict.Reason = row.Reason
		}
	}
	return verdict
}

// translateStatus 评测机状态码到业务状态的翻译; 未终态的保持原状态语义,
// 未知状态码归入运行时错误并透出原始码
func translateStatus(statusID int) (model.PairStatus, string) {
	switch {
	case statusID == judge0.StatusInQueue:
		return model.PairStatusQueued, ""
	case statusID == judge0.StatusProcessing:
		return model.PairStatusRunning, ""
	case statusID == judge0.StatusAccepted:
		return model.PairStatusPassed, ""
	case statusID == judge0.StatusWrongAnswer:
		return model.PairStatusFailed, model.ReasonWrongAnswer
	case statusID == judge0.StatusTimeLimitExceed:
		return model.PairStatusFailed, model.ReasonTimeLimitExceeded
	case statusID == judge0.StatusCompilationError:
		return model.PairStatusCompileError, model.ReasonCompileError
	case statusID >= judge0.StatusRuntimeErrorMin && statusID <= judge0.StatusRuntimeErrorMax:
		return model.PairStatusRuntimeError, model.ReasonRuntimeError
	default:
		return model.PairStatusRuntimeError, fmt.Sprintf("%s(status=%d)", model.ReasonRuntimeError, statusID)
	}
}
