package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/pkg/judge0"
)

// fakeJudge0 模拟评测机: 记录提交并按预设脚本逐轮返回状态
type fakeJudge0 struct {
	mu       sync.Mutex
	tokens   []string
	rounds   [][]judge0.SubmissionResult
	round    int
	received []judge0.Submission
}

func (f *fakeJudge0) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/batch", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Method == http.MethodPost {
			var req struct {
				Submissions []judge0.Submission `json:"submissions"`
			}
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, &req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.received = req.Submissions
			resp := make([]map[string]string, 0, len(f.tokens))
			for _, token := range f.tokens {
				resp = append(resp, map[string]string{"token": token})
			}
			w.WriteHeader(http.StatusCreated)
			body, _ := json.Marshal(resp)
			w.Write(body)
			return
		}

		// GET: 按轮次回放
		idx := f.round
		if idx >= len(f.rounds) {
			idx = len(f.rounds) - 1
		}
		f.round++
		body, _ := json.Marshal(map[string]any{"submissions": f.rounds[idx]})
		w.Write(body)
	})
	return mux
}

func newTestJudgeService(t *testing.T, fake *fakeJudge0, pollInterval, maxWait time.Duration) JudgeService {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client := judge0.NewJudge0Service(newTestLogger(), srv.URL, "", time.Second)
	return NewJudgeService(client, newTestLogger(), pollInterval, maxWait)
}

func TestJudgeDispatchValidation(t *testing.T) {
	svc := newTestJudgeService(t, &fakeJudge0{}, time.Millisecond, time.Second)
	ctx := context.Background()
	pairs := []model.TestPair{{Input: "1", Expected: "1"}}

	_, err := svc.Dispatch(ctx, "brainfuck", "code", pairs)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = svc.Dispatch(ctx, "go", "code", nil)
	assert.ErrorIs(t, err, ErrNoTestCases)
}

func TestJudgeDispatchUnavailable(t *testing.T) {
	client := judge0.NewJudge0Service(newTestLogger(), "http://127.0.0.1:1", "", 100*time.Millisecond)
	svc := NewJudgeService(client, newTestLogger(), time.Millisecond, time.Second)

	_, err := svc.Dispatch(context.Background(), "go", "code", []model.TestPair{{Input: "1", Expected: "1"}})
	assert.ErrorIs(t, err, ErrJudgeUnavailable)
}

func TestJudgeAcceptedAllPairs(t *testing.T) {
	fake := &fakeJudge0{
		tokens: []string{"t0", "t1"},
		rounds: [][]judge0.SubmissionResult{
			{
				{Token: "t0", StatusID: judge0.StatusAccepted},
				{Token: "t1", StatusID: judge0.StatusAccepted},
			},
		},
	}
	svc := newTestJudgeService(t, fake, time.Millisecond, time.Second)
	ctx := context.Background()

	pairs := []model.TestPair{{Input: "1", Expected: "1"}, {Input: "2", Expected: "2"}}
	batch, err := svc.Dispatch(ctx, "go", "package main", pairs)
	require.NoError(t, err)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, model.PairStatusQueued, batch.Rows[0].Status)

	// 每个测试点一个评测任务, 输入与期望输出一一对应
	assert.Len(t, fake.received, 2)
	assert.Equal(t, "2", fake.received[1].Stdin)
	assert.Equal(t, "2", fake.received[1].ExpectedOutput)

	require.NoError(t, svc.AwaitResult(ctx, batch))
	verdict := svc.Summarize(batch)
	assert.True(t, verdict.Accepted)
	assert.Empty(t, verdict.Reason)
	require.Len(t, verdict.Pairs, 2)
	assert.Equal(t, model.PairStatusPassed, verdict.Pairs[0].Status)
}

func TestJudgeWrongAnswerOnSecondPair(t *testing.T) {
	fake := &fakeJudge0{
		tokens: []string{"t0", "t1", "t2"},
		rounds: [][]judge0.SubmissionResult{
			// 第一轮只有部分行物化
			{
				{Token: "t0", StatusID: judge0.StatusAccepted},
				{Token: "t1", StatusID: judge0.StatusProcessing},
			},
			{
				{Token: "t1", StatusID: judge0.StatusWrongAnswer, Stdout: "43"},
				{Token: "t2", StatusID: judge0.StatusAccepted},
			},
		},
	}
	svc := newTestJudgeService(t, fake, time.Millisecond, time.Second)
	ctx := context.Background()

	pairs := []model.TestPair{
		{Input: "1", Expected: "1"},
		{Input: "42", Expected: "42"},
		{Input: "3", Expected: "3"},
	}
	batch, err := svc.Dispatch(ctx, "python", "print(input())", pairs)
	require.NoError(t, err)
	require.NoError(t, svc.AwaitResult(ctx, batch))

	verdict := svc.Summarize(batch)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, model.ReasonWrongAnswer, verdict.Reason)
	assert.Equal(t, model.PairStatusPassed, verdict.Pairs[0].Status)
	assert.Equal(t, model.PairStatusFailed, verdict.Pairs[1].Status)
	assert.Equal(t, "43", verdict.Pairs[1].Stdout)
	assert.Equal(t, model.PairStatusPassed, verdict.Pairs[2].Status)
}

func TestJudgeCompileError(t *testing.T) {
	fake := &fakeJudge0{
		tokens: []string{"t0"},
		rounds: [][]judge0.SubmissionResult{
			{{Token: "t0", StatusID: judge0.StatusCompilationError, CompileOutput: "syntax error"}},
		},
	}
	svc := newTestJudgeService(t, fake, time.Millisecond, time.Second)
	ctx := context.Background()

	batch, err := svc.Dispatch(ctx, "cpp", "int main( {", []model.TestPair{{Input: "1", Expected: "1"}})
	require.NoError(t, err)
	require.NoError(t, svc.AwaitResult(ctx, batch))

	verdict := svc.Summarize(batch)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, model.ReasonCompileError, verdict.Reason)
	assert.Equal(t, model.PairStatusCompileError, verdict.Pairs[0].Status)
	assert.True(t, strings.Contains(batch.Rows[0].CompileOutput, "syntax error"))
}

func TestJudgeAwaitTimeout(t *testing.T) {
	fake := &fakeJudge0{
		tokens: []string{"t0"},
		rounds: [][]judge0.SubmissionResult{
			{{Token: "t0", StatusID: judge0.StatusProcessing}},
		},
	}
	svc := newTestJudgeService(t, fake, time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	batch, err := svc.Dispatch(ctx, "go", "package main", []model.TestPair{{Input: "1", Expected: "1"}})
	require.NoError(t, err)

	err = svc.AwaitResult(ctx, batch)
	assert.ErrorIs(t, err, ErrJudgeTimeout)
	// 未终态的行保留原状态
	assert.Equal(t, model.PairStatusRunning, batch.Rows[0].Status)
}

func TestJudgeAwaitCanceled(t *testing.T) {
	fake := &fakeJudge0{
		tokens: []string{"t0"},
		rounds: [][]judge0.SubmissionResult{
			{{Token: "t0", StatusID: judge0.StatusInQueue}},
		},
	}
	svc := newTestJudgeService(t, fake, time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	batch, err := svc.Dispatch(ctx, "go", "package main", []model.TestPair{{Input: "1", Expected: "1"}})
	require.NoError(t, err)

	cancel()
	err = svc.AwaitResult(ctx, batch)
	assert.ErrorIs(t, err, ErrJudgeCanceled)
}

func TestTranslateStatus(t *testing.T) {
	status, reason := translateStatus(judge0.StatusTimeLimitExceed)
	assert.Equal(t, model.PairStatusFailed, status)
	assert.Equal(t, model.ReasonTimeLimitExceeded, reason)

	status, reason = translateStatus(judge0.StatusRuntimeErrorMin + 2)
	assert.Equal(t, model.PairStatusRuntimeError, status)
	assert.Equal(t, model.ReasonRuntimeError, reason)

	// 未知状态码归入运行时错误并透出原始码
	status, reason = translateStatus(99)
	assert.Equal(t, model.PairStatusRuntimeError, status)
	assert.Contains(t, reason, "99")
}
