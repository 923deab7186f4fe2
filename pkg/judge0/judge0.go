package judge0

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// 评测机原始状态码, 翻译成业务状态由 service 层负责, 这里只做协议搬运
const (
	StatusInQueue          = 1
	StatusProcessing       = 2
	StatusAccepted         = 3
	StatusWrongAnswer      = 4
	StatusTimeLimitExceed  = 5
	StatusCompilationError = 6
	// 7..12 为各类运行时错误(SIGSEGV/SIGXFSZ/SIGFPE/SIGABRT/NZEC/Other)
	StatusRuntimeErrorMin = 7
	StatusRuntimeErrorMax = 12
)

const batchFields = "token,status_id,stdout,stderr,compile_output"

type Submission struct {
	LanguageID     int    `json:"language_id"`
	SourceCode     string `json:"source_code"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type SubmissionResult struct {
	Token         string `json:"token"`
	StatusID      int    `json:"status_id"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
}

type Judge0Service struct {
	log       loggerv2.Logger
	client    *http.Client
	baseURL   string
	authToken string
}

func NewJudge0Service(log loggerv2.Logger, baseURL, authToken string, requestTimeout time.Duration) *Judge0Service {
	return &Judge0Service{
		log:       log,
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type createBatchRequest struct {
	Submissions []Submission `json:"submissions"`
}

type batchToken struct {
	Token string `json:"token"`
}

// CreateBatch 批量创建评测任务, 每个测试点一个任务, 返回 token 列表(顺序与入参一致)
func (s *Judge0Service) CreateBatch(ctx context.Context, submissions []Submission) ([]string, error) {
	body, err := json.Marshal(createBatchRequest{Submissions: submissions})
	if err != nil {
		return nil, fmt.Errorf("CreateBatch failed at marshal request: %w", err)
	}

	reqURL := s.baseURL + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("CreateBatch failed at build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("X-Auth-Token", s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CreateBatch failed at do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("CreateBatch failed at read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CreateBatch failed at status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokens []batchToken
	if err = json.Unmarshal(respBody, &tokens); err != nil {
		return nil, fmt.Errorf("CreateBatch failed at unmarshal response: %w", err)
	}

	res := make([]string, 0, len(tokens))
	for _, t := range tokens {
		res = append(res, t.Token)
	}
	return res, nil
}

type getBatchResponse struct {
	Submissions []SubmissionResult `json:"submissions"`
}

// GetBatch 按 token 查询一批评测结果, 评测机可能只返回已物化的部分行
func (s *Judge0Service) GetBatch(ctx context.Context, tokens []string) ([]SubmissionResult, error) {
	query := url.Values{}
	query.Set("tokens", strings.Join(tokens, ","))
	query.Set("base64_encoded", "false")
	query.Set("fields", batchFields)

	reqURL := s.baseURL + "/submissions/batch?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GetBatch failed at build request: %w", err)
	}
	if s.authToken != "" {
		req.Header.Set("X-Auth-Token", s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetBatch failed at do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GetBatch failed at read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GetBatch failed at status %d: %s", resp.StatusCode, string(respBody))
	}

	var res getBatchResponse
	if err = json.Unmarshal(respBody, &res); err != nil {
		s.log.ErrorContext(ctx, "GetBatch unmarshal response failed",
			logger.Error(err),
			logger.String("body", string(respBody)))
		return nil, fmt.Errorf("GetBatch failed at unmarshal response: %w", err)
	}
	return res.Submissions, nil
}
