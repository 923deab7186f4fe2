package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_live/constants"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/pkg/gintool"
	"github.com/to404hanga/online_judge_live/service"
	"github.com/to404hanga/online_judge_live/service/exporter/factory"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

type SubmissionHandler struct {
	challengeRepo   service.ChallengeRepository
	judgeSvc        service.JudgeService
	ledgerSvc       service.LedgerService
	presenceSvc     service.PresenceService
	exporterFactory *factory.ExporterFactory
	log             loggerv2.Logger
}

var _ Handler = (*SubmissionHandler)(nil)

func NewSubmissionHandler(challengeRepo service.ChallengeRepository, judgeSvc service.JudgeService, ledgerSvc service.LedgerService, presenceSvc service.PresenceService, exporterFactory *factory.ExporterFactory, log loggerv2.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		challengeRepo:   challengeRepo,
		judgeSvc:        judgeSvc,
		ledgerSvc:       ledgerSvc,
		presenceSvc:     presenceSvc,
		exporterFactory: exporterFactory,
		log:             log,
	}
}

func (h *SubmissionHandler) Register(r *gin.Engine) {
	r.POST(constants.RunCodePath, gintool.WrapHandler(h.RunCode, h.log))
	r.POST(constants.SubmitCodePath, gintool.WrapHandler(h.SubmitCode, h.log))
	r.GET(constants.GetStandingsPath, gintool.WrapHandler(h.GetStandings, h.log))
	r.POST(constants.ExportStandingsPath, gintool.WrapHandler(h.ExportStandings, h.log))
}

// RunCode 试运行, 评测流程与正式提交一致但不计分不广播
func (h *SubmissionHandler) RunCode(c *gin.Context, param *model.RunCodeParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("challenge_id", param.ChallengeID),
		logger.Uint64("problem_id", param.ProblemID),
		logger.Uint64("user_id", param.Operator),
		logger.String("language", param.Language))

	h.touchPresence(ctx, param.GroupID, param.Operator)

	verdict, _, ok := h.judgeOnce(c, ctx, param.ChallengeID, param.ProblemID, param.Language, param.Code)
	if !ok {
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.RunCodeResponse{
			Verdict: *verdict,
		},
	})
}

// SubmitCode 正式提交, Accepted 时计分并向挑战作用域广播新榜单
func (h *SubmissionHandler) SubmitCode(c *gin.Context, param *model.SubmitCodeParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("challenge_id", param.ChallengeID),
		logger.Uint64("problem_id", param.ProblemID),
		logger.Uint64("user_id", param.Operator),
		logger.String("language", param.Language))

	h.touchPresence(ctx, param.GroupID, param.Operator)

	verdict, difficulty, ok := h.judgeOnce(c, ctx, param.ChallengeID, param.ProblemID, param.Language, param.Code)
	if !ok {
		return
	}

	resp := model.SubmitCodeResponse{Verdict: *verdict}
	if verdict.Accepted {
		participant, err := h.ledgerSvc.RecordAcceptance(ctx, param.GroupID, param.ChallengeID, param.Operator, param.ProblemID, difficulty)
		if err != nil {
			gintool.GinResponse(c, &gintool.Response{
				Code:    http.StatusInternalServerError,
				Message: err.Error(),
			})
			h.log.ErrorContext(ctx, "SubmitCode record acceptance failed", logger.Error(err))
			return
		}
		resp.Participant = participant
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

// touchPresence 提交与试运行都算活跃信号, 失败不影响评测流程
func (h *SubmissionHandler) touchPresence(ctx context.Context, groupID, userID uint64) {
	if _, err := h.presenceSvc.Touch(ctx, groupID, userID, ""); err != nil {
		h.log.WarnContext(ctx, "touch presence failed", logger.Error(err))
	}
}

// judgeOnce 校验题目归属, 派发评测并等待终态; 出错时已写好响应, ok 为 false
func (h *SubmissionHandler) judgeOnce(c *gin.Context, ctx context.Context, challengeID, problemID uint64, language, code string) (*model.Verdict, model.Difficulty, bool) {
	difficulty, err := h.challengeRepo.LoadDifficulty(ctx, challengeID, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			gintool.GinResponse(c, &gintool.Response{
				Code:    http.StatusBadRequest,
				Message: "problem not found in challenge",
			})
			return nil, "", false
		}
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "judgeOnce load difficulty failed", logger.Error(err))
		return nil, "", false
	}

	pairs, err := h.challengeRepo.LoadTestPairs(ctx, problemID)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "judgeOnce load test pairs failed", logger.Error(err))
		return nil, "", false
	}

	batch, err := h.judgeSvc.Dispatch(ctx, language, code, pairs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedLanguage), errors.Is(err, service.ErrNoTestCases):
			gintool.GinResponse(c, &gintool.Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
		case errors.Is(err, service.ErrJudgeUnavailable):
			gintool.GinResponse(c, &gintool.Response{
				Code:    http.StatusBadGateway,
				Message: err.Error(),
			})
		default:
			gintool.GinResponse(c, &gintool.Response{
				Code:    http.StatusInternalServerError,
				Message: err.Error(),
			})
		}
		h.log.ErrorContext(ctx, "judgeOnce dispatch failed", logger.Error(err))
		return nil, "", false
	}

	if err = h.judgeSvc.AwaitResult(ctx, batch); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, service.ErrJudgeTimeout) {
			statusCode = http.StatusGatewayTimeout
		}
		gintool.GinResponse(c, &gintool.Response{
			Code:    statusCode,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "judgeOnce await result failed", logger.Error(err))
		return nil, "", false
	}

	verdict := h.judgeSvc.Summarize(batch)
	return &verdict, difficulty, true
}

func (h *SubmissionHandler) GetStandings(c *gin.Context, param *model.GetStandingsParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("challenge_id", param.ChallengeID))

	rows, err := h.ledgerSvc.StandingsRows(ctx, param.ChallengeID)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetStandings failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.GetStandingsResponse{
			List: rows,
		},
	})
}

// ExportStandings 导出榜单文件, 直接流式写入响应体
func (h *SubmissionHandler) ExportStandings(c *gin.Context, param *model.ExportStandingsParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("challenge_id", param.ChallengeID),
		logger.String("format", param.Format))

	exporterType := factory.ExporterType(param.Format)
	exp := h.exporterFactory.GetExporter(exporterType)
	if exp == nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("unsupported export format: %s", param.Format),
		})
		return
	}

	filename := fmt.Sprintf("standings_%d%s", param.ChallengeID, factory.ExporterSuffixMap[exporterType])
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := exp.Export(ctx, param.ChallengeID, c.Writer); err != nil {
		h.log.ErrorContext(ctx, "ExportStandings failed", logger.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}
