package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_live/constants"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/pkg/gintool"
	"github.com/to404hanga/online_judge_live/service"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type PresenceHandler struct {
	presenceSvc service.PresenceService
	log         loggerv2.Logger
}

var _ Handler = (*PresenceHandler)(nil)

func NewPresenceHandler(presenceSvc service.PresenceService, log loggerv2.Logger) *PresenceHandler {
	return &PresenceHandler{
		presenceSvc: presenceSvc,
		log:         log,
	}
}

func (h *PresenceHandler) Register(r *gin.Engine) {
	r.POST(constants.TouchPresencePath, gintool.WrapHandler(h.TouchPresence, h.log))
	r.GET(constants.ListOnlinePath, gintool.WrapHandler(h.ListOnline, h.log))
	r.POST(constants.LeaveGroupPath, gintool.WrapHandler(h.LeaveGroup, h.log))
}

func (h *PresenceHandler) TouchPresence(c *gin.Context, param *model.TouchPresenceParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("user_id", param.Operator))

	count, err := h.presenceSvc.Touch(ctx, param.GroupID, param.Operator, param.DisplayName)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "TouchPresence failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.TouchPresenceResponse{
			OnlineCount: count,
		},
	})
}

func (h *PresenceHandler) ListOnline(c *gin.Context, param *model.ListOnlineParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID))

	list, err := h.presenceSvc.ListOnline(ctx, param.GroupID)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "ListOnline failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.ListOnlineResponse{
			List: list,
		},
	})
}

func (h *PresenceHandler) LeaveGroup(c *gin.Context, param *model.LeaveGroupParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("user_id", param.Operator))

	// 离开只是尽力而为, 失败也视作成功, TTL 过期会兜底
	if err := h.presenceSvc.Remove(ctx, param.GroupID, param.Operator); err != nil {
		h.log.WarnContext(ctx, "LeaveGroup remove failed, ttl will expire the entry", logger.Error(err))
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
	})
}
