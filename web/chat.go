package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/to404hanga/online_judge_live/constants"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/online_judge_live/pkg/gintool"
	"github.com/to404hanga/online_judge_live/service"
	"github.com/to404hanga/online_judge_live/web/wsticket"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type ChatHandler struct {
	messageSvc  service.MessageService
	presenceSvc service.PresenceService
	ticketer    *wsticket.Ticketer
	log         loggerv2.Logger
}

var _ Handler = (*ChatHandler)(nil)

// 鉴权由票据完成, 跨域交给 CORS 中间件
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewChatHandler(messageSvc service.MessageService, presenceSvc service.PresenceService, ticketer *wsticket.Ticketer, log loggerv2.Logger) *ChatHandler {
	return &ChatHandler{
		messageSvc:  messageSvc,
		presenceSvc: presenceSvc,
		ticketer:    ticketer,
		log:         log,
	}
}

func (h *ChatHandler) Register(r *gin.Engine) {
	r.POST(constants.PublishMessagePath, gintool.WrapHandler(h.PublishMessage, h.log))
	r.GET(constants.GetRecentMessagesPath, gintool.WrapHandler(h.GetRecentMessages, h.log))
	r.GET(constants.GetWSTicketPath, gintool.WrapHandler(h.GetWSTicket, h.log))
	r.GET(constants.SubscribeScopePath, h.SubscribeScope)
}

func (h *ChatHandler) PublishMessage(c *gin.Context, param *model.PublishMessageParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("challenge_id", param.ChallengeID),
		logger.Uint64("user_id", param.Operator))

	scope := model.Scope{GroupID: param.GroupID, ChallengeID: param.ChallengeID}
	msg, degraded, err := h.messageSvc.Publish(ctx, scope, param.Operator, param.Content)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "PublishMessage failed", logger.Error(err))
		return
	}

	// 发消息视为活跃信号
	if _, errTouch := h.presenceSvc.Touch(ctx, param.GroupID, param.Operator, ""); errTouch != nil {
		h.log.WarnContext(ctx, "PublishMessage touch presence failed", logger.Error(errTouch))
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.PublishMessageResponse{
			Message:  *msg,
			Degraded: degraded,
		},
	})
}

func (h *ChatHandler) GetRecentMessages(c *gin.Context, param *model.GetRecentMessagesParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("challenge_id", param.ChallengeID))

	scope := model.Scope{GroupID: param.GroupID, ChallengeID: param.ChallengeID}
	list, err := h.messageSvc.Recent(ctx, scope, param.Limit)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetRecentMessages failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.GetRecentMessagesResponse{
			List: list,
		},
	})
}

func (h *ChatHandler) GetWSTicket(c *gin.Context, param *model.GetWSTicketParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", param.GroupID),
		logger.Uint64("challenge_id", param.ChallengeID),
		logger.Uint64("user_id", param.Operator))

	scope := model.Scope{GroupID: param.GroupID, ChallengeID: param.ChallengeID}
	ticket, err := h.ticketer.Mint(param.Operator, scope)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetWSTicket failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: model.GetWSTicketResponse{
			Ticket: ticket,
		},
	})
}

// SubscribeScope 以票据建立 websocket 订阅, 服务端单向推送作用域内事件
func (h *ChatHandler) SubscribeScope(c *gin.Context) {
	claims, err := h.ticketer.Verify(c.Query("ticket"))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("group_id", claims.GroupID),
		logger.Uint64("challenge_id", claims.ChallengeID),
		logger.Uint64("user_id", claims.UserID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.ErrorContext(ctx, "SubscribeScope upgrade failed", logger.Error(err))
		return
	}

	scope := claims.Scope()
	sub := h.messageSvc.Subscribe(scope)

	if _, errTouch := h.presenceSvc.Touch(ctx, claims.GroupID, claims.UserID, ""); errTouch != nil {
		h.log.WarnContext(ctx, "SubscribeScope touch presence failed", logger.Error(errTouch))
	}

	// 读循环只消费 ping 一类的活跃信号, 对端关闭时退出并撤销订阅
	go func() {
		defer sub.Cancel()
		defer conn.Close()
		for {
			if _, _, errRead := conn.ReadMessage(); errRead != nil {
				return
			}
			if _, errTouch := h.presenceSvc.Touch(ctx, claims.GroupID, claims.UserID, ""); errTouch != nil {
				h.log.WarnContext(ctx, "SubscribeScope touch presence failed", logger.Error(errTouch))
			}
		}
	}()

	for evt := range sub.C {
		if errWrite := conn.WriteJSON(evt); errWrite != nil {
			h.log.WarnContext(ctx, "SubscribeScope write failed, closing", logger.Error(errWrite))
			break
		}
	}
	sub.Cancel()
	conn.Close()
}
