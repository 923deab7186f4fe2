package model

import (
	"fmt"
	"time"
)

// Scope 消息路由单元, ChallengeID 为 0 表示小组级聊天, 否则为挑战级聊天
// 两个作用域互不相交, 挑战级消息不会投递给仅订阅小组级的监听者
type Scope struct {
	GroupID     uint64 `json:"group_id"`
	ChallengeID uint64 `json:"challenge_id"`
}

func GroupScope(groupID uint64) Scope {
	return Scope{GroupID: groupID}
}

func ChallengeScope(groupID, challengeID uint64) Scope {
	return Scope{GroupID: groupID, ChallengeID: challengeID}
}

func (s Scope) Key() string {
	if s.ChallengeID == 0 {
		return fmt.Sprintf("group:%d", s.GroupID)
	}
	return fmt.Sprintf("group:%d:challenge:%d", s.GroupID, s.ChallengeID)
}

// Message 一经创建不可变, 环形缓冲只是读缓存, 持久化副本才是冷启动的数据源
type Message struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	GroupID     uint64    `json:"group_id" gorm:"index:idx_scope_sent,priority:1"`
	ChallengeID uint64    `json:"challenge_id" gorm:"index:idx_scope_sent,priority:2"`
	SenderID    uint64    `json:"sender_id"`
	Content     string    `json:"content" gorm:"type:text"`
	SentAt      time.Time `json:"sent_at" gorm:"index:idx_scope_sent,priority:3"`
}

func (Message) TableName() string {
	return "live_message"
}

func (m Message) Scope() Scope {
	return Scope{GroupID: m.GroupID, ChallengeID: m.ChallengeID}
}

type PublishMessageParam struct {
	CommonParam `json:"-"`

	GroupID     uint64 `json:"group_id" binding:"required" validate:"required"`
	ChallengeID uint64 `json:"challenge_id"`
	Content     string `json:"content" binding:"required" validate:"required,max=2000"`
}

type PublishMessageResponse struct {
	Message  Message `json:"message"`
	Degraded bool    `json:"degraded"` // 持久化失败但已完成实时投递
}

type GetRecentMessagesParam struct {
	CommonParam `json:"-"`

	GroupID     uint64 `form:"group_id" binding:"required" validate:"required"`
	ChallengeID uint64 `form:"challenge_id"`
	Limit       int    `form:"limit" binding:"required,min=1,max=100" validate:"required,min=1,max=100"`
}

type GetRecentMessagesResponse struct {
	List []Message `json:"list"`
}
