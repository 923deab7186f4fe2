package model

import "time"

// PresenceEntry 小组在线成员, 以 (group_id, user_id) 为键, 任意活跃信号刷新
type PresenceEntry struct {
	UserID       uint64    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type TouchPresenceParam struct {
	CommonParam `json:"-"`

	GroupID     uint64 `json:"group_id" binding:"required" validate:"required"`
	DisplayName string `json:"display_name" binding:"required" validate:"required"`
}

type TouchPresenceResponse struct {
	OnlineCount int64 `json:"online_count"` // TTL 内活跃的成员数
}

type ListOnlineParam struct {
	CommonParam `json:"-"`

	GroupID uint64 `form:"group_id" binding:"required" validate:"required"`
}

type ListOnlineResponse struct {
	List []PresenceEntry `json:"list"`
}

type LeaveGroupParam struct {
	CommonParam `json:"-"`

	GroupID uint64 `json:"group_id" binding:"required" validate:"required"`
}
