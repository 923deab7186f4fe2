package model

type GetWSTicketParam struct {
	CommonParam `json:"-"`

	GroupID     uint64 `form:"group_id" binding:"required" validate:"required"`
	ChallengeID uint64 `form:"challenge_id"`
}

type GetWSTicketResponse struct {
	Ticket string `json:"ticket"`
}
