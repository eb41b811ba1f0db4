package model

import "time"

type Like struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	ToolID    string    `json:"toolId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
