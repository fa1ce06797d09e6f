// Package types 定义 HTTP 层的请求与响应结构.
package types

import (
	"time"

	"github.com/huloud/huloud/pkg/internal/model"
)

// ItemResponse 条目的对外表示.
type ItemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	ParentID    *int64    `json:"parent_id"`
	IsDirectory bool      `json:"is_directory"`
	IsFavorite  bool      `json:"is_favorite"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewItemResponse 从模型转换.
func NewItemResponse(it *model.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Path:        it.Path,
		Type:        string(it.Type),
		Size:        it.Size,
		ParentID:    it.ParentID,
		IsDirectory: it.IsDirectory,
		IsFavorite:  it.IsFavorite,
		IsPublic:    it.IsPublic,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

// NewItemResponses 批量转换.
func NewItemResponses(items []*model.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, NewItemResponse(it))
	}

	return out
}

// ListItemsResponse 条目列表响应.
type ListItemsResponse struct {
	Items []ItemResponse `json:"items"`
	Total int            `json:"total"`
}
