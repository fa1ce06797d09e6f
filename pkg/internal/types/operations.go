package types

// RenameItemRequest 重命名请求.
type RenameItemRequest struct {
	NewName string `binding:"required" json:"new_name"`
}

// MoveItemRequest 移动请求. NewParentID 为空表示移动到根层.
type MoveItemRequest struct {
	NewParentID *int64 `json:"new_parent_id"`
}

// DeleteItemResponse 删除结果，Cascaded 是随之级联删除的后代数量.
type DeleteItemResponse struct {
	ID       int64 `json:"id"`
	Cascaded int   `json:"cascaded"`
}
