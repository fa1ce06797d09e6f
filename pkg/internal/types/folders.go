package types

// CreateFolderRequest 新建目录请求. ParentID 为空表示根层.
type CreateFolderRequest struct {
	Name     string `binding:"required" json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}
