// Package model 定义文件树的核心数据模型.
package model

import (
	"path"
	"strings"
	"time"
)

// ItemType 条目分类，目录恒为 TypeFolder，文件在创建时按内容类型/扩展名分类，之后不再变化.
type ItemType string

const (
	TypeFolder   ItemType = "folder"
	TypeDocument ItemType = "document"
	TypeImage    ItemType = "image"
	TypeVideo    ItemType = "video"
	TypeAudio    ItemType = "audio"
	TypeArchive  ItemType = "archive"
	TypeOther    ItemType = "other"
)

// ValidType 判断是否是已知的条目类型.
func ValidType(t ItemType) bool {
	switch t {
	case TypeFolder, TypeDocument, TypeImage, TypeVideo, TypeAudio, TypeArchive, TypeOther:
		return true
	default:
		return false
	}
}

// Item 文件或目录的元数据记录.
//
// Path 是从根到条目的逻辑路径（"/Docs/report.pdf"），由 parent.Path + "/" + Name
// 派生，作为冗余字段存储；任何重命名/移动都必须同步重算自身与后代的 Path.
type Item struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Type     ItemType `json:"type"`
	Size     int64    `json:"size"`
	ParentID *int64   `json:"parent_id"`
	UserID   int64    `json:"user_id"`

	IsDirectory bool `json:"is_directory"`
	IsFavorite  bool `json:"is_favorite"`
	IsPublic    bool `json:"is_public"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone 返回条目的浅拷贝，索引对外只暴露拷贝，避免调用方改写内部状态.
func (it *Item) Clone() *Item {
	cp := *it
	if it.ParentID != nil {
		pid := *it.ParentID
		cp.ParentID = &pid
	}

	return &cp
}

// Classify 根据声明的内容类型与文件名推断条目类型.
// 内容类型优先，扩展名兜底，均无法识别时归为 TypeOther.
func Classify(contentType, name string) ItemType {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case strings.HasPrefix(ct, "image/"):
		return TypeImage
	case strings.HasPrefix(ct, "video/"):
		return TypeVideo
	case strings.HasPrefix(ct, "audio/"):
		return TypeAudio
	case ct == "application/pdf",
		strings.Contains(ct, "document"),
		strings.Contains(ct, "spreadsheet"),
		strings.Contains(ct, "presentation"),
		strings.HasPrefix(ct, "text/"):
		return TypeDocument
	case strings.Contains(ct, "zip"),
		strings.Contains(ct, "rar"),
		strings.Contains(ct, "tar"),
		strings.Contains(ct, "compress"):
		return TypeArchive
	}

	return classifyByExtension(name)
}

func classifyByExtension(name string) ItemType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return TypeOther
	}

	switch ext {
	case "jpg", "jpeg", "png", "gif", "bmp", "webp", "svg":
		return TypeImage
	case "mp4", "avi", "mov", "wmv", "flv", "mkv", "webm":
		return TypeVideo
	case "mp3", "wav", "ogg", "flac", "m4a":
		return TypeAudio
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "md", "csv":
		return TypeDocument
	case "zip", "rar", "7z", "tar", "gz":
		return TypeArchive
	default:
		return TypeOther
	}
}

// mimeByExtension 常见扩展名到内容类型的回退表，下载/预览时使用.
var mimeByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"txt":  "text/plain",
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"json": "application/json",
	"md":   "text/markdown",
}

// ContentTypeFor 按文件名推断下载响应的 Content-Type，未知时返回 octet-stream.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ct, ok := mimeByExtension[ext]; ok {
		return ct
	}

	return "application/octet-stream"
}
