// Package errs 定义存储层与编排层共享的错误分类.
// 物理存储和元数据索引的错误原样向上传递，HTTP 层通过 Status 做状态码映射.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound 条目或路径不存在.
	ErrNotFound = errors.New("not found")
	// ErrForbidden 归属校验失败，条目不属于当前用户.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict 同一父目录下同名冲突.
	ErrConflict = errors.New("name conflict")
	// ErrInvalidOperation 非法操作：构成环的移动、删除非空目录（非递归）、空名称等.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidPath 路径逃逸出用户根目录.
	ErrInvalidPath = errors.New("invalid path")
	// ErrIO 底层存储介质错误.
	ErrIO = errors.New("io failure")
)

// Status 返回错误对应的 HTTP 状态码.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOperation), errors.Is(err, ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
