package store

import "errors"

// Store errors
var (
	// ErrNotFound 未找到
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists 已存在
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput 无效输入
	ErrInvalidInput = errors.New("invalid input")
	// ErrConnectionFailed 连接失败
	ErrConnectionFailed = errors.New("connection failed")
)
