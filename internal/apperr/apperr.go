package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，决定对外的 HTTP 状态码
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindDuplicate
	KindNotFound
	KindPayloadTooLarge
	KindDependency
)

// Error 带类别的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf 参数校验错误（400）
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Duplicatef 名称冲突错误（400）
func Duplicatef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf 资源不存在错误（404）
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// PayloadTooLargef 请求体超限错误（413）
func PayloadTooLargef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPayloadTooLarge, Message: fmt.Sprintf(format, args...)}
}

// Dependency 依赖（对象存储/元数据库）调用失败（500）
func Dependency(message string, err error) *Error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}

// KindOf 返回错误类别，非业务错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus 错误类别到状态码的映射
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
