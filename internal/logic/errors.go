package logic

import (
	"errors"
	"fmt"

	"github.com/blues/smartfarmer/internal/repository"
)

// 业务错误，handler 层按类型映射 HTTP 状态码
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("Insufficient funds.")
	ErrUnitsUnavailable  = errors.New("Units no longer available.")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
)

// inputError 校验失败，Error() 直接作为提示返回给用户
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Unwrap() error { return ErrValidation }

// validationError 参数校验失败
func validationError(format string, args ...interface{}) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// notFound 把仓储层的 ErrNotFound 转成带上下文的业务错误
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
