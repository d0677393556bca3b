// 包 apperr 定义数据层的错误分类：传输错误、数据形状错误、输入错误。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 为错误类别。
type Kind string

const (
	// Transport：网络失败、超时、非 2xx 状态。
	Transport Kind = "transport"
	// Shape：上游返回的结构或类型与约定不符。
	Shape Kind = "shape"
	// Input：单条记录的字段取值非法（负数、非数字等）。
	Input Kind = "input"
)

// Error 携带类别、操作名与出错字段。
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New 构造指定类别的错误。
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transportf 构造传输错误。
func Transportf(op, format string, args ...any) *Error {
	return &Error{Kind: Transport, Op: op, Err: fmt.Errorf(format, args...)}
}

// Shapef 构造指定字段的形状错误。
func Shapef(op, field, format string, args ...any) *Error {
	return &Error{Kind: Shape, Op: op, Field: field, Err: fmt.Errorf(format, args...)}
}

// Inputf 构造指定字段的输入错误。
func Inputf(field, format string, args ...any) *Error {
	return &Error{Kind: Input, Field: field, Err: fmt.Errorf(format, args...)}
}

// Is 判断错误链中是否包含指定类别的 *Error。
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf 返回错误链中第一个 *Error 的类别；无则为空。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
