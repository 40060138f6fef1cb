package pattern

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid          = errors.New("invalid pattern")
	ErrMissingKey       = errors.New("pattern must contain at least one key")
	ErrNotHomogeneous   = errors.New("pattern is not homogeneous")
	ErrInvalidDirection = errors.New("pattern has an invalid direction")
)

// Error 描述一次失败的解析，消息中回显原始 pattern。
type Error struct {
	Kind    string // Node 或 Relationship
	Pattern string
	Err     error // 上面的哨兵错误之一
	Cause   error // 语法错误等底层原因，可为空
}

func (e *Error) Error() string {
	var reason string
	switch {
	case errors.Is(e.Err, ErrMissingKey):
		reason = "must contains at lest one key"
	case errors.Is(e.Err, ErrNotHomogeneous):
		reason = "is not homogeneous"
	case errors.Is(e.Err, ErrInvalidDirection):
		reason = "has an invalid direction"
	default:
		reason = "is invalid"
	}
	return fmt.Sprintf("The %s pattern %s %s", e.Kind, e.Pattern, reason)
}

func (e *Error) Unwrap() error { return e.Err }

func nodeError(pattern string, err, cause error) *Error {
	return &Error{Kind: "Node", Pattern: pattern, Err: err, Cause: cause}
}

func relError(pattern string, err, cause error) *Error {
	return &Error{Kind: "Relationship", Pattern: pattern, Err: err, Cause: cause}
}
