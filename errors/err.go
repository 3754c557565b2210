package errors

import (
	"fmt"
)

var (
	ErrInvalidArgument    = fmt.Errorf("botruntime: invalid argument")
	ErrInvalidRole        = fmt.Errorf("botruntime: invalid role")
	ErrQuotaExceeded      = fmt.Errorf("botruntime: quota exceeded")
	ErrNotFound           = fmt.Errorf("botruntime: not found")
	ErrStorage            = fmt.Errorf("botruntime: storage error")
	ErrPolicyPrecondition = fmt.Errorf("botruntime: policy precondition")
	ErrInvalidConfig      = fmt.Errorf("botruntime: invalid config")
)
