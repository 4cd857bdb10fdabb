//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// errors.Is 会沿 os.LinkError 的 Unwrap 链走到 syscall 层。
func isEXDEV(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
