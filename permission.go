// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package excl

import "fmt"

// Op identifies an operation subject to [CheckPermission].
type Op int

const (
	OpExec Op = iota
	OpWrite
	OpRead
)

func (op Op) String() string {
	switch op {
	case OpExec:
		return "exec"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// CheckPermission allows anyone to read, only privileged callers to write, and
// nobody to execute. It returns nil or [ErrPermissionDenied].
func CheckPermission(op Op, privileged bool) error {
	switch {
	case op == OpRead:
		return nil
	case op == OpWrite && privileged:
		return nil
	default:
		return ErrPermissionDenied
	}
}
