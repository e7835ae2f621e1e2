// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package cerr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/petenewcomb/excl-go/internal/cerr"
	"github.com/stretchr/testify/require"
)

const errKind = cerr.Error("kind")
const errOther = cerr.Error("other")

func TestWith(t *testing.T) {
	chk := require.New(t)

	err := errKind.With(context.Canceled)
	chk.EqualError(err, "kind: context canceled")
	chk.ErrorIs(err, errKind)
	chk.ErrorIs(err, context.Canceled)
	chk.NotErrorIs(err, errOther)
	chk.NotErrorIs(err, context.DeadlineExceeded)

	var caused cerr.Caused
	chk.True(errors.As(err, &caused))
	chk.Equal(errKind, caused.Kind)

	// Causes may themselves be constant errors.
	err = errKind.With(errOther)
	chk.ErrorIs(err, errKind)
	chk.ErrorIs(err, errOther)
}

func TestWithNilCause(t *testing.T) {
	chk := require.New(t)
	chk.Equal(error(errKind), errKind.With(nil))
}
