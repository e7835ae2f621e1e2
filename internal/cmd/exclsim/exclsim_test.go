// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunBlocking(t *testing.T) {
	chk := require.New(t)

	out, err := execute(t,
		"--clients=3",
		"--iterations=4",
		"--interval=1ms",
		"--hold=0s",
	)
	chk.NoError(err)
	chk.Contains(out, "opened=12 busy=0 denied=4 written=8")
	chk.Contains(out, "Timer called")
}

func TestRunNonBlocking(t *testing.T) {
	chk := require.New(t)

	out, err := execute(t,
		"--clients=4",
		"--iterations=5",
		"--interval=1ms",
		"--nonblock",
	)
	chk.NoError(err)
	chk.Contains(out, "Timer called")

	// Busy opens are skipped, so every iteration is either opened or busy.
	var opened, busy, denied, written int
	_, err = fmt.Sscanf(out, "opened=%d busy=%d denied=%d written=%d",
		&opened, &busy, &denied, &written)
	chk.NoError(err)
	chk.Equal(4*5, opened+busy)
	chk.Equal(opened, denied+written)

	usage := newRootCmd().Flags().Lookup(flagNonBlock).Usage
	chk.Contains(usage, "skipped")
}

func TestLoadConfigLayers(t *testing.T) {
	chk := require.New(t)

	path := filepath.Join(t.TempDir(), "exclsim.yaml")
	chk.NoError(os.WriteFile(path, []byte("clients: 7\niterations: 3\nhold: 5ms\n"), 0o600))
	t.Setenv("EXCLSIM_ITERATIONS", "9")

	cmd := newRootCmd()
	chk.NoError(cmd.Flags().Parse([]string{"--config", path, "--nonblock"}))
	cfg, err := loadConfig(cmd)
	chk.NoError(err)

	// Flags beat the environment, which beats the config file, which beats
	// the defaults.
	chk.Equal(7, cfg.Clients)
	chk.Equal(9, cfg.Iterations)
	chk.Equal(5*time.Millisecond, cfg.Hold)
	chk.True(cfg.NonBlock)
	chk.Equal(10*time.Millisecond, cfg.Interval)
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"--clients=0"},
		{"--iterations=0"},
		{"--interval=0s"},
		{"--capacity=1"},
		{"--timeout=-1s"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			chk := require.New(t)
			_, err := execute(t, args...)
			chk.Error(err)
			chk.Contains(err.Error(), "must be")
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	chk := require.New(t)
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	chk.ErrorContains(err, "reading config file")
}
