// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command exclsim exercises an excl.Endpoint driven by a real ticker clock
// with a configurable number of concurrent clients, and reports what happened.
//
// Every flag may also be set in a config file (--config) or through an
// environment variable named EXCLSIM_ followed by the upper-cased flag name,
// with dashes replaced by underscores.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
