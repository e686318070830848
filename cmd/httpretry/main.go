// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpretry sends a single HTTP request through a retrying
// transport and prints the response.
package main

import (
	"fmt"
	"os"

	"github.com/gogama/httpretry/internal/cli"
)

var version = "dev" // Set during build

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
