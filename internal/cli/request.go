// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type requestOptions struct {
	method string
	data   string
}

func newGetCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "get URL",
		Short: "Send a GET request",
		Example: `  httpretry get https://example.com/
  httpretry get --max-attempts 3 --backoff 250ms https://example.com/items`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, opts, &requestOptions{method: http.MethodGet}, args[0])
		},
	}
}

func newHeadCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "head URL",
		Short: "Send a HEAD request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, opts, &requestOptions{method: http.MethodHead}, args[0])
		},
	}
}

func newDoCommand(opts *Options) *cobra.Command {
	ro := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "do URL",
		Short: "Send a request with any method and an optional body",
		Long: `Sends a request with the given method and body.

Only methods configured as retryable (by default the idempotent ones) are
retried. A body given with --data is replayed on every retry.`,
		Example: `  httpretry do --method PUT --data '{"name":"x"}' https://example.com/items/7
  httpretry do -X POST --data @payload.json https://example.com/items`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, opts, ro, args[0])
		},
	}

	cmd.Flags().StringVarP(&ro.method, "method", "X", http.MethodGet, "Request method")
	cmd.Flags().StringVarP(&ro.data, "data", "d", "", "Request body, or @file to read it from a file")

	return cmd
}

func runRequest(cmd *cobra.Command, opts *Options, ro *requestOptions, url string) error {
	client, err := newClient(cmd, opts)
	if err != nil {
		return err
	}

	body, err := requestBody(ro.data)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(cmd.Context(), ro.method, url, body)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if err = setHeaders(req, opts.Headers); err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", resp.Proto, resp.Status)
	if opts.Include {
		writeHeaders(out, resp.Header)
	}
	if ro.method == http.MethodHead {
		return nil
	}
	fmt.Fprintln(out)
	if _, err = io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// requestBody returns nil for no data, so the request carries no body.
func requestBody(data string) (io.Reader, error) {
	switch {
	case data == "":
		return nil, nil
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		return strings.NewReader(string(b)), nil
	default:
		return strings.NewReader(data), nil
	}
}

func setHeaders(req *http.Request, headers []string) error {
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("invalid header %q (must be 'Name: value')", h)
		}
		req.Header.Add(name, strings.TrimSpace(value))
	}
	return nil
}

func writeHeaders(w io.Writer, h http.Header) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
}
