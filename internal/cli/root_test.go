// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fastBackoff = "--backoff=1ms"

// flaky returns a server answering failStatus to the first failures
// requests and 200 with the request body echoed afterwards.
func flaky(t *testing.T, failures int32, failStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("X-Hit", r.Method)
		if v := r.Header.Get("X-Echo"); v != "" {
			w.Header().Set("X-Echo", v)
		}
		if n <= failures {
			w.WriteHeader(failStatus)
			return
		}
		b, _ := io.ReadAll(r.Body)
		if len(b) == 0 {
			b = []byte("hello")
		}
		_, _ = w.Write(b)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGet(t *testing.T) {
	t.Run("retries until success", func(t *testing.T) {
		server, hits := flaky(t, 2, http.StatusServiceUnavailable)
		out, logs, err := execute(t, "get", server.URL, fastBackoff, "--max-backoff=2ms", "--log-level=info")
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 200 OK\n\nhello", out)
		assert.Equal(t, int32(3), hits.Load())
		assert.Equal(t, 2, bytes.Count([]byte(logs), []byte(`"retrying request"`)))
	})
	t.Run("no retries", func(t *testing.T) {
		server, hits := flaky(t, 5, http.StatusTooManyRequests)
		out, _, err := execute(t, "get", server.URL, "--max-attempts=0")
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 429 Too Many Requests\n\n", out)
		assert.Equal(t, int32(1), hits.Load())
	})
	t.Run("non-retryable status", func(t *testing.T) {
		server, hits := flaky(t, 5, http.StatusInternalServerError)
		out, _, err := execute(t, "get", server.URL, fastBackoff)
		require.NoError(t, err)
		assert.Contains(t, out, "500 Internal Server Error")
		assert.Equal(t, int32(1), hits.Load())
	})
	t.Run("http2 flag", func(t *testing.T) {
		server, _ := flaky(t, 0, 0)
		out, _, err := execute(t, "get", "--http2", server.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "200 OK")
	})
	t.Run("headers", func(t *testing.T) {
		server, _ := flaky(t, 0, 0)
		out, _, err := execute(t, "get", "-i", "-H", "X-Echo: abc", server.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "X-Echo: abc\n")
		assert.Contains(t, out, "X-Hit: GET\n")
	})
	t.Run("invalid header", func(t *testing.T) {
		server, hits := flaky(t, 0, 0)
		_, _, err := execute(t, "get", "-H", "no-colon", server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid header")
		assert.Equal(t, int32(0), hits.Load())
	})
	t.Run("missing url", func(t *testing.T) {
		_, _, err := execute(t, "get")
		require.Error(t, err)
	})
	t.Run("invalid log level", func(t *testing.T) {
		_, _, err := execute(t, "get", "--log-level=verbose", "http://127.0.0.1:1/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid flags")
	})
	t.Run("transport error", func(t *testing.T) {
		server, _ := flaky(t, 0, 0)
		url := server.URL
		server.Close()
		_, _, err := execute(t, "get", url)
		require.Error(t, err)
	})
}

func TestHead(t *testing.T) {
	server, hits := flaky(t, 1, http.StatusBadGateway)
	out, _, err := execute(t, "head", "-i", server.URL, fastBackoff, "--max-backoff=1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP/1.1 200 OK\n")
	assert.Contains(t, out, "X-Hit: HEAD\n")
	assert.NotContains(t, out, "hello")
	assert.Equal(t, int32(2), hits.Load())
}

func TestDo(t *testing.T) {
	t.Run("put body replayed", func(t *testing.T) {
		server, hits := flaky(t, 1, http.StatusServiceUnavailable)
		out, _, err := execute(t, "do", "-X", "PUT", "--data", `{"id":7}`, server.URL, fastBackoff, "--max-backoff=1ms")
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 200 OK\n\n{\"id\":7}", out)
		assert.Equal(t, int32(2), hits.Load())
	})
	t.Run("post not retried", func(t *testing.T) {
		server, hits := flaky(t, 1, http.StatusServiceUnavailable)
		out, _, err := execute(t, "do", "--method=POST", "--data=x", server.URL, fastBackoff)
		require.NoError(t, err)
		assert.Contains(t, out, "503 Service Unavailable")
		assert.Equal(t, int32(1), hits.Load())
	})
	t.Run("data from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "body.txt")
		require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
		server, _ := flaky(t, 0, 0)
		out, _, err := execute(t, "do", "-X", "PUT", "-d", "@"+path, server.URL)
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 200 OK\n\nfrom file", out)
	})
	t.Run("missing data file", func(t *testing.T) {
		_, _, err := execute(t, "do", "-d", "@"+filepath.Join(t.TempDir(), "none"), "http://127.0.0.1:1/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read request body")
	})
}

func TestConfigSources(t *testing.T) {
	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "httpretry.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
retry:
  maxattempts: 1
  backofffactor: 1ms
  maxbackoffwait: 1ms
log:
  level: error
`), 0o600))
		server, hits := flaky(t, 5, http.StatusGatewayTimeout)
		out, logs, err := execute(t, "get", "--config", path, server.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "504 Gateway Timeout")
		assert.Equal(t, int32(2), hits.Load())
		assert.Empty(t, logs)
	})
	t.Run("flags override config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "httpretry.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retry:\n  maxattempts: 4\n"), 0o600))
		server, hits := flaky(t, 5, http.StatusGatewayTimeout)
		_, _, err := execute(t, "get", "--config", path, "--max-attempts=0", server.URL)
		require.NoError(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
	t.Run("missing config file", func(t *testing.T) {
		_, _, err := execute(t, "get", "--config", filepath.Join(t.TempDir(), "none.yaml"), "http://127.0.0.1:1/")
		require.Error(t, err)
	})
	t.Run("env file", func(t *testing.T) {
		const key = "HTTPRETRY_RETRY_MAXATTEMPTS"
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte(key+"=0\n"), 0o600))
		server, hits := flaky(t, 5, http.StatusServiceUnavailable)
		_, _, err := execute(t, "get", "--env-file", path, server.URL)
		require.NoError(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
	t.Run("absent env file ignored", func(t *testing.T) {
		server, _ := flaky(t, 0, 0)
		_, _, err := execute(t, "get", "--env-file", filepath.Join(t.TempDir(), ".env"), server.URL)
		require.NoError(t, err)
	})
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}
