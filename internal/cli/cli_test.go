// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/ollama"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeOllama serves the endpoints the CLI uses and records generate requests.
type fakeOllama struct {
	mu       sync.Mutex
	requests []ollama.GenerateRequest
	chunks   []string
	status   int
}

func newFakeOllama(t *testing.T, chunks ...string) (*fakeOllama, *httptest.Server) {
	t.Helper()
	f := &fakeOllama{chunks: chunks, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOllama) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		fmt.Fprint(w, "Ollama is running")
	case "/api/tags":
		fmt.Fprint(w, `{"models":[{"name":"llama3.2","size":2000000000,"modified_at":"2024-01-02T00:00:00Z",`+
			`"details":{"parameter_size":"3.2B","quantization_level":"Q4_K_M"}},`+
			`{"name":"qwen2.5","size":1000,"modified_at":"2024-02-03T00:00:00Z"}]}`)
	case "/api/generate":
		var req ollama.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		status := f.status
		f.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":"model %q not found"}`, req.Model)
			return
		}
		flusher := w.(http.Flusher)
		for _, c := range f.chunks {
			b, _ := json.Marshal(ollama.GenerateResponse{Model: req.Model, Response: c})
			fmt.Fprintf(w, "%s\n", b)
			flusher.Flush()
		}
		fmt.Fprint(w, `{"response":"","done":true,"eval_count":3}`+"\n")
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) lastRequest(t *testing.T) ollama.GenerateRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the command line with a private config path.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	for _, k := range []string{"STREAMCHAT_BACKEND", "STREAMCHAT_HOST", "STREAMCHAT_MODEL"} {
		t.Setenv(k, "")
	}

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetArgs(append([]string{"--config", testConfigPath(t)}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// testConfigPath returns a config path that is stable within one test.
func testConfigPath(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "streamchat-cli-test", strings.ReplaceAll(t.Name(), "/", "_"))
	return filepath.Join(dir, "config.toml")
}

func cleanConfig(t *testing.T) {
	t.Helper()
	dir := filepath.Dir(testConfigPath(t))
	require.NoError(t, os.RemoveAll(dir))
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_RemoteStreamsToWriter(t *testing.T) {
	cleanConfig(t)
	f, srv := newFakeOllama(t, "Hello", " wor", "ld")

	res := run(t, "", "--host", srv.URL, "--model", "tiny", "ask", "say", "hello")
	require.NoError(t, res.err)
	assert.Equal(t, "Hello world\n", res.stdout)

	req := f.lastRequest(t)
	assert.Equal(t, "tiny", req.Model)
	assert.Equal(t, "say hello", req.Prompt)
	assert.True(t, req.Stream)
	assert.Nil(t, req.Options, "no --gen means server defaults")
}

func TestAsk_SanitizesControlSequences(t *testing.T) {
	cleanConfig(t)
	_, srv := newFakeOllama(t, "red \x1b[31mtext\x1b[0m\x07")

	res := run(t, "", "--host", srv.URL, "ask", "hi")
	require.NoError(t, res.err)
	assert.Equal(t, "red text\n", res.stdout)
}

func TestAsk_GenOptionsMappedToRemote(t *testing.T) {
	cleanConfig(t)
	f, srv := newFakeOllama(t, "ok")

	res := run(t, "", "--host", srv.URL, "--gen", "max_new_tokens=5&do_sample=false&seed=7", "ask", "hi")
	require.NoError(t, res.err)

	req := f.lastRequest(t)
	require.NotNil(t, req.Options)
	assert.Equal(t, 5, req.Options.NumPredict)
	assert.Equal(t, 1, req.Options.TopK)
	assert.Equal(t, 7, req.Options.Seed)
}

func TestAsk_StdinPrompt(t *testing.T) {
	cleanConfig(t)
	f, srv := newFakeOllama(t, "ok")

	res := run(t, "  from stdin\n", "--host", srv.URL, "ask", "-")
	require.NoError(t, res.err)
	assert.Equal(t, "from stdin", f.lastRequest(t).Prompt)
}

func TestAsk_HTML(t *testing.T) {
	cleanConfig(t)
	_, srv := newFakeOllama(t, "**bold** ", "<script>alert(1)</script>")

	res := run(t, "", "--host", srv.URL, "ask", "--html", "hi")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "<strong>bold</strong>")
	assert.NotContains(t, res.stdout, "<script>")
}

func TestAsk_LocalBackendIsDeterministicWhenGreedy(t *testing.T) {
	cleanConfig(t)
	args := []string{"--backend", "local", "--gen", "do_sample=false&max_new_tokens=24", "ask", "hello"}

	first := run(t, "", args...)
	require.NoError(t, first.err)
	assert.NotEmpty(t, strings.TrimSpace(first.stdout))
	assert.NotContains(t, first.stdout, "<|im_start|>")

	second := run(t, "", args...)
	require.NoError(t, second.err)
	assert.Equal(t, first.stdout, second.stdout)
}

func TestAsk_ModelNotFound(t *testing.T) {
	cleanConfig(t)
	f, srv := newFakeOllama(t)
	f.status = http.StatusNotFound

	res := run(t, "", "--host", srv.URL, "ask", "hi")
	require.Error(t, res.err)
	assert.True(t, ollama.IsModelNotFound(res.err))
	assert.Equal(t, ExitNotFound, ExitCode(res.err))
	assert.Contains(t, hint(res.err), "ollama pull")
}

func TestAsk_NotRunning(t *testing.T) {
	cleanConfig(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	res := run(t, "", "--host", "http://"+addr, "ask", "hi")
	require.Error(t, res.err)
	assert.Equal(t, ExitNetworkError, ExitCode(res.err))
	assert.Contains(t, hint(res.err), "ollama serve")
}

func TestAsk_MalformedStream(t *testing.T) {
	cleanConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"ok"}`+"\n"+`not json`+"\n")
	}))
	t.Cleanup(srv.Close)

	res := run(t, "", "--host", srv.URL, "ask", "hi")
	require.Error(t, res.err)
	assert.True(t, ollama.IsDecode(res.err))
	assert.Equal(t, ExitGeneralError, ExitCode(res.err))
	assert.Contains(t, hint(res.err), "malformed stream")
}

func TestAsk_EmptyPrompt(t *testing.T) {
	cleanConfig(t)
	res := run(t, "   ", "ask", "-")
	var usageErr *UsageError
	require.True(t, errors.As(res.err, &usageErr))
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

// =============================================================================
// FLAG AND CONFIG TESTS
// =============================================================================

func TestBadGenFlag(t *testing.T) {
	cleanConfig(t)
	res := run(t, "", "--backend", "local", "--gen", "bogus=1", "ask", "hi")
	var usageErr *UsageError
	require.True(t, errors.As(res.err, &usageErr))
	assert.Equal(t, "--gen", usageErr.Flag)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestBadBackendFlag(t *testing.T) {
	cleanConfig(t)
	res := run(t, "", "--backend", "gpu", "config", "show")
	require.Error(t, res.err)
	assert.Equal(t, ExitConfigError, ExitCode(res.err))
}

func TestConfigInitShowPath(t *testing.T) {
	cleanConfig(t)
	path := testConfigPath(t)

	res := run(t, "", "config", "path")
	require.NoError(t, res.err)
	assert.Equal(t, path+"\n", res.stdout)

	res = run(t, "", "config", "init")
	require.NoError(t, res.err)
	assert.FileExists(t, path)

	res = run(t, "", "config", "init")
	require.Error(t, res.err, "init refuses to overwrite")
	assert.Equal(t, ExitConfigError, ExitCode(res.err))

	res = run(t, "", "config", "init", "--force")
	require.NoError(t, res.err)

	res = run(t, "", "--model", "mistral", "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `backend = "remote"`)
	assert.Contains(t, res.stdout, `model = "mistral"`, "show prints the effective config")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Remote.Model, cfg.Remote.Model, "show does not save flags")
}

func TestConfigFileUnknownKey(t *testing.T) {
	cleanConfig(t)
	path := testConfigPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("bakend = \"local\"\n"), 0o600))

	res := run(t, "", "config", "show")
	var cfgErr *ConfigError
	require.True(t, errors.As(res.err, &cfgErr))
	assert.Contains(t, res.err.Error(), "bakend")
}

// =============================================================================
// MODELS AND STATUS TESTS
// =============================================================================

func TestModels(t *testing.T) {
	cleanConfig(t)
	_, srv := newFakeOllama(t)

	res := run(t, "", "--host", srv.URL, "models")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "llama3.2 *")
	assert.Contains(t, res.stdout, "qwen2.5")
	assert.Contains(t, res.stdout, "3.2B")
}

func TestStatus(t *testing.T) {
	cleanConfig(t)
	_, srv := newFakeOllama(t)

	res := run(t, "", "--host", srv.URL, "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "running")
	assert.Contains(t, res.stdout, "llama3.2 installed")

	res = run(t, "", "--host", srv.URL, "--model", "missing", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "missing not installed")
}

func TestStatus_BadStatusIsNetworkError(t *testing.T) {
	cleanConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	res := run(t, "", "--host", srv.URL, "status")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "unreachable")
	assert.Equal(t, ExitNetworkError, ExitCode(res.err))
	assert.Contains(t, hint(res.err), "--host")
}

// =============================================================================
// BACKEND TESTS
// =============================================================================

func TestRemoteOptions(t *testing.T) {
	assert.Nil(t, remoteOptions(config.GenerationOptions{}))

	gen, err := config.ParseGenerationOptions("temperature=0&top_k=40")
	require.NoError(t, err)
	opts := remoteOptions(gen)
	require.NotNil(t, opts)
	assert.Equal(t, 1, opts.TopK, "zero temperature is sent as greedy")

	gen, err = config.ParseGenerationOptions("temperature=0.7&top_k=40")
	require.NoError(t, err)
	opts = remoteOptions(gen)
	assert.InDelta(t, 0.7, opts.Temperature, 1e-9)
	assert.Equal(t, 40, opts.TopK)
}

func TestBuildProducer_LocalCorpusFile(t *testing.T) {
	corpus := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("alpha beta gamma.\n\nbeta gamma delta."), 0o600))

	cfg := config.Default()
	cfg.Backend = config.BackendLocal
	cfg.Local.Corpus = corpus
	p, err := buildProducer(cfg, config.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())

	cfg.Local.Corpus = filepath.Join(t.TempDir(), "missing.txt")
	_, err = buildProducer(cfg, config.GenerationOptions{})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("x"), ExitGeneralError},
		{&UsageError{Flag: "f"}, ExitUsageError},
		{fmt.Errorf("wrapped: %w", &ConfigError{Path: "p", Err: errors.New("x")}), ExitConfigError},
		{&ollama.ClientError{Type: ollama.ErrTypeTimeout}, ExitTimeout},
		{&ollama.ClientError{Type: ollama.ErrTypeNotRunning}, ExitNetworkError},
		{&ollama.ClientError{Type: ollama.ErrTypeConnection, Message: "stream interrupted"}, ExitNetworkError},
		{fmt.Errorf("wrapped: %w", &ollama.ClientError{Type: ollama.ErrTypeConnection}), ExitNetworkError},
		{&ollama.ClientError{Type: ollama.ErrTypeDecode}, ExitGeneralError},
		{&ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "model not found"}, ExitNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
