package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Server drives a local llama-server subprocess loaded with one GGUF model.
// The process is started once per run, bound to 127.0.0.1 only, and reused
// for every completion until Stop.
type Server struct {
	cmd     *exec.Cmd
	baseURL string
	client  *http.Client
}

// Options configures the llama-server launch.
type Options struct {
	// BinPath is the llama-server binary name or path; resolved via $PATH
	// when not an explicit path.
	BinPath     string
	ModelPath   string
	ContextSize int
	// Verbose forwards the server's stderr instead of discarding it.
	Verbose bool
}

const (
	readyTimeout = 30 * time.Second
	stopGrace    = 2 * time.Second
)

type completionRequest struct {
	Prompt   string `json:"prompt"`
	NPredict int    `json:"n_predict"`
	Stream   bool   `json:"stream"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// Start launches llama-server with the given model and context size on a
// free localhost port and blocks until its health endpoint answers. The
// returned Server owns the subprocess; callers must Stop it.
func Start(opts Options) (*Server, error) {
	bin, err := exec.LookPath(opts.BinPath)
	if err != nil {
		return nil, fmt.Errorf("llama-server binary not found: %w", err)
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("no free port for llama-server: %w", err)
	}

	args := []string{
		"-m", opts.ModelPath,
		"-c", strconv.Itoa(opts.ContextSize),
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(port),
	}

	cmd := exec.Command(bin, args...)
	if opts.Verbose {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start llama-server: %w", err)
	}

	s := &Server{
		cmd:     cmd,
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		// No client timeout: a completion runs until the model finishes.
		client: &http.Client{},
	}

	log.Info().
		Int("pid", cmd.Process.Pid).
		Str("model", opts.ModelPath).
		Int("n_ctx", opts.ContextSize).
		Str("url", s.baseURL).
		Msg("llama-server started, waiting for ready")

	if err := s.waitReady(readyTimeout); err != nil {
		s.Stop()
		return nil, err
	}
	log.Info().Msg("llama-server is ready")
	return s, nil
}

// Complete sends the rendered prompt to the server and returns the single
// text completion. The prompt already carries its own turn delimiters, so
// the raw completion endpoint is used rather than the chat one.
func (s *Server) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Prompt:   prompt,
		NPredict: -1,
		Stream:   false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/completion", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion request failed: %d, %s", resp.StatusCode, string(body))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	return out.Content, nil
}

// Stop terminates the subprocess: interrupt first, kill after a short grace
// period. Safe to call more than once.
func (s *Server) Stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	pid := s.cmd.Process.Pid
	log.Info().Int("pid", pid).Msg("Stopping llama-server")

	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		log.Debug().Err(err).Int("pid", pid).Msg("Failed to send interrupt signal")
	}

	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()

	select {
	case <-time.After(stopGrace):
		if err := s.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill llama-server (pid %d): %w", pid, err)
		}
		<-done
	case <-done:
	}

	s.cmd = nil
	return nil
}

func (s *Server) waitReady(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("llama-server did not become ready within %s", timeout)
		case <-ticker.C:
			if s.healthy() {
				return nil
			}
		}
	}
}

func (s *Server) healthy() bool {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(s.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
