// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/logging"
	"github.com/jeranaias/streamchat/internal/render"
	"github.com/jeranaias/streamchat/internal/session"
)

// progressFPS bounds how often the progress line is redrawn.
const progressFPS = 10

type askOptions struct {
	html bool
}

func newAskCommand(root *rootOptions) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Stream one answer to stdout",
		Long: `Ask a single question and stream the answer to stdout.

Use "-" as the prompt to read it from stdin. When stdout is a terminal and
[ui] markdown is on, the finished answer is rendered as markdown; otherwise
the text is written as it arrives. Ctrl+C stops the answer.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAsk(cmd, root, opts, prompt)
		},
	}
	cmd.Flags().BoolVar(&opts.html, "html", false, "print the answer as sanitized HTML")
	return cmd
}

func readPrompt(in io.Reader, args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if prompt == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &UsageError{Flag: "prompt", Reason: "must not be empty"}
	}
	return prompt, nil
}

func runAsk(cmd *cobra.Command, root *rootOptions, opts *askOptions, prompt string) error {
	cfg, path, err := root.load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log, filepath.Join(filepath.Dir(path), logFileName))
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	defer func() { _ = logger.Sync() }()

	p, err := root.producer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	sess := session.New(p, logger)

	var res session.Result
	switch {
	case opts.html:
		res = sess.Run(ctx, prompt, render.Discard)
	case isTerminal(out) && cfg.UI.Markdown:
		res = askMarkdown(ctx, sess, cfg, prompt, out, errOut)
	default:
		w := render.NewWriter(out)
		res = sess.Run(ctx, prompt, render.Sanitizing(w))
		if w.Written() != "" && !strings.HasSuffix(w.Written(), "\n") {
			fmt.Fprintln(out)
		}
		if w.Diverged() {
			logger.Warn("answer was revised after it was written", zap.Int("written_chars", len(w.Written())))
		}
		if err := w.Err(); err != nil && res.Err == nil {
			return fmt.Errorf("failed to write answer: %w", err)
		}
	}

	if res.Err != nil {
		return res.Err
	}
	if r, ok := p.(*session.Remote); ok && !res.Canceled {
		st := r.LastStats()
		logger.Debug("remote stats",
			zap.Int("eval_count", st.EvalCount),
			zap.Float64("tokens_per_second", st.TokensPerSecond()),
			zap.Duration("total", st.TotalTime()))
	}
	if opts.html {
		html, err := render.NewHTML().Render(res.Text)
		if err != nil {
			return fmt.Errorf("failed to render HTML: %w", err)
		}
		fmt.Fprint(out, html)
	}
	if res.Canceled && isTerminal(errOut) {
		fmt.Fprintln(errOut, dimStyle.Render("[stopped]"))
	}
	return nil
}

// askMarkdown shows a progress line on stderr while the answer streams, then
// prints the rendered markdown. A stopped answer is rendered as far as it got.
func askMarkdown(ctx context.Context, sess *session.Session, cfg *config.Config, prompt string, out, errOut io.Writer) session.Result {
	showProgress := isTerminal(errOut)
	progress := render.NewThrottle(render.SinkFunc(func(text string) {
		if showProgress {
			fmt.Fprintf(errOut, "\r%s", dimStyle.Render(fmt.Sprintf("receiving... %d chars", len(text))))
		}
	}), progressFPS)
	defer progress.Close()

	res := sess.Run(ctx, prompt, progress)
	if showProgress {
		fmt.Fprint(errOut, "\r\033[K")
	}
	if res.Text == "" {
		return res
	}

	md, err := render.NewMarkdown(cfg.UI.Style, terminalWidth(out)-2)
	if err != nil {
		fmt.Fprintln(out, render.Sanitize(res.Text))
		return res
	}
	fmt.Fprint(out, md.RenderOrPlain(res.Text))
	return res
}
