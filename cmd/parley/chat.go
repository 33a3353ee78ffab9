package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bowerhall/parley/internal/agent"
	"github.com/bowerhall/parley/internal/bot"
	"github.com/bowerhall/parley/internal/config"
	"github.com/bowerhall/parley/internal/logger"
)

func newChatCmd() *cobra.Command {
	var user string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the skills from the terminal",
		Long: `Reads one message per line from stdin and prints the answers.
Prefix a line with ! to send it as an action, which is always classified
even while a skill is waiting. A stop word (stop, cancel, quit, ...) drops
the waiting skills and
/history prints the recorded transcript when PARLEY_TRANSCRIPT_SIZE is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.ErrOrStderr(), verbose)
			return runChat(cmd.Context(), user, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "local", "session id to chat as")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	return cmd
}

func runChat(ctx context.Context, user string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	show := func(answers []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, a := range answers {
			fmt.Fprintf(out, "< %s\n", a)
		}
	}

	app, err := build(ctx, cfg, func(message string) {
		show([]string{message})
	})
	if err != nil {
		return err
	}
	defer app.Close()

	conv := app.agent.Conversation(user)
	app.agent.SetNotifyFunc(func(userID string, answers []string) {
		if userID == conv.UserID() {
			show(answers)
		}
	})

	if app.runner != nil {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go app.runner.Run(runCtx)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			answers, err := chatTurn(ctx, app, conv, line)
			if err != nil {
				show([]string{"error: " + err.Error()})
				continue
			}
			show(answers)
		}
	}
}

func chatTurn(ctx context.Context, app *app, conv *agent.Conversation, line string) ([]string, error) {
	switch {
	case bot.IsStopCommand(line):
		if err := app.agent.Reset(ctx, conv.UserID()); err != nil {
			return nil, err
		}
		return []string{bot.StoppedReply}, nil
	case line == "/history":
		return history(ctx, app, conv.UserID())
	case strings.HasPrefix(line, "!"):
		return conv.Action(ctx, strings.TrimPrefix(line, "!"))
	default:
		return conv.Query(ctx, line)
	}
}

func history(ctx context.Context, app *app, user string) ([]string, error) {
	if app.transcript == nil {
		return []string{"transcript is disabled"}, nil
	}

	messages, err := app.transcript.Recent(ctx, user)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return lines, nil
}
