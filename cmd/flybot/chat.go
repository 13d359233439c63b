package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"flybot/internal/config"
	"flybot/internal/infra"
	"flybot/internal/modules/conversation"
)

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot on the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// Console output belongs to the dialog; only warnings go to the log.
			logger, err := infra.NewLogger(false, "warn")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return chat(ctx, a.orchestrator, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// chat runs one conversation over line-oriented input until EOF or ctx ends.
func chat(ctx context.Context, o *conversation.Orchestrator, in io.Reader, out io.Writer) error {
	c := o.NewConversation("console")
	printReply(out, o.Start(ctx, c))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		printReply(out, o.Handle(ctx, c, line))
	}
}

func printReply(out io.Writer, r conversation.Reply) {
	for _, m := range r.Messages {
		fmt.Fprintln(out, m.Text)
	}
}
