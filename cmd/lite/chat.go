package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/chat"
	"lite-hq/lite/pkg/cli"
)

var chatFlags struct {
	chatID     string
	providerID int64
	model      string
	noStream   bool
	history    bool
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message and print the reply",
	Long: `Send one message to a provider and print the reply as it streams.

Without --chat a new chat is created and its id is printed so the
conversation can be continued. Both sides of the exchange are stored just
as they are when using the HTTP API.

Examples:
  lite chat "What is server-sent events?"
  lite chat --chat 6f1c... "And how does it differ from WebSockets?"
  lite chat --provider 2 --model claude-3-5-sonnet-20241022 "Hello"
  lite chat --chat 6f1c... --history`,
	Args: cobra.ArbitraryArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatFlags.chatID, "chat", "", "continue an existing chat")
	chatCmd.Flags().Int64VarP(&chatFlags.providerID, "provider", "p", 0, "provider id (default provider when omitted)")
	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "", "model id (configured default when omitted)")
	chatCmd.Flags().BoolVar(&chatFlags.noStream, "no-stream", false, "wait for the full reply and print token usage")
	chatCmd.Flags().BoolVar(&chatFlags.history, "history", false, "print the chat history instead of sending")
}

func runChat(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" && !chatFlags.history {
		return cli.NewUsageError("a message is required")
	}
	if chatFlags.history && chatFlags.chatID == "" {
		return cli.NewUsageError("--history requires --chat")
	}

	ctx, cancel := cli.SignalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if chatFlags.history {
		return printHistory(ctx, cmd, a, chatFlags.chatID)
	}

	chatID := chatFlags.chatID
	if chatID == "" {
		c, err := a.store.CreateChat(ctx, title(message))
		if err != nil {
			return cli.NewCommandError("chat", err)
		}
		chatID = c.ID
		fmt.Fprintf(cmd.ErrOrStderr(), "chat %s\n", chatID)
	}

	req := chat.SendRequest{
		ChatID:     chatID,
		Message:    message,
		ProviderID: optionalID(chatFlags.providerID),
		Model:      chatFlags.model,
	}

	if chatFlags.noStream {
		reply, err := a.chat.Complete(ctx, req)
		if err != nil {
			return cli.NewCommandError("chat", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply.Message.Content)
		if reply.Usage != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "-- %d prompt + %d completion tokens, finish=%s\n",
				reply.Usage.PromptTokens, reply.Usage.CompletionTokens, reply.FinishReason)
		}
		return nil
	}

	stream, err := a.chat.Send(ctx, req)
	if err != nil {
		return cli.NewCommandError("chat", err)
	}

	printer := cli.NewStreamPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	for chunk, err := range stream {
		if err != nil {
			printer.Error(err)
			if cli.Interrupted(ctx) || errors.Is(err, context.Canceled) {
				return cli.NewCommandError("chat", cli.ErrInterrupted)
			}
			return cli.NewCommandError("chat", err)
		}
		if err := printer.Chunk(chunk); err != nil {
			return err
		}
	}
	printer.Finish()
	return nil
}

// title derives a chat title from the first message.
func title(message string) string {
	const maxRunes = 40
	line, _, _ := strings.Cut(message, "\n")
	if r := []rune(line); len(r) > maxRunes {
		return string(r[:maxRunes]) + "..."
	}
	return line
}

func printHistory(ctx context.Context, cmd *cobra.Command, a *app, chatID string) error {
	msgs, err := a.store.ListMessages(ctx, chatID)
	if err != nil {
		return cli.NewCommandError("chat", err)
	}

	t := &cli.Table{Headers: []string{"ID", "ROLE", "MODEL", "CONTENT"}, Data: msgs}
	for _, m := range msgs {
		content := strings.ReplaceAll(m.Content, "\n", " ")
		t.Rows = append(t.Rows, []string{fmt.Sprint(m.ID), m.Role, m.Model, content})
	}
	return formatter().FormatTo(cmd.OutOrStdout(), t)
}
