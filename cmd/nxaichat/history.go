package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netxms/nxaichat/internal/config"
	"github.com/netxms/nxaichat/internal/history"
	"github.com/netxms/nxaichat/internal/tui"
)

const (
	hColorReset   = "\033[0m"
	hColorBoldRed = "\033[1;31m"
	hColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", hColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", hColorReset)
	return snippet
}

func openHistory() (*history.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryDB)
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded chat transcripts",
		Long:  `Opens a TUI browser over recorded chats when stdout is a terminal; otherwise lists chats as TSV.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db)
			}
			return printChats(db, 0)
		},
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historySearchCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded chats, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()
			return printChats(db, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Max chats to list (0 = default)")
	return cmd
}

// printChats writes one TSV row per chat: id, started, server, messages,
// context.
func printChats(db *history.DB, limit int) error {
	chats, err := db.ListChats(limit)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(os.Stderr, "No recorded chats.")
		return nil
	}
	for _, c := range chats {
		context := c.Context
		if context == "" || context == "none" {
			context = "-"
		}
		fmt.Printf("%d\t%s\t%s\t%d\t%s\n", c.ID, c.StartedAt, c.Server, c.Messages, context)
	}
	return nil
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chat-id>",
		Short: "Print the full transcript of a recorded chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q", args[0])
			}

			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			chat, err := db.GetChat(id)
			if err != nil {
				return err
			}
			if chat == nil {
				return fmt.Errorf("chat #%d not found", id)
			}
			messages, err := db.Messages(id)
			if err != nil {
				return err
			}

			width := 80
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			fmt.Print(history.Transcript(chat, messages, width))
			return nil
		},
	}
}

func historySearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across recorded transcripts",
		Long: `Search recorded messages using FTS5. Output is TSV:
  chatId, seq, startedAt, server, role, snippet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := db.Search(args[0], limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				snippet = colorizeSnippet(snippet)
				// first two fields (chatID, seq) stay plain for scripting
				fmt.Printf("%d\t%d\t%s%s%s\t%s\t%s\t%s\n",
					r.ChatID,
					r.Seq,
					hColorDim, r.StartedAt, hColorReset,
					r.Server,
					r.Role,
					snippet,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	return cmd
}
