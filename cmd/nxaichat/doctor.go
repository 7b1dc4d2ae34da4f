package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netxms/nxaichat/internal/config"
	"github.com/netxms/nxaichat/internal/history"
	"github.com/netxms/nxaichat/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, sessions, history DB, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			checkDir("Dir", cfg.Dir())

			fmt.Println("\n=== Sessions ===")
			fmt.Printf("  Path: %s\n", cfg.SessionPath())
			checkSessions(cfg.SessionPath())

			fmt.Println("\n=== History ===")
			fmt.Printf("  Path: %s\n", cfg.HistoryDB)
			if _, err := os.Stat(cfg.HistoryDB); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (created on first chat)")
			} else if err := checkHistory(cfg.HistoryDB); err != nil {
				return err
			}

			if info, err := os.Stat(cfg.LogPath()); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== Log: %s (%.1f MB) ===\n", cfg.LogPath(), sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkSessions(path string) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Println("  Status: no saved sessions")
		return
	}
	if err != nil {
		fmt.Printf("  Status: %v\n", err)
		return
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		fmt.Printf("  Permissions: %o (expected 600)\n", perm)
	} else {
		fmt.Println("  Permissions: 600 (OK)")
	}

	all, err := store.New(path).All()
	if err != nil {
		fmt.Printf("  Parse error: %v\n", err)
		return
	}
	expired := 0
	for _, rec := range all {
		if rec.Expires == "" {
			continue
		}
		if exp, err := time.Parse(time.RFC3339, rec.Expires); err == nil && exp.Before(time.Now()) {
			expired++
		}
	}
	fmt.Printf("  Saved sessions: %d", len(all))
	if expired > 0 {
		fmt.Printf(" (%d expired)", expired)
	}
	fmt.Println()
}

func checkHistory(path string) error {
	db, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	chats, err := db.ChatCount()
	if err != nil {
		return fmt.Errorf("count chats: %w", err)
	}
	messages, err := db.MessageCount()
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	fmt.Printf("  Chats:    %d\n", chats)
	fmt.Printf("  Messages: %d\n", messages)

	var ftsCount int
	err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
	if err != nil {
		fmt.Printf("  FTS5 error: %v\n", err)
	} else if ftsCount == messages {
		fmt.Println("  FTS5: OK (synced)")
	} else {
		fmt.Printf("  FTS5: MISMATCH (messages=%d, fts=%d)\n", messages, ftsCount)
	}

	if info, err := os.Stat(path); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		fmt.Printf("  Size: %.1f MB\n", sizeMB)
	}
	return nil
}
