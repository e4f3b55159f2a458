package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"barberbot/internal/access"
	"barberbot/internal/config"
	"barberbot/internal/datetime"
	"barberbot/internal/session"
)

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <numero>",
		Short: "Archiva un chat: el bot deja de responderle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store session.Store) error {
				return setArchived(ctx, cmd, store, args[0], true)
			})
		},
	}
}

func newUnarchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <numero>",
		Short: "Desarchiva un chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store session.Store) error {
				return setArchived(ctx, cmd, store, args[0], false)
			})
		},
	}
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, store session.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Un store en memoria muere con el comando; el cambio no llegaría al bot
	if cfg.SessionStore == config.StoreMemory {
		return fmt.Errorf("SESSION_STORE=%s no persiste: usá sqlite o redis para archivar chats", config.StoreMemory)
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error abriendo sesiones: %w", err)
	}
	defer store.Close()

	return fn(ctx, store)
}

func setArchived(ctx context.Context, cmd *cobra.Command, store session.Store, number string, archived bool) error {
	key := access.Digits(number)
	if key == "" {
		return fmt.Errorf("número inválido: %q", number)
	}

	now := time.Now().In(datetime.Zone)
	if archived {
		if err := access.Archive(ctx, store, key, now); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📂 Chat %s archivado\n", key)
		return nil
	}

	if err := access.Unarchive(ctx, store, key, now); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📂 Chat %s desarchivado\n", key)
	return nil
}
