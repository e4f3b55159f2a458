package access

import (
	"context"
	"fmt"
	"time"

	"barberbot/internal/session"
)

// IsArchived lee la marca de archivo del estado; si no existe, no está archivado
func IsArchived(state session.State) bool {
	return state.ChatState.Archived
}

// Archive marca el chat como archivado
func Archive(ctx context.Context, store session.Store, id string, now time.Time) error {
	err := store.Update(ctx, id, func(st *session.State) {
		st.ChatState = session.ChatState{Archived: true, LastArchived: &now}
	})
	if err != nil {
		return fmt.Errorf("error archivando chat %s: %w", id, err)
	}
	return nil
}

// Unarchive marca el chat como no archivado
func Unarchive(ctx context.Context, store session.Store, id string, now time.Time) error {
	err := store.Update(ctx, id, func(st *session.State) {
		st.ChatState = session.ChatState{Archived: false, LastUnarchived: &now}
	})
	if err != nil {
		return fmt.Errorf("error desarchivando chat %s: %w", id, err)
	}
	return nil
}
