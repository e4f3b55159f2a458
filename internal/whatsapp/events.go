package whatsapp

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"barberbot/internal/chat"
)

// toInput convierte un evento de whatsmeow en un mensaje para el orquestador.
// Devuelve false para mensajes propios o sin texto.
func toInput(msg *events.Message) (chat.Input, bool) {
	if msg == nil || msg.Info.IsFromMe {
		return chat.Input{}, false
	}

	text := messageText(msg)
	if strings.TrimSpace(text) == "" {
		return chat.Input{}, false
	}

	return chat.Input{
		ChatID:      msg.Info.Chat.String(),
		Sender:      msg.Info.Sender.User,
		Text:        text,
		DisplayName: msg.Info.PushName,
		IsGroup:     msg.Info.IsGroup || msg.Info.Chat.Server == types.GroupServer,
	}, true
}

// messageText texto plano o texto extendido (respuestas, links)
func messageText(msg *events.Message) string {
	if msg.Message == nil {
		return ""
	}
	if text := msg.Message.GetConversation(); text != "" {
		return text
	}
	if ext := msg.Message.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

// archiveKey clave de sesión de un evento de archivo; los grupos no tienen sesión
func archiveKey(evt *events.Archive) (string, bool) {
	if evt == nil || evt.JID.Server == types.GroupServer || evt.JID.User == "" {
		return "", false
	}
	return evt.JID.User, true
}
