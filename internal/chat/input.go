package chat

import (
	"errors"
	"strings"

	"barberbot/internal/access"
	"barberbot/internal/session"
)

// ErrInvalidInput el transporte entregó un mensaje sin remitente o sin chat
var ErrInvalidInput = errors.New("mensaje entrante inválido")

// Input mensaje entrante tal como lo entrega el transporte
type Input struct {
	// ChatID dirección del chat a la que se responde
	ChatID string
	// Sender número del remitente
	Sender      string
	Text        string
	DisplayName string
	IsGroup     bool
}

// Validate se llama una sola vez, al entrar al orquestador
func (in Input) Validate() error {
	if strings.TrimSpace(in.ChatID) == "" || access.Digits(in.Sender) == "" {
		return ErrInvalidInput
	}
	return nil
}

// SessionKey clave de la conversación en el store: el número sin formato
func (in Input) SessionKey() string {
	return access.Digits(in.Sender)
}

// Reply una parte del mensaje saliente; MediaURL es opcional
type Reply struct {
	Text     string
	MediaURL string
}

// Outcome resultado de procesar un mensaje
type Outcome struct {
	// Filtered indica que no se responde nada
	Filtered bool
	Reason   string
	Replies  []Reply
	State    session.State
	// Failed indica un error inesperado: se responde la disculpa y el estado no cambia
	Failed bool
}
