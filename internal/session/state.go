package session

import "time"

// Role de un mensaje del historial
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message una entrada del historial de conversación
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatState estado de archivo del chat, independiente del turno
type ChatState struct {
	Archived       bool       `json:"archived"`
	LastArchived   *time.Time `json:"lastArchived,omitempty"`
	LastUnarchived *time.Time `json:"lastUnarchived,omitempty"`
}

// State estado persistido de una conversación
type State struct {
	ChatState ChatState `json:"chatState"`
	History   []Message `json:"history,omitempty"`

	// Día indicado sin hora (0 hoy, 1 mañana, 2 pasado mañana)
	PendingDayOffset *int `json:"pendingDayOffset,omitempty"`
	// Fecha canónica esperando confirmación, siempre junto a PendingDisplay
	PendingStartDate string `json:"pendingStartDate,omitempty"`
	PendingDisplay   string `json:"pendingDisplay,omitempty"`
	AwaitingName     bool   `json:"awaitingName,omitempty"`
	PendingName      string `json:"pendingName,omitempty"`
}

// Facet etapa del turno en curso
type Facet int

const (
	FacetIdle Facet = iota
	FacetDayOnly
	FacetAwaitingConfirmation
	FacetAwaitingName
)

func (f Facet) String() string {
	switch f {
	case FacetDayOnly:
		return "day_only"
	case FacetAwaitingConfirmation:
		return "awaiting_confirmation"
	case FacetAwaitingName:
		return "awaiting_name"
	default:
		return "idle"
	}
}

// Facet deriva la etapa actual a partir de los campos pendientes
func (s State) Facet() Facet {
	switch {
	case s.PendingStartDate != "" && s.AwaitingName:
		return FacetAwaitingName
	case s.PendingStartDate != "":
		return FacetAwaitingConfirmation
	case s.PendingDayOffset != nil:
		return FacetDayOnly
	default:
		return FacetIdle
	}
}

// ClearPending descarta el día y horario en curso. El nombre capturado,
// el historial y el archivo se conservan.
func (s *State) ClearPending() {
	s.PendingDayOffset = nil
	s.PendingStartDate = ""
	s.PendingDisplay = ""
	s.AwaitingName = false
}

// Reset vuelve al estado inicial después de un turno agendado; sólo
// se conserva la marca de archivo.
func (s *State) Reset() {
	*s = State{ChatState: s.ChatState}
}

// Append agrega un mensaje al historial
func (s *State) Append(role Role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// Clone copia profunda, para trabajar sin tocar el estado original
func (s State) Clone() State {
	out := s
	if s.History != nil {
		out.History = append([]Message(nil), s.History...)
	}
	if s.PendingDayOffset != nil {
		offset := *s.PendingDayOffset
		out.PendingDayOffset = &offset
	}
	if s.ChatState.LastArchived != nil {
		t := *s.ChatState.LastArchived
		out.ChatState.LastArchived = &t
	}
	if s.ChatState.LastUnarchived != nil {
		t := *s.ChatState.LastUnarchived
		out.ChatState.LastUnarchived = &t
	}
	return out
}

// IsZero indica si el estado está vacío
func (s State) IsZero() bool {
	return !s.ChatState.Archived &&
		s.ChatState.LastArchived == nil &&
		s.ChatState.LastUnarchived == nil &&
		len(s.History) == 0 &&
		s.PendingDayOffset == nil &&
		s.PendingStartDate == "" &&
		s.PendingDisplay == "" &&
		!s.AwaitingName &&
		s.PendingName == ""
}
