package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"barberbot/internal/access"
	"barberbot/internal/assistant"
	"barberbot/internal/booking"
	"barberbot/internal/session"
)

const (
	apologyMessage = "Lo siento, hubo un error al procesar tu mensaje. Por favor, inténtalo de nuevo."
	welcomeMessage = "¡Hola! 👋 ¿Cómo estás? En Unblessed Barbershop estamos aquí para ayudarte con tu próximo corte. ¿Te gustaría saber más sobre nuestros servicios o reservar un turno?"
	defaultName    = "Amigo"
)

// Assistant asistente generativo para todo lo que no es un turno
type Assistant interface {
	GenerateReply(ctx context.Context, customerName string, history []session.Message) (string, error)
	ClassifyIntent(ctx context.Context, history []session.Message) (assistant.Intent, error)
}

// Sender entrega las respuestas en orden
type Sender interface {
	Send(ctx context.Context, chatID string, replies []Reply) error
}

// Orchestrator recibe cada mensaje: gate, archivo, turnos y asistente
type Orchestrator struct {
	gate         *access.Gate
	machine      *booking.Machine
	assistant    Assistant
	store        session.Store
	logger       *zap.Logger
	welcomeMedia string
}

// Option configura el orquestador
type Option func(*Orchestrator)

// WithWelcomeMedia adjunta una imagen al saludo de bienvenida
func WithWelcomeMedia(url string) Option {
	return func(o *Orchestrator) { o.welcomeMedia = url }
}

// NewOrchestrator arma el orquestador
func NewOrchestrator(gate *access.Gate, machine *booking.Machine, ai Assistant, store session.Store, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gate:      gate,
		machine:   machine,
		assistant: ai,
		store:     store,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process carga el estado, maneja el mensaje, persiste y responde
func (o *Orchestrator) Process(ctx context.Context, in Input, sender Sender) error {
	log := o.logger.With(zap.String("sender", in.Sender), zap.String("chat", in.ChatID))

	if err := in.Validate(); err != nil {
		log.Warn("⚠️  Mensaje ignorado", zap.Error(err))
		return nil
	}
	if reason, ok := o.screen(in); !ok {
		log.Info("🚫 Mensaje filtrado", zap.String("reason", reason))
		return nil
	}
	key := in.SessionKey()

	var out Outcome
	state, err := o.store.Get(ctx, key)
	if err != nil {
		log.Error("❌ Error leyendo sesión", zap.Error(err))
		out = o.failure(state)
	} else {
		out = o.HandleMessage(ctx, in, state)
	}

	if out.Filtered {
		return nil
	}

	if !out.Failed {
		if err := o.persist(ctx, key, out.State); err != nil {
			log.Error("❌ Error guardando sesión", zap.Error(err))
			out = o.failure(state)
		}
	}

	if err := sender.Send(ctx, in.ChatID, out.Replies); err != nil {
		return fmt.Errorf("error enviando respuesta a %s: %w", in.ChatID, err)
	}
	log.Info("✅ Respuesta enviada", zap.Int("parts", len(out.Replies)))
	return nil
}

// persist guarda el turno y el historial. La marca de archivo se toma del
// store: pudo cambiar (desde el teléfono o la API) mientras se procesaba el mensaje.
func (o *Orchestrator) persist(ctx context.Context, key string, next session.State) error {
	return o.store.Update(ctx, key, func(st *session.State) {
		chatState := st.ChatState
		*st = next.Clone()
		st.ChatState = chatState
	})
}

// HandleMessage decide la respuesta para un mensaje. Ante cualquier error o
// panic devuelve la disculpa genérica con el estado original.
func (o *Orchestrator) HandleMessage(ctx context.Context, in Input, state session.State) (out Outcome) {
	log := o.logger.With(zap.String("sender", in.Sender), zap.String("body", in.Text))

	defer func() {
		if r := recover(); r != nil {
			log.Error("🔴 Panic procesando mensaje", zap.Any("panic", r), zap.Stack("stack"))
			out = o.failure(state)
		}
	}()

	if reason, ok := o.screen(in); !ok {
		log.Info("⛔ Mensaje ignorado", zap.String("reason", reason))
		return Outcome{Filtered: true, Reason: reason, State: state}
	}
	if access.IsArchived(state) {
		log.Info("📂 Chat archivado, mensaje ignorado")
		return Outcome{Filtered: true, Reason: "archived", State: state}
	}

	log.Info("📨 Mensaje recibido", zap.Stringer("facet", state.Facet()))

	res := o.machine.Handle(ctx, booking.Input{
		Sender:      in.Sender,
		Text:        in.Text,
		DisplayName: in.DisplayName,
	}, state)
	if res.Handled {
		replies := make([]Reply, 0, len(res.Replies))
		for _, text := range res.Replies {
			replies = append(replies, Reply{Text: text})
		}
		return Outcome{Replies: replies, State: res.State}
	}

	if strings.TrimSpace(in.Text) == "" {
		return Outcome{Filtered: true, Reason: "empty", State: state}
	}

	out, err := o.fallback(ctx, in, state)
	if err != nil {
		log.Error("❌ Error en el asistente", zap.Error(err), zap.Stack("stack"))
		return o.failure(state)
	}
	return out
}

// fallback responde con el asistente y guarda el intercambio en el historial.
// El primer mensaje de la conversación pasa antes por la clasificación.
func (o *Orchestrator) fallback(ctx context.Context, in Input, state session.State) (Outcome, error) {
	next := state.Clone()
	first := len(next.History) == 0
	next.Append(session.RoleUser, in.Text)

	if first {
		intent, err := o.assistant.ClassifyIntent(ctx, next.History)
		if err != nil {
			return Outcome{}, fmt.Errorf("error clasificando mensaje: %w", err)
		}
		o.logger.Info("🎯 Primer mensaje clasificado", zap.String("intent", string(intent)))
		if intent == assistant.IntentGeneral {
			next.Append(session.RoleAssistant, welcomeMessage)
			return Outcome{
				Replies: []Reply{{Text: welcomeMessage, MediaURL: o.welcomeMedia}},
				State:   next,
			}, nil
		}
	}

	reply, err := o.assistant.GenerateReply(ctx, customerName(in, state), next.History)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(reply) == "" {
		return Outcome{}, errors.New("respuesta vacía del asistente")
	}

	next.Append(session.RoleAssistant, reply)
	return Outcome{Replies: []Reply{{Text: reply}}, State: next}, nil
}

// screen descarta grupos y números fuera de la lista
func (o *Orchestrator) screen(in Input) (string, bool) {
	if in.IsGroup || access.IsGroupChat(in.ChatID) {
		return "group", false
	}
	if !o.gate.Admit(in.Sender, false) {
		return "unauthorized", false
	}
	return "", true
}

func (o *Orchestrator) failure(state session.State) Outcome {
	return Outcome{Failed: true, Replies: []Reply{{Text: apologyMessage}}, State: state}
}

func customerName(in Input, state session.State) string {
	if name := strings.TrimSpace(in.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(state.PendingName); name != "" {
		return name
	}
	return defaultName
}
