package booking

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberbot/internal/calendar"
	"barberbot/internal/datetime"
	"barberbot/internal/session"
)

// Calendar consulta disponibilidad y registra turnos
type Calendar interface {
	CheckAvailability(ctx context.Context, startDate string) (calendar.Availability, error)
	SubmitBooking(ctx context.Context, booking calendar.Booking) error
}

// Se evalúan sobre texto normalizado y sólo con una confirmación pendiente
var (
	reAffirmation = regexp.MustCompile(`\b(si|dale|listo|confirmo|confirmado|ok|queda|cerrado)\b`)
	reNegation    = regexp.MustCompile(`\b(no|cambiar|otra)\b`)
	reNamePrefix  = regexp.MustCompile(`(?i)^(a nombre de|mi nombre es|me llamo|soy)\s+`)
)

// Input un mensaje entrante visto por la máquina de turnos
type Input struct {
	Sender      string
	Text        string
	DisplayName string
}

// Result lo que decidió la máquina para este mensaje
type Result struct {
	// Handled es false cuando el mensaje no tiene que ver con el turno
	Handled bool
	Replies []string
	State   session.State
	Booked  bool
}

// Machine lleva una conversación desde el primer horario hasta el turno agendado
type Machine struct {
	calendar Calendar
	logger   *zap.Logger
	now      func() time.Time
}

// Option configura la máquina
type Option func(*Machine)

// WithClock reemplaza el reloj, para tests
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine crea la máquina de turnos
func NewMachine(cal Calendar, logger *zap.Logger, opts ...Option) *Machine {
	m := &Machine{calendar: cal, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle procesa un mensaje. Trabaja sobre una copia: el estado recibido no se modifica.
func (m *Machine) Handle(ctx context.Context, in Input, current session.State) Result {
	st := current.Clone()
	text := strings.TrimSpace(in.Text)

	log := m.logger.With(zap.String("sender", in.Sender), zap.Stringer("facet", st.Facet()))

	switch st.Facet() {
	case session.FacetAwaitingName:
		if text == "" {
			return handled(st, askName)
		}
		name := cleanName(text)
		st.PendingName = name
		log.Info("👤 Nombre capturado", zap.String("name", name))
		return m.finalize(ctx, in, st, name)

	case session.FacetAwaitingConfirmation:
		normalized := datetime.Normalize(text)
		switch {
		case reNegation.MatchString(normalized):
			log.Info("↩️  Turno rechazado por el cliente")
			st.ClearPending()
			return handled(st, askRestate)
		case reAffirmation.MatchString(normalized):
			name := resolveName(in.DisplayName, st.PendingName)
			if name == "" {
				st.AwaitingName = true
				return handled(st, askName)
			}
			return m.finalize(ctx, in, st, name)
		}
		return Result{State: current}

	default:
		return m.capture(in, st, current, log)
	}
}

// capture busca día y hora en el mensaje cuando no hay confirmación pendiente
func (m *Machine) capture(in Input, st, current session.State, log *zap.Logger) Result {
	moment, ok := datetime.Parse(in.Text, m.now(), st.PendingDayOffset)
	if !ok {
		return Result{State: current}
	}

	if !moment.HasTime {
		// Sólo un día nombrado explícitamente abre (o cambia) la espera de horario
		if moment.DayOffset == nil {
			return Result{State: current}
		}
		offset := *moment.DayOffset
		st.PendingDayOffset = &offset
		log.Info("📅 Día capturado sin horario", zap.Int("dayOffset", offset))
		return handled(st, fmt.Sprintf(askTime, dayName(offset)))
	}

	if minute := moment.Minute(); minute != 0 && minute != 30 {
		log.Info("⏰ Horario fuera de grilla", zap.String("display", moment.Display))
		hour := moment.Time.Hour()
		return handled(st, fmt.Sprintf(askValidTime, hour, hour))
	}

	st.PendingDayOffset = nil
	st.PendingStartDate = moment.Canonical
	st.PendingDisplay = moment.Display
	st.AwaitingName = false
	log.Info("🗓️  Horario capturado", zap.String("startDate", moment.Canonical))
	return handled(st, fmt.Sprintf(askConfirmation, moment.Display))
}

// finalize verifica disponibilidad y, si está libre, registra el turno
func (m *Machine) finalize(ctx context.Context, in Input, st session.State, name string) Result {
	startDate, display := st.PendingStartDate, st.PendingDisplay
	log := m.logger.With(zap.String("sender", in.Sender), zap.String("startDate", startDate))

	availability, err := m.calendar.CheckAvailability(ctx, startDate)
	if err != nil {
		log.Error("❌ Error consultando disponibilidad", zap.Error(err))
	}
	if err != nil || !availability.Available {
		log.Info("🚫 Horario no disponible")
		st.ClearPending()
		return handled(st, fmt.Sprintf(replyUnavailable, display))
	}

	booking := calendar.Booking{
		ID:        uuid.NewString(),
		From:      in.Sender,
		Message:   in.Text,
		History:   st.History,
		Timestamp: datetime.Canonical(m.now()),
		Name:      name,
		StartDate: startDate,
	}
	if err := m.calendar.SubmitBooking(ctx, booking); err != nil {
		log.Error("❌ Error enviando reserva", zap.Error(err), zap.String("bookingId", booking.ID))
	}

	log.Info("✅ Turno agendado", zap.String("name", name), zap.String("bookingId", booking.ID))
	st.Reset()
	res := handled(st, fmt.Sprintf(replyBooked, name, display))
	res.Booked = true
	return res
}

func handled(st session.State, replies ...string) Result {
	return Result{Handled: true, Replies: replies, State: st}
}

// resolveName prioriza el nombre del perfil del chat sobre el escrito en la conversación
func resolveName(displayName, captured string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	return strings.TrimSpace(captured)
}

func cleanName(text string) string {
	name := reNamePrefix.ReplaceAllString(strings.TrimSpace(text), "")
	name = strings.Trim(name, " .!¡")
	if name == "" {
		return strings.TrimSpace(text)
	}
	return name
}

func dayName(offset int) string {
	switch offset {
	case 0:
		return "hoy"
	case 1:
		return "mañana"
	case 2:
		return "pasado mañana"
	default:
		return fmt.Sprintf("dentro de %d días", offset)
	}
}
