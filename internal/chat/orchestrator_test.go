package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"barberbot/internal/access"
	"barberbot/internal/assistant"
	"barberbot/internal/booking"
	"barberbot/internal/calendar"
	"barberbot/internal/datetime"
	"barberbot/internal/session"
)

const number = "5491128571905"

// domingo 24/08/2025 10:37
var now = time.Date(2025, 8, 24, 10, 37, 0, 0, datetime.Zone)

type fakeCalendar struct {
	available bool
	submitted []calendar.Booking
}

func (f *fakeCalendar) CheckAvailability(context.Context, string) (calendar.Availability, error) {
	return calendar.Availability{Available: f.available}, nil
}

func (f *fakeCalendar) SubmitBooking(_ context.Context, b calendar.Booking) error {
	f.submitted = append(f.submitted, b)
	return nil
}

type fakeAssistant struct {
	intent    assistant.Intent
	reply     string
	err       error
	panics    bool
	names     []string
	histories [][]session.Message
	classify  int
	onReply   func()
}

func (f *fakeAssistant) GenerateReply(_ context.Context, name string, history []session.Message) (string, error) {
	if f.panics {
		panic("boom")
	}
	if f.onReply != nil {
		f.onReply()
	}
	f.names = append(f.names, name)
	f.histories = append(f.histories, history)
	return f.reply, f.err
}

func (f *fakeAssistant) ClassifyIntent(context.Context, []session.Message) (assistant.Intent, error) {
	f.classify++
	return f.intent, nil
}

type fakeSender struct {
	sent map[string][][]Reply
}

func (f *fakeSender) Send(_ context.Context, chatID string, replies []Reply) error {
	if f.sent == nil {
		f.sent = map[string][][]Reply{}
	}
	f.sent[chatID] = append(f.sent[chatID], replies)
	return nil
}

func (f *fakeSender) last(chatID string) []Reply {
	all := f.sent[chatID]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

type failingStore struct {
	*session.MemoryStore
}

func (failingStore) Save(context.Context, string, session.State) error {
	return errors.New("disco lleno")
}

func (failingStore) Update(context.Context, string, func(*session.State)) error {
	return errors.New("disco lleno")
}

type fixture struct {
	orch  *Orchestrator
	cal   *fakeCalendar
	ai    *fakeAssistant
	store session.Store
}

func newFixture(store session.Store, opts ...Option) fixture {
	cal := &fakeCalendar{available: true}
	ai := &fakeAssistant{intent: assistant.IntentChatbot, reply: "Juan, el corte sale $8000 ✂️"}
	machine := booking.NewMachine(cal, zap.NewNop(), booking.WithClock(func() time.Time { return now }))
	gate := access.NewGate([]string{"+" + number})
	return fixture{
		orch:  NewOrchestrator(gate, machine, ai, store, zap.NewNop(), opts...),
		cal:   cal,
		ai:    ai,
		store: store,
	}
}

func input(text string) Input {
	return Input{ChatID: number + "@s.whatsapp.net", Sender: number, Text: text, DisplayName: "Juan"}
}

func TestHandleMessageFilters(t *testing.T) {
	f := newFixture(session.NewMemoryStore())
	ctx := context.Background()

	out := f.orch.HandleMessage(ctx, Input{ChatID: "120363@g.us", Sender: number, Text: "hola", IsGroup: true}, session.State{})
	assert.True(t, out.Filtered)
	assert.Equal(t, "group", out.Reason)

	out = f.orch.HandleMessage(ctx, Input{ChatID: "5491100000000@s.whatsapp.net", Sender: "5491100000000", Text: "hola"}, session.State{})
	assert.True(t, out.Filtered)
	assert.Equal(t, "unauthorized", out.Reason)

	archived := session.State{ChatState: session.ChatState{Archived: true}}
	out = f.orch.HandleMessage(ctx, input("mañana 14hs"), archived)
	assert.True(t, out.Filtered)
	assert.Equal(t, "archived", out.Reason)
	assert.Empty(t, out.Replies)
	assert.Empty(t, f.ai.names)
}

func TestFirstGreetingGetsWelcome(t *testing.T) {
	f := newFixture(session.NewMemoryStore(), WithWelcomeMedia("https://example.com/local.jpg"))
	f.ai.intent = assistant.IntentGeneral

	out := f.orch.HandleMessage(context.Background(), input("buenas!"), session.State{})
	require.Len(t, out.Replies, 1)
	assert.Equal(t, welcomeMessage, out.Replies[0].Text)
	assert.Equal(t, "https://example.com/local.jpg", out.Replies[0].MediaURL)
	assert.Equal(t, []session.Message{
		{Role: session.RoleUser, Content: "buenas!"},
		{Role: session.RoleAssistant, Content: welcomeMessage},
	}, out.State.History)
	assert.Empty(t, f.ai.names)
}

func TestUnrelatedMessageWhileIdle(t *testing.T) {
	f := newFixture(session.NewMemoryStore())

	out := f.orch.HandleMessage(context.Background(), input("qué precios tienen"), session.State{})
	require.False(t, out.Failed)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, "Juan, el corte sale $8000 ✂️", out.Replies[0].Text)
	assert.Equal(t, 1, f.ai.classify)
	assert.Equal(t, []string{"Juan"}, f.ai.names)

	assert.Equal(t, []session.Message{
		{Role: session.RoleUser, Content: "qué precios tienen"},
		{Role: session.RoleAssistant, Content: "Juan, el corte sale $8000 ✂️"},
	}, out.State.History)
	assert.Equal(t, session.FacetIdle, out.State.Facet())
	assert.Empty(t, out.State.PendingStartDate)
}

func TestClassifyOnlyOnFirstContact(t *testing.T) {
	f := newFixture(session.NewMemoryStore())
	st := session.State{History: []session.Message{
		{Role: session.RoleUser, Content: "hola"},
		{Role: session.RoleAssistant, Content: "¿en qué te ayudo?"},
	}}

	out := f.orch.HandleMessage(context.Background(), input("qué precios tienen"), st)
	require.False(t, out.Failed)
	assert.Zero(t, f.ai.classify)
	assert.Len(t, out.State.History, 4)
	assert.Len(t, st.History, 2)
}

func TestCustomerNameFallbacks(t *testing.T) {
	in := input("x")
	assert.Equal(t, "Juan", customerName(in, session.State{PendingName: "Pedro"}))

	in.DisplayName = " "
	assert.Equal(t, "Pedro", customerName(in, session.State{PendingName: "Pedro"}))
	assert.Equal(t, defaultName, customerName(in, session.State{}))
}

func TestUnrelatedMessageKeepsPendingBooking(t *testing.T) {
	f := newFixture(session.NewMemoryStore())
	st := session.State{
		PendingStartDate: "2025-08-25T14:00:00-03:00",
		PendingDisplay:   "lun 25/08/2025 14:00",
	}

	out := f.orch.HandleMessage(context.Background(), input("¿aceptan tarjeta?"), st)
	require.False(t, out.Failed)
	assert.Equal(t, session.FacetAwaitingConfirmation, out.State.Facet())
	assert.Equal(t, "2025-08-25T14:00:00-03:00", out.State.PendingStartDate)
	assert.Len(t, out.State.History, 2)
}

func TestAssistantErrorApologizes(t *testing.T) {
	f := newFixture(session.NewMemoryStore())
	f.ai.err = errors.New("cuota excedida")
	st := session.State{History: []session.Message{{Role: session.RoleUser, Content: "hola"}}}

	out := f.orch.HandleMessage(context.Background(), input("precios?"), st)
	assert.True(t, out.Failed)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, apologyMessage, out.Replies[0].Text)
	assert.Equal(t, st, out.State)
}

func TestPanicApologizes(t *testing.T) {
	f := newFixture(session.NewMemoryStore())
	f.ai.panics = true

	out := f.orch.HandleMessage(context.Background(), input("precios?"), session.State{})
	assert.True(t, out.Failed)
	assert.Equal(t, apologyMessage, out.Replies[0].Text)
	assert.True(t, out.State.IsZero())
}

func TestProcessBookingFlow(t *testing.T) {
	store := session.NewMemoryStore()
	f := newFixture(store)
	sender := &fakeSender{}
	ctx := context.Background()
	chatID := input("").ChatID

	require.NoError(t, f.orch.Process(ctx, input("mañana"), sender))
	st, err := store.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, session.FacetDayOnly, st.Facet())
	require.NotNil(t, st.PendingDayOffset)
	assert.Equal(t, 1, *st.PendingDayOffset)

	require.NoError(t, f.orch.Process(ctx, input("14hs"), sender))
	st, err = store.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-25T14:00:00-03:00", st.PendingStartDate)
	assert.Equal(t, "lun 25/08/2025 14:00", st.PendingDisplay)
	assert.Contains(t, sender.last(chatID)[0].Text, "lun 25/08/2025 14:00")

	require.NoError(t, f.orch.Process(ctx, input("sí"), sender))
	require.Len(t, f.cal.submitted, 1)
	assert.Equal(t, "Juan", f.cal.submitted[0].Name)
	assert.Equal(t, "2025-08-25T14:00:00-03:00", f.cal.submitted[0].StartDate)
	assert.Contains(t, sender.last(chatID)[0].Text, "Juan")

	st, err = store.Get(ctx, number)
	require.NoError(t, err)
	assert.True(t, st.IsZero())
	assert.Len(t, sender.sent[chatID], 3)
	assert.Empty(t, f.ai.names)
}

func TestProcessAsksNameWithoutDisplayName(t *testing.T) {
	store := session.NewMemoryStore()
	f := newFixture(store)
	sender := &fakeSender{}
	ctx := context.Background()

	in := input("mañana 14hs")
	in.DisplayName = ""
	require.NoError(t, f.orch.Process(ctx, in, sender))

	in.Text = "si"
	require.NoError(t, f.orch.Process(ctx, in, sender))
	st, err := store.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, session.FacetAwaitingName, st.Facet())

	in.Text = "Pedro"
	require.NoError(t, f.orch.Process(ctx, in, sender))
	require.Len(t, f.cal.submitted, 1)
	assert.Equal(t, "Pedro", f.cal.submitted[0].Name)
}

func TestProcessSkipsFilteredAndFailed(t *testing.T) {
	store := session.NewMemoryStore()
	f := newFixture(store)
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, f.orch.Process(ctx, Input{ChatID: "5491100000000@s.whatsapp.net", Sender: "5491100000000", Text: "hola"}, sender))
	require.NoError(t, f.orch.Process(ctx, Input{Sender: number, Text: "hola"}, sender))
	assert.Empty(t, sender.sent)

	f.ai.err = errors.New("timeout")
	require.NoError(t, f.orch.Process(ctx, input("precios?"), sender))
	assert.Equal(t, apologyMessage, sender.last(input("").ChatID)[0].Text)

	st, err := store.Get(ctx, number)
	require.NoError(t, err)
	assert.True(t, st.IsZero())
}

func TestProcessSaveErrorApologizes(t *testing.T) {
	f := newFixture(failingStore{session.NewMemoryStore()})
	sender := &fakeSender{}

	require.NoError(t, f.orch.Process(context.Background(), input("qué precios tienen"), sender))
	replies := sender.last(input("").ChatID)
	require.Len(t, replies, 1)
	assert.Equal(t, apologyMessage, replies[0].Text)
}

func TestProcessKeepsArchiveWrittenMeanwhile(t *testing.T) {
	store := session.NewMemoryStore()
	f := newFixture(store)
	sender := &fakeSender{}
	ctx := context.Background()

	f.ai.onReply = func() {
		require.NoError(t, access.Archive(ctx, store, number, now))
	}

	require.NoError(t, f.orch.Process(ctx, input("qué precios tienen"), sender))

	st, err := store.Get(ctx, number)
	require.NoError(t, err)
	assert.True(t, access.IsArchived(st))
	require.NotNil(t, st.ChatState.LastArchived)
	assert.Len(t, st.History, 2)

	// El próximo mensaje ya se filtra
	require.NoError(t, f.orch.Process(ctx, input("hola?"), sender))
	assert.Len(t, sender.sent[input("").ChatID], 1)
}
