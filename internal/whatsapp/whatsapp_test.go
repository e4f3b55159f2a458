package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"barberbot/internal/chat"
)

func message(chatJID, sender types.JID, msg *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: chatJID, Sender: sender},
			PushName:      "Juan",
		},
		Message: msg,
	}
}

func TestToInput(t *testing.T) {
	user := types.NewJID("5491128571905", types.DefaultUserServer)

	in, ok := toInput(message(user, user, &waE2E.Message{Conversation: proto.String("mañana 14hs")}))
	require.True(t, ok)
	assert.Equal(t, chat.Input{
		ChatID:      "5491128571905@s.whatsapp.net",
		Sender:      "5491128571905",
		Text:        "mañana 14hs",
		DisplayName: "Juan",
	}, in)

	ext := &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("precios?")}}
	in, ok = toInput(message(user, user, ext))
	require.True(t, ok)
	assert.Equal(t, "precios?", in.Text)

	group := types.NewJID("120363025246125888", types.GroupServer)
	in, ok = toInput(message(group, user, &waE2E.Message{Conversation: proto.String("hola")}))
	require.True(t, ok)
	assert.True(t, in.IsGroup)
}

func TestToInputSkips(t *testing.T) {
	user := types.NewJID("5491128571905", types.DefaultUserServer)

	own := message(user, user, &waE2E.Message{Conversation: proto.String("hola")})
	own.Info.IsFromMe = true
	_, ok := toInput(own)
	assert.False(t, ok)

	_, ok = toInput(message(user, user, &waE2E.Message{}))
	assert.False(t, ok)

	_, ok = toInput(message(user, user, nil))
	assert.False(t, ok)

	_, ok = toInput(nil)
	assert.False(t, ok)
}

func TestArchiveKey(t *testing.T) {
	key, ok := archiveKey(&events.Archive{JID: types.NewJID("5491128571905", types.DefaultUserServer)})
	assert.True(t, ok)
	assert.Equal(t, "5491128571905", key)

	_, ok = archiveKey(&events.Archive{JID: types.NewJID("120363025246125888", types.GroupServer)})
	assert.False(t, ok)
}

type recordingProcessor struct {
	mu      sync.Mutex
	texts   []string
	running int32
	overlap bool
	done    chan struct{}
	want    int
}

func (p *recordingProcessor) Process(_ context.Context, in chat.Input, _ chat.Sender) error {
	if atomic.AddInt32(&p.running, 1) > 1 {
		p.overlap = true
	}
	time.Sleep(100 * time.Microsecond)
	atomic.AddInt32(&p.running, -1)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, in.Text)
	if len(p.texts) == p.want {
		close(p.done)
	}
	return nil
}

func TestDispatchKeepsArrivalOrder(t *testing.T) {
	for run := 0; run < 200; run++ {
		c := &Client{logger: zap.NewNop(), queues: newChatQueues()}
		p := &recordingProcessor{done: make(chan struct{}), want: 3}

		for _, text := range []string{"mañana", "14hs", "si"} {
			c.dispatch(context.Background(), p, chat.Input{ChatID: "5491128571905@s.whatsapp.net", Text: text})
		}

		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatal("los mensajes no se procesaron")
		}
		require.Equal(t, []string{"mañana", "14hs", "si"}, p.texts)
		require.False(t, p.overlap)
		require.Eventually(t, func() bool { return c.queues.size() == 0 }, time.Second, time.Millisecond)
	}
}

func TestChatQueuesIndependentChats(t *testing.T) {
	queues := newChatQueues()
	release := make(chan struct{})
	queues.enqueue("a", func() { <-release })

	done := make(chan struct{})
	queues.enqueue("b", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el chat b quedó bloqueado por el chat a")
	}
	close(release)
	require.Eventually(t, func() bool { return queues.size() == 0 }, time.Second, time.Millisecond)
}

func TestDispatchSurvivesPanic(t *testing.T) {
	c := &Client{logger: zap.NewNop(), queues: newChatQueues()}
	c.dispatch(context.Background(), panicProcessor{}, chat.Input{ChatID: "a", Text: "hola"})

	p := &recordingProcessor{done: make(chan struct{}), want: 1}
	c.dispatch(context.Background(), p, chat.Input{ChatID: "a", Text: "sigue"})

	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("la cola se detuvo después del panic")
	}
	assert.Equal(t, []string{"sigue"}, p.texts)
}

type panicProcessor struct{}

func (panicProcessor) Process(context.Context, chat.Input, chat.Sender) error {
	panic("boom")
}

func TestFetch(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	c := &Client{http: srv.Client(), logger: zap.NewNop()}

	data, mimetype, err := c.fetch(context.Background(), srv.URL+"/local.png")
	require.NoError(t, err)
	assert.Equal(t, png, data)
	assert.Equal(t, "image/png", mimetype)

	_, _, err = c.fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestBuildTextOnly(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	msg, err := c.build(context.Background(), chat.Reply{Text: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "hola", msg.GetConversation())
}
