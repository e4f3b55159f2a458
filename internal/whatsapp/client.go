package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"barberbot/internal/access"
	"barberbot/internal/chat"
	"barberbot/internal/logging"
	"barberbot/internal/session"
)

const maxMediaBytes = 5 << 20

// Processor procesa cada mensaje entrante
type Processor interface {
	Process(ctx context.Context, in chat.Input, sender chat.Sender) error
}

// Client conexión con WhatsApp Web
type Client struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	store     session.Store
	http      *http.Client
	logger    *zap.Logger
	queues    *chatQueues
}

// NewClient abre la base de datos del dispositivo y prepara el cliente.
// whatsmeow necesita las foreign keys habilitadas en el dsn.
func NewClient(ctx context.Context, dsn string, store session.Store, logger *zap.Logger) (*Client, error) {
	container, err := sqlstore.New(ctx, "sqlite3", dsn, logging.WhatsApp(logger, "Database"))
	if err != nil {
		return nil, fmt.Errorf("error abriendo base de WhatsApp: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo dispositivo: %w", err)
	}

	return &Client{
		client:    whatsmeow.NewClient(device, logging.WhatsApp(logger, "Client")),
		container: container,
		store:     store,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
		queues:    newChatQueues(),
	}, nil
}

// Connect conecta a WhatsApp; la primera vez muestra el QR en la terminal
func (c *Client) Connect(ctx context.Context) error {
	if c.client.Store.ID != nil {
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("error conectando: %w", err)
		}
		c.logger.Info("✅ WhatsApp conectado", zap.String("jid", c.client.Store.ID.String()))
		return nil
	}

	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("error obteniendo canal QR: %w", err)
	}
	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("error conectando: %w", err)
	}

	for item := range qrChan {
		switch item.Event {
		case "code":
			c.logger.Info("📱 Escaneá el código QR con WhatsApp")
			qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, os.Stdout)
		case "success":
			c.logger.Info("✅ Dispositivo vinculado")
			return nil
		default:
			c.logger.Info("📱 Evento de vinculación", zap.String("event", item.Event))
		}
	}
	return errors.New("no se pudo vincular el dispositivo")
}

// Start registra el manejador de eventos. whatsmeow entrega los eventos en
// orden; cada mensaje entra a la cola de su chat.
func (c *Client) Start(ctx context.Context, processor Processor) {
	c.client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			in, ok := toInput(v)
			if !ok {
				return
			}
			c.dispatch(ctx, processor, in)
		case *events.Archive:
			c.handleArchive(ctx, v)
		case *events.Connected:
			c.logger.Info("🟢 Conectado a WhatsApp")
		case *events.Disconnected:
			c.logger.Warn("🟡 Desconectado de WhatsApp")
		case *events.LoggedOut:
			c.logger.Error("🔴 Sesión cerrada desde el teléfono", zap.String("reason", v.Reason.String()))
		}
	})
}

// dispatch encola el mensaje; no bloquea al manejador de eventos
func (c *Client) dispatch(ctx context.Context, processor Processor, in chat.Input) {
	c.queues.enqueue(in.ChatID, func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("🔴 Panic procesando mensaje", zap.Any("panic", r), zap.String("chat", in.ChatID))
			}
		}()

		if err := processor.Process(ctx, in, c); err != nil {
			c.logger.Error("❌ Error enviando mensaje", zap.Error(err), zap.String("chat", in.ChatID))
		}
	})
}

func (c *Client) handleArchive(ctx context.Context, evt *events.Archive) {
	key, ok := archiveKey(evt)
	if !ok {
		return
	}

	archived := evt.Action.GetArchived()
	var err error
	if archived {
		err = access.Archive(ctx, c.store, key, evt.Timestamp)
	} else {
		err = access.Unarchive(ctx, c.store, key, evt.Timestamp)
	}
	if err != nil {
		c.logger.Error("❌ Error actualizando archivo", zap.Error(err), zap.String("chat", key))
		return
	}
	c.logger.Info("📂 Estado de archivo actualizado", zap.String("chat", key), zap.Bool("archived", archived))
}

// Send envía las respuestas en orden
func (c *Client) Send(ctx context.Context, chatID string, replies []chat.Reply) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("jid inválido %q: %w", chatID, err)
	}

	for _, reply := range replies {
		msg, err := c.build(ctx, reply)
		if err != nil {
			return err
		}
		if _, err := c.client.SendMessage(ctx, jid, msg); err != nil {
			return fmt.Errorf("error enviando mensaje: %w", err)
		}
	}
	return nil
}

// build arma el mensaje; si la imagen no se puede subir se manda sólo el texto
func (c *Client) build(ctx context.Context, reply chat.Reply) (*waE2E.Message, error) {
	if reply.MediaURL == "" {
		return &waE2E.Message{Conversation: proto.String(reply.Text)}, nil
	}

	image, err := c.uploadImage(ctx, reply.MediaURL, reply.Text)
	if err != nil {
		c.logger.Warn("⚠️  No se pudo adjuntar la imagen", zap.Error(err), zap.String("url", reply.MediaURL))
		return &waE2E.Message{Conversation: proto.String(reply.Text)}, nil
	}
	return &waE2E.Message{ImageMessage: image}, nil
}

func (c *Client) uploadImage(ctx context.Context, url, caption string) (*waE2E.ImageMessage, error) {
	data, mimetype, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	uploaded, err := c.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return nil, fmt.Errorf("error subiendo imagen: %w", err)
	}

	return &waE2E.ImageMessage{
		URL:           proto.String(uploaded.URL),
		DirectPath:    proto.String(uploaded.DirectPath),
		MediaKey:      uploaded.MediaKey,
		FileEncSHA256: uploaded.FileEncSHA256,
		FileSHA256:    uploaded.FileSHA256,
		FileLength:    proto.Uint64(uploaded.FileLength),
		Mimetype:      proto.String(mimetype),
		Caption:       proto.String(caption),
	}, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error creando request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("error descargando imagen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("imagen respondió status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("error leyendo imagen: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// Close desconecta y cierra la base del dispositivo
func (c *Client) Close() error {
	c.client.Disconnect()
	return c.container.Close()
}
