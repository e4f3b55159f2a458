package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"barberbot/internal/session"
)

// Booking datos que se mandan a Make para agendar el turno
type Booking struct {
	ID        string            `json:"bookingId"`
	From      string            `json:"from"`
	Message   string            `json:"message"`
	History   []session.Message `json:"history,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Name      string            `json:"name,omitempty"`
	StartDate string            `json:"startDate,omitempty"`
}

// Availability resultado de la consulta de disponibilidad
type Availability struct {
	Available bool
	Raw       []byte
}

// calendarRow cada fila que devuelve el escenario de Make
type calendarRow struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// Client habla con los webhooks de Make
type Client struct {
	addURL string
	getURL string
	http   *http.Client
	logger *zap.Logger
}

// NewClient crea el cliente. Cualquier URL vacía desactiva esa operación.
func NewClient(addURL, getURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		addURL: addURL,
		getURL: getURL,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// CheckAvailability consulta los turnos tomados y verifica que startDate esté libre.
// Sin webhook configurado se asume disponible.
func (c *Client) CheckAvailability(ctx context.Context, startDate string) (Availability, error) {
	if c.getURL == "" {
		c.logger.Warn("⚠️  MAKE_GET_FROM_CALENDAR no configurado, se asume disponibilidad")
		return Availability{Available: true}, nil
	}

	c.logger.Info("📅 Consultando disponibilidad", zap.String("startDate", startDate))
	body, err := c.post(ctx, c.getURL, nil)
	if err != nil {
		return Availability{}, fmt.Errorf("error consultando disponibilidad: %w", err)
	}

	var rows []calendarRow
	if len(bytes.TrimSpace(body)) > 0 {
		// El escenario puede responder texto plano; eso cuenta como calendario vacío
		if err := json.Unmarshal(body, &rows); err != nil {
			c.logger.Warn("⚠️  Respuesta de disponibilidad no es JSON", zap.Error(err))
		}
	}

	target := strings.TrimSpace(startDate)
	found := false
	for _, r := range rows {
		if strings.TrimSpace(r.Date) == target {
			found = true
			break
		}
	}

	c.logger.Info("📊 Disponibilidad recibida",
		zap.Int("count", len(rows)),
		zap.Bool("available", !found),
		zap.String("startDate", startDate),
	)
	return Availability{Available: !found, Raw: body}, nil
}

// SubmitBooking manda la reserva a Make
func (c *Client) SubmitBooking(ctx context.Context, booking Booking) error {
	if c.addURL == "" {
		c.logger.Warn("⚠️  MAKE_ADD_TO_CALENDAR no configurado, no se envía la reserva")
		return nil
	}

	payload, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("error serializando reserva: %w", err)
	}

	c.logger.Info("📤 Enviando reserva a Make",
		zap.String("bookingId", booking.ID),
		zap.String("startDate", booking.StartDate),
	)
	if _, err := c.post(ctx, c.addURL, payload); err != nil {
		return fmt.Errorf("error enviando reserva: %w", err)
	}
	c.logger.Info("✅ Reserva enviada a Make", zap.String("bookingId", booking.ID))
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
