package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"barberbot/internal/session"
)

const (
	fallbackReply = "¿Podrías repetir eso?"
	maxReplyRunes = 500
)

// Gemini asistente basado en Gemini; se crea una vez por proceso
type Gemini struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewGemini inicializa el cliente de Gemini AI
func NewGemini(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY no configurada")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creando cliente Gemini: %w", err)
	}

	logger.Info("✅ Gemini AI inicializado correctamente", zap.String("model", modelName))
	return &Gemini{client: client, modelName: modelName, logger: logger}, nil
}

// model arma un modelo con su propia instrucción de sistema; es barato y
// evita compartir estado mutable entre conversaciones
func (g *Gemini) model(system string, temperature float32) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(GEMINI_MAX_TOKENS))
	model.SetTopP(float32(GEMINI_TOP_P))
	model.SetTopK(int32(GEMINI_TOP_K))
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	return model
}

// GenerateReply responde al último mensaje del historial
func (g *Gemini) GenerateReply(ctx context.Context, customerName string, history []session.Message) (string, error) {
	if len(history) == 0 {
		return "", errors.New("historial vacío")
	}
	last := history[len(history)-1]
	if last.Role != session.RoleUser {
		return "", errors.New("el último mensaje del historial no es del usuario")
	}

	cs := g.model(SystemPrompt(customerName), GEMINI_TEMPERATURE).StartChat()
	cs.History = toContents(history[:len(history)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("error generando respuesta: %w", err)
	}

	reply := cleanReply(responseText(resp), history)
	g.logger.Debug("💬 Respuesta generada", zap.String("customer", customerName), zap.String("reply", reply))
	return reply, nil
}

// ClassifyIntent decide si un primer mensaje va al asistente o al saludo general.
// Si Gemini falla se usa el análisis por palabras clave.
func (g *Gemini) ClassifyIntent(ctx context.Context, history []session.Message) (Intent, error) {
	resp, err := g.model(INTENT_PROMPT, 0).GenerateContent(ctx, genai.Text(transcript(history)))
	if err != nil {
		g.logger.Warn("⚠️  Error en clasificación, usando fallback", zap.Error(err))
		return fallbackIntent(history), nil
	}

	intent, ok := parseIntent(responseText(resp))
	if !ok {
		g.logger.Warn("⚠️  Clasificación no reconocida, usando fallback")
		return fallbackIntent(history), nil
	}

	g.logger.Info("📊 Intención detectada", zap.String("intent", string(intent)))
	return intent, nil
}

// Health verifica que Gemini esté respondiendo
func (g *Gemini) Health(ctx context.Context) bool {
	_, err := g.model(SYSTEM_PROMPT, 0).GenerateContent(ctx, genai.Text("test"))
	return err == nil
}

// Close libera el cliente
func (g *Gemini) Close() error {
	return g.client.Close()
}

func toContents(history []session.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func transcript(history []session.Message) string {
	var sb strings.Builder
	for _, msg := range history {
		who := "Cliente"
		if msg.Role == session.RoleAssistant {
			who = "Asistente"
		}
		fmt.Fprintf(&sb, "%s: %s\n", who, msg.Content)
	}
	return sb.String()
}

// cleanReply quita saludos repetidos y limita el largo
func cleanReply(reply string, history []session.Message) string {
	reply = strings.TrimSpace(reply)

	if greeted(history) {
		for _, phrase := range []string{"¡Hola!", "Hola", "¡Bienvenido!", "Bienvenido"} {
			if strings.HasPrefix(reply, phrase) {
				reply = strings.TrimLeft(strings.TrimSpace(reply[len(phrase):]), ",! ")
			}
		}
	}

	if runes := []rune(reply); len(runes) > maxReplyRunes {
		reply = strings.TrimSpace(string(runes[:maxReplyRunes-50])) + "..."
	}

	if reply == "" {
		return fallbackReply
	}
	return reply
}

func greeted(history []session.Message) bool {
	for _, msg := range history {
		if strings.Contains(strings.ToLower(msg.Content), "hola") {
			return true
		}
	}
	return false
}

func parseIntent(text string) (Intent, bool) {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, string(IntentChatbot)):
		return IntentChatbot, true
	case strings.Contains(text, string(IntentGeneral)):
		return IntentGeneral, true
	}
	return "", false
}

// fallbackIntent análisis simple sin Gemini
func fallbackIntent(history []session.Message) Intent {
	if len(history) == 0 {
		return IntentGeneral
	}
	lowerMessage := strings.ToLower(history[len(history)-1].Content)
	keywords := []string{"cita", "agendar", "turno", "reservar", "corte", "afeitado", "barba", "precio", "horario", "servicio"}

	for _, keyword := range keywords {
		if strings.Contains(lowerMessage, keyword) {
			return IntentChatbot
		}
	}
	return IntentGeneral
}
