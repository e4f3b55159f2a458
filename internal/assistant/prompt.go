package assistant

import (
	"fmt"
	"sort"
	"strings"
)

// Configuración de Gemini
const (
	GEMINI_TEMPERATURE = 0.7
	GEMINI_MAX_TOKENS  = 1024
	GEMINI_TOP_P       = 0.9
	GEMINI_TOP_K       = 40
)

// Servicios de la barbería y su precio en pesos
var SERVICES = map[string]int{
	"Corte de pelo":          8000,
	"Corte de pelo y barba": 9000,
}

// Intent destino de un primer mensaje
type Intent string

const (
	IntentChatbot Intent = "chatbot"
	IntentGeneral Intent = "general"
)

const SYSTEM_PROMPT = `Como asistente virtual de ventas para Unblessed Barbershop, tu principal responsabilidad es utilizar la información de la BASE_DE_DATOS para responder a las consultas de los clientes y persuadirlos para que soliciten un turno.
------
BASE_DE_DATOS="{context}"
------
NOMBRE_DEL_CLIENTE="{customer_name}"

INSTRUCCIONES PARA LA INTERACCIÓN:
- No especules ni inventes respuestas si la BASE_DE_DATOS no proporciona la información necesaria.
- Si no tienes la respuesta, pide amablemente que reformule su pregunta.

DIRECTRICES PARA RESPONDER AL CLIENTE:
- Tu objetivo principal es que el cliente pida un turno indicando día y horario (ej: "mañana 14hs").
- Utiliza el NOMBRE_DEL_CLIENTE para personalizar tus respuestas.
- No sugerirás ni promocionarás otras barberías.
- Evita decir "Hola", usa el NOMBRE_DEL_CLIENTE directamente.
- Usa emojis ocasionalmente (✂️💈😊).
- Respuestas CORTAS ideales para WhatsApp, menos de 300 caracteres.`

const INTENT_PROMPT = `Analiza el mensaje del cliente de una barbería y clasifícalo.

Responde "chatbot" si el cliente pregunta por servicios, precios, horarios, turnos, cortes o barba, o quiere agendar.
Responde "general" si es sólo un saludo o un mensaje sin relación con la barbería.

RESPONDE ÚNICAMENTE con una palabra: chatbot o general.`

// priceList arma la BASE_DE_DATOS con los servicios
func priceList() string {
	names := make([]string, 0, len(SERVICES))
	for name := range SERVICES {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s, precio $%d (pesos)", name, SERVICES[name]))
	}
	return strings.Join(lines, "\n")
}

// SystemPrompt personaliza el prompt con el nombre del cliente
func SystemPrompt(customerName string) string {
	return strings.NewReplacer(
		"{customer_name}", customerName,
		"{context}", priceList(),
	).Replace(SYSTEM_PROMPT)
}
