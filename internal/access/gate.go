package access

import (
	"strings"
)

// Los grupos de WhatsApp tienen @g.us en el id
const groupMarker = "@g.us"

// Gate decide qué mensajes entrantes se procesan
type Gate struct {
	allowed map[string]struct{}
	entries int
}

// NewGate arma el gate a partir de la lista de números autorizados
func NewGate(numbers []string) *Gate {
	g := &Gate{allowed: make(map[string]struct{}, len(numbers)*4)}
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		digits := Digits(n)
		if digits == "" {
			continue
		}
		if _, ok := seen[digits]; !ok {
			seen[digits] = struct{}{}
			g.entries++
		}
		// Cada entrada se guarda con todas sus variantes, igual que el remitente
		for _, v := range Variants(n) {
			g.allowed[v] = struct{}{}
		}
	}
	return g
}

// Admit rechaza grupos y números fuera de la lista
func (g *Gate) Admit(sender string, isGroup bool) bool {
	if isGroup {
		return false
	}
	for _, variant := range Variants(sender) {
		if _, ok := g.allowed[variant]; ok {
			return true
		}
	}
	return false
}

// Size cantidad de números distintos de la lista
func (g *Gate) Size() int {
	return g.entries
}

// IsGroupChat verifica si el id de conversación es de un grupo
func IsGroupChat(chatID string) bool {
	return strings.Contains(chatID, groupMarker)
}

// Clean deja sólo dígitos y un + inicial
func Clean(number string) string {
	number = strings.TrimSpace(number)
	var b strings.Builder
	for i, r := range number {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Variants genera las formas con y sin + del número. Para números
// argentinos (54) sin el 9 de celular agrega también la variante con 9.
func Variants(number string) []string {
	digits := strings.TrimPrefix(Clean(number), "+")
	if digits == "" {
		return nil
	}

	bases := []string{digits}
	if strings.HasPrefix(digits, "54") && !strings.HasPrefix(digits, "549") {
		bases = append(bases, "549"+digits[2:])
	}

	variants := make([]string, 0, len(bases)*2)
	for _, b := range bases {
		variants = append(variants, b, "+"+b)
	}
	return variants
}

// Digits número sin + ni separadores, usado como clave de sesión
func Digits(number string) string {
	return strings.TrimPrefix(Clean(number), "+")
}
