package booking

// Mensajes que manda la máquina de turnos
const (
	askTime          = "¡Perfecto! ¿A qué hora te queda bien %s? ⏰ Tomamos turnos en punto o y media (ej: 14:00 o 14:30)."
	askValidTime     = "Por ahora sólo damos turnos en punto o y media ⏰ ¿Te sirve %02d:00 o %02d:30?"
	askConfirmation  = "¿Confirmás el turno para el %s? Respondé sí o no 🙂"
	askRestate       = "Dale, decime qué día y horario te queda mejor 📅"
	askName          = "¡Genial! ¿A nombre de quién agendo el turno? ✂️"
	replyUnavailable = "Uy, el %s ya no está disponible 😕 ¿Querés probar con otro día u horario?"
	replyBooked      = "✅ ¡Listo %s! Tu turno quedó agendado para el %s. ¡Te esperamos en Unblessed Barbershop! 💈"
)
