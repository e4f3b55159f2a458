package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Zone zona con offset fijo de Argentina (-03:00), sin base de zonas horarias
var Zone = time.FixedZone("-03:00", -3*60*60)

// CanonicalLayout formato ISO con offset fijo
const CanonicalLayout = "2006-01-02T15:04:05-07:00"

var weekdays = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}

// Todas las expresiones corren sobre texto normalizado (minúsculas, sin acentos)
var (
	reDayAfterTomorrow = regexp.MustCompile(`pasado\s*manana|despues\s*de\s*manana`)
	reTomorrow         = regexp.MustCompile(`\bmanana\b`)
	reToday            = regexp.MustCompile(`\bhoy\b`)
	reDate             = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	reTime             = regexp.MustCompile(`\b(\d{1,2})(?:[:h.](\d{2}))?\s*(am|pm|hs|hrs|h)?\b`)

	reMorning   = regexp.MustCompile(`de\s+la\s+manana|temprano|a\s*la\s*manana`)
	reAfternoon = regexp.MustCompile(`de\s+la\s+tarde`)
	reNight     = regexp.MustCompile(`de\s+la\s+noche`)
)

// Moment resultado de un parseo
type Moment struct {
	Time      time.Time
	Canonical string
	Display   string
	// HasTime es false cuando sólo se reconoció el día
	HasTime bool
	// DayOffset es el día nombrado con palabra clave (hoy/mañana/pasado mañana)
	DayOffset *int
}

// Minute minutos del momento parseado
func (m Moment) Minute() int {
	return m.Time.Minute()
}

// Canonical formatea t en el offset fijo
func Canonical(t time.Time) string {
	return t.In(Zone).Format(CanonicalLayout)
}

// Display formatea t para el usuario: "lun 25/08/2025 14:00"
func Display(t time.Time) string {
	t = t.In(Zone)
	return fmt.Sprintf("%s %s", weekdays[t.Weekday()], t.Format("02/01/2006 15:04"))
}

func newMoment(t time.Time, hasTime bool, offset *int) Moment {
	return Moment{
		Time:      t,
		Canonical: Canonical(t),
		Display:   Display(t),
		HasTime:   hasTime,
		DayOffset: offset,
	}
}

// dayKeyword busca hoy/mañana/pasado mañana. Las frases de franja horaria
// ("a la mañana") se quitan antes para que no cuenten como "mañana".
func dayKeyword(text string) (int, bool) {
	text = reMorning.ReplaceAllString(text, " ")
	switch {
	case reDayAfterTomorrow.MatchString(text):
		return 2, true
	case reTomorrow.MatchString(text):
		return 1, true
	case reToday.MatchString(text):
		return 0, true
	}
	return 0, false
}

// DayOffset devuelve el día nombrado en el texto, si lo hay
func DayOffset(text string) (int, bool) {
	return dayKeyword(Normalize(text))
}

// Parse interpreta fechas y horas en español relativas a ref.
// defaultDayOffset se usa cuando el texto no nombra ningún día.
func Parse(text string, ref time.Time, defaultDayOffset *int) (Moment, bool) {
	t := Normalize(text)
	if strings.TrimSpace(t) == "" {
		return Moment{}, false
	}

	base := ref.In(Zone)
	year, month, day := base.Date()

	offset, keyword := dayKeyword(t)
	var keywordOffset *int

	if dm := reDate.FindStringSubmatch(t); dm != nil {
		day, _ = strconv.Atoi(dm[1])
		m, _ := strconv.Atoi(dm[2])
		month = time.Month(m)
		if dm[3] != "" {
			year, _ = strconv.Atoi(dm[3])
			if len(dm[3]) == 2 {
				year += 2000
			}
		}
		// La fecha no debe confundirse con una hora
		t = strings.Replace(t, dm[0], " ", 1)
	} else if keyword {
		day += offset
		keywordOffset = &offset
	} else if defaultDayOffset != nil {
		day += *defaultDayOffset
	}

	hour, minute, found := scanTime(t)
	if !found {
		if keyword || defaultDayOffset != nil {
			moment := time.Date(year, month, day, base.Hour(), base.Minute(), 0, 0, Zone)
			return newMoment(moment, false, keywordOffset), true
		}
		return Moment{}, false
	}

	moment := time.Date(year, month, day, hour, minute, 0, 0, Zone)
	return newMoment(moment, true, keywordOffset), true
}

// scanTime toma la primera hora del texto y la normaliza a 24hs
func scanTime(t string) (int, int, bool) {
	hm := reTime.FindStringSubmatch(t)
	if hm == nil {
		return 0, 0, false
	}

	hour, _ := strconv.Atoi(hm[1])
	minute := 0
	if hm[2] != "" {
		minute, _ = strconv.Atoi(hm[2])
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}

	switch suffix := hm[3]; {
	case suffix == "am":
		if hour == 12 {
			hour = 0
		}
	case suffix == "pm":
		if hour >= 1 && hour <= 11 {
			hour += 12
		}
	case reAfternoon.MatchString(t) || reNight.MatchString(t):
		if hour >= 1 && hour <= 11 {
			hour += 12
		}
	case reMorning.MatchString(t):
		if hour == 12 {
			hour = 0
		}
	default:
		// En la barbería una hora baja sin aclarar casi siempre es de tarde
		if hour >= 1 && hour <= 8 {
			hour += 12
		}
	}
	return hour, minute, true
}
