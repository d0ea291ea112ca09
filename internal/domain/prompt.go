package domain

import (
	"fmt"
	"strings"
	"time"
)

const noPreviousAnalysis = "Sin análisis previo disponible."

// categoryGuides tells the model what each required category must cover.
var categoryGuides = map[string]string{
	CategoryAgenda: "Presentá el EVENTO DESTACADO DE HOY tal como figura en los datos verificados y sumá " +
		"recomendaciones prácticas para asistir. No inventes otros eventos con fecha u hora concretas.",
	CategoryWeather: "Pronóstico orientativo para hoy y para mañana con consejos prácticos " +
		"(abrigo, hidratación, precauciones en la ruta).",
	CategoryEconomy: "Tendencias del dólar blue/CCL y de precios locales, sin cifras exactas. " +
		"Compará con el ANÁLISIS DEL DÍA ANTERIOR cuando exista y cerrá con un consejo de ahorro para un vecino.",
	CategoryPhones: "Copiá el SERVICIO DE TURNO textualmente, respetando sus enlaces, y agregá los ENLACES ÚTILES " +
		"como lista Markdown de la forma [etiqueta](url).",
}

// PromptCompiler turns a ReportRequest into the instruction text sent to the
// text-generation service. Compile is a pure function of the request and
// the compiler's civil zone.
type PromptCompiler struct {
	loc *time.Location
}

// NewPromptCompiler returns a compiler that computes "today" and
// "tomorrow" in loc. A nil loc means UTC.
func NewPromptCompiler(loc *time.Location) *PromptCompiler {
	if loc == nil {
		loc = time.UTC
	}
	return &PromptCompiler{loc: loc}
}

// Compile builds the prompt. Verified locality data is embedded verbatim so
// the model is never asked to invent it.
func (c *PromptCompiler) Compile(req ReportRequest) string {
	l := req.Context
	now := req.GeneratedAt.In(c.loc)

	var b strings.Builder

	fmt.Fprintf(&b, "Sos el \"Asesor Público Digital\" de %s. Tu tarea es escribir el informe diario, breve y útil, para los vecinos de la localidad.\n\n", l.FullName())
	fmt.Fprintf(&b, "FECHA DE HOY: %s\n", SpanishDate(CivilToday(now, c.loc)))
	fmt.Fprintf(&b, "FECHA DE MAÑANA: %s\n", SpanishDate(CivilTomorrow(now, c.loc)))
	fmt.Fprintf(&b, "HORA LOCAL: %s\n\n", now.Format("15:04"))

	b.WriteString("DATOS VERIFICADOS (usalos textualmente, no los modifiques ni inventes otros):\n\n")
	fmt.Fprintf(&b, "EVENTO DESTACADO DE HOY:\n%s\n\n", strings.TrimSpace(l.HighlightedEvent))
	fmt.Fprintf(&b, "SERVICIO DE TURNO:\n%s\n\n", strings.TrimSpace(l.OnDutyServiceText))
	if len(l.Links) > 0 {
		b.WriteString("ENLACES ÚTILES:\n")
		for _, link := range l.Links {
			fmt.Fprintf(&b, "- [%s](%s)\n", link.Label, link.URL)
		}
		b.WriteString("\n")
	}

	summary := strings.TrimSpace(req.PreviousDaySummary)
	if summary == "" {
		summary = noPreviousAnalysis
	}
	fmt.Fprintf(&b, "ANÁLISIS DEL DÍA ANTERIOR:\n%s\n\n", summary)

	b.WriteString("CATEGORÍAS REQUERIDAS (exactamente estas cuatro, en este orden y con estos nombres exactos):\n")
	for i, name := range requiredCategories {
		fmt.Fprintf(&b, "%d. \"%s\": %s\n", i+1, name, categoryGuides[name])
	}
	b.WriteString("\n")

	b.WriteString("FORMATO DE RESPUESTA:\n")
	b.WriteString("- Respondé ÚNICAMENTE con un objeto JSON válido. Nada de saludos, introducciones ni texto antes o después del JSON.\n")
	b.WriteString("- No envuelvas el JSON en bloques de código Markdown.\n")
	b.WriteString("- El campo \"content\" de cada categoría es texto Markdown; los enlaces van como [etiqueta](url).\n")
	b.WriteString("- Estructura exacta:\n")
	fmt.Fprintf(&b, "{\n  \"title\": \"Informe diario de %s\",\n  \"lastUpdated\": \"<fecha y hora ISO-8601>\",\n  \"categories\": [\n", l.DisplayName)
	for i, name := range requiredCategories {
		sep := ","
		if i == len(requiredCategories)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    {\"name\": \"%s\", \"content\": \"<Markdown>\"}%s\n", name, sep)
	}
	b.WriteString("  ]\n}\n")

	return b.String()
}
