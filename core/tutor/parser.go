package tutor

import (
	"regexp"
	"strings"
)

// SectionParser extracts labeled fields from semi-structured generated text.
// The matching strategy sits behind this interface so it can be swapped (e.g.
// for a schema-constrained generation mode) without touching call sites.
//
// Parsing never fails outright: an absent marker yields an empty field. A quiz
// that yields fewer than four usable options is reported as not ok; callers
// must fall back to FallbackQuiz rather than surface a malformed quiz.
type SectionParser interface {
	ParseTopic(text string) TopicSections
	ParseExamples(text string) []Example
	ParseQuiz(text string) (Quiz, bool)
}

// markerParser matches the uppercase section markers the prompts instruct the
// model to emit. Accented and unaccented spellings are both accepted.
type markerParser struct{}

var _ SectionParser = markerParser{}

func NewMarkerParser() SectionParser { return markerParser{} }

var (
	topicMarkers = regexp.MustCompile(
		`(?m)^\s*(DEFINICI[OÓ]N|CONCEPTOS CLAVE|EXPLICACI[OÓ]N DETALLADA|EJEMPLO PR[AÁ]CTICO|APLICACIONES PR[AÁ]CTICAS|APLICACIONES)\s*:`)
	exampleMarkers = regexp.MustCompile(
		`(?m)^\s*(T[IÍ]TULO|PROBLEMA|SOLUCI[OÓ]N)\s*:`)
	workedMarkers = regexp.MustCompile(
		`(?m)^\s*(PROBLEMA|SOLUCI[OÓ]N|CONCLUSI[OÓ]N)\s*:`)
	quizMarkers = regexp.MustCompile(
		`(?m)^\s*(PREGUNTA|OPCIONES|RESPUESTA_CORRECTA|EXPLICACI[OÓ]N)\s*:`)

	exampleSplit = regexp.MustCompile(`(?m)^\s*EJEMPLO\s*\d*\s*:?\s*$`)
	optionLine   = regexp.MustCompile(`(?m)^\s*([A-D])\)\s*(.+)$`)
	answerLetter = regexp.MustCompile(`[A-D]`)
	listItem     = regexp.MustCompile(`(?m)^\s*[-*•]\s*(.+)$`)
)

func (markerParser) ParseTopic(text string) TopicSections {
	fields := splitSections(text, topicMarkers)

	var ts TopicSections
	ts.Definition = firstOf(fields, "DEFINICION", "DEFINICIÓN")
	ts.Explanation = firstOf(fields, "EXPLICACION DETALLADA", "EXPLICACIÓN DETALLADA")
	ts.Applications = firstOf(fields, "APLICACIONES PRACTICAS", "APLICACIONES PRÁCTICAS", "APLICACIONES")

	if concepts := firstOf(fields, "CONCEPTOS CLAVE"); concepts != "" {
		for _, m := range listItem.FindAllStringSubmatch(concepts, -1) {
			ts.KeyConcepts = append(ts.KeyConcepts, strings.TrimSpace(m[1]))
		}
		// no bullet list: keep the whole block as a single concept
		if ts.KeyConcepts == nil {
			ts.KeyConcepts = []string{concepts}
		}
	}

	if worked := firstOf(fields, "EJEMPLO PRACTICO", "EJEMPLO PRÁCTICO"); worked != "" {
		sub := splitSections(worked, workedMarkers)
		ts.Example = WorkedExample{
			Problem:    firstOf(sub, "PROBLEMA"),
			Solution:   firstOf(sub, "SOLUCION", "SOLUCIÓN"),
			Conclusion: firstOf(sub, "CONCLUSION", "CONCLUSIÓN"),
		}
		if ts.Example == (WorkedExample{}) {
			// unmarked block: keep it as the problem statement
			ts.Example.Problem = worked
		}
	}
	return ts
}

func (markerParser) ParseExamples(text string) []Example {
	var examples []Example
	for _, block := range exampleSplit.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		fields := splitSections(block, exampleMarkers)
		ex := Example{
			Title:    firstOf(fields, "TITULO", "TÍTULO"),
			Problem:  firstOf(fields, "PROBLEMA"),
			Solution: firstOf(fields, "SOLUCION", "SOLUCIÓN"),
		}
		if ex == (Example{}) {
			continue
		}
		examples = append(examples, ex)
	}
	return examples
}

// ParseQuiz extracts a four-option quiz. ok is false when fewer than four
// usable fields were found; callers fall back to FallbackQuiz then.
func (markerParser) ParseQuiz(text string) (Quiz, bool) {
	fields := splitSections(text, quizMarkers)

	var quiz Quiz
	quiz.Question = firstOf(fields, "PREGUNTA")
	quiz.Explanation = firstOf(fields, "EXPLICACION", "EXPLICACIÓN")

	var count int
	for _, m := range optionLine.FindAllStringSubmatch(text, -1) {
		idx := int(m[1][0] - 'A')
		if quiz.Options[idx] == "" {
			quiz.Options[idx] = strings.TrimSpace(m[2])
			count++
		}
	}

	if answer := firstOf(fields, "RESPUESTA_CORRECTA"); answer != "" {
		quiz.Correct = answerLetter.FindString(strings.ToUpper(answer))
	}

	ok := quiz.Question != "" && count == 4 && quiz.Correct != ""
	return quiz, ok
}

// FallbackQuiz is the synthetic placeholder returned when upstream quiz text
// fails to parse; it keeps the feature available despite unreliable upstream
// formatting.
func FallbackQuiz(topic string) Quiz {
	if topic == "" {
		topic = "el tema actual"
	}
	return Quiz{
		Question: "¿Cuál es el concepto más importante de " + topic + "?",
		Options: [4]string{
			"La definición fundamental",
			"Las aplicaciones prácticas",
			"Los ejemplos resueltos",
			"Todas las anteriores",
		},
		Correct:     "D",
		Explanation: "Repasa el tema: todos estos aspectos se complementan entre sí.",
		Fallback:    true,
	}
}

// splitSections cuts text into marker-labeled chunks. Markers are normalized
// to their unaccented uppercase spelling plus the accented variant as found.
func splitSections(text string, markers *regexp.Regexp) map[string]string {
	fields := make(map[string]string)
	locs := markers.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		name := text[loc[2]:loc[3]]
		start := loc[1]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fields[name] = strings.TrimSpace(text[start:end])
	}
	return fields
}

func firstOf(fields map[string]string, names ...string) string {
	for _, name := range names {
		if v, ok := fields[name]; ok && v != "" {
			return v
		}
	}
	return ""
}
