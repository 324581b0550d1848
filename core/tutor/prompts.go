package tutor

import "fmt"

// Prompts instruct the model to answer with the uppercase section markers
// markerParser extracts. Keep prompts and parser in sync.

func topicPrompt(topic string) string {
	return fmt.Sprintf(`Eres un tutor académico para estudiantes universitarios.
Explica el tema "%s" usando EXACTAMENTE este formato, con los marcadores en mayúsculas:

DEFINICIÓN:
(una definición breve y precisa)

CONCEPTOS CLAVE:
- (concepto 1)
- (concepto 2)
- (concepto 3)

EXPLICACIÓN DETALLADA:
(explicación paso a paso)

EJEMPLO PRÁCTICO:
PROBLEMA:
(enunciado)
SOLUCIÓN:
(desarrollo)
CONCLUSIÓN:
(cierre del ejemplo)

APLICACIONES PRÁCTICAS:
(dónde se usa este tema en la vida real)`, topic)
}

func examplesPrompt(topic string) string {
	return fmt.Sprintf(`Eres un tutor académico. Da 2 ejemplos resueltos del tema "%s".
Usa EXACTAMENTE este formato para cada uno:

EJEMPLO 1:
TÍTULO:
(nombre corto)
PROBLEMA:
(enunciado)
SOLUCIÓN:
(desarrollo paso a paso)

EJEMPLO 2:
TÍTULO:
(nombre corto)
PROBLEMA:
(enunciado)
SOLUCIÓN:
(desarrollo paso a paso)`, topic)
}

func quizPrompt(topic string) string {
	return fmt.Sprintf(`Eres un tutor académico. Genera UNA pregunta de opción múltiple sobre "%s".
Usa EXACTAMENTE este formato:

PREGUNTA:
(enunciado de la pregunta)

OPCIONES:
A) (opción A)
B) (opción B)
C) (opción C)
D) (opción D)

RESPUESTA_CORRECTA: (una sola letra A, B, C o D)

EXPLICACIÓN:
(por qué esa es la respuesta correcta)`, topic)
}

func freeFormPrompt(message, topic string) string {
	if topic != "" {
		return fmt.Sprintf(`Eres un tutor académico para estudiantes universitarios. El estudiante está estudiando "%s".
Responde de forma clara y breve la siguiente pregunta. Si no está relacionada con el curso, pide amablemente que se reformule.

Pregunta del estudiante: %q`, topic, message)
	}
	return fmt.Sprintf(`Eres un tutor académico para estudiantes universitarios.
Responde de forma clara y breve la siguiente pregunta. Si no está relacionada con el curso, pide amablemente que se reformule.

Pregunta del estudiante: %q`, message)
}

// DefaultTopics derives the starter topic list for a course.
func DefaultTopics(courseName string) []string {
	if courseName == "" {
		courseName = "la asignatura"
	}
	return []string{
		"Introducción a " + courseName,
		"Conceptos básicos de " + courseName,
		"Aplicaciones prácticas",
		"Ejemplos y casos de estudio",
		"Conclusiones y resumen",
	}
}
