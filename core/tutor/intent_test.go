package tutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	withQuiz := &Session{LastQuiz: &Quiz{Correct: "B"}}
	noQuiz := &Session{}

	tests := []struct {
		name    string
		message string
		sess    *Session
		want    Intent
	}{
		{"answer label with active quiz", "B", withQuiz, IntentAnswerQuiz},
		{"lowercase answer label with active quiz", " c ", withQuiz, IntentAnswerQuiz},
		{"answer label without active quiz", "B", noQuiz, IntentFreeForm},
		{"answer label with nil session", "B", nil, IntentFreeForm},
		{"topic marker", "STUDY_TOPIC:Derivadas", noQuiz, IntentStudyTopic},
		{"topic marker beats keywords", "STUDY_TOPIC:Ejemplos de quiz", noQuiz, IntentStudyTopic},
		{"bare topic marker", "STUDY_TOPIC:", withQuiz, IntentStudyTopic},
		{"example keyword", "dame un ejemplo", noQuiz, IntentRequestExamples},
		{"example beats quiz keyword", "ejemplos de preguntas del quiz", noQuiz, IntentRequestExamples},
		{"quiz keyword", "hazme una pregunta", noQuiz, IntentRequestQuiz},
		{"quiz keyword accented", "quiero una evaluación", noQuiz, IntentRequestQuiz},
		{"quiz beats video keyword", "un quiz sobre este video", noQuiz, IntentRequestQuiz},
		{"video keyword", "muéstrame un video", noQuiz, IntentRequestVideo},
		{"video keyword accented", "busca un vídeo en youtube", noQuiz, IntentRequestVideo},
		{"start keyword", "hola", noQuiz, IntentStart},
		{"start keyword embedded", "quiero empezar", noQuiz, IntentStart},
		{"free form", "¿qué es una derivada?", noQuiz, IntentFreeForm},
		{"empty message", "", noQuiz, IntentFreeForm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.message, tt.sess))
		})
	}
}

func TestTopicFromMessage(t *testing.T) {
	assert.Equal(t, "Derivadas", TopicFromMessage("STUDY_TOPIC:Derivadas"))
	assert.Equal(t, "Conceptos básicos", TopicFromMessage("  STUDY_TOPIC:  Conceptos básicos  "))
	assert.Empty(t, TopicFromMessage("Derivadas"))
	assert.Empty(t, TopicFromMessage("STUDY_TOPIC:"))
}

func TestAnswerFromMessage(t *testing.T) {
	assert.Equal(t, "B", AnswerFromMessage(" b "))
	assert.Equal(t, "D", AnswerFromMessage("D"))
}
