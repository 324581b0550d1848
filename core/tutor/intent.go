package tutor

import (
	"strings"
)

// Intent is the classified purpose of a user message.
type Intent int

const (
	IntentFreeForm Intent = iota
	IntentStart
	IntentAnswerQuiz
	IntentStudyTopic
	IntentRequestExamples
	IntentRequestQuiz
	IntentRequestVideo
)

func (i Intent) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentAnswerQuiz:
		return "answer_quiz"
	case IntentStudyTopic:
		return "study_topic"
	case IntentRequestExamples:
		return "request_examples"
	case IntentRequestQuiz:
		return "request_quiz"
	case IntentRequestVideo:
		return "request_video"
	default:
		return "free_form"
	}
}

// TopicMarker prefixes an explicit topic selection, e.g. "STUDY_TOPIC:Derivadas".
const TopicMarker = "STUDY_TOPIC:"

var (
	exampleKeywords = []string{"ejemplo", "ejemplos", "example"}
	quizKeywords    = []string{"quiz", "pregunta", "pregúntame", "evaluación", "evaluacion", "test"}
	videoKeywords   = []string{"video", "vídeo", "youtube"}
	startKeywords   = []string{"inicio", "empezar", "comenzar", "hola"}

	answerLabels = []string{"A", "B", "C", "D"}
)

// ClassifyIntent classifies a raw message against the session state.
// Classification is first-match-wins over a fixed priority order: quiz answer
// (only when a quiz is active), explicit topic marker, example keywords, quiz
// keywords, video keywords, start keywords, free-form fallback. Keyword
// ambiguity (a message naming both "video" and "quiz") is resolved by this
// order alone; do not reorder.
func ClassifyIntent(message string, sess *Session) Intent {
	msg := strings.TrimSpace(message)

	if sess != nil && sess.LastQuiz != nil && isAnswerLabel(msg) {
		return IntentAnswerQuiz
	}
	if strings.HasPrefix(msg, TopicMarker) {
		return IntentStudyTopic
	}

	lower := strings.ToLower(msg)
	if containsAny(lower, exampleKeywords) {
		return IntentRequestExamples
	}
	if containsAny(lower, quizKeywords) {
		return IntentRequestQuiz
	}
	if containsAny(lower, videoKeywords) {
		return IntentRequestVideo
	}
	if containsAny(lower, startKeywords) {
		return IntentStart
	}
	return IntentFreeForm
}

// TopicFromMessage extracts the topic name following the topic marker.
func TopicFromMessage(message string) string {
	msg := strings.TrimSpace(message)
	if !strings.HasPrefix(msg, TopicMarker) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(msg, TopicMarker))
}

// AnswerFromMessage normalizes a quiz answer message to its option label.
func AnswerFromMessage(message string) string {
	return strings.ToUpper(strings.TrimSpace(message))
}

func isAnswerLabel(msg string) bool {
	up := strings.ToUpper(msg)
	for _, l := range answerLabels {
		if up == l {
			return true
		}
	}
	return false
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
