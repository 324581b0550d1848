package tutor

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Reply message types.
const (
	MessageWelcome      = "welcome"
	MessageTopic        = "topic"
	MessageExamples     = "examples"
	MessageQuiz         = "quiz"
	MessageQuizResponse = "quiz_response"
	MessageVideo        = "video"
	MessageResponse     = "response"
	MessageError        = "error"
	MessageRateLimited  = "rate_limited"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrRateLimited signals an upstream too-many-requests rejection from the
	// text generation API. It is retryable.
	ErrRateLimited = errors.New("text generation rate limited")

	// ErrNoResults signals an empty video search.
	ErrNoResults = errors.New("no videos found")
)

type (
	// TextGenerator produces plain text for a prompt, optionally conditioned
	// on prior conversation turns. It may fail with ErrRateLimited or a
	// context deadline.
	TextGenerator interface {
		Generate(ctx context.Context, prompt string, history []Turn) (string, error)
	}

	// VideoSearcher returns the best single match for a query, or ErrNoResults.
	VideoSearcher interface {
		Search(ctx context.Context, query string) (Video, error)
	}

	// Directory surfaces the read-only reference data shown in welcome
	// replies: who the student is and which study documents they can reach.
	Directory interface {
		StudentSummary(ctx context.Context, studentID string) (StudentSummary, error)
		Documents(ctx context.Context, studentID string) ([]Document, error)
	}

	// ExperienceStore persists the aggregate experience counter.
	ExperienceStore interface {
		AddExperience(ctx context.Context, studentID string, points int) (int, error)
	}
)

// Turn is one conversational exchange entry.
type Turn struct {
	Role string    `json:"role"` // "user" | "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Quiz is the last-issued quiz for a user; answering is only possible against
// the most recently issued one.
type Quiz struct {
	Question    string    `json:"question"`
	Options     [4]string `json:"options"`
	Correct     string    `json:"correct"` // "A".."D"
	Explanation string    `json:"explanation"`
	Fallback    bool      `json:"fallback"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Session is the per-user conversational state. It lives in process memory
// only and is discarded on restart.
type Session struct {
	UserID       string
	Turns        []Turn
	CurrentTopic string
	LastQuiz     *Quiz
	Started      bool

	requests []time.Time // rate window, managed by RateLimiter
}

// Progress tracks how far a user is through one topic.
// Invariant: Completed iff Percent == 100.
type Progress struct {
	Percent   int  `json:"percent"`
	Completed bool `json:"completed"`
}

// TopicStatus pairs a topic name with the user's progress in it.
type TopicStatus struct {
	Name     string   `json:"name"`
	Progress Progress `json:"progress"`
}

// Document is a study material descriptor surfaced to the session; the
// orchestrator never mutates these.
type Document struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Topics    []string `json:"topics,omitempty"`
	MediaType string   `json:"type"`
	URL       string   `json:"url,omitempty"`
}

// StudentSummary is the student snapshot included in welcome replies.
type StudentSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CourseName string `json:"course"`
	Experience int    `json:"experience"`
}

// TopicSections is the structured explanation extracted from generated text.
// Any section whose marker was absent is empty; parsing never fails outright.
type TopicSections struct {
	Definition   string        `json:"definition"`
	KeyConcepts  []string      `json:"key_concepts"`
	Explanation  string        `json:"explanation"`
	Example      WorkedExample `json:"example"`
	Applications string        `json:"applications"`
}

// WorkedExample is the problem/solution/conclusion block of a topic explanation.
type WorkedExample struct {
	Problem    string `json:"problem"`
	Solution   string `json:"solution"`
	Conclusion string `json:"conclusion"`
}

// Example is one worked example in an examples reply.
type Example struct {
	Title    string `json:"title"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

// QuizView is the quiz as shown to the user: the correct answer is withheld.
type QuizView struct {
	Question string    `json:"question"`
	Options  [4]string `json:"options"`
}

// QuizResult reports a graded answer.
type QuizResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Experience    int    `json:"experience"`
}

// Video is the best match returned by a video search.
type Video struct {
	Provider    string `json:"provider"`
	ID          string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Reply is the orchestrator's structured answer, discriminated by MessageType.
type Reply struct {
	MessageType string         `json:"messageType"`
	Text        string         `json:"text,omitempty"`
	Topics      []TopicStatus  `json:"topics,omitempty"`
	Documents   []Document     `json:"documents,omitempty"`
	Student     *StudentSummary `json:"student,omitempty"`
	Sections    *TopicSections `json:"sections,omitempty"`
	Examples    []Example      `json:"examples,omitempty"`
	Quiz        *QuizView      `json:"quiz,omitempty"`
	QuizResult  *QuizResult    `json:"quizResult,omitempty"`
	Video       *Video         `json:"video,omitempty"`
	Error       string         `json:"error,omitempty"`
	Status      int            `json:"status,omitempty"`
	WaitMs      int64          `json:"waitTimeMs,omitempty"`
}
