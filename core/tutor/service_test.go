package tutor

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulatech/aula/core"
)

const (
	cannedTopicText = `DEFINICIÓN:
La derivada mide la tasa de cambio de una función.

CONCEPTOS CLAVE:
- Límite
- Pendiente

EXPLICACIÓN DETALLADA:
Se calcula como el límite del cociente incremental.

EJEMPLO PRÁCTICO:
PROBLEMA: Derivar f(x) = x².
SOLUCIÓN: f'(x) = 2x.
CONCLUSIÓN: La pendiente crece con x.

APLICACIONES PRÁCTICAS:
Física y economía.`

	cannedQuizText = `PREGUNTA: ¿Cuánto es 2+2?
OPCIONES:
A) 3
B) 4
C) 5
D) 6
RESPUESTA_CORRECTA: B
EXPLICACIÓN: Aritmética básica.`

	cannedExamplesText = `EJEMPLO 1:
TÍTULO: Velocidad
PROBLEMA: s(t) = t², hallar v(3).
SOLUCIÓN: v(t) = 2t, v(3) = 6.

EJEMPLO 2:
TÍTULO: Costo marginal
PROBLEMA: C(q) = 5q².
SOLUCIÓN: C'(q) = 10q.`
)

type genFunc func(ctx context.Context, prompt string, history []Turn) (string, error)

func (f genFunc) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	return f(ctx, prompt, history)
}

// cannedGen answers each prompt kind with well-formed canned text.
func cannedGen() genFunc {
	return func(ctx context.Context, prompt string, history []Turn) (string, error) {
		switch {
		case strings.Contains(prompt, "RESPUESTA_CORRECTA"):
			return cannedQuizText, nil
		case strings.Contains(prompt, "CONCEPTOS CLAVE"):
			return cannedTopicText, nil
		case strings.Contains(prompt, "EJEMPLO 1"):
			return cannedExamplesText, nil
		default:
			return "Respuesta libre del tutor.", nil
		}
	}
}

type fakeVideos struct {
	video   Video
	err     error
	queries []string
}

func (f *fakeVideos) Search(ctx context.Context, query string) (Video, error) {
	f.queries = append(f.queries, query)
	return f.video, f.err
}

type fakeDirectory struct {
	summary StudentSummary
	docs    []Document
	err     error
}

func (f *fakeDirectory) StudentSummary(ctx context.Context, studentID string) (StudentSummary, error) {
	return f.summary, f.err
}

func (f *fakeDirectory) Documents(ctx context.Context, studentID string) ([]Document, error) {
	return f.docs, f.err
}

type fakeXP struct {
	mu     sync.Mutex
	totals map[string]int
}

func newFakeXP() *fakeXP { return &fakeXP{totals: make(map[string]int)} }

func (f *fakeXP) AddExperience(ctx context.Context, studentID string, points int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[studentID] += points
	return f.totals[studentID], nil
}

func (f *fakeXP) total(studentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[studentID]
}

func tutorTestConf() *core.Config {
	conf := &core.Config{}
	conf.Tutor = core.TutorConfig{
		RateLimitMax:      5,
		RateLimitWindow:   time.Minute,
		MaxRetries:        3,
		RetryBaseDelay:    time.Millisecond,
		RetryMaxDelay:     4 * time.Millisecond,
		GenerationTimeout: time.Second,
	}
	return conf
}

func newTestService(gen TextGenerator, videos VideoSearcher, xp *fakeXP) *Service {
	return NewService(Options{
		Gen:    gen,
		Videos: videos,
		Dir: &fakeDirectory{
			summary: StudentSummary{ID: "u1", Name: "Ana", CourseName: "Cálculo", Experience: 0},
			docs:    []Document{{ID: "d1", Title: "Apuntes de límites", MediaType: "application/pdf"}},
		},
		XP:   xp,
		Conf: tutorTestConf(),
	})
}

func TestChatWelcome(t *testing.T) {
	svc := newTestService(cannedGen(), &fakeVideos{}, newFakeXP())

	reply := svc.Chat(context.Background(), "u1", "hola")

	assert.Equal(t, MessageWelcome, reply.MessageType)
	assert.Contains(t, reply.Text, "Ana")
	assert.Contains(t, reply.Text, "Cálculo")
	require.NotNil(t, reply.Student)
	assert.Equal(t, "u1", reply.Student.ID)
	require.Len(t, reply.Documents, 1)

	require.Len(t, reply.Topics, 5)
	assert.Equal(t, "Introducción a Cálculo", reply.Topics[0].Name)
	for _, topic := range reply.Topics {
		assert.Zero(t, topic.Progress.Percent)
	}
}

func TestChatStudyTopic(t *testing.T) {
	xp := newFakeXP()
	svc := newTestService(cannedGen(), &fakeVideos{}, xp)

	reply := svc.Chat(context.Background(), "u1", "STUDY_TOPIC:Derivadas")

	assert.Equal(t, MessageTopic, reply.MessageType)
	require.NotNil(t, reply.Sections)
	assert.Contains(t, reply.Sections.Definition, "tasa de cambio")
	assert.Equal(t, []string{"Límite", "Pendiente"}, reply.Sections.KeyConcepts)
	assert.Equal(t, PointsStudyTopic, xp.total("u1"))

	assert.Equal(t, PointsStudyTopic, svc.progress.Topics("u1", nil)[0].Progress.Percent)
}

func TestChatQuizFlow(t *testing.T) {
	xp := newFakeXP()
	svc := newTestService(cannedGen(), &fakeVideos{}, xp)
	ctx := context.Background()

	svc.Chat(ctx, "u1", "STUDY_TOPIC:Derivadas")
	before := xp.total("u1")

	reply := svc.Chat(ctx, "u1", "hazme un quiz")
	require.Equal(t, MessageQuiz, reply.MessageType)
	require.NotNil(t, reply.Quiz)
	assert.Equal(t, [4]string{"3", "4", "5", "6"}, reply.Quiz.Options)

	reply = svc.Chat(ctx, "u1", "b")
	require.Equal(t, MessageQuizResponse, reply.MessageType)
	require.NotNil(t, reply.QuizResult)
	assert.True(t, reply.QuizResult.Correct)
	assert.Equal(t, "B", reply.QuizResult.CorrectAnswer)
	assert.Equal(t, before+PointsCorrectAnswer, reply.QuizResult.Experience)

	// the quiz is consumed: a second letter is no longer an answer
	reply = svc.Chat(ctx, "u1", "B")
	assert.Equal(t, MessageResponse, reply.MessageType)
	assert.Equal(t, before+PointsCorrectAnswer, xp.total("u1"), "stale answer awards nothing")
}

func TestChatQuizWrongAnswer(t *testing.T) {
	xp := newFakeXP()
	svc := newTestService(cannedGen(), &fakeVideos{}, xp)
	ctx := context.Background()

	svc.Chat(ctx, "u1", "STUDY_TOPIC:Derivadas")
	svc.Chat(ctx, "u1", "quiz")
	before := xp.total("u1")

	reply := svc.Chat(ctx, "u1", "C")

	require.Equal(t, MessageQuizResponse, reply.MessageType)
	assert.False(t, reply.QuizResult.Correct)
	assert.Equal(t, "B", reply.QuizResult.CorrectAnswer)
	assert.Equal(t, before+PointsWrongAnswer, xp.total("u1"), "attempting still earns points")
}

func TestChatQuizFallback(t *testing.T) {
	gen := genFunc(func(ctx context.Context, prompt string, history []Turn) (string, error) {
		if strings.Contains(prompt, "RESPUESTA_CORRECTA") {
			return "lo siento, no pude generar la pregunta", nil
		}
		return cannedTopicText, nil
	})
	svc := newTestService(gen, &fakeVideos{}, newFakeXP())
	ctx := context.Background()

	svc.Chat(ctx, "u1", "STUDY_TOPIC:Derivadas")
	reply := svc.Chat(ctx, "u1", "quiz")

	require.Equal(t, MessageQuiz, reply.MessageType)
	require.NotNil(t, reply.Quiz)
	assert.Contains(t, reply.Quiz.Question, "Derivadas", "fallback quiz still targets the topic")

	// the fallback quiz is answerable
	reply = svc.Chat(ctx, "u1", "D")
	require.Equal(t, MessageQuizResponse, reply.MessageType)
	assert.True(t, reply.QuizResult.Correct)
}

func TestChatAnswerWithoutActiveQuiz(t *testing.T) {
	xp := newFakeXP()
	svc := newTestService(cannedGen(), &fakeVideos{}, xp)

	reply := svc.Chat(context.Background(), "u1", "B")

	assert.Equal(t, MessageResponse, reply.MessageType)
	assert.Contains(t, reply.Text, "pregunta activa")
	assert.Zero(t, xp.total("u1"), "no experience for a stale answer")
}

func TestChatExamplesRequireTopic(t *testing.T) {
	var called bool
	gen := genFunc(func(ctx context.Context, prompt string, history []Turn) (string, error) {
		called = true
		return cannedExamplesText, nil
	})
	svc := newTestService(gen, &fakeVideos{}, newFakeXP())

	reply := svc.Chat(context.Background(), "u1", "dame ejemplos")

	assert.Equal(t, MessageResponse, reply.MessageType)
	assert.False(t, called, "no generation before a topic is chosen")
}

func TestChatExamples(t *testing.T) {
	xp := newFakeXP()
	svc := newTestService(cannedGen(), &fakeVideos{}, xp)
	ctx := context.Background()

	svc.Chat(ctx, "u1", "STUDY_TOPIC:Derivadas")
	before := xp.total("u1")

	reply := svc.Chat(ctx, "u1", "dame ejemplos")

	require.Equal(t, MessageExamples, reply.MessageType)
	require.Len(t, reply.Examples, 2)
	assert.Equal(t, "Velocidad", reply.Examples[0].Title)
	assert.Equal(t, before+PointsExample, xp.total("u1"))
}

func TestChatVideo(t *testing.T) {
	xp := newFakeXP()
	videos := &fakeVideos{video: Video{Provider: "youtube", ID: "abc123", Title: "Derivadas en 10 minutos"}}
	svc := newTestService(cannedGen(), videos, xp)
	ctx := context.Background()

	svc.Chat(ctx, "u1", "STUDY_TOPIC:Derivadas")
	before := xp.total("u1")

	reply := svc.Chat(ctx, "u1", "muéstrame un video")

	require.Equal(t, MessageVideo, reply.MessageType)
	require.NotNil(t, reply.Video)
	assert.Equal(t, "abc123", reply.Video.ID)
	assert.Equal(t, []string{"Derivadas"}, videos.queries, "active topic drives the search")
	assert.Equal(t, before+PointsVideo, xp.total("u1"))
}

func TestChatVideoNoResults(t *testing.T) {
	videos := &fakeVideos{err: ErrNoResults}
	svc := newTestService(cannedGen(), videos, newFakeXP())

	reply := svc.Chat(context.Background(), "u1", "video de derivadas")

	assert.Equal(t, MessageResponse, reply.MessageType)
	assert.Contains(t, reply.Text, "No encontré videos")
}

func TestChatFreeForm(t *testing.T) {
	xp := newFakeXP()
	svc := newTestService(cannedGen(), &fakeVideos{}, xp)

	reply := svc.Chat(context.Background(), "u1", "¿para qué sirven las derivadas?")

	assert.Equal(t, MessageResponse, reply.MessageType)
	assert.Equal(t, "Respuesta libre del tutor.", reply.Text)
	assert.Equal(t, PointsFreeForm, xp.total("u1"))
}

func TestChatRateLimited(t *testing.T) {
	conf := tutorTestConf()
	conf.Tutor.RateLimitMax = 2
	svc := NewService(Options{
		Gen:    cannedGen(),
		Videos: &fakeVideos{},
		Dir:    &fakeDirectory{summary: StudentSummary{Name: "Ana", CourseName: "Cálculo"}},
		XP:     newFakeXP(),
		Conf:   conf,
	})
	ctx := context.Background()

	svc.Chat(ctx, "u1", "hola")
	svc.Chat(ctx, "u1", "¿qué es un límite?")
	reply := svc.Chat(ctx, "u1", "¿y una derivada?")

	assert.Equal(t, MessageRateLimited, reply.MessageType)
	assert.Equal(t, http.StatusTooManyRequests, reply.Status)
	assert.Greater(t, reply.WaitMs, int64(0))

	// other users are unaffected
	assert.Equal(t, MessageWelcome, svc.Chat(ctx, "u2", "hola").MessageType)
}

func TestChatGenerationSaturated(t *testing.T) {
	stubSleep(t)

	var calls int
	gen := genFunc(func(ctx context.Context, prompt string, history []Turn) (string, error) {
		calls++
		return "", errors.Wrap(ErrRateLimited, "upstream 429")
	})
	svc := newTestService(gen, &fakeVideos{}, newFakeXP())

	reply := svc.Chat(context.Background(), "u1", "STUDY_TOPIC:Derivadas")

	assert.Equal(t, MessageError, reply.MessageType)
	assert.Equal(t, http.StatusTooManyRequests, reply.Status)
	assert.Equal(t, 4, calls, "initial attempt plus the retry budget")
}

func TestChatGenerationFailure(t *testing.T) {
	gen := genFunc(func(ctx context.Context, prompt string, history []Turn) (string, error) {
		return "", errors.New("connection refused")
	})
	svc := newTestService(gen, &fakeVideos{}, newFakeXP())

	reply := svc.Chat(context.Background(), "u1", "STUDY_TOPIC:Derivadas")

	assert.Equal(t, MessageError, reply.MessageType)
	assert.Equal(t, http.StatusInternalServerError, reply.Status)
	assert.NotEmpty(t, reply.Error)
}

func TestChatEmptyMessage(t *testing.T) {
	svc := newTestService(cannedGen(), &fakeVideos{}, newFakeXP())

	reply := svc.Chat(context.Background(), "u1", "   ")

	assert.Equal(t, MessageError, reply.MessageType)
	assert.Equal(t, http.StatusBadRequest, reply.Status)
}

func TestChatRecordsTurns(t *testing.T) {
	svc := newTestService(cannedGen(), &fakeVideos{}, newFakeXP())

	svc.Chat(context.Background(), "u1", "hola")
	svc.Chat(context.Background(), "u1", "¿qué es un límite?")

	sess, release := svc.sessions.Acquire("u1")
	defer release()
	require.Len(t, sess.Turns, 4)
	assert.Equal(t, RoleUser, sess.Turns[0].Role)
	assert.Equal(t, RoleAssistant, sess.Turns[1].Role)
	assert.Equal(t, "hola", sess.Turns[0].Text)
}
