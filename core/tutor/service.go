package tutor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aulatech/aula/core"
)

// Service orchestrates one tutoring turn: classify the message, dispatch to
// the external text-generation or video-search call, parse the result, credit
// progress, and reply. All internal errors are converted to typed Reply
// values here; nothing escapes to the transport layer as a raw error.
type Service struct {
	sessions SessionStore
	limiter  *RateLimiter
	progress *ProgressBook
	parser   SectionParser
	gen      TextGenerator
	videos   VideoSearcher
	dir      Directory
	xp       ExperienceStore
	log      core.Logger

	retryCfg   RetryConfig
	genTimeout time.Duration
	nowFunc    func() time.Time // mockable
}

type Options struct {
	Sessions SessionStore
	Limiter  *RateLimiter
	Parser   SectionParser
	Gen      TextGenerator
	Videos   VideoSearcher
	Dir      Directory
	XP       ExperienceStore
	Logger   core.Logger
	Conf     *core.Config
}

func NewService(opts Options) *Service {
	svc := &Service{
		sessions: opts.Sessions,
		limiter:  opts.Limiter,
		progress: NewProgressBook(),
		parser:   opts.Parser,
		gen:      opts.Gen,
		videos:   opts.Videos,
		dir:      opts.Dir,
		xp:       opts.XP,
		log:      opts.Logger,
		retryCfg: RetryConfig{
			MaxRetries: opts.Conf.Tutor.MaxRetries,
			BaseDelay:  opts.Conf.Tutor.RetryBaseDelay,
			MaxDelay:   opts.Conf.Tutor.RetryMaxDelay,
		},
		genTimeout: opts.Conf.Tutor.GenerationTimeout,
		nowFunc:    time.Now,
	}
	if svc.parser == nil {
		svc.parser = NewMarkerParser()
	}
	if svc.sessions == nil {
		svc.sessions = NewMemorySessionStore()
	}
	if svc.limiter == nil {
		mem, ok := svc.sessions.(*MemorySessionStore)
		if !ok {
			panic("tutor: a RateLimiter is required for non-memory session stores")
		}
		svc.limiter = NewRateLimiter(opts.Conf.Tutor.RateLimitMax, opts.Conf.Tutor.RateLimitWindow, mem)
	}
	return svc
}

// Chat handles one user message and returns a structured Reply.
func (svc *Service) Chat(ctx context.Context, userID, message string) Reply {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{MessageType: MessageError, Status: http.StatusBadRequest, Error: "message is required"}
	}

	if !svc.limiter.Allow(userID) {
		wait := svc.limiter.WaitTime(userID)
		return Reply{
			MessageType: MessageRateLimited,
			Status:      http.StatusTooManyRequests,
			WaitMs:      wait.Milliseconds(),
			Text:        fmt.Sprintf("Has enviado demasiados mensajes. Intenta de nuevo en %d segundos.", int(wait.Seconds())+1),
		}
	}

	sess, release := svc.sessions.Acquire(userID)
	defer release()

	sess.AppendTurn(RoleUser, message, svc.nowFunc())

	var reply Reply
	switch ClassifyIntent(message, sess) {
	case IntentAnswerQuiz:
		reply = svc.answerQuiz(ctx, sess, message)
	case IntentStudyTopic:
		reply = svc.studyTopic(ctx, sess, message)
	case IntentRequestExamples:
		reply = svc.requestExamples(ctx, sess)
	case IntentRequestQuiz:
		reply = svc.requestQuiz(ctx, sess)
	case IntentRequestVideo:
		reply = svc.requestVideo(ctx, sess, message)
	case IntentStart:
		reply = svc.start(ctx, sess)
	default:
		reply = svc.freeForm(ctx, sess, message)
	}

	sess.AppendTurn(RoleAssistant, reply.Text, svc.nowFunc())
	return reply
}

func (svc *Service) start(ctx context.Context, sess *Session) Reply {
	summary, err := svc.dir.StudentSummary(ctx, sess.UserID)
	if err != nil {
		return svc.errorReply(sess.UserID, errors.Wrap(err, "loading student summary"))
	}
	docs, err := svc.dir.Documents(ctx, sess.UserID)
	if err != nil {
		return svc.errorReply(sess.UserID, errors.Wrap(err, "loading documents"))
	}
	if docs == nil {
		docs = make([]Document, 0)
	}

	topics := DefaultTopics(summary.CourseName)
	svc.progress.Init(sess.UserID, topics)
	sess.Started = true

	return Reply{
		MessageType: MessageWelcome,
		Text: fmt.Sprintf(
			"¡Hola %s! Soy tu tutor de %s. Elige un tema para estudiar, o pídeme ejemplos, un quiz o un video.",
			summary.Name, summary.CourseName,
		),
		Topics:    svc.progress.Topics(sess.UserID, topics),
		Documents: docs,
		Student:   &summary,
	}
}

func (svc *Service) studyTopic(ctx context.Context, sess *Session, message string) Reply {
	topic := TopicFromMessage(message)
	if topic == "" {
		return Reply{MessageType: MessageResponse, Text: "Indícame qué tema quieres estudiar."}
	}

	text, errReply := svc.generate(ctx, sess, topicPrompt(topic), nil)
	if errReply != nil {
		return *errReply
	}

	sess.CurrentTopic = topic
	svc.progress.Credit(sess.UserID, topic, PointsStudyTopic)
	svc.addExperience(ctx, sess.UserID, PointsStudyTopic)

	sections := svc.parser.ParseTopic(text)
	return Reply{
		MessageType: MessageTopic,
		Text:        text,
		Sections:    &sections,
	}
}

func (svc *Service) requestExamples(ctx context.Context, sess *Session) Reply {
	if sess.CurrentTopic == "" {
		return Reply{MessageType: MessageResponse, Text: "Primero elige un tema, así puedo darte ejemplos relevantes."}
	}

	text, errReply := svc.generate(ctx, sess, examplesPrompt(sess.CurrentTopic), nil)
	if errReply != nil {
		return *errReply
	}

	svc.progress.Credit(sess.UserID, sess.CurrentTopic, PointsExample)
	svc.addExperience(ctx, sess.UserID, PointsExample)

	return Reply{
		MessageType: MessageExamples,
		Text:        text,
		Examples:    svc.parser.ParseExamples(text),
	}
}

func (svc *Service) requestQuiz(ctx context.Context, sess *Session) Reply {
	if sess.CurrentTopic == "" {
		return Reply{MessageType: MessageResponse, Text: "Primero elige un tema, así puedo evaluarte sobre él."}
	}

	text, errReply := svc.generate(ctx, sess, quizPrompt(sess.CurrentTopic), nil)
	if errReply != nil {
		return *errReply
	}

	quiz, ok := svc.parser.ParseQuiz(text)
	if !ok {
		quiz = FallbackQuiz(sess.CurrentTopic)
	}
	quiz.IssuedAt = svc.nowFunc()
	sess.LastQuiz = &quiz

	return Reply{
		MessageType: MessageQuiz,
		Text:        quiz.Question,
		Quiz:        &QuizView{Question: quiz.Question, Options: quiz.Options},
	}
}

func (svc *Service) answerQuiz(ctx context.Context, sess *Session, message string) Reply {
	quiz := sess.LastQuiz
	answer := AnswerFromMessage(message)
	correct := answer == quiz.Correct

	points := PointsWrongAnswer
	if correct {
		points = PointsCorrectAnswer
	}
	if sess.CurrentTopic != "" {
		svc.progress.Credit(sess.UserID, sess.CurrentTopic, points)
	}
	total := svc.addExperience(ctx, sess.UserID, points)

	// consumed: answering is only possible against the most recent quiz
	sess.LastQuiz = nil

	text := fmt.Sprintf("Incorrecto. La respuesta correcta era %s. %s", quiz.Correct, quiz.Explanation)
	if correct {
		text = fmt.Sprintf("¡Correcto! %s", quiz.Explanation)
	}
	return Reply{
		MessageType: MessageQuizResponse,
		Text:        text,
		QuizResult: &QuizResult{
			Correct:       correct,
			CorrectAnswer: quiz.Correct,
			Explanation:   quiz.Explanation,
			Experience:    total,
		},
	}
}

func (svc *Service) requestVideo(ctx context.Context, sess *Session, message string) Reply {
	query := strings.TrimSpace(message)
	if sess.CurrentTopic != "" {
		query = sess.CurrentTopic
	}

	video, err := svc.videos.Search(ctx, query)
	if err != nil {
		if errors.Cause(err) == ErrNoResults {
			return Reply{MessageType: MessageResponse, Text: "No encontré videos sobre ese tema. Intenta con otra búsqueda."}
		}
		return svc.errorReply(sess.UserID, errors.Wrap(err, "searching video"))
	}

	if sess.CurrentTopic != "" {
		svc.progress.Credit(sess.UserID, sess.CurrentTopic, PointsVideo)
	}
	svc.addExperience(ctx, sess.UserID, PointsVideo)

	return Reply{
		MessageType: MessageVideo,
		Text:        video.Title,
		Video:       &video,
	}
}

func (svc *Service) freeForm(ctx context.Context, sess *Session, message string) Reply {
	// a bare option label with no active quiz is a stale answer, not a question
	if isAnswerLabel(strings.TrimSpace(message)) && sess.LastQuiz == nil {
		return Reply{MessageType: MessageResponse, Text: "No hay ninguna pregunta activa. Pídeme un quiz si quieres practicar."}
	}

	text, errReply := svc.generate(ctx, sess, freeFormPrompt(message, sess.CurrentTopic), sess.Turns)
	if errReply != nil {
		return *errReply
	}

	svc.addExperience(ctx, sess.UserID, PointsFreeForm)
	if sess.CurrentTopic != "" {
		svc.progress.Credit(sess.UserID, sess.CurrentTopic, PointsFreeForm)
	}

	return Reply{MessageType: MessageResponse, Text: text}
}

// generate wraps the text-generation call with the per-attempt timeout and
// the retry budget. On definitive failure it returns the Reply to surface.
func (svc *Service) generate(ctx context.Context, sess *Session, prompt string, history []Turn) (string, *Reply) {
	var out string
	err := Retry(ctx, svc.retryCfg, func(ctx context.Context) error {
		gctx, cancel := context.WithTimeout(ctx, svc.genTimeout)
		defer cancel()

		text, err := svc.gen.Generate(gctx, prompt, history)
		if err != nil {
			if gctx.Err() == context.DeadlineExceeded {
				return context.DeadlineExceeded
			}
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		reply := svc.errorReply(sess.UserID, errors.Wrap(err, "generating text"))
		return "", &reply
	}
	return out, nil
}

func (svc *Service) addExperience(ctx context.Context, userID string, points int) int {
	total, err := svc.xp.AddExperience(ctx, userID, points)
	if err != nil && svc.log != nil {
		svc.log.Error("incrementing experience", err)
	}
	return total
}

func (svc *Service) errorReply(userID string, err error) Reply {
	if svc.log != nil {
		svc.log.Error("tutor turn failed", err)
	}
	if errors.Cause(err) == ErrRateLimited {
		wait := svc.limiter.WaitTime(userID)
		return Reply{
			MessageType: MessageError,
			Status:      http.StatusTooManyRequests,
			WaitMs:      wait.Milliseconds(),
			Error:       "el servicio de generación está saturado",
			Text:        fmt.Sprintf("El tutor está saturado en este momento. Intenta de nuevo en unos %d segundos.", int(wait.Seconds())+1),
		}
	}
	return Reply{
		MessageType: MessageError,
		Status:      http.StatusInternalServerError,
		Error:       err.Error(),
		Text:        "No pude generar una respuesta en este momento. Intenta de nuevo.",
	}
}
