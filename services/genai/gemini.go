package genaisvc

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/tutor"
)

// Service generates tutoring text through the Gemini API. A primary model is
// tried first; when it is unavailable (404) the fallback model answers the
// same request. Upstream 429s surface as tutor.ErrRateLimited so callers can
// retry on their own schedule.
type Service struct {
	client        *genai.Client
	model         string
	fallbackModel string
	logger        core.Logger
}

var _ tutor.TextGenerator = (*Service)(nil)

func NewService(ctx context.Context, conf *core.Config, logger core.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}
	return &Service{
		client:        client,
		model:         conf.Gemini.Model,
		fallbackModel: conf.Gemini.FallbackModel,
		logger:        logger,
	}, nil
}

func (svc *Service) Generate(ctx context.Context, prompt string, history []tutor.Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == tutor.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
		TopP:        genai.Ptr[float32](0.8),
		TopK:        genai.Ptr[float32](40),
	}

	resp, err := svc.client.Models.GenerateContent(ctx, svc.model, contents, cfg)
	if isModelNotFound(err) && svc.fallbackModel != "" {
		if svc.logger != nil {
			svc.logger.Info("model unavailable, answering with fallback", "model", svc.model, "fallback", svc.fallbackModel)
		}
		resp, err = svc.client.Models.GenerateContent(ctx, svc.fallbackModel, contents, cfg)
	}
	if err != nil {
		return "", classify(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty generation response")
	}
	return text, nil
}

func isModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	return stderrors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func classify(err error) error {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return errors.Wrap(tutor.ErrRateLimited, apiErr.Message)
	}
	return errors.Wrap(err, "generating content")
}
