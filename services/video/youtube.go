package videosvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/tutor"
)

// Service finds the best educational video match for a query on YouTube.
type Service struct {
	yt *youtube.Service
}

var _ tutor.VideoSearcher = (*Service)(nil)

func NewService(ctx context.Context, conf *core.Config) (*Service, error) {
	yt, err := youtube.NewService(ctx, option.WithAPIKey(conf.YouTube.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating youtube client")
	}
	return &Service{yt: yt}, nil
}

func (svc *Service) Search(ctx context.Context, query string) (tutor.Video, error) {
	res, err := svc.yt.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(query + " tutorial").
		Type("video").
		SafeSearch("strict").
		MaxResults(1).
		Do()
	if err != nil {
		return tutor.Video{}, errors.Wrap(err, "searching videos")
	}
	if len(res.Items) == 0 {
		return tutor.Video{}, tutor.ErrNoResults
	}

	item := res.Items[0]
	video := tutor.Video{
		Provider:    "youtube",
		ID:          item.Id.VideoId,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
	}
	if thumbs := item.Snippet.Thumbnails; thumbs != nil && thumbs.Medium != nil {
		video.Thumbnail = thumbs.Medium.Url
	}
	return video, nil
}
