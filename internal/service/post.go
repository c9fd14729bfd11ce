package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/socialfeed/internal/domain"
)

// MaxContentLength bounds post content and share thoughts, in bytes.
const MaxContentLength = 5000

// PostService creates and deletes posts.
type PostService struct {
	posts    domain.PostRepository
	media    domain.MediaRelay
	recorder Recorder
	timeouts Timeouts
}

// NewPostService creates a new PostService.
func NewPostService(posts domain.PostRepository, media domain.MediaRelay, recorder Recorder, timeouts Timeouts) *PostService {
	return &PostService{posts: posts, media: media, recorder: orNop(recorder), timeouts: timeouts}
}

// CreatePost publishes a post by callerID. media must hold post images
// the caller uploaded through the media relay.
func (s *PostService) CreatePost(ctx context.Context, callerID, content string, media []string) (*domain.Post, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}

	content = strings.TrimSpace(content)
	var fields []domain.FieldError
	switch {
	case content == "":
		fields = append(fields, domain.FieldError{Field: "content", Message: "content is required"})
	case len(content) > MaxContentLength:
		fields = append(fields, domain.FieldError{Field: "content", Message: fmt.Sprintf("content exceeds %d characters", MaxContentLength)})
	}
	if len(media) > MaxPostMedia {
		fields = append(fields, domain.FieldError{Field: "media", Message: fmt.Sprintf("at most %d media items", MaxPostMedia)})
	}
	for _, u := range media {
		if !ownsMedia(s.media, callerID, domain.FolderPosts, u) {
			fields = append(fields, domain.FieldError{Field: "media", Message: "media must be images you uploaded: " + u})
			break
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	post := &domain.Post{
		AuthorID: callerID,
		Content:  content,
		Media:    append([]string{}, media...),
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", transient(err))
	}

	s.recorder.Engagement(ActionPostCreated)
	return post, nil
}

// DeleteReport lists media that could not be released while deleting a
// post. The post record is gone regardless.
type DeleteReport struct {
	Leaked []MediaFailure
}

// DeletePost removes the caller's post after releasing its media. Share
// posts only reference the original's media, so nothing is released for
// them; assets another original post still references are kept too.
func (s *PostService) DeletePost(ctx context.Context, callerID, postID string) (*DeleteReport, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}

	storeCtx, cancel := bounded(ctx, s.timeouts.Store)
	post, err := s.posts.GetByID(storeCtx, postID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("get post: %w", transient(err))
	}
	if post.AuthorID != callerID {
		return nil, domain.ErrForbidden
	}

	release, err := s.releasable(ctx, post)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{Leaked: ReleaseMedia(ctx, s.media, release)}
	if n := len(report.Leaked); n > 0 {
		s.recorder.MediaReleaseFailures(n)
		slog.Warn("media release failed; assets leaked",
			"post_id", postID, "assets", leakedIDs(report.Leaked), "error", errors.Join(failureErrs(report.Leaked)...))
	}

	storeCtx, cancel = bounded(ctx, s.timeouts.Store)
	defer cancel()
	if err := s.posts.Delete(storeCtx, postID); err != nil {
		return nil, fmt.Errorf("delete post: %w", transient(err))
	}

	s.recorder.Engagement(ActionPostDeleted)
	return report, nil
}

// releasable lists the media of post that can be released once it is gone.
func (s *PostService) releasable(ctx context.Context, post *domain.Post) ([]string, error) {
	if post.IsShare() {
		return nil, nil
	}
	owned := ownedMedia(s.media, post.AuthorID, post.Media)
	if len(owned) == 0 {
		return nil, nil
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()
	inUse, err := s.posts.MediaInUse(ctx, post.ID, owned)
	if err != nil {
		return nil, fmt.Errorf("check media references: %w", transient(err))
	}

	var release []string
	for _, u := range owned {
		if !inUse.Has(u) {
			release = append(release, u)
		}
	}
	return release, nil
}

func failureErrs(failed []MediaFailure) []error {
	errs := make([]error, len(failed))
	for i, f := range failed {
		errs[i] = f.Err
	}
	return errs
}
