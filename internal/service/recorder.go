package service

// Engagement actions reported to a Recorder.
const (
	ActionPostCreated = "post_created"
	ActionPostDeleted = "post_deleted"
	ActionLike        = "like"
	ActionUnlike      = "unlike"
	ActionShare       = "share"
	ActionFollow      = "follow"
	ActionUnfollow    = "unfollow"
)

// Recorder receives engagement and media events for metrics.
type Recorder interface {
	Engagement(action string)
	MediaReleaseFailures(n int)
}

type nopRecorder struct{}

func (nopRecorder) Engagement(string)        {}
func (nopRecorder) MediaReleaseFailures(int) {}

func orNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
