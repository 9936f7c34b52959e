package models

import "time"

// ArticleContent is the synthesized article derived from the resolved
// acquisition outcomes. It does not exist for a batch with zero resolved
// items.
type ArticleContent struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

// Publish statuses.
const (
	PublishCreated = "created"
	PublishUpdated = "updated"
	PublishFailed  = "failed"
)

// PublishResult describes what happened at the CMS.
type PublishResult struct {
	PostID     int       `json:"post_id"`
	URL        string    `json:"url,omitempty"`
	Status     string    `json:"status"`
	ModifiedAt time.Time `json:"modified_at"`
}
