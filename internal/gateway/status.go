package gateway

import (
	"context"
	"time"

	"github.com/mahaj/chatify/pkg/model"
	"github.com/mahaj/chatify/pkg/snowflake"
)

const statusBucket = "status"

// Active subscribes to posts created at or after since, newest first.
// The cutoff is fixed for the life of the subscription: a post aging past
// it stays visible until the subscription is re-issued. The snowflake ID
// embeds the creation time, so the window filter is an ID range scan on
// the clustering key.
func (s *statusStore) Active(ctx context.Context, since time.Time) (*Subscription[[]model.StatusPost], error) {
	lowest := snowflake.Lowest(since)
	return subscribe(ctx, s.rdb, InvStatus, func(ctx context.Context) ([]model.StatusPost, error) {
		iter := s.db.Query(`SELECT id, user_id, user_name, user_avatar, text_content, image_url,
			created_at, expires_at FROM status_posts WHERE bucket = ? AND id >= ?`, statusBucket, lowest).
			WithContext(ctx).Iter()

		var posts []model.StatusPost
		var p model.StatusPost
		for iter.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserAvatar, &p.Text, &p.ImageURL,
			&p.CreatedAt, &p.ExpiresAt) {
			posts = append(posts, p)
		}
		if err := iter.Close(); err != nil {
			return nil, &RemoteError{Op: "list statuses", Err: err}
		}
		return posts, nil
	})
}

func (s *statusStore) Create(ctx context.Context, post model.StatusPost) error {
	err := s.pub.Publish(ctx, &Mutation{
		Kind:   MutCreateStatus,
		Actor:  post.UserID,
		Status: &post,
	})
	if err != nil {
		return &RemoteError{Op: "create status", Err: err}
	}
	return nil
}
