package services

import (
	"context"
	"time"

	"glowfit/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SocialService struct {
	db *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService { return &SocialService{db: db} }

// Follow is idempotent; following yourself or a missing user is rejected.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return invalid("you cannot follow yourself")
	}
	var target models.User
	if err := s.db.WithContext(ctx).Where("disabled = ?", false).First(&target, followeeID).Error; err != nil {
		return notFound(err, "user")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now()}).Error
}

// Unfollow is idempotent.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

type UserCard struct {
	ID             uint      `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Since          time.Time `json:"since"`
}

func (s *SocialService) Followers(ctx context.Context, userID uint) ([]UserCard, error) {
	return s.cards(ctx, "follows.follower_id", "follows.followee_id = ?", userID)
}

func (s *SocialService) Following(ctx context.Context, userID uint) ([]UserCard, error) {
	return s.cards(ctx, "follows.followee_id", "follows.follower_id = ?", userID)
}

func (s *SocialService) cards(ctx context.Context, joinCol, where string, userID uint) ([]UserCard, error) {
	out := []UserCard{}
	err := s.db.WithContext(ctx).Table("follows").
		Select("users.id, users.first_name, users.last_name, users.profile_picture, follows.created_at AS since").
		Joins("JOIN users ON users.id = "+joinCol+" AND users.deleted_at IS NULL AND users.disabled = ?", false).
		Where(where, userID).
		Order("follows.created_at DESC").
		Scan(&out).Error
	return out, err
}

type FeedItem struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Kind      string    `json:"kind"`
	Summary   string    `json:"summary"`
	RefID     uint      `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextBefore uint       `json:"next_before,omitempty"`
}

// Feed returns events of followed users, newest first. before is the id
// cursor from the previous page (0 for the first page).
func (s *SocialService) Feed(ctx context.Context, userID uint, before uint, limit int) (*FeedPage, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Table("activity_events").
		Select("activity_events.id, activity_events.user_id, users.first_name, users.last_name, activity_events.kind, activity_events.summary, activity_events.ref_id, activity_events.created_at").
		Joins("JOIN follows ON follows.followee_id = activity_events.user_id AND follows.follower_id = ?", userID).
		Joins("JOIN users ON users.id = activity_events.user_id AND users.deleted_at IS NULL AND users.disabled = ?", false)
	if before > 0 {
		q = q.Where("activity_events.id < ?", before)
	}
	page := &FeedPage{Items: []FeedItem{}}
	if err := q.Order("activity_events.id DESC").Limit(limit + 1).Scan(&page.Items).Error; err != nil {
		return nil, err
	}
	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
		page.NextBefore = page.Items[limit-1].ID
	}
	return page, nil
}
