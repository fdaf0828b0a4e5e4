package repository

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/util"

	"gorm.io/gorm"
)

type PostRepository interface {
	Create(post *model.Post) error
	FindByID(id uint) (*model.Post, error)
	FindByIDs(ids []uint) ([]*model.Post, error)
	ExistsByID(id uint) (bool, error)
	FindPage(before *time.Time, limit int) ([]*model.Post, error)
	Update(post *model.Post) error
	Delete(id uint) error
	BumpEngagementScore(postID uint, delta float64)
	FindTrendingIDs(limit int) ([]uint, error)
}

type postRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const postEngagementKey = "post:engagement"

func NewPostRepository(db *gorm.DB, redis *util.RedisClient) PostRepository {
	return &postRepository{
		db:    db,
		redis: redis,
	}
}

func (r *postRepository) Create(post *model.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) FindByID(id uint) (*model.Post, error) {
	var post model.Post
	err := r.db.Preload("Author").Where("id = ?", id).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByIDs(ids []uint) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}

	var posts []*model.Post
	err := r.db.Preload("Author").Where("id IN ?", ids).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ExistsByID(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Post{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindPage fetches a page of visible posts, newest first. The before
// timestamp is the decoded pagination cursor.
func (r *postRepository) FindPage(before *time.Time, limit int) ([]*model.Post, error) {
	query := r.db.Preload("Author").Where("is_hidden = ?", false)

	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var posts []*model.Post
	err := query.Order("created_at DESC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(post *model.Post) error {
	return r.db.Save(post).Error
}

func (r *postRepository) Delete(id uint) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Post{}).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.ZRem(postEngagementKey, strconv.FormatUint(uint64(id), 10))
	}
	return nil
}

// BumpEngagementScore adjusts the post's score in the engagement sorted
// set. Best effort; the feed works without redis.
func (r *postRepository) BumpEngagementScore(postID uint, delta float64) {
	if r.redis == nil {
		return
	}
	if err := r.redis.ZIncrBy(postEngagementKey, delta, strconv.FormatUint(uint64(postID), 10)); err != nil {
		fmt.Printf("Failed to bump engagement score for post %d: %v\n", postID, err)
	}
}

// FindTrendingIDs returns post ids ordered by engagement score
func (r *postRepository) FindTrendingIDs(limit int) ([]uint, error) {
	if r.redis == nil {
		return []uint{}, nil
	}

	members, err := r.redis.ZRevRange(postEngagementKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
