package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/util"

	"gorm.io/gorm"
)

type ReactionRepository interface {
	Create(reaction *model.Reaction) error
	Update(reaction *model.Reaction) error
	Delete(id uint) error
	FindByAuthorAndReactable(authorID, reactableID uint, reactableType string) (*model.Reaction, error)
	FindByReactable(reactableID uint, reactableType string) ([]*model.Reaction, error)
	FindForMany(reactableIDs []uint, reactableType string) ([]*model.Reaction, error)
	// Transaction runs fn against a transaction-scoped repository, so a
	// lookup and the write it decides on share one transaction boundary.
	Transaction(fn func(ReactionRepository) error) error
}

type reactionRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	reactionByTargetCachePrefix = "reaction:target:"
	reactionCacheExpiration     = 10 * time.Minute
)

func NewReactionRepository(db *gorm.DB, redis *util.RedisClient) ReactionRepository {
	return &reactionRepository{
		db:    db,
		redis: redis,
	}
}

// Create inserts a new reaction and invalidates related caches
func (r *reactionRepository) Create(reaction *model.Reaction) error {
	if err := r.db.Create(reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}

	r.invalidateTargetCache(reaction.ReactableID, reaction.ReactableType)
	return nil
}

// Update updates a reaction and invalidates cache
func (r *reactionRepository) Update(reaction *model.Reaction) error {
	if err := r.db.Save(reaction).Error; err != nil {
		return err
	}

	r.invalidateTargetCache(reaction.ReactableID, reaction.ReactableType)
	return nil
}

// Delete removes a reaction and invalidates cache
func (r *reactionRepository) Delete(id uint) error {
	var reaction model.Reaction
	if err := r.db.Where("id = ?", id).First(&reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := r.db.Delete(&reaction).Error; err != nil {
		return err
	}

	r.invalidateTargetCache(reaction.ReactableID, reaction.ReactableType)
	return nil
}

// FindByAuthorAndReactable looks up the unique reaction for one author
// on one target. Returns (nil, nil) when no reaction exists.
func (r *reactionRepository) FindByAuthorAndReactable(authorID, reactableID uint, reactableType string) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.Where("author_id = ? AND reactable_id = ? AND reactable_type = ?",
		authorID, reactableID, reactableType).First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reaction, nil
}

// FindByReactable finds all reactions for one target
func (r *reactionRepository) FindByReactable(reactableID uint, reactableType string) ([]*model.Reaction, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("%s%s:%d", reactionByTargetCachePrefix, reactableType, reactableID)
	if r.redis != nil {
		cached, err := r.getListFromCache(cacheKey)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var reactions []*model.Reaction
	err := r.db.Preload("Author").
		Where("reactable_id = ? AND reactable_type = ?", reactableID, reactableType).
		Order("created_at DESC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheReactionList(cacheKey, reactions)
	}

	return reactions, nil
}

// FindForMany finds all reactions for a set of targets in one query.
// Empty input yields empty output without touching the database.
func (r *reactionRepository) FindForMany(reactableIDs []uint, reactableType string) ([]*model.Reaction, error) {
	if len(reactableIDs) == 0 {
		return []*model.Reaction{}, nil
	}

	var reactions []*model.Reaction
	err := r.db.Preload("Author").
		Where("reactable_id IN ? AND reactable_type = ?", reactableIDs, reactableType).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *reactionRepository) Transaction(fn func(ReactionRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&reactionRepository{db: tx, redis: r.redis})
	})
}

// Cache helpers
func (r *reactionRepository) cacheReactionList(key string, reactions []*model.Reaction) {
	reactionsJSON, err := json.Marshal(reactions)
	if err != nil {
		return
	}
	r.redis.Set(key, string(reactionsJSON), reactionCacheExpiration)
}

func (r *reactionRepository) getListFromCache(key string) ([]*model.Reaction, error) {
	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var reactions []*model.Reaction
	if err := json.Unmarshal([]byte(cached), &reactions); err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *reactionRepository) invalidateTargetCache(reactableID uint, reactableType string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(fmt.Sprintf("%s%s:%d", reactionByTargetCachePrefix, reactableType, reactableID))
}
