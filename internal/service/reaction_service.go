package service

import (
	"errors"

	"socialfeed/internal/model"
	"socialfeed/internal/repository"
)

// ReactionStatus tells the caller which branch of the toggle fired.
type ReactionStatus string

const (
	ReactionStatusCreated ReactionStatus = "CREATED"
	ReactionStatusUpdated ReactionStatus = "UPDATED"
	ReactionStatusRemoved ReactionStatus = "REMOVED"
)

// ReactionResult is the outcome of a toggle. For REMOVED the reaction
// field carries the pre-deletion snapshot.
type ReactionResult struct {
	Status   ReactionStatus  `json:"status"`
	Reaction *model.Reaction `json:"reaction"`
}

// ReactionSummary aggregates the reactions on one target. Counts are
// zero-filled for every known reaction type so callers can always
// render the full set.
type ReactionSummary struct {
	Counts              map[string]int64 `json:"counts"`
	CurrentUserReaction *string          `json:"current_user_reaction"`
}

type ReactionService interface {
	HandleReaction(authorID, reactableID uint, reactableType, requestedType string) (*ReactionResult, error)
	FindByReactable(reactableID uint, reactableType string) ([]*model.Reaction, error)
	FindForMany(reactableIDs []uint, reactableType string) ([]*model.Reaction, error)
	GroupReactionsByID(reactions []*model.Reaction) map[uint][]*model.Reaction
	Summarize(reactions []*model.Reaction, currentUserID uint) ReactionSummary
}

// existsFunc checks whether a reactable entity with the given id exists
type existsFunc func(id uint) (bool, error)

type reactionService struct {
	reactionRepo repository.ReactionRepository
	// Closed registry mapping each reactable kind to its existence
	// check. Adding a new reactable kind means registering a new entry
	// here, not branching on type tags at call sites.
	reactables map[string]existsFunc
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) ReactionService {
	return &reactionService{
		reactionRepo: reactionRepo,
		reactables: map[string]existsFunc{
			model.ReactableTypePost:    postRepo.ExistsByID,
			model.ReactableTypeComment: commentRepo.ExistsByID,
		},
	}
}

// HandleReaction runs the three-way toggle for one author on one
// target:
//   - no existing reaction        -> create, CREATED
//   - existing with same type     -> delete (toggle off), REMOVED
//   - existing with another type  -> overwrite type, UPDATED
//
// The lookup and the write share one transaction. If a concurrent
// toggle wins the insert race, the uniqueness constraint aborts this
// one; the whole toggle is retried once (the retry observes the
// winner's row) and a second loss surfaces ErrReactionConflict.
func (s *reactionService) HandleReaction(authorID, reactableID uint, reactableType, requestedType string) (*ReactionResult, error) {
	if !model.IsValidReactionType(requestedType) {
		return nil, ErrInvalidReactionType
	}

	if err := s.ensureReactableExists(reactableType, reactableID); err != nil {
		return nil, err
	}

	result, err := s.toggle(authorID, reactableID, reactableType, requestedType)
	if errors.Is(err, repository.ErrDuplicateKey) {
		result, err = s.toggle(authorID, reactableID, reactableType, requestedType)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrReactionConflict
		}
	}
	return result, err
}

func (s *reactionService) toggle(authorID, reactableID uint, reactableType, requestedType string) (*ReactionResult, error) {
	var result *ReactionResult

	err := s.reactionRepo.Transaction(func(txRepo repository.ReactionRepository) error {
		existing, err := txRepo.FindByAuthorAndReactable(authorID, reactableID, reactableType)
		if err != nil {
			return err
		}

		if existing == nil {
			reaction := &model.Reaction{
				AuthorID:      authorID,
				ReactableID:   reactableID,
				ReactableType: reactableType,
				Type:          requestedType,
			}
			if err := txRepo.Create(reaction); err != nil {
				return err
			}
			result = &ReactionResult{Status: ReactionStatusCreated, Reaction: reaction}
			return nil
		}

		if existing.Type == requestedType {
			// Same reaction repeated clears it. Snapshot before delete.
			snapshot := *existing
			if err := txRepo.Delete(existing.ID); err != nil {
				return err
			}
			result = &ReactionResult{Status: ReactionStatusRemoved, Reaction: &snapshot}
			return nil
		}

		existing.Type = requestedType
		if err := txRepo.Update(existing); err != nil {
			return err
		}
		result = &ReactionResult{Status: ReactionStatusUpdated, Reaction: existing}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *reactionService) FindByReactable(reactableID uint, reactableType string) ([]*model.Reaction, error) {
	return s.reactionRepo.FindByReactable(reactableID, reactableType)
}

func (s *reactionService) FindForMany(reactableIDs []uint, reactableType string) ([]*model.Reaction, error) {
	return s.reactionRepo.FindForMany(reactableIDs, reactableType)
}

// GroupReactionsByID buckets reactions by their target id, preserving
// every entry per id.
func (s *reactionService) GroupReactionsByID(reactions []*model.Reaction) map[uint][]*model.Reaction {
	grouped := make(map[uint][]*model.Reaction)
	for _, reaction := range reactions {
		grouped[reaction.ReactableID] = append(grouped[reaction.ReactableID], reaction)
	}
	return grouped
}

// Summarize counts reactions per type (zero-filled over all known
// types) and surfaces the current user's own reaction, if any.
// currentUserID 0 means anonymous.
func (s *reactionService) Summarize(reactions []*model.Reaction, currentUserID uint) ReactionSummary {
	counts := make(map[string]int64, len(model.ReactionTypes))
	for _, t := range model.ReactionTypes {
		counts[t] = 0
	}

	var currentUserReaction *string
	for _, reaction := range reactions {
		counts[reaction.Type]++
		if currentUserID != 0 && reaction.AuthorID == currentUserID {
			t := reaction.Type
			currentUserReaction = &t
		}
	}

	return ReactionSummary{
		Counts:              counts,
		CurrentUserReaction: currentUserReaction,
	}
}

func (s *reactionService) ensureReactableExists(reactableType string, id uint) error {
	exists, registered := s.reactables[reactableType]
	if !registered {
		return ErrReactableTypeNotSupported
	}

	found, err := exists(id)
	if err != nil {
		return err
	}
	if !found {
		return ErrReactableNotFound
	}
	return nil
}
