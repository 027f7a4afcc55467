package services

import (
	"context"
	"log/slog"

	"match-mate/domain"
	"match-mate/repositories"
	"match-mate/search"
)

type IMatchService interface {
	Matches(ctx context.Context, userID string) ([]domain.Profile, error)
}

// MatchService answers the matching query: profiles in the requester's city
// sharing at least one interest. The index returns candidate ids, the
// directory resolves them to full profiles.
type MatchService struct {
	log      *slog.Logger
	profiles repositories.IProfileRepository
	index    *search.MatchIndex
	limit    int
}

func NewMatchService(log *slog.Logger, profiles repositories.IProfileRepository, index *search.MatchIndex, limit int) *MatchService {
	return &MatchService{log: log, profiles: profiles, index: index, limit: limit}
}

func (s *MatchService) Matches(ctx context.Context, userID string) ([]domain.Profile, error) {
	me, err := s.profiles.Get(userID)
	if err != nil {
		return nil, err
	}

	ids, err := s.index.Matches(ctx, me, s.limit)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Profile, 0, len(ids))
	for _, id := range ids {
		profile, err := s.profiles.Get(id)
		if err != nil {
			// An index hit without a directory record is a stale document;
			// skip it rather than failing the whole query.
			s.log.Warn("Indexed profile missing from directory", "id", id, "error", err)
			continue
		}
		matches = append(matches, profile)
	}
	return matches, nil
}
