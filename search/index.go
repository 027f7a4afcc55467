// Package search maintains the profile match index. Matching is a boolean
// query: same city AND at least one shared interest, excluding the requester.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/blugelabs/bluge"

	"match-mate/domain"
)

type MatchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func OpenMatchIndex(path string, log *slog.Logger) (*MatchIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &MatchIndex{writer: writer, log: log}, nil
}

// Index upserts one profile. City and interests are indexed as lowercased
// keyword terms; matching is exact, not full text.
func (i *MatchIndex) Index(p domain.Profile) error {
	doc := bluge.NewDocument(p.ID)
	doc.AddField(bluge.NewKeywordField("city", strings.ToLower(p.City)))
	for _, interest := range p.Interests {
		doc.AddField(bluge.NewKeywordField("interest", strings.ToLower(strings.TrimSpace(interest))))
	}
	return i.writer.Update(doc.ID(), doc)
}

// Matches returns the ids of profiles in the same city sharing at least one
// interest with p, excluding p itself.
func (i *MatchIndex) Matches(ctx context.Context, p domain.Profile, limit int) ([]string, error) {
	shared := bluge.NewBooleanQuery()
	for _, interest := range p.Interests {
		term := bluge.NewTermQuery(strings.ToLower(strings.TrimSpace(interest)))
		term.SetField("interest")
		shared.AddShould(term)
	}
	shared.SetMinShould(1)

	city := bluge.NewTermQuery(strings.ToLower(p.City))
	city.SetField("city")

	self := bluge.NewTermQuery(p.ID)
	self.SetField("_id")

	query := bluge.NewBooleanQuery()
	query.AddMust(city)
	query.AddMust(shared)
	query.AddMustNot(self)

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := iter.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = iter.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (i *MatchIndex) Close() error {
	return i.writer.Close()
}
