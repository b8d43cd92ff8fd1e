package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
)

const unknownName = "Unknown"

type authorRecord struct {
	profile *domain.Profile
	account *domain.Account
}

// loadAuthors reads the profile and account of every distinct author inside
// the caller's unit of work.
func loadAuthors(ctx context.Context, tx repository.Tx, msgs []domain.Message) (map[uuid.UUID]authorRecord, error) {
	ids := lo.Uniq(lo.Map(msgs, func(m domain.Message, _ int) uuid.UUID { return m.AuthorID }))

	records := make(map[uuid.UUID]authorRecord, len(ids))
	for _, id := range ids {
		profile, err := tx.Profiles().GetByUser(ctx, id)
		if err != nil {
			return nil, err
		}
		account, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		records[id] = authorRecord{profile: profile, account: account}
	}
	return records, nil
}

// authorName picks the first non-empty of the profile display name, the
// account name and the account email, falling back to "Unknown".
func authorName(profile *domain.Profile, account *domain.Account) string {
	var displayName, name, email string
	if profile != nil {
		displayName = profile.DisplayName
	}
	if account != nil {
		name, email = account.Name, account.Email
	}
	return lo.CoalesceOrEmpty(displayName, name, email, unknownName)
}

// resolveAuthors completes the join outside the unit of work, since avatar
// URLs come from the blob store.
func resolveAuthors(ctx context.Context, attachments *AttachmentResolver, records map[uuid.UUID]authorRecord) (map[uuid.UUID]domain.Author, error) {
	authors := make(map[uuid.UUID]domain.Author, len(records))
	for id, rec := range records {
		author := domain.Author{Name: authorName(rec.profile, rec.account)}
		if rec.profile != nil {
			url, err := attachments.Resolve(ctx, rec.profile.AvatarRef)
			if err != nil {
				return nil, err
			}
			author.AvatarURL = url
		}
		authors[id] = author
	}
	return authors, nil
}

func enrichMessages(msgs []domain.Message, authors map[uuid.UUID]domain.Author) []domain.EnrichedMessage {
	return lo.Map(msgs, func(m domain.Message, _ int) domain.EnrichedMessage {
		author, ok := authors[m.AuthorID]
		if !ok {
			author = domain.Author{Name: unknownName}
		}
		return domain.EnrichedMessage{Message: m, Author: author}
	})
}
