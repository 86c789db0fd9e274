package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
)

// knowledgeRepository implements the KnowledgeRepository interface
type knowledgeRepository struct {
	db *gorm.DB
}

// NewKnowledgeRepository creates a new knowledge repository
func NewKnowledgeRepository(db *gorm.DB) repositories.KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

// Save inserts a source with its chunks, replacing any source with the same URL
func (r *knowledgeRepository) Save(ctx context.Context, source *entities.KnowledgeSource, chunks []*entities.KnowledgeChunk) (bool, error) {
	replaced := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.KnowledgeSource
		err := tx.Where("url = ?", source.URL).First(&existing).Error
		switch {
		case err == nil:
			replaced = true
			if err := deleteSourceContent(tx, existing.ID); err != nil {
				return err
			}
			source.ID = existing.ID
			source.CreatedAt = existing.CreatedAt
			source.LastUpdated = time.Now().UTC()
			if source.ArchiveKey == nil {
				source.ArchiveKey = existing.ArchiveKey
			}
			if err := tx.Save(source).Error; err != nil {
				return fmt.Errorf("failed to update knowledge source: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(source).Error; err != nil {
				return fmt.Errorf("failed to create knowledge source: %w", err)
			}
		default:
			return err
		}

		if len(chunks) == 0 {
			return nil
		}
		for _, c := range chunks {
			c.SourceID = source.ID.String()
		}
		if err := tx.CreateInBatches(chunks, 100).Error; err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
		return nil
	})
	return replaced, err
}

// deleteSourceContent removes chunks and relations derived from a source
func deleteSourceContent(tx *gorm.DB, id uuid.UUID) error {
	refs := []string{id.String(), "knowledge_source:" + id.String()}
	if err := tx.Where("source_id IN ?", refs).Delete(&entities.KnowledgeChunk{}).Error; err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := tx.Where("knowledge_source_id = ?", id).Delete(&entities.EntityRelation{}).Error; err != nil {
		return fmt.Errorf("failed to delete relations: %w", err)
	}
	return nil
}

// FindByID retrieves a source by ID, nil when missing
func (r *knowledgeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.KnowledgeSource, error) {
	var source entities.KnowledgeSource
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &source, nil
}

// FindByURL retrieves a source by URL, nil when missing
func (r *knowledgeRepository) FindByURL(ctx context.Context, url string) (*entities.KnowledgeSource, error) {
	var source entities.KnowledgeSource
	err := r.db.WithContext(ctx).Where("url = ?", url).First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &source, nil
}

// FindByIDs resolves chunk source references to sources keyed by the
// reference as given. Unknown or malformed references are absent.
func (r *knowledgeRepository) FindByIDs(ctx context.Context, refs []string) (map[string]*entities.KnowledgeSource, error) {
	out := make(map[string]*entities.KnowledgeSource, len(refs))
	byID := make(map[uuid.UUID][]string, len(refs))
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(entities.NormalizeSourceRef(ref))
		if err != nil {
			continue
		}
		if _, ok := byID[id]; !ok {
			ids = append(ids, id)
		}
		byID[id] = append(byID[id], ref)
	}
	if len(ids) == 0 {
		return out, nil
	}

	var sources []*entities.KnowledgeSource
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sources).Error; err != nil {
		return nil, err
	}
	for _, s := range sources {
		for _, ref := range byID[s.ID] {
			out[ref] = s
		}
	}
	return out, nil
}

// List retrieves sources carrying any of tags, all sources when tags is empty
func (r *knowledgeRepository) List(ctx context.Context, tags []string) ([]*entities.KnowledgeSource, error) {
	var sources []*entities.KnowledgeSource
	if err := r.db.WithContext(ctx).Order("last_updated DESC").Find(&sources).Error; err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return sources, nil
	}

	filtered := make([]*entities.KnowledgeSource, 0, len(sources))
	for _, s := range sources {
		if s.HasAnyTag(tags) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Delete removes a source and everything derived from it
func (r *knowledgeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.KnowledgeSource{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return entities.ErrKnowledgeSourceNotFound
		}
		if err := deleteSourceContent(tx, id); err != nil {
			return err
		}
		if err := tx.Where("source_id = ?", id).Delete(&entities.MeetingKnowledge{}).Error; err != nil {
			return fmt.Errorf("failed to delete meeting links: %w", err)
		}
		return tx.Where("id = ?", id).Delete(&entities.KnowledgeSource{}).Error
	})
}

// UpdateTags replaces the tags of a source
func (r *knowledgeRepository) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) error {
	res := r.db.WithContext(ctx).
		Model(&entities.KnowledgeSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tags":         entities.NormalizeTags(tags),
			"last_updated": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrKnowledgeSourceNotFound
	}
	return nil
}

// UpdateArchiveKey records where the raw body was archived
func (r *knowledgeRepository) UpdateArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Model(&entities.KnowledgeSource{}).
		Where("id = ?", id).
		Update("archive_key", key).Error
}

// CountChunks counts the chunks stored for a source
func (r *knowledgeRepository) CountChunks(ctx context.Context, sourceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.KnowledgeChunk{}).
		Where("source_id IN ?", []string{sourceID.String(), "knowledge_source:" + sourceID.String()}).
		Count(&count).Error
	return count, err
}

// CleanupOrphanedChunks deletes chunks whose source reference no longer
// resolves. Running it twice deletes nothing the second time.
func (r *knowledgeRepository) CleanupOrphanedChunks(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs []string
		if err := tx.Model(&entities.KnowledgeChunk{}).Distinct("source_id").Pluck("source_id", &refs).Error; err != nil {
			return err
		}
		if len(refs) == 0 {
			return nil
		}

		var ids []string
		if err := tx.Model(&entities.KnowledgeSource{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		existing := make(map[string]bool, len(ids))
		for _, id := range ids {
			existing[entities.NormalizeSourceRef(id)] = true
		}

		orphans := make([]string, 0)
		for _, ref := range refs {
			if !existing[entities.NormalizeSourceRef(ref)] {
				orphans = append(orphans, ref)
			}
		}
		if len(orphans) == 0 {
			return nil
		}

		res := tx.Where("source_id IN ?", orphans).Delete(&entities.KnowledgeChunk{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// LinkToMeeting attaches a source to a meeting, updating an existing link
func (r *knowledgeRepository) LinkToMeeting(ctx context.Context, link *entities.MeetingKnowledge) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relevance_score", "assigned_by"}),
		}).
		Create(link).Error
}

// ListMeetingKnowledge retrieves sources linked to a meeting, most relevant first
func (r *knowledgeRepository) ListMeetingKnowledge(ctx context.Context, meetingID uuid.UUID) ([]*entities.LinkedKnowledge, error) {
	var links []*entities.MeetingKnowledge
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("relevance_score DESC, created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []*entities.LinkedKnowledge{}, nil
	}

	refs := make([]string, len(links))
	for i, l := range links {
		refs[i] = l.SourceID.String()
	}
	sources, err := r.FindByIDs(ctx, refs)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.LinkedKnowledge, 0, len(links))
	for _, l := range links {
		src, ok := sources[l.SourceID.String()]
		if !ok {
			continue
		}
		out = append(out, &entities.LinkedKnowledge{
			Source:         src,
			RelevanceScore: l.RelevanceScore,
			AssignedBy:     l.AssignedBy,
		})
	}
	return out, nil
}
