package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
)

// graphRepository implements the GraphRepository interface. Writes take
// mu so find-or-create of people and topics never races.
type graphRepository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewGraphRepository creates a new graph repository. Share one instance
// per database so graph writes stay serialized.
func NewGraphRepository(db *gorm.DB) repositories.GraphRepository {
	return &graphRepository{db: db}
}

// Apply writes people, topics, edges, relations, action items and
// decisions of one ingested unit
func (r *graphRepository) Apply(ctx context.Context, write *entities.GraphWrite) (*entities.GraphWriteResult, error) {
	if !write.Provenance.Valid() {
		return nil, entities.ErrInvalidProvenance
	}
	result := &entities.GraphWriteResult{}
	if write.IsEmpty() {
		return result, nil
	}

	seen := write.SeenAt
	if seen.IsZero() {
		seen = time.Now()
	}
	seen = seen.UTC()
	meetingID := write.Provenance.MeetingID

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done := make(map[string]bool)
		for _, name := range write.People {
			key := entities.NormalizeName(name)
			if key == "" || done[key] {
				continue
			}
			done[key] = true

			person, created, err := upsertPerson(tx, name, seen)
			if err != nil {
				return err
			}
			if created {
				result.PeopleCreated++
			}
			result.PersonIDs = append(result.PersonIDs, person.ID)

			if meetingID != nil {
				edge := &entities.MeetingPerson{MeetingID: *meetingID, PersonID: person.ID, CreatedAt: seen}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error; err != nil {
					return fmt.Errorf("failed to link person: %w", err)
				}
			}
		}

		done = make(map[string]bool)
		for _, mention := range write.Topics {
			key := entities.NormalizeName(mention.Name)
			if key == "" || done[key] {
				continue
			}
			done[key] = true

			topic, created, err := upsertTopic(tx, mention, seen)
			if err != nil {
				return err
			}
			if created {
				result.TopicsCreated++
			}
			result.TopicIDs = append(result.TopicIDs, topic.ID)

			if meetingID != nil {
				edge := &entities.MeetingTopic{MeetingID: *meetingID, TopicID: topic.ID, CreatedAt: seen}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error; err != nil {
					return fmt.Errorf("failed to link topic: %w", err)
				}
			}
		}

		relations := make([]*entities.EntityRelation, 0, len(write.Relations))
		for _, rel := range write.Relations {
			rel.MeetingID = write.Provenance.MeetingID
			rel.KnowledgeSourceID = write.Provenance.KnowledgeSourceID
			relations = append(relations, rel)
		}
		if len(relations) > 0 {
			if err := tx.Create(&relations).Error; err != nil {
				return fmt.Errorf("failed to insert relations: %w", err)
			}
		}
		result.RelationsAdded = len(relations)

		if meetingID == nil {
			return nil
		}
		for _, item := range write.ActionItems {
			item.MeetingID = *meetingID
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to insert action item: %w", err)
			}
			result.ActionItemsAdded++
		}
		for _, d := range write.Decisions {
			d.MeetingID = *meetingID
			if err := tx.Create(d).Error; err != nil {
				return fmt.Errorf("failed to insert decision: %w", err)
			}
			result.DecisionsAdded++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func upsertPerson(tx *gorm.DB, name string, seen time.Time) (*entities.Person, bool, error) {
	var person entities.Person
	err := tx.Where("name = ?", entities.NormalizeName(name)).First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p := entities.NewPerson(name, seen)
		if err := tx.Create(p).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create person: %w", err)
		}
		return p, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	person.Touch(name, seen)
	if err := tx.Save(&person).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update person: %w", err)
	}
	return &person, false, nil
}

func upsertTopic(tx *gorm.DB, mention entities.TopicMention, seen time.Time) (*entities.Topic, bool, error) {
	var topic entities.Topic
	err := tx.Where("name = ?", entities.NormalizeName(mention.Name)).First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t := entities.NewTopic(mention.Name, mention.Embedding, seen)
		if err := tx.Create(t).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create topic: %w", err)
		}
		return t, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	topic.Mention(seen)
	if len(topic.Embedding) == 0 && len(mention.Embedding) > 0 {
		topic.Embedding = mention.Embedding
	}
	if err := tx.Save(&topic).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update topic: %w", err)
	}
	return &topic, false, nil
}

// FindPeopleByNames retrieves people by normalized name
func (r *graphRepository) FindPeopleByNames(ctx context.Context, names []string) ([]*entities.Person, error) {
	keys := normalizeAll(names)
	if len(keys) == 0 {
		return []*entities.Person{}, nil
	}
	var people []*entities.Person
	err := r.db.WithContext(ctx).
		Where("name IN ?", keys).
		Order("last_seen DESC").
		Find(&people).Error
	return people, err
}

// FindPeopleByMeetings retrieves people mentioned in any of the meetings
func (r *graphRepository) FindPeopleByMeetings(ctx context.Context, meetingIDs []uuid.UUID, limit int) ([]*entities.Person, error) {
	if len(meetingIDs) == 0 {
		return []*entities.Person{}, nil
	}
	var people []*entities.Person
	err := r.db.WithContext(ctx).
		Where("id IN (SELECT person_id FROM meeting_people WHERE meeting_id IN ?)", uniqueIDs(meetingIDs)).
		Order("last_seen DESC").
		Limit(defaultLimit(limit, 5)).
		Find(&people).Error
	return people, err
}

// FindTopicsByNames retrieves topics by normalized name
func (r *graphRepository) FindTopicsByNames(ctx context.Context, names []string) ([]*entities.Topic, error) {
	keys := normalizeAll(names)
	if len(keys) == 0 {
		return []*entities.Topic{}, nil
	}
	var topics []*entities.Topic
	err := r.db.WithContext(ctx).
		Where("name IN ?", keys).
		Order("mention_count DESC, last_mentioned DESC").
		Find(&topics).Error
	return topics, err
}

// ListMeetingPeople retrieves the people mentioned in a meeting
func (r *graphRepository) ListMeetingPeople(ctx context.Context, meetingID uuid.UUID) ([]*entities.Person, error) {
	var people []*entities.Person
	err := r.db.WithContext(ctx).
		Where("id IN (SELECT person_id FROM meeting_people WHERE meeting_id = ?)", meetingID).
		Order("display_name ASC").
		Find(&people).Error
	return people, err
}

// ListMeetingTopics retrieves the topics discussed in a meeting
func (r *graphRepository) ListMeetingTopics(ctx context.Context, meetingID uuid.UUID) ([]*entities.Topic, error) {
	var topics []*entities.Topic
	err := r.db.WithContext(ctx).
		Where("id IN (SELECT topic_id FROM meeting_topics WHERE meeting_id = ?)", meetingID).
		Order("mention_count DESC").
		Find(&topics).Error
	return topics, err
}

// RelatedTargets lists what source points at, strongest first
func (r *graphRepository) RelatedTargets(ctx context.Context, source string, sourceTypes, targetTypes []string, limit int) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.EntityRelation{}).
		Where("source_entity = ?", entities.NormalizeName(source))
	if len(sourceTypes) > 0 {
		query = query.Where("source_type IN ?", sourceTypes)
	}
	if len(targetTypes) > 0 {
		query = query.Where("target_type IN ?", targetTypes)
	}

	var targets []string
	err := query.Group("target_entity").
		Order("MAX(confidence) DESC").
		Limit(defaultLimit(limit, 5)).
		Pluck("target_entity", &targets).Error
	return targets, err
}

// RelatedSources lists what points at target, strongest first
func (r *graphRepository) RelatedSources(ctx context.Context, target string, sourceTypes []string, limit int) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.EntityRelation{}).
		Where("target_entity = ?", entities.NormalizeName(target))
	if len(sourceTypes) > 0 {
		query = query.Where("source_type IN ?", sourceTypes)
	}

	var sources []string
	err := query.Group("source_entity").
		Order("MAX(confidence) DESC").
		Limit(defaultLimit(limit, 5)).
		Pluck("source_entity", &sources).Error
	return sources, err
}

// RelationsForEntity lists relations where name is source or target
func (r *graphRepository) RelationsForEntity(ctx context.Context, name string, limit int) ([]*entities.EntityRelation, error) {
	key := entities.NormalizeName(name)
	if key == "" {
		return []*entities.EntityRelation{}, nil
	}
	var relations []*entities.EntityRelation
	err := r.db.WithContext(ctx).
		Where("source_entity = ? OR target_entity = ?", key, key).
		Order("confidence DESC, created_at DESC").
		Limit(defaultLimit(limit, 20)).
		Find(&relations).Error
	return relations, err
}

func normalizeAll(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := entities.NormalizeName(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
