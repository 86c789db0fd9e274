package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// GraphRepository defines persistence for people, topics and relations
type GraphRepository interface {
	// Apply upserts people and topics by normalized name, links them to the
	// owning meeting and inserts the relations, all in one transaction.
	// Concurrent writers are serialized.
	Apply(ctx context.Context, write *entities.GraphWrite) (*entities.GraphWriteResult, error)

	FindPeopleByNames(ctx context.Context, names []string) ([]*entities.Person, error)
	FindPeopleByMeetings(ctx context.Context, meetingIDs []uuid.UUID, limit int) ([]*entities.Person, error)
	FindTopicsByNames(ctx context.Context, names []string) ([]*entities.Topic, error)

	ListMeetingPeople(ctx context.Context, meetingID uuid.UUID) ([]*entities.Person, error)
	ListMeetingTopics(ctx context.Context, meetingID uuid.UUID) ([]*entities.Topic, error)

	// RelatedTargets lists distinct targets of typed relations from source
	RelatedTargets(ctx context.Context, source string, sourceTypes, targetTypes []string, limit int) ([]string, error)

	// RelatedSources lists distinct sources of typed relations into target
	RelatedSources(ctx context.Context, target string, sourceTypes []string, limit int) ([]string, error)

	// RelationsForEntity lists relations touching name, highest confidence first
	RelationsForEntity(ctx context.Context, name string, limit int) ([]*entities.EntityRelation, error)
}
