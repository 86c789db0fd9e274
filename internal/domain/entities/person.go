package entities

import (
	"time"

	"github.com/google/uuid"
)

// Person is a graph node for someone mentioned in meetings or documents
type Person struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	DisplayName string     `gorm:"type:varchar(255);not null" json:"display_name"`
	Aliases     StringList `json:"aliases"`
	FirstSeen   time.Time  `gorm:"not null" json:"first_seen"`
	LastSeen    time.Time  `gorm:"not null;index" json:"last_seen"`
}

// TableName specifies the table name for Person
func (Person) TableName() string {
	return "people"
}

// NewPerson creates a person node keyed by the normalized name
func NewPerson(name string, seen time.Time) *Person {
	seen = seen.UTC()
	return &Person{
		ID:          uuid.New(),
		Name:        NormalizeName(name),
		DisplayName: DisplayName(name),
		Aliases:     StringList{},
		FirstSeen:   seen,
		LastSeen:    seen,
	}
}

// Touch records another sighting. Spellings differing from the display
// name are kept as aliases.
func (p *Person) Touch(name string, seen time.Time) {
	if seen.After(p.LastSeen) {
		p.LastSeen = seen.UTC()
	}
	if d := DisplayName(name); d != "" && d != p.DisplayName && !p.Aliases.Contains(d) {
		p.Aliases = append(p.Aliases, d)
	}
}
