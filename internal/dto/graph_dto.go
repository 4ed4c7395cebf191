package dto

import "github.com/google/uuid"

// PublishGraphBuildMessage asks the consumer to (re)build the knowledge
// graph slice derived from one note.
type PublishGraphBuildMessage struct {
	NoteId uuid.UUID `json:"note_id"`
}
