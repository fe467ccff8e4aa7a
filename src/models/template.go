package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Topics is the fixed set a template topic is drawn from.
var Topics = []string{"Education", "Quiz", "Work", "Personal", "Other"}

func IsTopic(s string) bool {
	for _, t := range Topics {
		if t == s {
			return true
		}
	}
	return false
}

type Template struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Questions    []Question           `bson:"questions" json:"questions"`
	Topic        string               `bson:"topic" json:"topic"`
	Tags         []primitive.ObjectID `bson:"tags" json:"tags"`
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	IsPublic     bool                 `bson:"isPublic" json:"isPublic"`
	AllowedUsers []primitive.ObjectID `bson:"allowedUsers" json:"allowedUsers"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Question lives only inside its template. Order drives display and is not
// required to be unique or gapless.
type Question struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Type        string             `bson:"type" json:"type"`
	Options     []string           `bson:"options" json:"options"`
	Order       int                `bson:"order" json:"order"`
}

func (t *Template) HasQuestion(id primitive.ObjectID) bool {
	return t.QuestionIndex(id) >= 0
}

func (t *Template) QuestionIndex(id primitive.ObjectID) int {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Template) HasTag(id primitive.ObjectID) bool {
	for _, tag := range t.Tags {
		if tag == id {
			return true
		}
	}
	return false
}

// TemplateView is a template as returned to a reader. ReadOnly is true when
// the reader may not mutate it, including every anonymous reader.
type TemplateView struct {
	Template
	ReadOnly bool `json:"readOnly"`
}

type QuestionInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=1000"`
	Type        string   `json:"type" validate:"required"`
	Options     []string `json:"options"`
	Order       *int     `json:"order" validate:"omitempty,min=0"`
}

type CreateTemplateRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Questions    []QuestionInput `json:"questions" validate:"required,min=1,dive"`
	Topic        string          `json:"topic" validate:"required,topic"`
	Tags         []string        `json:"tags" validate:"required,min=1,dive,notblank,max=50"`
	Image        string          `json:"image" validate:"omitempty,url"`
	IsPublic     *bool           `json:"isPublic"`
	AllowedUsers []string        `json:"allowedUsers" validate:"dive,mongodb"`
}

// Public reports the requested visibility; templates are public unless the
// caller says otherwise.
func (r *CreateTemplateRequest) Public() bool {
	return r.IsPublic == nil || *r.IsPublic
}

// TemplatePatch is a partial template update. Only fields present in the
// request body are merged into the stored template.
type TemplatePatch struct {
	Title        Optional[string]          `json:"title"`
	Description  Optional[string]          `json:"description"`
	Questions    Optional[[]QuestionInput] `json:"questions"`
	Topic        Optional[string]          `json:"topic"`
	Tags         Optional[[]string]        `json:"tags"`
	Image        Optional[string]          `json:"image"`
	IsPublic     Optional[bool]            `json:"isPublic"`
	AllowedUsers Optional[[]string]        `json:"allowedUsers"`
}

// QuestionPatch is a partial question update.
type QuestionPatch struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	Type        Optional[string]   `json:"type"`
	Options     Optional[[]string] `json:"options"`
	Order       Optional[int]      `json:"order"`
}

// Apply merges the present fields into q.
func (p *QuestionPatch) Apply(q *Question) {
	p.Title.ApplyTo(&q.Title)
	p.Description.ApplyTo(&q.Description)
	p.Type.ApplyTo(&q.Type)
	p.Options.ApplyTo(&q.Options)
	p.Order.ApplyTo(&q.Order)
}

// NewQuestion builds an embedded question with a fresh id. fallbackOrder is
// used when the input carries no order.
func (in QuestionInput) NewQuestion(fallbackOrder int) Question {
	order := fallbackOrder
	if in.Order != nil {
		order = *in.Order
	}
	options := in.Options
	if options == nil {
		options = []string{}
	}
	return Question{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Options:     options,
		Order:       order,
	}
}
