// Package memory is an in-process implementation of the repository
// interfaces, selected with STORAGE_DRIVER=memory and used by the tests.
// All four repositories share one mutex so multi-collection reads are
// consistent.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type state struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]models.User
	templates map[primitive.ObjectID]models.Template
	tags      map[primitive.ObjectID]models.Tag
	forms     map[primitive.ObjectID]models.FormResponse
}

// NewStore returns an empty store.
func NewStore() *repository.Store {
	s := &state{
		users:     map[primitive.ObjectID]models.User{},
		templates: map[primitive.ObjectID]models.Template{},
		tags:      map[primitive.ObjectID]models.Tag{},
		forms:     map[primitive.ObjectID]models.FormResponse{},
	}
	return &repository.Store{
		Users:     &userRepo{s},
		Templates: &templateRepo{s},
		Tags:      &tagRepo{s},
		Forms:     &formRepo{s},
	}
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	return append([]primitive.ObjectID{}, ids...)
}

func cloneTemplate(t models.Template) models.Template {
	t.Tags = cloneIDs(t.Tags)
	t.AllowedUsers = cloneIDs(t.AllowedUsers)
	if t.Questions != nil {
		qs := make([]models.Question, len(t.Questions))
		for i, q := range t.Questions {
			if q.Options != nil {
				q.Options = append([]string{}, q.Options...)
			}
			qs[i] = q
		}
		t.Questions = qs
	}
	return t
}

func cloneForm(f models.FormResponse) models.FormResponse {
	if f.Answers != nil {
		f.Answers = append([]models.Answer{}, f.Answers...)
	}
	return f
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// users

type userRepo struct{ s *state }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = at
	u.UpdatedAt = at
	r.s.users[id] = u
	return nil
}

func (r *userRepo) List(_ context.Context) ([]models.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.UserSummary, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, models.UserSummary{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Role:      u.Role,
			Status:    u.Status,
			LastLogin: u.LastLogin,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *userRepo) update(ids []primitive.ObjectID, fn func(u *models.User) bool) models.BulkResult {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var res models.BulkResult
	for id := range idSet(ids) {
		u, ok := r.s.users[id]
		if !ok {
			continue
		}
		res.Matched++
		if fn(&u) {
			res.Modified++
			u.UpdatedAt = time.Now()
			r.s.users[id] = u
		}
	}
	return res
}

func (r *userRepo) SetStatus(_ context.Context, ids []primitive.ObjectID, status string) (models.BulkResult, error) {
	return r.update(ids, func(u *models.User) bool {
		if u.Status == status {
			return false
		}
		u.Status = status
		return true
	}), nil
}

func (r *userRepo) SetRole(_ context.Context, ids []primitive.ObjectID, role string) (models.BulkResult, error) {
	return r.update(ids, func(u *models.User) bool {
		if u.Role == role {
			return false
		}
		u.Role = role
		return true
	}), nil
}

func (r *userRepo) Delete(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id := range idSet(ids) {
		if _, ok := r.s.users[id]; ok {
			delete(r.s.users, id)
			n++
		}
	}
	return n, nil
}

// templates

type templateRepo struct{ s *state }

func (r *templateRepo) Create(_ context.Context, template *models.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if template.ID.IsZero() {
		template.ID = primitive.NewObjectID()
	}
	if _, ok := r.s.templates[template.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.templates[template.ID] = cloneTemplate(*template)
	return nil
}

func (r *templateRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t = cloneTemplate(t)
	return &t, nil
}

func (r *templateRepo) Save(_ context.Context, template *models.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[template.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.templates[template.ID] = cloneTemplate(*template)
	return nil
}

func (r *templateRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}

func (r *templateRepo) filter(keep func(t *models.Template) bool) []models.Template {
	out := []models.Template{}
	for _, t := range r.s.templates {
		if keep(&t) {
			out = append(out, cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *templateRepo) List(_ context.Context, limit int64) ([]models.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.filter(func(*models.Template) bool { return true })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *templateRepo) ListByTag(_ context.Context, tagID primitive.ObjectID) ([]models.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.filter(func(t *models.Template) bool { return t.HasTag(tagID) }), nil
}

func (r *templateRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	want := idSet(ids)
	return r.filter(func(t *models.Template) bool { return want[t.ID] }), nil
}

func (r *templateRepo) PushQuestion(_ context.Context, id primitive.ObjectID, question models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	t = cloneTemplate(t)
	t.Questions = append(t.Questions, question)
	t.UpdatedAt = time.Now()
	r.s.templates[id] = t
	return nil
}

func (r *templateRepo) PullQuestion(_ context.Context, id, questionID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	idx := t.QuestionIndex(questionID)
	if idx < 0 {
		return repository.ErrNotFound
	}
	t = cloneTemplate(t)
	t.Questions = append(t.Questions[:idx], t.Questions[idx+1:]...)
	t.UpdatedAt = time.Now()
	r.s.templates[id] = t
	return nil
}

func (r *templateRepo) AddTags(_ context.Context, id primitive.ObjectID, tagIDs []primitive.ObjectID) (*models.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t = cloneTemplate(t)
	for _, tagID := range tagIDs {
		if !t.HasTag(tagID) {
			t.Tags = append(t.Tags, tagID)
		}
	}
	t.UpdatedAt = time.Now()
	r.s.templates[id] = t

	out := cloneTemplate(t)
	return &out, nil
}

func (r *templateRepo) ReferencedTagIDs(_ context.Context) ([]primitive.ObjectID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := map[primitive.ObjectID]bool{}
	out := []primitive.ObjectID{}
	for _, t := range r.s.templates {
		for _, id := range t.Tags {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// tags

type tagRepo struct{ s *state }

func (r *tagRepo) GetOrCreate(_ context.Context, name string) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for id, tag := range r.s.tags {
		if tag.Name == name {
			tag.LastUsedAt = now
			r.s.tags[id] = tag
			return &tag, nil
		}
	}
	tag := models.Tag{ID: primitive.NewObjectID(), Name: name, CreatedAt: now, LastUsedAt: now}
	r.s.tags[tag.ID] = tag
	return &tag, nil
}

func (r *tagRepo) List(_ context.Context) ([]models.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Tag, 0, len(r.s.tags))
	for _, tag := range r.s.tags {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Name, out[j].Name) < 0 })
	return out, nil
}

func (r *tagRepo) DeleteUnreferenced(_ context.Context, keep []primitive.ObjectID, usedBefore time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	keepSet := idSet(keep)
	var n int64
	for id, tag := range r.s.tags {
		if keepSet[id] || !tag.LastUsedAt.Before(usedBefore) {
			continue
		}
		delete(r.s.tags, id)
		n++
	}
	return n, nil
}

// form responses

type formRepo struct{ s *state }

func (r *formRepo) Create(_ context.Context, response *models.FormResponse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if response.ID.IsZero() {
		response.ID = primitive.NewObjectID()
	}
	r.s.forms[response.ID] = cloneForm(*response)
	return nil
}

func (r *formRepo) FindByTemplateAndUser(_ context.Context, templateID, userID primitive.ObjectID) (*models.FormResponse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, f := range r.s.forms {
		if f.TemplateID == templateID && f.UserID == userID {
			f = cloneForm(f)
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *formRepo) ListByTemplate(_ context.Context, templateID primitive.ObjectID) ([]models.FormResponse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.FormResponse{}
	for _, f := range r.s.forms {
		if f.TemplateID == templateID {
			out = append(out, cloneForm(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *formRepo) ReplaceAnswers(_ context.Context, id primitive.ObjectID, answers []models.Answer, at time.Time) (*models.FormResponse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.forms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.Answers = append([]models.Answer{}, answers...)
	f.UpdatedAt = at
	r.s.forms[id] = f

	out := cloneForm(f)
	return &out, nil
}

func (r *formRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.forms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.forms, id)
	return nil
}

func (r *formRepo) CountByTemplate(_ context.Context) ([]repository.TemplateCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := map[primitive.ObjectID]int64{}
	for _, f := range r.s.forms {
		counts[f.TemplateID]++
	}
	out := make([]repository.TemplateCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, repository.TemplateCount{TemplateID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].TemplateID.Hex() < out[j].TemplateID.Hex()
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}
