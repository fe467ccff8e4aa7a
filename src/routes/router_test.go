package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/controllers"
	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/repository/memory"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryBlacklist stands in for the Redis blacklist.
type memoryBlacklist struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (b *memoryBlacklist) Revoke(_ context.Context, jti string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids[jti] = true
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ids[jti], nil
}

type apiTest struct {
	t     *testing.T
	app   *fiber.App
	store *repository.Store
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	tokens := utils.NewTokenManager("routes-secret", time.Hour)
	blacklist := &memoryBlacklist{ids: map[string]bool{}}

	svc := services.New(services.Options{
		Store:     store,
		Tokens:    tokens,
		Revoker:   blacklist,
		Validator: utils.NewValidator(),
		Logger:    logger,
	})

	app := fiber.New()
	InitRoutes(app, &Handlers{
		Auth:      middleware.NewAuth(authz.NewVerifier(tokens, blacklist), logger),
		Accounts:  controllers.NewAuthController(svc.Auth, false, logger),
		Users:     controllers.NewUserController(svc.Users, logger),
		Templates: controllers.NewTemplateController(svc.Templates, logger),
		Tags:      controllers.NewTagController(svc.Tags, logger),
		Forms:     controllers.NewFormController(svc.Forms, logger),
	})
	return &apiTest{t: t, app: app, store: store}
}

// call sends body as JSON with token as a Bearer header and decodes the
// reply into out when out is non-nil.
func (a *apiTest) call(method, path, token string, body, out any) int {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type signInReply struct {
	Data  models.Account `json:"data"`
	Token string         `json:"token"`
}

func (a *apiTest) signUp(email string) signInReply {
	a.t.Helper()
	var reply signInReply
	status := a.call(http.MethodPost, "/sign-up", "", models.SignUpRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "secret123",
	}, &reply)
	require.Equal(a.t, http.StatusOK, status)
	require.NotEmpty(a.t, reply.Token)
	return reply
}

func (a *apiTest) promote(id string) {
	a.t.Helper()
	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(a.t, err)
	_, err = a.store.Users.SetRole(context.Background(), []primitive.ObjectID{oid}, models.RoleAdmin)
	require.NoError(a.t, err)
}

type templateReply struct {
	Data models.Template `json:"data"`
}

func TestHealth(t *testing.T) {
	a := newAPITest(t)
	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPrivateTemplateFlow(t *testing.T) {
	a := newAPITest(t)
	creator := a.signUp("creator@example.com")
	reader := a.signUp("reader@example.com")
	stranger := a.signUp("stranger@example.com")

	isPublic := false
	var created templateReply
	status := a.call(http.MethodPost, "/new-template", creator.Token, models.CreateTemplateRequest{
		Title:        "Team survey",
		Questions:    []models.QuestionInput{{Title: "Mood", Type: "text"}},
		Topic:        "Work",
		Tags:         []string{"team"},
		IsPublic:     &isPublic,
		AllowedUsers: []string{reader.Data.ID},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	tplPath := "/template/" + created.Data.ID.Hex()
	questionID := created.Data.Questions[0].ID.Hex()

	assert.Equal(t, http.StatusForbidden, a.call(http.MethodGet, tplPath, "", nil, nil))
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodGet, tplPath, stranger.Token, nil, nil))

	var view models.TemplateView
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, tplPath, reader.Token, nil, &view))
	assert.True(t, view.ReadOnly)
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, tplPath, creator.Token, nil, &view))
	assert.False(t, view.ReadOnly)

	var listed []models.TemplateView
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/all-templates", "", nil, &listed))
	assert.Empty(t, listed)

	answers := models.AnswersRequest{Answers: []models.AnswerInput{{QuestionID: questionID, AnswerText: "good"}}}
	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, tplPath+"/submit-answers", reader.Token, answers, nil))

	var dup models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, tplPath+"/submit-answers", reader.Token, answers, &dup))
	assert.Equal(t, "You have already answered this template", dup.Message)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPost, tplPath+"/submit-answers", stranger.Token, answers, nil))

	responsesPath := "/templates/" + created.Data.ID.Hex()
	var responses []models.FormResponse
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, responsesPath+"/form-responses", creator.Token, nil, &responses))
	assert.Len(t, responses, 1)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodGet, responsesPath+"/form-responses", reader.Token, nil, nil))

	var own models.FormResponse
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, responsesPath+"/user-form-responses", reader.Token, nil, &own))
	assert.Equal(t, "good", own.Answers[0].AnswerText)
	assert.Equal(t, http.StatusForbidden,
		a.call(http.MethodGet, responsesPath+"/user-form-responses?userId="+reader.Data.ID, stranger.Token, nil, nil))

	// readers may answer but not edit
	rename := map[string]any{"title": "Renamed"}
	updatePath := "/update-template/" + created.Data.ID.Hex()
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPut, updatePath, reader.Token, rename, nil))
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodPut, updatePath, "", rename, nil))

	var updated templateReply
	require.Equal(t, http.StatusOK, a.call(http.MethodPut, updatePath, creator.Token, rename, &updated))
	assert.Equal(t, "Renamed", updated.Data.Title)
	assert.False(t, updated.Data.IsPublic)
	assert.Len(t, updated.Data.Questions, 1)

	require.Equal(t, http.StatusOK, a.call(http.MethodDelete, "/delete-template/"+created.Data.ID.Hex(), creator.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, tplPath, creator.Token, nil, nil))

	// responses survive the template
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, responsesPath+"/user-form-responses", reader.Token, nil, &own))
}

func TestEndToEndPublicTemplateFlow(t *testing.T) {
	a := newAPITest(t)
	a.signUp("author@example.com")
	admin := a.signUp("admin@example.com")
	a.promote(admin.Data.ID)
	responder := a.signUp("responder@example.com")
	stranger := a.signUp("stranger@example.com")

	var author signInReply
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/sign-in", "",
		models.SignInRequest{Email: "author@example.com", Password: "secret123"}, &author))
	require.NotEmpty(t, author.Token)
	assert.Equal(t, "author@example.com", author.Data.Email)

	var created templateReply
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/new-template", author.Token, models.CreateTemplateRequest{
		Title:     "Feedback",
		Questions: []models.QuestionInput{{Title: "Rating", Type: "text"}, {Title: "Comment", Type: "text"}},
		Topic:     "Other",
		Tags:      []string{"feedback"},
	}, &created))
	id := created.Data.ID.Hex()
	first, second := created.Data.Questions[0].ID.Hex(), created.Data.Questions[1].ID.Hex()

	var view models.TemplateView
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/template/"+id, "", nil, &view))
	assert.True(t, view.ReadOnly)
	assert.Equal(t, "Feedback", view.Title)

	answers := models.AnswersRequest{Answers: []models.AnswerInput{
		{QuestionID: first, AnswerText: "5"},
		{QuestionID: second, AnswerText: "great"},
	}}
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/template/"+id+"/submit-answers", responder.Token, answers, nil))

	base := "/templates/" + id
	var own models.FormResponse
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, base+"/user-form-responses", responder.Token, nil, &own))
	require.Len(t, own.Answers, 2)
	assert.Equal(t, "5", own.Answers[0].AnswerText)
	assert.Equal(t, "great", own.Answers[1].AnswerText)

	onResponder := "?userId=" + responder.Data.ID
	change := models.AnswersRequest{Answers: []models.AnswerInput{{QuestionID: first, AnswerText: "4"}}}
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPut, base+"/update-form-response"+onResponder, stranger.Token, change, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPut, base+"/update-form-response", stranger.Token, change, nil))
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodPut, base+"/update-form-response", "", change, nil))

	var updated struct {
		Data models.FormResponse `json:"data"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodPut, base+"/update-form-response", responder.Token, change, &updated))
	require.Len(t, updated.Data.Answers, 1)
	assert.Equal(t, "4", updated.Data.Answers[0].AnswerText)

	assert.Equal(t, http.StatusForbidden, a.call(http.MethodDelete, base+"/form-response"+onResponder, stranger.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodDelete, base+"/form-response", stranger.Token, nil, nil))
	require.Equal(t, http.StatusOK, a.call(http.MethodDelete, base+"/form-response", responder.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, base+"/user-form-responses", responder.Token, nil, nil))

	body := models.UserIDsRequest{UserIDs: []string{responder.Data.ID}}
	require.Equal(t, http.StatusOK, a.call(http.MethodPut, "/block-users", admin.Token, body, nil))

	var failed models.ErrorResponse
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPost, "/sign-in", "",
		models.SignInRequest{Email: "responder@example.com", Password: "secret123"}, &failed))
	assert.Equal(t, "User account is blocked", failed.Message)
}

func TestAdminOverridesOwnership(t *testing.T) {
	a := newAPITest(t)
	creator := a.signUp("owner@example.com")
	admin := a.signUp("admin@example.com")

	var created templateReply
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/new-template", creator.Token, models.CreateTemplateRequest{
		Title:     "Quiz",
		Questions: []models.QuestionInput{{Title: "2+2", Type: "text"}},
		Topic:     "Quiz",
		Tags:      []string{"math"},
	}, &created))
	deletePath := "/delete-template/" + created.Data.ID.Hex()

	assert.Equal(t, http.StatusForbidden, a.call(http.MethodDelete, deletePath, admin.Token, nil, nil))
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodGet, "/all-users", admin.Token, nil, nil))

	// the token issued before promotion still says "user"
	a.promote(admin.Data.ID)

	var users struct {
		Data []models.UserSummary `json:"data"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/all-users", admin.Token, nil, &users))
	assert.Len(t, users.Data, 2)

	body := models.UserIDsRequest{UserIDs: []string{admin.Data.ID}}
	require.Equal(t, http.StatusOK, a.call(http.MethodPut, "/remove-admins", admin.Token, body, nil))
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodDelete, deletePath, admin.Token, nil, nil))
	a.promote(admin.Data.ID)
	assert.Equal(t, http.StatusOK, a.call(http.MethodDelete, deletePath, admin.Token, nil, nil))
}

func TestBlockedUserKeepsSession(t *testing.T) {
	a := newAPITest(t)
	admin := a.signUp("admin@example.com")
	user := a.signUp("user@example.com")
	a.promote(admin.Data.ID)

	body := models.UserIDsRequest{UserIDs: []string{user.Data.ID}}
	require.Equal(t, http.StatusOK, a.call(http.MethodPut, "/block-users", admin.Token, body, nil))

	var failed models.ErrorResponse
	status := a.call(http.MethodPost, "/sign-in", "", models.SignInRequest{Email: "user@example.com", Password: "secret123"}, &failed)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "User account is blocked", failed.Message)

	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/account", user.Token, nil, nil))
}

func TestSignOutRevokesToken(t *testing.T) {
	a := newAPITest(t)
	user := a.signUp("user@example.com")

	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/account", user.Token, nil, nil))
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/sign-out", user.Token, nil, nil))
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodGet, "/account", user.Token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/verify", user.Token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/account", "", nil, nil))

	// signing out anonymously is harmless
	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, "/sign-out", "", nil, nil))
}

func TestTagsAndRankingRoutes(t *testing.T) {
	a := newAPITest(t)
	creator := a.signUp("creator@example.com")
	voter := a.signUp("voter@example.com")

	var tags []models.Tag
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/tags", "", nil, &tags))
	assert.Empty(t, tags)

	var created templateReply
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/new-template", creator.Token, models.CreateTemplateRequest{
		Title:     "Lunch",
		Questions: []models.QuestionInput{{Title: "Where", Type: "text"}},
		Topic:     "Personal",
		Tags:      []string{"food"},
	}, &created))
	id := created.Data.ID.Hex()

	var tagged templateReply
	require.Equal(t, http.StatusOK, a.call(http.MethodPatch, "/templates/"+id+"/tags", creator.Token,
		models.UpdateTagsRequest{Tags: []string{"food", "friday"}}, &tagged))
	assert.Len(t, tagged.Data.Tags, 2)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPatch, "/templates/"+id+"/tags", voter.Token,
		models.UpdateTagsRequest{Tags: []string{"spam"}}, nil))

	var byTag []models.TemplateView
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/templates/tag/"+tagged.Data.Tags[0].Hex(), "", nil, &byTag))
	assert.Len(t, byTag, 1)

	answers := models.AnswersRequest{Answers: []models.AnswerInput{{QuestionID: created.Data.Questions[0].ID.Hex(), AnswerText: "park"}}}
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/template/"+id+"/submit-answers", voter.Token, answers, nil))

	var ranked []models.TemplateResponseCount
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/templates/most-answered", "", nil, &ranked))
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(1), ranked[0].ResponseCount)
}

func TestQuestionRoutes(t *testing.T) {
	a := newAPITest(t)
	creator := a.signUp("creator@example.com")

	var created templateReply
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/new-template", creator.Token, models.CreateTemplateRequest{
		Title:     "Exam",
		Questions: []models.QuestionInput{{Title: "Q1", Type: "text"}},
		Topic:     "Education",
		Tags:      []string{"exam"},
	}, &created))
	base := "/template/" + created.Data.ID.Hex()

	var added struct {
		Data models.Question `json:"data"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, base+"/add-question", creator.Token,
		models.QuestionInput{Title: "Q2", Type: "choice", Options: []string{"a", "b"}}, &added))
	assert.Equal(t, 2, added.Data.Order)

	var updated struct {
		Data models.Question `json:"data"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, base+"/update-question/"+added.Data.ID.Hex(), creator.Token,
		map[string]any{"title": "Q2 (edited)"}, &updated))
	assert.Equal(t, "Q2 (edited)", updated.Data.Title)
	assert.Equal(t, []string{"a", "b"}, updated.Data.Options)

	missing := primitive.NewObjectID().Hex()
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPost, base+"/update-question/"+missing, creator.Token,
		map[string]any{"title": "x"}, nil))

	require.Equal(t, http.StatusOK, a.call(http.MethodDelete, base+"/delete-question/"+added.Data.ID.Hex(), creator.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodDelete, base+"/delete-question/"+added.Data.ID.Hex(), creator.Token, nil, nil))
}
