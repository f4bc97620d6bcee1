package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/present/rest/middleware"
	"github.com/platefeed/platefeed/internal/service"
	"github.com/platefeed/platefeed/internal/usecase"
)

// --- mocks ---

type mockRecipeRepo struct {
	recipes []domain.Recipe
	total   int64

	favorited [2]uint
}

func (m *mockRecipeRepo) List(ctx context.Context, viewerID uint, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int64, error) {
	return m.recipes, m.total, nil
}
func (m *mockRecipeRepo) Get(ctx context.Context, id uint, viewerID uint) (domain.Recipe, error) {
	for _, rec := range m.recipes {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.Recipe{}, domain.NotFoundError{Resource: "recipe"}
}
func (m *mockRecipeRepo) GetBase(ctx context.Context, id uint) (domain.Recipe, error) {
	return m.Get(ctx, id, 0)
}
func (m *mockRecipeRepo) OwnerID(ctx context.Context, id uint) (uint, error) { return 1, nil }
func (m *mockRecipeRepo) NameTaken(ctx context.Context, authorID uint, name string, excludeID uint) (bool, error) {
	return false, nil
}
func (m *mockRecipeRepo) Create(ctx context.Context, authorID uint, draft domain.RecipeDraft) (uint, error) {
	return 1, nil
}
func (m *mockRecipeRepo) Update(ctx context.Context, id uint, draft domain.RecipeDraft) error {
	return nil
}
func (m *mockRecipeRepo) Delete(ctx context.Context, id uint) error { return nil }
func (m *mockRecipeRepo) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	m.favorited = [2]uint{userID, recipeID}
	return nil
}
func (m *mockRecipeRepo) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return nil
}
func (m *mockRecipeRepo) AddToCart(ctx context.Context, userID, recipeID uint) error      { return nil }
func (m *mockRecipeRepo) RemoveFromCart(ctx context.Context, userID, recipeID uint) error { return nil }

type mockTagReader struct {
	tags []domain.Tag
}

func (m *mockTagReader) List(ctx context.Context) ([]domain.Tag, error) { return m.tags, nil }
func (m *mockTagReader) Get(ctx context.Context, id uint) (domain.Tag, error) {
	for _, tag := range m.tags {
		if tag.ID == id {
			return tag, nil
		}
	}
	return domain.Tag{}, domain.NotFoundError{Resource: "tag"}
}
func (m *mockTagReader) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	return int64(len(ids)), nil
}

type mockIngredientReader struct{}

func (m *mockIngredientReader) Search(ctx context.Context, name string) ([]domain.Ingredient, error) {
	return []domain.Ingredient{{ID: 1, Name: "flour", MeasurementUnit: "g"}}, nil
}
func (m *mockIngredientReader) Get(ctx context.Context, id uint) (domain.Ingredient, error) {
	return domain.Ingredient{ID: id, Name: "flour", MeasurementUnit: "g"}, nil
}
func (m *mockIngredientReader) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	return int64(len(ids)), nil
}
func (m *mockIngredientReader) UserCart(ctx context.Context, userID uint) ([]domain.IngredientAmount, error) {
	return nil, nil
}

type mockUserRepo struct{}

func (m *mockUserRepo) Create(ctx context.Context, reg domain.Registration, passwordHash string) (domain.User, error) {
	return domain.User{ID: 1, Email: reg.Email, Username: reg.Username}, nil
}
func (m *mockUserRepo) Get(ctx context.Context, id uint, viewerID uint) (domain.User, error) {
	return domain.User{ID: id, Username: "cook"}, nil
}
func (m *mockUserRepo) List(ctx context.Context, viewerID uint, page domain.Page) ([]domain.User, int64, error) {
	return []domain.User{{ID: 1, Username: "cook"}}, 1, nil
}
func (m *mockUserRepo) Subscriptions(ctx context.Context, followerID uint, recipesLimit *int, page domain.Page) ([]domain.User, int64, error) {
	return nil, 0, nil
}
func (m *mockUserRepo) PasswordHash(ctx context.Context, id uint) (string, error) { return "", nil }
func (m *mockUserRepo) SetPassword(ctx context.Context, id uint, hash string) error {
	return nil
}

type mockFollowStore struct{}

func (m *mockFollowStore) GetWithRecipes(ctx context.Context, id uint, viewerID uint, recipesLimit *int) (domain.User, error) {
	return domain.User{ID: id, Username: "author"}, nil
}
func (m *mockFollowStore) Follow(ctx context.Context, followerID, followingID uint) error {
	return nil
}
func (m *mockFollowStore) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return nil
}

type mockImageStore struct{}

func (m *mockImageStore) Store(ctx context.Context, payload string) (string, error) {
	return "recipes/stored.png", nil
}

type mockRenderer struct{}

func (m *mockRenderer) Render(items []domain.IngredientAmount) ([]byte, error) {
	return []byte("%PDF-mock"), nil
}

// --- helpers ---

func newTestServer(recipes *mockRecipeRepo, tags *mockTagReader) (*Handler, *echo.Echo) {
	ingredients := &mockIngredientReader{}
	users := &mockUserRepo{}

	recipeUC := usecase.NewRecipeUsecase(recipes, tags, ingredients, &mockImageStore{})
	userUC := usecase.NewUserUsecase(users)
	relationUC := usecase.NewRelationUsecase(recipes, &mockFollowStore{})
	shoppingUC := usecase.NewShoppingListUsecase(ingredients, &mockRenderer{})

	auth := service.NewAuthService(nil, nil, 0)
	h := NewHandler(recipeUC, userUC, relationUC, shoppingUC, tags, ingredients, auth, 6)

	e := echo.New()
	h.RegisterRoutes(e, middleware.NewAuthMiddleware(auth))
	return h, e
}

// authedContext builds an echo context carrying an authenticated
// requester, bypassing the token middleware.
func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID uint) echo.Context {
	ctx := context.WithValue(req.Context(), domain.RequesterIDCtxKey, userID)
	req = req.WithContext(ctx)
	return e.NewContext(req, rec)
}

// --- tests ---

func TestHandleTagList(t *testing.T) {
	tags := &mockTagReader{tags: []domain.Tag{
		{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
	}}
	_, e := newTestServer(&mockRecipeRepo{}, tags)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var got []map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["slug"] != "breakfast" {
		t.Fatalf("unexpected body: %s", res.Body.String())
	}
}

func TestHandleRecipeListEnvelope(t *testing.T) {
	recipes := &mockRecipeRepo{
		recipes: []domain.Recipe{
			{ID: 4, Name: "borscht", Author: domain.User{ID: 1, Username: "cook"}},
			{ID: 3, Name: "pelmeni", Author: domain.User{ID: 1, Username: "cook"}},
		},
		total: 8,
	}
	_, e := newTestServer(recipes, &mockTagReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?limit=2&page=2", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var envelope struct {
		Count    int64            `json:"count"`
		Next     *string          `json:"next"`
		Previous *string          `json:"previous"`
		Results  []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Count != 8 || len(envelope.Results) != 2 {
		t.Fatalf("count=%d results=%d", envelope.Count, len(envelope.Results))
	}
	if envelope.Next == nil || !strings.Contains(*envelope.Next, "page=3") {
		t.Fatalf("next link: %v", envelope.Next)
	}
	if envelope.Previous == nil || !strings.Contains(*envelope.Previous, "page=1") {
		t.Fatalf("previous link: %v", envelope.Previous)
	}
}

func TestHandleRecipeGetNotFound(t *testing.T) {
	_, e := newTestServer(&mockRecipeRepo{}, &mockTagReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/42", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "error") {
		t.Fatalf("expected error body, got %s", res.Body.String())
	}
}

func TestHandleRecipeCreateRequiresAuth(t *testing.T) {
	_, e := newTestServer(&mockRecipeRepo{}, &mockTagReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestHandleRecipeCreateInvalidPayload(t *testing.T) {
	h, e := newTestServer(&mockRecipeRepo{}, &mockTagReader{})

	body, _ := json.Marshal(recipeRequest{
		Name:        "pancakes",
		Text:        "mix",
		CookingTime: 20,
		// no tags, no ingredients
	})
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()

	c := authedContext(e, req, res, 5)
	if err := h.handleRecipeCreate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
	var errBody map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errBody["error"] != "a recipe must have at least one tag" {
		t.Fatalf("unexpected error message: %q", errBody["error"])
	}
}

func TestHandleFavoriteAdd(t *testing.T) {
	recipes := &mockRecipeRepo{
		recipes: []domain.Recipe{{ID: 3, Name: "borscht", ImagePath: "recipes/b.png", CookingTime: 40}},
	}
	h, e := newTestServer(recipes, &mockTagReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/3/favorite", nil)
	res := httptest.NewRecorder()

	c := authedContext(e, req, res, 5)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.handleFavoriteAdd(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", res.Code)
	}
	if recipes.favorited != [2]uint{5, 3} {
		t.Fatalf("favorite recorded as %v", recipes.favorited)
	}

	var got map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["name"] != "borscht" || got["image"] != "/media/recipes/b.png" {
		t.Fatalf("unexpected base recipe: %s", res.Body.String())
	}
	if _, ok := got["text"]; ok {
		t.Fatalf("base recipe must not carry the full projection")
	}
}

func TestHandleRegister(t *testing.T) {
	_, e := newTestServer(&mockRecipeRepo{}, &mockTagReader{})

	body, _ := json.Marshal(registerRequest{
		Email:    "cook@example.com",
		Username: "cook",
		Password: "s3cret-pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["email"] != "cook@example.com" {
		t.Fatalf("unexpected body: %s", res.Body.String())
	}
	if _, ok := got["password"]; ok {
		t.Fatalf("password must never appear in responses")
	}
}

func TestHandleIngredientSearch(t *testing.T) {
	_, e := newTestServer(&mockRecipeRepo{}, &mockTagReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/ingredients?name=flo", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["measurement_unit"] != "g" {
		t.Fatalf("unexpected body: %s", res.Body.String())
	}
}
