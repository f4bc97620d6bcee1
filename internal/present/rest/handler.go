package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/present/rest/middleware"
	"github.com/platefeed/platefeed/internal/present/rest/presenter"
	"github.com/platefeed/platefeed/internal/service"
	"github.com/platefeed/platefeed/internal/usecase"
)

type Handler struct {
	recipe       *usecase.RecipeUsecase
	user         *usecase.UserUsecase
	relation     *usecase.RelationUsecase
	shoppingList *usecase.ShoppingListUsecase
	tags         usecase.TagReader
	ingredients  usecase.IngredientReader
	auth         *service.AuthService
	defaultLimit int
}

func NewHandler(
	recipe *usecase.RecipeUsecase,
	user *usecase.UserUsecase,
	relation *usecase.RelationUsecase,
	shoppingList *usecase.ShoppingListUsecase,
	tags usecase.TagReader,
	ingredients usecase.IngredientReader,
	auth *service.AuthService,
	defaultLimit int,
) *Handler {
	return &Handler{
		recipe:       recipe,
		user:         user,
		relation:     relation,
		shoppingList: shoppingList,
		tags:         tags,
		ingredients:  ingredients,
		auth:         auth,
		defaultLimit: defaultLimit,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, am *middleware.AuthMiddleware) {
	api := e.Group("/api", am.IdentifyRequester)

	api.POST("/auth/token/login", h.handleLogin)
	api.POST("/auth/token/logout", h.handleLogout, am.RequireAuth)

	api.GET("/users", h.handleUserList)
	api.POST("/users", h.handleRegister)
	api.GET("/users/me", h.handleMe, am.RequireAuth)
	api.POST("/users/set_password", h.handleSetPassword, am.RequireAuth)
	api.GET("/users/subscriptions", h.handleSubscriptions, am.RequireAuth)
	api.GET("/users/:id", h.handleUserGet)
	api.POST("/users/:id/subscribe", h.handleSubscribe, am.RequireAuth)
	api.DELETE("/users/:id/subscribe", h.handleUnsubscribe, am.RequireAuth)

	api.GET("/tags", h.handleTagList)
	api.GET("/tags/:id", h.handleTagGet)

	api.GET("/ingredients", h.handleIngredientList)
	api.GET("/ingredients/:id", h.handleIngredientGet)

	api.GET("/recipes", h.handleRecipeList)
	api.POST("/recipes", h.handleRecipeCreate, am.RequireAuth)
	api.GET("/recipes/download_shopping_cart", h.handleDownloadShoppingCart, am.RequireAuth)
	api.GET("/recipes/:id", h.handleRecipeGet)
	api.PATCH("/recipes/:id", h.handleRecipeUpdate, am.RequireAuth)
	api.PUT("/recipes/:id", h.handleRecipeUpdate, am.RequireAuth)
	api.DELETE("/recipes/:id", h.handleRecipeDelete, am.RequireAuth)
	api.POST("/recipes/:id/favorite", h.handleFavoriteAdd, am.RequireAuth)
	api.DELETE("/recipes/:id/favorite", h.handleFavoriteRemove, am.RequireAuth)
	api.POST("/recipes/:id/shopping_cart", h.handleCartAdd, am.RequireAuth)
	api.DELETE("/recipes/:id/shopping_cart", h.handleCartRemove, am.RequireAuth)
}

// requesterID reads the id set by the auth middleware. Zero means the
// request is anonymous.
func requesterID(c echo.Context) uint {
	id, _ := c.Request().Context().Value(domain.RequesterIDCtxKey).(uint)
	return id
}

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return uint(id), nil
}

func (h *Handler) pageParams(c echo.Context) (domain.Page, error) {
	page := domain.Page{Number: 1, Limit: h.defaultLimit}

	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, fmt.Errorf("invalid page parameter")
		}
		page.Number = n
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, fmt.Errorf("invalid limit parameter")
		}
		page.Limit = n
	}
	return page, nil
}

// paginate builds the list envelope, deriving next/previous links from
// the request URL.
func paginate(c echo.Context, count int64, page domain.Page, results any) presenter.Page {
	pageURL := func(number int) *string {
		u := *c.Request().URL
		q := u.Query()
		q.Set("page", strconv.Itoa(number))
		u.RawQuery = q.Encode()
		s := u.String()
		return &s
	}

	envelope := presenter.Page{Count: count, Results: results}
	if int64(page.Offset()+page.Limit) < count {
		envelope.Next = pageURL(page.Number + 1)
	}
	if page.Number > 1 {
		envelope.Previous = pageURL(page.Number - 1)
	}
	return envelope
}

// --- auth

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	token, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"auth_token": token})
}

func (h *Handler) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()

	token, _ := ctx.Value(domain.RequesterTokenCtxKey).(string)
	if err := h.auth.Logout(ctx, token); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

// --- users

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	user, err := h.user.Register(ctx, domain.Registration{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, presenter.UserResponse(user))
}

func (h *Handler) handleUserList(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.pageParams(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	users, count, err := h.user.List(ctx, requesterID(c), page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, paginate(c, count, page, presenter.UserResponses(users)))
}

func (h *Handler) handleUserGet(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	user, err := h.user.Get(ctx, id, requesterID(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.UserResponse(user))
}

func (h *Handler) handleMe(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.user.Get(ctx, requesterID(c), requesterID(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.UserResponse(user))
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

func (h *Handler) handleSetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req setPasswordRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	err := h.user.SetPassword(ctx, requesterID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.pageParams(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	var recipesLimit *int
	if raw := c.QueryParam("recipes_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid recipes_limit parameter")
		}
		recipesLimit = &n
	}

	users, count, err := h.user.Subscriptions(ctx, requesterID(c), recipesLimit, page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, paginate(c, count, page, presenter.SubscriptionResponses(users)))
}

func (h *Handler) handleSubscribe(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	author, err := h.relation.Follow(ctx, requesterID(c), id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, presenter.SubscriptionResponse(author))
}

func (h *Handler) handleUnsubscribe(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	if err := h.relation.Unfollow(ctx, requesterID(c), id); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

// --- tags

func (h *Handler) handleTagList(c echo.Context) error {
	ctx := c.Request().Context()

	tags, err := h.tags.List(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.TagResponses(tags))
}

func (h *Handler) handleTagGet(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	tag, err := h.tags.Get(ctx, id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.TagResponse(tag))
}

// --- ingredients

func (h *Handler) handleIngredientList(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.ingredients.Search(ctx, c.QueryParam("name"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.IngredientResponses(items))
}

func (h *Handler) handleIngredientGet(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	item, err := h.ingredients.Get(ctx, id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.IngredientResponse(item))
}

// --- recipes

type recipeIngredientRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

type recipeRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Tags        []uint                    `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

func recipeInput(req recipeRequest) usecase.RecipeInput {
	lines := make([]domain.IngredientRef, 0, len(req.Ingredients))
	for _, line := range req.Ingredients {
		lines = append(lines, domain.IngredientRef{IngredientID: line.ID, Amount: line.Amount})
	}
	return usecase.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: lines,
	}
}

func (h *Handler) recipeFilter(c echo.Context) (domain.RecipeFilter, error) {
	var filter domain.RecipeFilter

	filter.TagSlugs = c.QueryParams()["tags"]

	if raw := c.QueryParam("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid author parameter")
		}
		filter.AuthorID = uint(id)
	}

	boolParam := func(name string) (bool, error) {
		raw := c.QueryParam(name)
		switch raw {
		case "", "0", "false":
			return false, nil
		case "1", "true":
			return true, nil
		default:
			return false, fmt.Errorf("invalid %s parameter", name)
		}
	}

	var err error
	if filter.OnlyFavorited, err = boolParam("is_favorited"); err != nil {
		return filter, err
	}
	if filter.OnlyInCart, err = boolParam("is_in_shopping_cart"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) handleRecipeList(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.pageParams(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}
	filter, err := h.recipeFilter(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	recipes, count, err := h.recipe.List(ctx, requesterID(c), filter, page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, paginate(c, count, page, presenter.RecipeResponses(recipes)))
}

func (h *Handler) handleRecipeGet(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	recipe, err := h.recipe.Get(ctx, id, requesterID(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.RecipeResponse(recipe))
}

func (h *Handler) handleRecipeCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	recipe, err := h.recipe.Create(ctx, requesterID(c), recipeInput(req))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, presenter.RecipeResponse(recipe))
}

func (h *Handler) handleRecipeUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	recipe, err := h.recipe.Update(ctx, requesterID(c), id, recipeInput(req))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, presenter.RecipeResponse(recipe))
}

func (h *Handler) handleRecipeDelete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	if err := h.recipe.Delete(ctx, requesterID(c), id); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleDownloadShoppingCart(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := h.shoppingList.Download(ctx, requesterID(c))
	if err != nil {
		return presenter.Error(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="shopping_list.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

// --- favorites and shopping cart

func (h *Handler) handleFavoriteAdd(c echo.Context) error {
	return h.addRelation(c, h.relation.AddFavorite)
}

func (h *Handler) handleFavoriteRemove(c echo.Context) error {
	return h.removeRelation(c, h.relation.RemoveFavorite)
}

func (h *Handler) handleCartAdd(c echo.Context) error {
	return h.addRelation(c, h.relation.AddToCart)
}

func (h *Handler) handleCartRemove(c echo.Context) error {
	return h.removeRelation(c, h.relation.RemoveFromCart)
}

func (h *Handler) addRelation(c echo.Context, add func(context.Context, uint, uint) (domain.Recipe, error)) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	recipe, err := add(ctx, requesterID(c), id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, presenter.BaseRecipeResponse(recipe))
}

func (h *Handler) removeRelation(c echo.Context, remove func(context.Context, uint, uint) error) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	if err := remove(ctx, requesterID(c), id); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}
