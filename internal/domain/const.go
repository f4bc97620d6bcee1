package domain

const (
	RequesterIDCtxKey    = "pf-requesterId"
	RequesterTokenCtxKey = "pf-requesterToken"
)

const (
	MaxRecipeNameLength = 200
	MaxRecipeTextLength = 1000

	MinCookingTime = 1
	MaxCookingTime = 4320

	MinIngredientAmount = 1
	MaxIngredientAmount = 200
)
