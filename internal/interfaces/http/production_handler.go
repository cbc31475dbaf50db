package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ProductionHandler maneja reglas de reempaque y recetas (protegido).
type ProductionHandler struct {
	repackaging *production.RepackagingUseCase
	recipes     *production.RecipeUseCase
}

// NewProductionHandler construye el handler.
func NewProductionHandler(repackaging *production.RepackagingUseCase, recipes *production.RecipeUseCase) *ProductionHandler {
	return &ProductionHandler{repackaging: repackaging, recipes: recipes}
}

// CreateRule godoc
// @Summary      Crear regla de reempaque
// @Tags         repackaging
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRuleRequest  true  "source_product_id, targets"
// @Success      201   {object}  dto.RuleResponse
// @Router       /api/repackaging/rules [post]
func (h *ProductionHandler) CreateRule(c *fiber.Ctx) error {
	var in dto.CreateRuleRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	rule := &entity.RepackagingRule{Name: in.Name, SourceProductID: in.SourceProductID, Memo: in.Memo}
	for _, t := range in.Targets {
		rule.Targets = append(rule.Targets, entity.RepackagingTarget{TargetProductID: t.ProductID, Ratio: t.Ratio})
	}
	if err := h.repackaging.CreateRule(c.UserContext(), actorFrom(c), rule); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRuleResponse(rule))
}

// ListRules godoc
// @Summary      Listar reglas de reempaque
// @Tags         repackaging
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.RuleResponse
// @Router       /api/repackaging/rules [get]
func (h *ProductionHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.repackaging.ListRules(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRuleResponses(rules))
}

// ExecuteRule godoc
// @Summary      Ejecutar reempaque (salida del origen, entrada de los destinos)
// @Tags         repackaging
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true  "ID de la regla"
// @Param        body  body  dto.ExecuteRuleRequest  true  "store_id, quantity"
// @Success      201   {object}  dto.ExecuteRuleResponse
// @Router       /api/repackaging/rules/{id}/execute [post]
func (h *ProductionHandler) ExecuteRule(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ExecuteRuleRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.repackaging.Execute(c.UserContext(), production.ExecuteInput{
		Actor:    actorFrom(c),
		RuleID:   id,
		StoreID:  in.StoreID,
		Quantity: in.Quantity,
		Memo:     in.Memo,
	})
	if err != nil {
		return respondError(c, err)
	}
	out := dto.ExecuteRuleResponse{Shortfall: res.Shortfall, Outputs: make([]dto.OutputResponse, 0, len(res.Outputs))}
	for _, o := range res.Outputs {
		out.Outputs = append(out.Outputs, dto.OutputResponse{ProductID: o.ProductID, Quantity: o.Quantity})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateRecipe godoc
// @Summary      Crear receta
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRecipeRequest  true  "name, pos_menu_id, items"
// @Success      201   {object}  dto.RecipeResponse
// @Router       /api/recipes [post]
func (h *ProductionHandler) CreateRecipe(c *fiber.Ctx) error {
	var in dto.CreateRecipeRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	recipe := &entity.Recipe{Name: in.Name, PosMenuID: in.PosMenuID, Memo: in.Memo}
	for _, it := range in.Items {
		recipe.Items = append(recipe.Items, entity.RecipeItem{ProductID: it.ProductID, Quantity: it.Quantity, Unit: it.Unit})
	}
	if err := h.recipes.Create(c.UserContext(), actorFrom(c), recipe); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRecipeResponse(recipe))
}

// ListRecipes godoc
// @Summary      Listar recetas
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.RecipeResponse
// @Router       /api/recipes [get]
func (h *ProductionHandler) ListRecipes(c *fiber.Ctx) error {
	list, err := h.recipes.List(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRecipeResponses(list))
}

// GetRecipe godoc
// @Summary      Obtener receta
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la receta"
// @Success      200  {object}  dto.RecipeResponse
// @Router       /api/recipes/{id} [get]
func (h *ProductionHandler) GetRecipe(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.recipes.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToRecipeResponse(r))
}

// RecipeCost godoc
// @Summary      Costo de una porción según el precio de compra de los ingredientes
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la receta"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/recipes/{id}/cost [get]
func (h *ProductionHandler) RecipeCost(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	cost, err := h.recipes.Cost(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"recipe_id": id, "cost": cost})
}

// DeductRecipe godoc
// @Summary      Descontar ingredientes por porciones vendidas
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID de la receta"
// @Param        body  body  dto.DeductRecipeRequest  true  "store_id, quantity"
// @Success      201   {array}   dto.LedgerResultResponse
// @Router       /api/recipes/{id}/deduct [post]
func (h *ProductionHandler) DeductRecipe(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.DeductRecipeRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	results, err := h.recipes.DeductByRecipe(c.UserContext(), production.DeductInput{
		Actor:    actorFrom(c),
		RecipeID: id,
		StoreID:  in.StoreID,
		Quantity: in.Quantity,
		Reason:   in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LedgerResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, dto.ToLedgerResult(r))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
