package dto

import (
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RepackagingTargetRequest destino de una regla.
type RepackagingTargetRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Ratio     decimal.Decimal `json:"ratio" validate:"gt=0"`
}

// CreateRuleRequest body para POST /api/repackaging/rules.
type CreateRuleRequest struct {
	Name            string                     `json:"name" validate:"required,max=200"`
	SourceProductID int64                      `json:"source_product_id" validate:"required,gt=0"`
	Memo            string                     `json:"memo,omitempty" validate:"max=500"`
	Targets         []RepackagingTargetRequest `json:"targets" validate:"required,min=1,dive"`
}

// ExecuteRuleRequest body para POST /api/repackaging/rules/:id/execute.
type ExecuteRuleRequest struct {
	StoreID  int64           `json:"store_id" validate:"required,gt=0"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
	Memo     string          `json:"memo,omitempty" validate:"max=255"`
}

// RuleResponse salida de una regla de reempaque.
type RuleResponse struct {
	ID              int64                      `json:"id"`
	Name            string                     `json:"name"`
	SourceProductID int64                      `json:"source_product_id"`
	Active          bool                       `json:"active"`
	Memo            string                     `json:"memo,omitempty"`
	Targets         []RepackagingTargetRequest `json:"targets"`
}

// ToRuleResponses mapea reglas.
func ToRuleResponses(rules []*entity.RepackagingRule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, ToRuleResponse(r))
	}
	return out
}

// ToRuleResponse mapea una regla.
func ToRuleResponse(r *entity.RepackagingRule) RuleResponse {
	out := RuleResponse{ID: r.ID, Name: r.Name, SourceProductID: r.SourceProductID, Active: r.Active, Memo: r.Memo}
	for _, t := range r.Targets {
		out.Targets = append(out.Targets, RepackagingTargetRequest{ProductID: t.TargetProductID, Ratio: t.Ratio})
	}
	return out
}

// OutputResponse cantidad producida de un destino.
type OutputResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ExecuteRuleResponse resultado de un reempaque.
type ExecuteRuleResponse struct {
	Outputs   []OutputResponse `json:"outputs"`
	Shortfall decimal.Decimal  `json:"shortfall"`
}

// RecipeItemRequest ingrediente por porción.
type RecipeItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit      string          `json:"unit,omitempty" validate:"max=20"`
}

// CreateRecipeRequest body para POST /api/recipes.
type CreateRecipeRequest struct {
	Name      string              `json:"name" validate:"required,max=200"`
	PosMenuID *int64              `json:"pos_menu_id,omitempty" validate:"omitempty,gt=0"`
	Memo      string              `json:"memo,omitempty" validate:"max=500"`
	Items     []RecipeItemRequest `json:"items" validate:"required,min=1,dive"`
}

// DeductRecipeRequest body para POST /api/recipes/:id/deduct.
type DeductRecipeRequest struct {
	StoreID  int64           `json:"store_id" validate:"required,gt=0"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reason   string          `json:"reason,omitempty" validate:"max=255"`
}

// RecipeResponse salida de una receta.
type RecipeResponse struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	PosMenuID *int64              `json:"pos_menu_id,omitempty"`
	Active    bool                `json:"active"`
	Memo      string              `json:"memo,omitempty"`
	Items     []RecipeItemRequest `json:"items"`
}

// ToRecipeResponse mapea una receta.
func ToRecipeResponse(r *entity.Recipe) RecipeResponse {
	out := RecipeResponse{ID: r.ID, Name: r.Name, PosMenuID: r.PosMenuID, Active: r.Active, Memo: r.Memo}
	for _, it := range r.Items {
		out.Items = append(out.Items, RecipeItemRequest{ProductID: it.ProductID, Quantity: it.Quantity, Unit: it.Unit})
	}
	return out
}

// ToRecipeResponses mapea recetas.
func ToRecipeResponses(rs []*entity.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToRecipeResponse(r))
	}
	return out
}
