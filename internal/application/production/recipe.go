package production

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stockledger-api/internal/application/guard"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DeductInput venta de porciones de una receta.
type DeductInput struct {
	Actor     entity.Actor
	RecipeID  int64
	StoreID   int64
	Quantity  decimal.Decimal
	Reason    string
	Reference *entity.Reference
}

// RecipeUseCase casos de uso de recetas.
type RecipeUseCase struct {
	tx     repository.TxRunner
	repos  repository.Set
	ledger *ledger.Engine
	log    zerolog.Logger
}

// NewRecipeUseCase construye el caso de uso.
func NewRecipeUseCase(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, log zerolog.Logger) *RecipeUseCase {
	return &RecipeUseCase{
		tx:     tx,
		repos:  repos,
		ledger: engine,
		log:    log.With().Str("component", "recipe").Logger(),
	}
}

// Create registra una receta activa con sus ingredientes por porción.
func (uc *RecipeUseCase) Create(ctx context.Context, actor entity.Actor, recipe *entity.Recipe) error {
	if strings.TrimSpace(recipe.Name) == "" || len(recipe.Items) == 0 {
		return domain.ErrInvalidInput
	}
	return uc.tx.Run(ctx, func(r repository.Set) error {
		for _, it := range recipe.Items {
			if !it.Quantity.IsPositive() {
				return domain.ErrInvalidInput
			}
			if _, err := guard.Product(ctx, r, actor, it.ProductID); err != nil {
				return err
			}
		}
		recipe.BusinessID = actor.BusinessID
		recipe.Active = true
		return r.Recipes.Create(ctx, recipe)
	})
}

// Get devuelve la receta con sus ingredientes.
func (uc *RecipeUseCase) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Recipe, error) {
	rc, err := uc.repos.Recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, domain.ErrNotFound
	}
	if err := guard.Owned(actor, rc.BusinessID, "receta", rc.ID); err != nil {
		return nil, err
	}
	return rc, nil
}

// List lista las recetas del negocio.
func (uc *RecipeUseCase) List(ctx context.Context, actor entity.Actor) ([]*entity.Recipe, error) {
	if actor.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.repos.Recipes.List(ctx, actor.BusinessID)
}

// DeductByRecipe descuenta cada ingrediente (cantidad por porción × porciones) en la cocina.
func (uc *RecipeUseCase) DeductByRecipe(ctx context.Context, in DeductInput) ([]*ledger.Result, error) {
	var out []*ledger.Result
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		rc, err := r.Recipes.GetByID(ctx, in.RecipeID)
		if err != nil {
			return err
		}
		if rc == nil {
			return fmt.Errorf("receta %d: %w", in.RecipeID, domain.ErrNotFound)
		}
		if err := guard.Owned(in.Actor, rc.BusinessID, "receta", rc.ID); err != nil {
			return err
		}
		out, err = uc.DeductTx(ctx, r, rc, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeductTx es DeductByRecipe dentro de la transacción del llamador, con la receta ya cargada.
// Sin referencia explícita se usa (recipe, id).
func (uc *RecipeUseCase) DeductTx(ctx context.Context, r repository.Set, rc *entity.Recipe, in DeductInput) ([]*ledger.Result, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	ref := in.Reference
	if ref == nil {
		ref = &entity.Reference{Type: entity.ReferenceRecipe, ID: rc.ID}
	}
	reason := in.Reason
	if reason == "" {
		reason = fmt.Sprintf("Receta %s x%s", rc.Name, in.Quantity.String())
	}
	results := make([]*ledger.Result, 0, len(rc.Items))
	for _, it := range rc.Items {
		res, err := uc.ledger.StockOutTx(ctx, r, ledger.StockOutInput{
			Actor:     in.Actor,
			ProductID: it.ProductID,
			StoreID:   in.StoreID,
			Location:  entity.KitchenLocation,
			Quantity:  it.Quantity.Mul(in.Quantity),
			Reason:    reason,
			Reference: ref,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	uc.log.Debug().Int64("recipe_id", rc.ID).Str("portions", in.Quantity.String()).Msg("ingredientes descontados")
	return results, nil
}

// Cost calcula el costo de una porción: Σ cantidad del ingrediente × precio de compra.
func (uc *RecipeUseCase) Cost(ctx context.Context, actor entity.Actor, recipeID int64) (decimal.Decimal, error) {
	rc, err := uc.Get(ctx, actor, recipeID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range rc.Items {
		p, err := uc.repos.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if p == nil {
			continue
		}
		total = total.Add(it.Quantity.Mul(p.PurchasePrice))
	}
	return total.Round(2), nil
}
