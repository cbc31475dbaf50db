package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.RepackagingRepository = (*RepackagingRepo)(nil)
	_ repository.RecipeRepository      = (*RecipeRepo)(nil)
)

// RepackagingRepo implementación del puerto RepackagingRepository sobre PostgreSQL.
type RepackagingRepo struct {
	q Querier
}

// NewRepackagingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRepackagingRepository(q Querier) *RepackagingRepo {
	return &RepackagingRepo{q: q}
}

const ruleColumns = `id, business_id, name, source_product_id, active, memo, created_at`

func scanRule(row pgx.Row) (*entity.RepackagingRule, error) {
	var rule entity.RepackagingRule
	if err := row.Scan(&rule.ID, &rule.BusinessID, &rule.Name, &rule.SourceProductID, &rule.Active, &rule.Memo, &rule.CreatedAt); err != nil {
		return nil, err
	}
	return &rule, nil
}

// CreateRule persiste una regla con sus destinos.
func (r *RepackagingRepo) CreateRule(ctx context.Context, rule *entity.RepackagingRule) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO repackaging_rules (business_id, name, source_product_id, active, memo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		rule.BusinessID, rule.Name, rule.SourceProductID, rule.Active, rule.Memo,
	).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert repackaging rule: %w", err)
	}
	for i := range rule.Targets {
		t := &rule.Targets[i]
		t.RuleID = rule.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO repackaging_targets (rule_id, target_product_id, ratio) VALUES ($1, $2, $3) RETURNING id`,
			rule.ID, t.TargetProductID, t.Ratio,
		).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("insert repackaging target: %w", err)
		}
	}
	return nil
}

func (r *RepackagingRepo) targets(ctx context.Context, ruleID int64) ([]entity.RepackagingTarget, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, rule_id, target_product_id, ratio FROM repackaging_targets WHERE rule_id = $1 ORDER BY id`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("list repackaging targets: %w", err)
	}
	defer rows.Close()
	var list []entity.RepackagingTarget
	for rows.Next() {
		var t entity.RepackagingTarget
		if err := rows.Scan(&t.ID, &t.RuleID, &t.TargetProductID, &t.Ratio); err != nil {
			return nil, fmt.Errorf("scan repackaging target: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// GetRule obtiene una regla con sus destinos.
func (r *RepackagingRepo) GetRule(ctx context.Context, id int64) (*entity.RepackagingRule, error) {
	rule, err := scanRule(r.q.QueryRow(ctx, `SELECT `+ruleColumns+` FROM repackaging_rules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get repackaging rule: %w", err)
	}
	if rule.Targets, err = r.targets(ctx, rule.ID); err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules lista las reglas de un negocio.
func (r *RepackagingRepo) ListRules(ctx context.Context, businessID int64) ([]*entity.RepackagingRule, error) {
	rows, err := r.q.Query(ctx, `SELECT `+ruleColumns+` FROM repackaging_rules WHERE business_id = $1 ORDER BY id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list repackaging rules: %w", err)
	}
	list, err := collect(rows, scanRule)
	if err != nil {
		return nil, fmt.Errorf("list repackaging rules: %w", err)
	}
	for _, rule := range list {
		if rule.Targets, err = r.targets(ctx, rule.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// RecipeRepo implementación del puerto RecipeRepository sobre PostgreSQL.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

const recipeColumns = `id, business_id, name, pos_menu_id, active, memo, created_at`

func scanRecipe(row pgx.Row) (*entity.Recipe, error) {
	var rec entity.Recipe
	if err := row.Scan(&rec.ID, &rec.BusinessID, &rec.Name, &rec.PosMenuID, &rec.Active, &rec.Memo, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create persiste una receta con sus ingredientes.
func (r *RecipeRepo) Create(ctx context.Context, rec *entity.Recipe) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO recipes (business_id, name, pos_menu_id, active, memo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		rec.BusinessID, rec.Name, rec.PosMenuID, rec.Active, rec.Memo,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	for i := range rec.Items {
		it := &rec.Items[i]
		it.RecipeID = rec.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO recipe_items (recipe_id, product_id, quantity, unit) VALUES ($1, $2, $3, $4) RETURNING id`,
			rec.ID, it.ProductID, it.Quantity, it.Unit,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert recipe item: %w", err)
		}
	}
	return nil
}

func (r *RecipeRepo) items(ctx context.Context, recipeID int64) ([]entity.RecipeItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, recipe_id, product_id, quantity, unit FROM recipe_items WHERE recipe_id = $1 ORDER BY id`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list recipe items: %w", err)
	}
	defer rows.Close()
	var list []entity.RecipeItem
	for rows.Next() {
		var it entity.RecipeItem
		if err := rows.Scan(&it.ID, &it.RecipeID, &it.ProductID, &it.Quantity, &it.Unit); err != nil {
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *RecipeRepo) get(ctx context.Context, query string, args ...any) (*entity.Recipe, error) {
	rec, err := scanRecipe(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	if rec.Items, err = r.items(ctx, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID obtiene una receta con sus ingredientes.
func (r *RecipeRepo) GetByID(ctx context.Context, id int64) (*entity.Recipe, error) {
	return r.get(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
}

// FindForMenu prioriza la receta enlazada al producto de menú y cae al nombre exacto.
func (r *RecipeRepo) FindForMenu(ctx context.Context, businessID, menuProductID int64, menuName string) (*entity.Recipe, error) {
	return r.get(ctx, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE business_id = $1 AND active
		  AND (($2::bigint <> 0 AND pos_menu_id = $2::bigint) OR ($3::text <> '' AND name = $3::text))
		ORDER BY ($2::bigint <> 0 AND pos_menu_id IS NOT DISTINCT FROM $2::bigint) DESC, id
		LIMIT 1`,
		businessID, menuProductID, menuName)
}

// List lista las recetas de un negocio.
func (r *RecipeRepo) List(ctx context.Context, businessID int64) ([]*entity.Recipe, error) {
	rows, err := r.q.Query(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE business_id = $1 ORDER BY id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	list, err := collect(rows, scanRecipe)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	for _, rec := range list {
		if rec.Items, err = r.items(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
