package memory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type repackagingRepo struct{ s *session }

func (r *repackagingRepo) CreateRule(_ context.Context, rule *entity.RepackagingRule) error {
	r.s.do(func(st *state) {
		rule.ID = st.next("repackaging_rules")
		rule.CreatedAt = r.s.now()
		for i := range rule.Targets {
			rule.Targets[i].ID = st.next("repackaging_targets")
			rule.Targets[i].RuleID = rule.ID
		}
		st.rules[rule.ID] = copyRule(rule)
	})
	return nil
}

func (r *repackagingRepo) GetRule(_ context.Context, id int64) (*entity.RepackagingRule, error) {
	var out *entity.RepackagingRule
	r.s.do(func(st *state) {
		if rule, ok := st.rules[id]; ok {
			out = copyRule(rule)
		}
	})
	return out, nil
}

func (r *repackagingRepo) ListRules(_ context.Context, businessID int64) ([]*entity.RepackagingRule, error) {
	var out []*entity.RepackagingRule
	r.s.do(func(st *state) {
		for _, id := range ascending(st.rules) {
			if rule := st.rules[id]; rule.BusinessID == businessID {
				out = append(out, copyRule(rule))
			}
		}
	})
	return out, nil
}

type recipeRepo struct{ s *session }

func (r *recipeRepo) Create(_ context.Context, rec *entity.Recipe) error {
	r.s.do(func(st *state) {
		rec.ID = st.next("recipes")
		rec.CreatedAt = r.s.now()
		for i := range rec.Items {
			rec.Items[i].ID = st.next("recipe_items")
			rec.Items[i].RecipeID = rec.ID
		}
		st.recipes[rec.ID] = copyRecipe(rec)
	})
	return nil
}

func (r *recipeRepo) GetByID(_ context.Context, id int64) (*entity.Recipe, error) {
	var out *entity.Recipe
	r.s.do(func(st *state) {
		if rec, ok := st.recipes[id]; ok {
			out = copyRecipe(rec)
		}
	})
	return out, nil
}

func (r *recipeRepo) FindForMenu(_ context.Context, businessID, menuProductID int64, menuName string) (*entity.Recipe, error) {
	var out *entity.Recipe
	r.s.do(func(st *state) {
		var byName *entity.Recipe
		for _, id := range ascending(st.recipes) {
			rec := st.recipes[id]
			if rec.BusinessID != businessID || !rec.Active {
				continue
			}
			if menuProductID != 0 && rec.PosMenuID != nil && *rec.PosMenuID == menuProductID {
				out = copyRecipe(rec)
				return
			}
			if byName == nil && menuName != "" && rec.Name == menuName {
				byName = rec
			}
		}
		if byName != nil {
			out = copyRecipe(byName)
		}
	})
	return out, nil
}

func (r *recipeRepo) List(_ context.Context, businessID int64) ([]*entity.Recipe, error) {
	var out []*entity.Recipe
	r.s.do(func(st *state) {
		for _, id := range ascending(st.recipes) {
			if rec := st.recipes[id]; rec.BusinessID == businessID {
				out = append(out, copyRecipe(rec))
			}
		}
	})
	return out, nil
}
