// Package production implementa el reempaque (un producto origen en varios destinos) y el
// descuento de ingredientes por receta.
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

// ExecuteInput ejecución de una regla de reempaque.
type ExecuteInput struct {
	Actor    entity.Actor
	RuleID   int64
	StoreID  int64
	Quantity decimal.Decimal
	Memo     string
}

// ExecuteResult cantidades producidas y faltante del origen.
type ExecuteResult struct {
	Outputs   []entity.RepackagingOutput
	Shortfall decimal.Decimal
}

// RepackagingUseCase casos de uso de reempaque.
type RepackagingUseCase struct {
	tx     repository.TxRunner
	repos  repository.Set
	ledger *ledger.Engine
	log    zerolog.Logger
}

// NewRepackagingUseCase construye el caso de uso.
func NewRepackagingUseCase(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, log zerolog.Logger) *RepackagingUseCase {
	return &RepackagingUseCase{
		tx:     tx,
		repos:  repos,
		ledger: engine,
		log:    log.With().Str("component", "repackaging").Logger(),
	}
}

// CreateRule registra una regla activa. Cada destino necesita ratio positivo y no puede ser el origen.
func (uc *RepackagingUseCase) CreateRule(ctx context.Context, actor entity.Actor, rule *entity.RepackagingRule) error {
	if strings.TrimSpace(rule.Name) == "" || len(rule.Targets) == 0 {
		return domain.ErrInvalidInput
	}
	return uc.tx.Run(ctx, func(r repository.Set) error {
		if _, err := guard.Product(ctx, r, actor, rule.SourceProductID); err != nil {
			return err
		}
		for _, tg := range rule.Targets {
			if !tg.Ratio.IsPositive() || tg.TargetProductID == rule.SourceProductID {
				return domain.ErrInvalidInput
			}
			if _, err := guard.Product(ctx, r, actor, tg.TargetProductID); err != nil {
				return err
			}
		}
		rule.BusinessID = actor.BusinessID
		rule.Active = true
		return r.Repackaging.CreateRule(ctx, rule)
	})
}

// ListRules lista las reglas del negocio.
func (uc *RepackagingUseCase) ListRules(ctx context.Context, actor entity.Actor) ([]*entity.RepackagingRule, error) {
	if actor.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.repos.Repackaging.ListRules(ctx, actor.BusinessID)
}

// Execute descuenta el origen por FEFO en la ubicación por defecto y suma a cada destino
// cantidad × ratio, todo en una transacción. Con faltante permisivo los destinos se calculan sobre
// lo que realmente salió del origen.
func (uc *RepackagingUseCase) Execute(ctx context.Context, in ExecuteInput) (*ExecuteResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	var out *ExecuteResult
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		rule, err := r.Repackaging.GetRule(ctx, in.RuleID)
		if err != nil {
			return err
		}
		if rule == nil {
			return fmt.Errorf("regla %d: %w", in.RuleID, domain.ErrNotFound)
		}
		if err := guard.Owned(in.Actor, rule.BusinessID, "regla", rule.ID); err != nil {
			return err
		}
		if !rule.Active || len(rule.Targets) == 0 {
			return fmt.Errorf("regla %d inactiva o sin destinos: %w", rule.ID, domain.ErrInvalidState)
		}

		ref := &entity.Reference{Type: entity.ReferenceRepackaging, ID: rule.ID}
		reason := "Reempaque: " + rule.Name
		if in.Memo != "" {
			reason += " (" + in.Memo + ")"
		}
		res, err := uc.ledger.StockOutTx(ctx, r, ledger.StockOutInput{
			Actor:     in.Actor,
			ProductID: rule.SourceProductID,
			StoreID:   in.StoreID,
			Location:  entity.DefaultLocation,
			Quantity:  in.Quantity,
			Reason:    reason,
			Reference: ref,
		})
		if err != nil {
			return err
		}

		result := &ExecuteResult{Shortfall: res.Shortfall}
		used := in.Quantity.Sub(res.Shortfall)
		if res.HasShortfall() {
			uc.log.Warn().Int64("rule_id", rule.ID).Int64("store_id", in.StoreID).
				Str("requested", in.Quantity.String()).Str("used", used.String()).
				Msg("reempaque con faltante en el origen")
		}
		if !used.IsPositive() {
			out = result
			return nil
		}
		for _, tg := range rule.Targets {
			qty := used.Mul(tg.Ratio)
			if _, err := uc.ledger.StockInTx(ctx, r, ledger.StockInInput{
				Actor:     in.Actor,
				ProductID: tg.TargetProductID,
				StoreID:   in.StoreID,
				Location:  entity.DefaultLocation,
				Quantity:  qty,
				Reason:    reason,
				Reference: ref,
			}); err != nil {
				return err
			}
			result.Outputs = append(result.Outputs, entity.RepackagingOutput{ProductID: tg.TargetProductID, Quantity: qty})
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("rule_id", in.RuleID).Str("quantity", in.Quantity.String()).Int("targets", len(out.Outputs)).Msg("reempaque ejecutado")
	return out, nil
}
