package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/rs/zerolog"
)

// Syncer es la parte del adaptador POS que usan las tareas.
type Syncer interface {
	SyncBusiness(ctx context.Context, businessID int64) (*possync.FullSyncResult, error)
	SyncAll(ctx context.Context) ([]*possync.FullSyncResult, error)
}

// PosSyncJob procesa las tareas pos:sync y pos:sync-all.
type PosSyncJob struct {
	syncer Syncer
	logger zerolog.Logger
}

// NewPosSyncJob conecta el adaptador POS con las tareas.
func NewPosSyncJob(syncer Syncer, logger zerolog.Logger) *PosSyncJob {
	return &PosSyncJob{syncer: syncer, logger: logger.With().Str("component", "jobs").Logger()}
}

// Handlers devuelve los handlers a registrar en el worker.
func (j *PosSyncJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskPosSync, Handler: j.HandleBusiness},
		{Type: TaskPosSyncAll, Handler: j.HandleAll},
	}
}

// HandleBusiness sincroniza un negocio. Un payload inválido, un negocio inexistente o un POS
// sin configurar no se reintentan.
func (j *PosSyncJob) HandleBusiness(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.syncer == nil {
		return errors.New("pos sync: handler no configurado")
	}
	payload, err := parsePosSyncPayload(t)
	if err != nil {
		j.logger.Warn().Err(err).Msg("payload pos:sync inválido")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	res, err := j.syncer.SyncBusiness(ctx, payload.BusinessID)
	if err != nil {
		log := j.logger.Error().Err(err).Int64("business_id", payload.BusinessID)
		if permanent(err) {
			log.Msg("sincronización POS descartada")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		log.Msg("sincronización POS fallida")
		return err
	}
	j.logger.Info().
		Int64("business_id", payload.BusinessID).
		Int("sales_processed", res.Sales.Processed).
		Int("stock_processed", res.StockTransactions.Processed).
		Int("line_errors", len(res.Sales.Errors)+len(res.StockTransactions.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("sincronización POS completada")
	return nil
}

// HandleAll sincroniza todos los negocios con POS activo.
func (j *PosSyncJob) HandleAll(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.syncer == nil {
		return errors.New("pos sync: handler no configurado")
	}
	start := time.Now()
	results, err := j.syncer.SyncAll(ctx)
	if err != nil {
		if errors.Is(err, possync.ErrNoSource) {
			j.logger.Warn().Msg("sincronización POS omitida: origen no configurado")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		j.logger.Error().Err(err).Int("businesses", len(results)).Msg("sincronización POS global con errores")
		return err
	}
	j.logger.Info().Int("businesses", len(results)).Dur("elapsed", time.Since(start)).Msg("sincronización POS global completada")
	return nil
}

// permanent indica errores que no se corrigen reintentando.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, possync.ErrNoSource)
}

// PosSyncCron registra pos:sync-all con la expresión dada; vacío desactiva el programador.
func PosSyncCron(spec string) []CronRegistration {
	if spec == "" {
		return nil
	}
	return []CronRegistration{{
		Spec:    spec,
		Task:    NewPosSyncAllTask(),
		Options: []asynq.Option{asynq.MaxRetry(1), asynq.Unique(time.Minute)},
	}}
}
