package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/jobs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	calls    []int64
	allCalls int
	err      error
}

func (f *fakeSyncer) SyncBusiness(_ context.Context, businessID int64) (*possync.FullSyncResult, error) {
	f.calls = append(f.calls, businessID)
	if f.err != nil {
		return nil, f.err
	}
	return &possync.FullSyncResult{BusinessID: businessID, Sales: possync.SyncResult{Processed: 2}}, nil
}

func (f *fakeSyncer) SyncAll(context.Context) ([]*possync.FullSyncResult, error) {
	f.allCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []*possync.FullSyncResult{{BusinessID: 1}, {BusinessID: 2}}, nil
}

func newJob(s *fakeSyncer) *jobs.PosSyncJob {
	return jobs.NewPosSyncJob(s, zerolog.Nop())
}

// ─── Tareas ──────────────────────────────────────────────────────────────────

func TestNewPosSyncTask_CodificaElNegocio(t *testing.T) {
	task, err := jobs.NewPosSyncTask(7)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskPosSync, task.Type())

	var p jobs.PosSyncPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, int64(7), p.BusinessID)
}

func TestNewPosSyncTask_RechazaNegocioInvalido(t *testing.T) {
	_, err := jobs.NewPosSyncTask(0)
	assert.Error(t, err)
}

func TestPosSyncCron_VacioDesactiva(t *testing.T) {
	assert.Empty(t, jobs.PosSyncCron(""))

	regs := jobs.PosSyncCron("*/5 * * * *")
	require.Len(t, regs, 1)
	assert.Equal(t, "*/5 * * * *", regs[0].Spec)
	assert.Equal(t, jobs.TaskPosSyncAll, regs[0].Task.Type())
}

func TestHandlers_RegistraAmbosTipos(t *testing.T) {
	hs := newJob(&fakeSyncer{}).Handlers()
	require.Len(t, hs, 2)
	assert.Equal(t, jobs.TaskPosSync, hs[0].Type)
	assert.Equal(t, jobs.TaskPosSyncAll, hs[1].Type)
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func TestHandleBusiness_SincronizaElNegocio(t *testing.T) {
	s := &fakeSyncer{}
	task, err := jobs.NewPosSyncTask(3)
	require.NoError(t, err)

	require.NoError(t, newJob(s).HandleBusiness(context.Background(), task))
	assert.Equal(t, []int64{3}, s.calls)
}

func TestHandleBusiness_PayloadInvalidoNoSeReintenta(t *testing.T) {
	s := &fakeSyncer{}
	task := asynq.NewTask(jobs.TaskPosSync, []byte("{no-json"))

	err := newJob(s).HandleBusiness(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, s.calls)
}

func TestHandleBusiness_NegocioInexistenteNoSeReintenta(t *testing.T) {
	s := &fakeSyncer{err: fmt.Errorf("negocio 9: %w", domain.ErrNotFound)}
	task, _ := jobs.NewPosSyncTask(9)

	err := newJob(s).HandleBusiness(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleBusiness_ErrorTransitorioSeReintenta(t *testing.T) {
	s := &fakeSyncer{err: errors.New("conexión rechazada")}
	task, _ := jobs.NewPosSyncTask(4)

	err := newJob(s).HandleBusiness(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleAll_RecorreTodosLosNegocios(t *testing.T) {
	s := &fakeSyncer{}
	require.NoError(t, newJob(s).HandleAll(context.Background(), jobs.NewPosSyncAllTask()))
	assert.Equal(t, 1, s.allCalls)
}

func TestHandleAll_SinOrigenNoSeReintenta(t *testing.T) {
	s := &fakeSyncer{err: possync.ErrNoSource}
	err := newJob(s).HandleAll(context.Background(), jobs.NewPosSyncAllTask())
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
