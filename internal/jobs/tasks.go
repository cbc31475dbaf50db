// Package jobs define las tareas en segundo plano (asynq) de la sincronización POS:
// el worker, el programador periódico y el cliente para encolar.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault es la cola por defecto de las tareas.
	QueueDefault = "default"
	// TaskPosSync sincroniza un negocio con su POS.
	TaskPosSync = "pos:sync"
	// TaskPosSyncAll sincroniza todos los negocios con POS activo.
	TaskPosSyncAll = "pos:sync-all"
)

// PosSyncPayload identifica el negocio a sincronizar.
type PosSyncPayload struct {
	BusinessID int64 `json:"business_id"`
}

// NewPosSyncTask construye la tarea de sincronización de un negocio.
func NewPosSyncTask(businessID int64) (*asynq.Task, error) {
	if businessID <= 0 {
		return nil, fmt.Errorf("pos sync: business_id inválido %d", businessID)
	}
	body, err := json.Marshal(PosSyncPayload{BusinessID: businessID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPosSync, body, asynq.Queue(QueueDefault)), nil
}

// NewPosSyncAllTask construye la tarea periódica que recorre todos los negocios.
func NewPosSyncAllTask() *asynq.Task {
	return asynq.NewTask(TaskPosSyncAll, nil, asynq.Queue(QueueDefault))
}

func parsePosSyncPayload(t *asynq.Task) (PosSyncPayload, error) {
	var p PosSyncPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, err
	}
	if p.BusinessID <= 0 {
		return p, fmt.Errorf("business_id inválido %d", p.BusinessID)
	}
	return p, nil
}
