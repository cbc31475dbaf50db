package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/application/purchase"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/application/stockcount"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stockledger-api/internal/interfaces/http"
)

const testWebhookSecret = "pos-secret"

type fakeQueue struct {
	calls []int64
	err   error
}

func (q *fakeQueue) EnqueuePosSync(_ context.Context, businessID int64) (*asynq.TaskInfo, error) {
	q.calls = append(q.calls, businessID)
	if q.err != nil {
		return nil, q.err
	}
	return &asynq.TaskInfo{ID: "tarea-1", Queue: "default"}, nil
}

type envOptions struct {
	policy ledger.StockPolicy
	queue  apphttp.PosSyncQueue
}

type testEnv struct {
	app     *fiber.App
	authUC  *auth.AuthUseCase
	biz     *entity.Business
	store   *entity.Store
	store2  *entity.Store
	product *entity.Product
	foreign *entity.Product
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	repos := st.Repositories()

	b := &entity.Business{Name: "Mercado Norte", Type: entity.BusinessTypeMart, PosEnabled: true}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s1 := &entity.Store{BusinessID: b.ID, Name: "Sede Centro", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s1))
	s2 := &entity.Store{BusinessID: b.ID, Name: "Sede Sur", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s2))
	p := &entity.Product{BusinessID: b.ID, Code: "LECHE-1L", Name: "Leche 1L", Unit: "und", Active: true}
	require.NoError(t, repos.Products.Create(ctx, p))

	other := &entity.Business{Name: "Otro", Type: entity.BusinessTypeMart}
	require.NoError(t, repos.Businesses.Create(ctx, other))
	fp := &entity.Product{BusinessID: other.ID, Code: "AJENO", Name: "Ajeno", Unit: "und", Active: true}
	require.NoError(t, repos.Products.Create(ctx, fp))

	policy := opts.policy
	if policy == "" {
		policy = ledger.PolicyPermissive
	}
	log := zerolog.Nop()
	engine := ledger.NewEngine(st, repos, policy, log)
	recipes := production.NewRecipeUseCase(st, repos, engine, log)
	authUC := auth.NewAuthUseCase(st, repos, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:           engine,
		Transfers:        transfer.NewWorkflow(st, repos, engine, log),
		Purchases:        purchase.NewUseCase(st, repos, engine, log),
		Sales:            sales.NewSaleUseCase(st, repos, engine, log),
		Wholesale:        sales.NewWholesaleUseCase(st, repos, engine, log),
		StockCounts:      stockcount.NewUseCase(st, repos, engine, log),
		Repackaging:      production.NewRepackagingUseCase(st, repos, engine, log),
		Recipes:          recipes,
		PosSync:          possync.NewAdapter(st, repos, engine, recipes, nil, cache.Noop{}, possync.Config{}, log),
		PosQueue:         opts.queue,
		AuthUC:           authUC,
		JWTSecret:        testJWTSecret,
		PosWebhookSecret: testWebhookSecret,
		ExpiryAlertDays:  7,
	})
	return &testEnv{app: app, authUC: authUC, biz: b, store: s1, store2: s2, product: p, foreign: fp}
}

func (e *testEnv) token(t *testing.T, role string) string {
	return tokenFor(t, e.biz.ID, role)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) as(t *testing.T, role, method, path string, body interface{}) *http.Response {
	return e.do(t, method, path, body, map[string]string{"Authorization": e.token(t, role)})
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) stockIn(t *testing.T, qty int, expiry string) dto.LedgerResultResponse {
	t.Helper()
	body := map[string]interface{}{"product_id": e.product.ID, "store_id": e.store.ID, "quantity": qty, "unit_price": 1000}
	if expiry != "" {
		body["expiry_date"] = expiry
	}
	resp := e.as(t, "bodeguero", http.MethodPost, "/api/inventory/stock-in", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.LedgerResultResponse
	decode(t, resp, &out)
	return out
}

func (e *testEnv) lots(t *testing.T, storeID int64) []dto.LotResponse {
	t.Helper()
	resp := e.as(t, "vendedor", http.MethodGet, fmt.Sprintf("/api/inventory/lots?store_id=%d&in_stock=true", storeID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []dto.LotResponse
	decode(t, resp, &out)
	return out
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ─── Inventario ──────────────────────────────────────────────────────────────

func TestInventory_StockOutConsumePrimeroElLoteQueVence(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	late := e.stockIn(t, 5, "2030-06-01")
	early := e.stockIn(t, 5, "2030-01-01")

	resp := e.as(t, "vendedor", http.MethodPost, "/api/inventory/stock-out",
		map[string]interface{}{"product_id": e.product.ID, "store_id": e.store.ID, "quantity": 6})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.LedgerResultResponse
	decode(t, resp, &out)

	require.Len(t, out.Consumed, 2)
	assert.Equal(t, *early.Transactions[0].LotID, out.Consumed[0].LotID)
	assert.True(t, dec(5).Equal(out.Consumed[0].Quantity))
	assert.Equal(t, *late.Transactions[0].LotID, out.Consumed[1].LotID)
	assert.True(t, out.Shortfall.IsZero())

	lots := e.lots(t, e.store.ID)
	require.Len(t, lots, 1)
	assert.True(t, dec(4).Equal(lots[0].Quantity))
}

func TestInventory_CantidadCeroDevuelveCampos(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "admin", http.MethodPost, "/api/inventory/stock-in",
		map[string]interface{}{"product_id": e.product.ID, "store_id": e.store.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body dto.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "VALIDATION", body.Code)
	require.NotEmpty(t, body.Fields)
	assert.Equal(t, "quantity", body.Fields[0].Field)
}

func TestInventory_ProductoDeOtroNegocioEsProhibido(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "admin", http.MethodPost, "/api/inventory/stock-in",
		map[string]interface{}{"product_id": e.foreign.ID, "store_id": e.store.ID, "quantity": 3})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInventory_PoliticaEstrictaRechazaFaltante(t *testing.T) {
	e := newTestEnv(t, envOptions{policy: ledger.PolicyStrict})
	e.stockIn(t, 2, "")

	resp := e.as(t, "vendedor", http.MethodPost, "/api/inventory/stock-out",
		map[string]interface{}{"product_id": e.product.ID, "store_id": e.store.ID, "quantity": 5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body dto.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)

	lots := e.lots(t, e.store.ID)
	require.Len(t, lots, 1)
	assert.True(t, dec(2).Equal(lots[0].Quantity))
}

func TestInventory_VendedorNoPuedeIngresarMercancia(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "vendedor", http.MethodPost, "/api/inventory/stock-in",
		map[string]interface{}{"product_id": e.product.ID, "store_id": e.store.ID, "quantity": 3})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInventory_SinTokenRetorna401(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.do(t, http.MethodGet, "/api/inventory/lots", nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInventory_ResumenPorProducto(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	e.stockIn(t, 3, "2030-01-01")
	e.stockIn(t, 4, "")

	resp := e.as(t, "vendedor", http.MethodGet, fmt.Sprintf("/api/inventory/summary?store_id=%d", e.store.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var levels []dto.StockLevelResponse
	decode(t, resp, &levels)
	require.Len(t, levels, 1)
	assert.True(t, dec(7).Equal(levels[0].Quantity))
}

// ─── Traslados ───────────────────────────────────────────────────────────────

func TestTransfer_CicloCompletoYTransicionInvalida(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	in := e.stockIn(t, 10, "2030-03-01")
	lotID := *in.Transactions[0].LotID

	resp := e.as(t, "bodeguero", http.MethodPost, "/api/transfers", map[string]interface{}{
		"from_store_id": e.store.ID,
		"to_store_id":   e.store2.ID,
		"items":         []map[string]interface{}{{"lot_id": lotID, "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tr dto.TransferResponse
	decode(t, resp, &tr)
	assert.Equal(t, entity.TransferPending, tr.Status)

	resp = e.as(t, "bodeguero", http.MethodPost, fmt.Sprintf("/api/transfers/%d/ship", tr.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.as(t, "bodeguero", http.MethodPost, fmt.Sprintf("/api/transfers/%d/ship", tr.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body dto.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "INVALID_STATE", body.Code)

	resp = e.as(t, "bodeguero", http.MethodPost, fmt.Sprintf("/api/transfers/%d/receive", tr.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &tr)
	assert.Equal(t, entity.TransferReceived, tr.Status)

	dest := e.lots(t, e.store2.ID)
	require.Len(t, dest, 1)
	assert.True(t, dec(4).Equal(dest[0].Quantity))
	require.NotNil(t, dest[0].ExpiryDate)
	assert.Equal(t, "2030-03-01", *dest[0].ExpiryDate)
}

func TestTransfer_MismaTiendaEsInvalido(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "admin", http.MethodPost, "/api/transfers", map[string]interface{}{
		"from_store_id": e.store.ID,
		"to_store_id":   e.store.ID,
		"items":         []map[string]interface{}{{"lot_id": 1, "quantity": 1}},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransfer_InexistenteRetorna404(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "admin", http.MethodGet, "/api/transfers/999", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ─── Compras ─────────────────────────────────────────────────────────────────

func TestPurchase_RecibirSoloUnaVez(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "bodeguero", http.MethodPost, "/api/purchases", map[string]interface{}{
		"store_id": e.store.ID,
		"items": []map[string]interface{}{
			{"product_id": e.product.ID, "quantity": 12, "unit_price": 2500, "expiry_date": "2030-02-01"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p dto.PurchaseResponse
	decode(t, resp, &p)
	assert.Equal(t, entity.PurchaseDraft, p.Status)
	assert.Regexp(t, `^PO-\d{8}-\d{3}$`, p.Number)

	resp = e.as(t, "bodeguero", http.MethodPost, fmt.Sprintf("/api/purchases/%d/receive", p.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &p)
	assert.Equal(t, entity.PurchaseReceived, p.Status)

	resp = e.as(t, "bodeguero", http.MethodPost, fmt.Sprintf("/api/purchases/%d/receive", p.ID), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	lots := e.lots(t, e.store.ID)
	require.Len(t, lots, 1)
	assert.True(t, dec(12).Equal(lots[0].Quantity))
}

// ─── POS ─────────────────────────────────────────────────────────────────────

func TestPosWebhook_SecretoInvalidoRetorna401(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.do(t, http.MethodPost, "/api/pos/webhook", map[string]interface{}{
		"business_id": e.biz.ID, "receipt_no": 1,
		"lines": []map[string]interface{}{{"product_code": "LECHE-1L", "quantity": 1}},
	}, map[string]string{"X-Pos-Secret": "otro"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPosWebhook_ReenviarReciboNoDuplica(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	e.stockIn(t, 10, "")
	receipt := map[string]interface{}{
		"business_id": e.biz.ID, "store_id": e.store.ID, "receipt_no": 77,
		"lines": []map[string]interface{}{{"product_code": "LECHE-1L", "quantity": 2, "unit_price": 3000}},
	}
	headers := map[string]string{"X-Pos-Secret": testWebhookSecret}

	resp := e.do(t, http.MethodPost, "/api/pos/webhook", receipt, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first possync.SyncResult
	decode(t, resp, &first)
	assert.Equal(t, 1, first.Processed)

	resp = e.do(t, http.MethodPost, "/api/pos/webhook", receipt, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second possync.SyncResult
	decode(t, resp, &second)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Skipped)

	lots := e.lots(t, e.store.ID)
	require.Len(t, lots, 1)
	assert.True(t, dec(8).Equal(lots[0].Quantity))
}

func TestPosSync_SinOrigenNiColaEsEstadoInvalido(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	resp := e.as(t, "admin", http.MethodPost, "/api/pos/sync", nil)
	var body dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, "INVALID_STATE", body.Code)
}

func TestPosSync_ConColaEncolaLaTarea(t *testing.T) {
	q := &fakeQueue{}
	e := newTestEnv(t, envOptions{queue: q})
	resp := e.as(t, "admin", http.MethodPost, "/api/pos/sync", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []int64{e.biz.ID}, q.calls)
}

func TestPosSync_TareaDuplicadaRetorna409(t *testing.T) {
	q := &fakeQueue{err: asynq.ErrDuplicateTask}
	e := newTestEnv(t, envOptions{queue: q})
	resp := e.as(t, "admin", http.MethodPost, "/api/pos/sync", nil)
	var body dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, "SYNC_PENDING", body.Code)
}

// ─── Auth ────────────────────────────────────────────────────────────────────

func TestAuth_LoginEmiteTokenUtilizable(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	_, err := e.authUC.RegisterUser(context.Background(), entity.Actor{BusinessID: e.biz.ID},
		dto.RegisterRequest{Email: "ana@mercado.co", Password: "clave-segura", Role: entity.RoleBodeguero})
	require.NoError(t, err)

	resp := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ANA@mercado.co", "password": "clave-segura"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleBodeguero, out.User.Role)

	resp = e.do(t, http.MethodGet, "/api/inventory/lots", nil, map[string]string{"Authorization": "Bearer " + out.Token})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_PasswordIncorrectoRetorna401(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	_, err := e.authUC.RegisterUser(context.Background(), entity.Actor{BusinessID: e.biz.ID},
		dto.RegisterRequest{Email: "ana@mercado.co", Password: "clave-segura"})
	require.NoError(t, err)

	resp := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@mercado.co", "password": "otra-clave"}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_RegistroSoloAdmin(t *testing.T) {
	e := newTestEnv(t, envOptions{})
	body := map[string]interface{}{"email": "luis@mercado.co", "password": "clave-segura", "role": "vendedor"}

	resp := e.as(t, "vendedor", http.MethodPost, "/api/auth/register", body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.as(t, "admin", http.MethodPost, "/api/auth/register", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user dto.UserResponse
	decode(t, resp, &user)
	assert.Equal(t, e.biz.ID, user.BusinessID)

	resp = e.as(t, "admin", http.MethodPost, "/api/auth/register", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
