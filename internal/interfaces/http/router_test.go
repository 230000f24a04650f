package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/application/usecase"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/clinistock-api/internal/interfaces/http"
)

// newTestAPI arma la API completa sobre el driver en memoria.
func newTestAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore(time.Second)
	repos := store.Repos()
	stock := inventory.NewClinicStockProjection(store, repos)
	batches := inventory.NewBatchTracker(store, repos)
	ledger := inventory.NewStockLedger(store, repos, batches, stock, nil)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ItemCatalog:   usecase.NewItemCatalog(repos.Items, store.Categories(), repos.Stock, repos.Orders),
		CategoryUC:    usecase.NewCategoryUseCase(store.Categories()),
		SupplierUC:    usecase.NewSupplierRegistry(store.Suppliers()),
		ClinicUC:      usecase.NewClinicUseCase(repos.Clinics),
		Ledger:        ledger,
		Stock:         stock,
		Batches:       batches,
		Replenishment: inventory.NewReplenishmentUseCase(stock, repos),
		Purchasing:    purchasing.NewPurchaseOrderWorkflow(store, repos, store.Suppliers(), batches, ledger, pdf.NewPurchaseOrderGenerator()),
		JWTSecret:     testJWTSecret,
	})
	return app
}

// call ejecuta la petición como admin y decodifica el cuerpo JSON en out (si no es nil).
func call(t *testing.T, app *fiber.App, role, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), string(raw))
		}
	}
	return resp.StatusCode
}

type idResp struct {
	ID string `json:"id"`
}

type errResp struct {
	Code string `json:"code"`
}

func TestAPI_StockFlow(t *testing.T) {
	app := newTestAPI(t)
	admin := apphttp.RoleAdmin

	var clinic, item idResp
	require.Equal(t, http.StatusCreated, call(t, app, admin, http.MethodPost, "/api/clinics",
		map[string]any{"code": "NORTE", "name": "Clínica Norte"}, &clinic))
	require.Equal(t, http.StatusCreated, call(t, app, admin, http.MethodPost, "/api/items",
		map[string]any{"code": "GUA-01", "name": "Guantes", "unit_cost": "100"}, &item))

	// Umbrales: punto de reorden 5.
	status := call(t, app, admin, http.MethodPut, "/api/inventory/stock/"+item.ID+"/"+clinic.ID,
		map[string]any{"reorder_point": 5, "maximum_stock": 20}, nil)
	require.Equal(t, http.StatusOK, status)

	status = call(t, app, apphttp.RoleBodeguero, http.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id": item.ID, "clinic_id": clinic.ID, "type": "ENTRY", "quantity": 10,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var e errResp
	status = call(t, app, apphttp.RoleBodeguero, http.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id": item.ID, "clinic_id": clinic.ID, "type": "EXIT", "quantity": 11,
	}, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)

	status = call(t, app, apphttp.RoleBodeguero, http.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id": item.ID, "clinic_id": clinic.ID, "type": "EXIT", "quantity": 5, "treatment_reference": "TRT-1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var stock struct {
		CurrentStock int  `json:"current_stock"`
		IsLowStock   bool `json:"is_low_stock"`
	}
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleConsulta, http.MethodGet,
		"/api/inventory/stock/"+item.ID+"/"+clinic.ID, nil, &stock))
	assert.Equal(t, 5, stock.CurrentStock)
	assert.True(t, stock.IsLowStock, "5 <= punto de reorden 5")

	var movs struct {
		Items         []map[string]any `json:"items"`
		ReplayedStock int              `json:"replayed_stock"`
	}
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleConsulta, http.MethodGet,
		"/api/inventory/movements?item_id="+item.ID+"&clinic_id="+clinic.ID, nil, &movs))
	assert.Len(t, movs.Items, 2)
	assert.Equal(t, 5, movs.ReplayedStock)

	var low struct {
		Total int `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleConsulta, http.MethodGet,
		"/api/inventory/low-stock?clinic_id="+clinic.ID, nil, &low))
	assert.Equal(t, 1, low.Total)

	var repl struct {
		Replenishments []struct {
			SuggestedOrderQty int `json:"suggested_order_qty"`
		} `json:"replenishments"`
	}
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleConsulta, http.MethodGet,
		"/api/inventory/replenishment-list?clinic_id="+clinic.ID, nil, &repl))
	require.Len(t, repl.Replenishments, 1)
	assert.Equal(t, 15, repl.Replenishments[0].SuggestedOrderQty)
}

func TestAPI_ConsultaCannotWrite(t *testing.T) {
	app := newTestAPI(t)
	status := call(t, app, apphttp.RoleConsulta, http.MethodPost, "/api/clinics",
		map[string]any{"code": "X", "name": "X"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_NotFoundAndValidation(t *testing.T) {
	app := newTestAPI(t)
	var e errResp
	assert.Equal(t, http.StatusNotFound, call(t, app, apphttp.RoleAdmin, http.MethodGet, "/api/items/nope", nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)

	assert.Equal(t, http.StatusBadRequest, call(t, app, apphttp.RoleAdmin, http.MethodPost, "/api/items",
		map[string]any{"code": ""}, &e))
	assert.Equal(t, "VALIDATION", e.Code)

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, app, apphttp.RoleAdmin, http.MethodPost,
		"/api/inventory/movements", map[string]any{"item_id": "a", "clinic_id": "b", "type": "ENTRY", "quantity": 0}, &e))
	assert.Equal(t, "INVALID_QUANTITY", e.Code)
}

func TestAPI_PurchaseOrderOverReceipt(t *testing.T) {
	app := newTestAPI(t)
	admin := apphttp.RoleAdmin

	var clinic, item, supplier idResp
	require.Equal(t, http.StatusCreated, call(t, app, admin, http.MethodPost, "/api/clinics",
		map[string]any{"code": "SUR", "name": "Clínica Sur"}, &clinic))
	require.Equal(t, http.StatusCreated, call(t, app, admin, http.MethodPost, "/api/items",
		map[string]any{"code": "ANE-01", "name": "Anestesia", "requires_batch_control": true}, &item))
	require.Equal(t, http.StatusCreated, call(t, app, admin, http.MethodPost, "/api/suppliers",
		map[string]any{"code": "PRV-1", "company_name": "Dental Supply"}, &supplier))

	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Lines  []struct {
			ID               string `json:"id"`
			QuantityReceived int    `json:"quantity_received"`
		} `json:"lines"`
	}
	require.Equal(t, http.StatusCreated, call(t, app, admin, http.MethodPost, "/api/purchase-orders", map[string]any{
		"supplier_id": supplier.ID, "clinic_id": clinic.ID, "tax_rate": "0.19",
		"lines": []map[string]any{{"item_id": item.ID, "quantity": 5, "unit_cost": "2000"}},
	}, &order))
	require.Equal(t, "DRAFT", order.Status)

	var e errResp
	assert.Equal(t, http.StatusConflict, call(t, app, admin, http.MethodPost, "/api/purchase-orders/"+order.ID+"/confirm", nil, &e))
	assert.Equal(t, "INVALID_STATE", e.Code)

	require.Equal(t, http.StatusOK, call(t, app, admin, http.MethodPost, "/api/purchase-orders/"+order.ID+"/send", nil, nil))
	require.Equal(t, http.StatusOK, call(t, app, admin, http.MethodPost, "/api/purchase-orders/"+order.ID+"/confirm", nil, nil))

	lineID := order.Lines[0].ID
	receive := func(q int, out any) int {
		return call(t, app, apphttp.RoleBodeguero, http.MethodPost, "/api/purchase-orders/"+order.ID+"/receive",
			map[string]any{"lines": []map[string]any{{"line_id": lineID, "quantity": q, "batch_number": "L-001"}}}, out)
	}
	require.Equal(t, http.StatusOK, receive(3, &order))
	assert.Equal(t, "PARTIALLY_RECEIVED", order.Status)

	assert.Equal(t, http.StatusUnprocessableEntity, receive(4, &e))
	assert.Equal(t, "OVER_RECEIPT", e.Code)

	require.Equal(t, http.StatusOK, call(t, app, admin, http.MethodGet, "/api/purchase-orders/"+order.ID, nil, &order))
	assert.Equal(t, "PARTIALLY_RECEIVED", order.Status)
	assert.Equal(t, 3, order.Lines[0].QuantityReceived)

	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders/"+order.ID+"/pdf", nil)
	req.Header.Set("Authorization", tokenForRole(t, admin))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}
