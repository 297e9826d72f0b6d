package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	appinv "github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/application/remission"
	"github.com/jhoicas/remisiones-api/internal/application/usecase"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/memory"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/report"
	apphttp "github.com/jhoicas/remisiones-api/internal/interfaces/http"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

// newTestAPI arma la API completa sobre el almacén en memoria y el timbrado simulado.
func newTestAPI(t *testing.T, ping func(context.Context) error) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	ledger := appinv.NewStockLedger()
	log := logger.Nop()
	issuer := cfdi.Issuer{RFC: "EKU9003173C9", Name: "ESCUELA KEMPER URGATE", Regime: "601", Zip: "42501", Series: "R"}

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:     usecase.NewProductUseCase(repos.Products),
		SupplierUC:    usecase.NewSupplierUseCase(repos.Suppliers),
		ClientUC:      usecase.NewClientUseCase(repos.Clients),
		ReceiptUC:     appinv.NewReceiptUseCase(store, repos, ledger, log),
		AdjustmentUC:  appinv.NewAdjustmentUseCase(store, ledger, log),
		LedgerQueryUC: appinv.NewLedgerQueryUseCase(store, repos, report.NewKardexXLSX()),
		ShipmentUC:    remission.NewShipmentUseCase(store, repos, ledger, time.Minute, log),
		InvoiceUC: billing.NewInvoiceUseCase(store, cfdi.NewBuilder(issuer, nil), cfdi.NewMockStamper(), nil, nil,
			billing.InvoiceConfig{ClaimTTL: time.Minute, StampTimeout: 5 * time.Second}, log),
		PaymentUC:   billing.NewPaymentUseCase(store, repos, log),
		JWTSecret:   testJWTSecret,
		ServiceName: "remisiones-api",
		Ping:        ping,
	})
	return app
}

// call envía la petición con un token del rol dado ("" = sin Authorization) y decodifica el JSON.
func call(t *testing.T, app *fiber.App, method, path, role string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	resp := send(t, app, method, path, role, body)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func send(t *testing.T, app *fiber.App, method, path, role string, body interface{}) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func id(m map[string]interface{}) int64 {
	return int64(m["id"].(float64))
}

type catalog struct {
	product, supplier, client int64
}

func seedCatalog(t *testing.T, app *fiber.App, boxes int) catalog {
	t.Helper()
	status, p := call(t, app, http.MethodPost, "/api/products", "almacen", map[string]interface{}{
		"name": "Blanco Jumbo", "sat_product_code": "50131700", "sat_unit_code": "KGM",
	})
	require.Equal(t, http.StatusCreated, status, p)
	status, s := call(t, app, http.MethodPost, "/api/suppliers", "almacen", map[string]interface{}{"name": "Granja San Juan"})
	require.Equal(t, http.StatusCreated, status, s)
	status, c := call(t, app, http.MethodPost, "/api/clients", "ventas", map[string]interface{}{
		"name": "Abarrotes Lupita", "rfc": "GODE561231GR8", "tax_regime": "612", "zip_code": "06000",
	})
	require.Equal(t, http.StatusCreated, status, c)

	status, r := call(t, app, http.MethodPost, "/api/receipts", "almacen", map[string]interface{}{
		"supplier_id": id(s),
		"lines": []map[string]interface{}{
			{"product_id": id(p), "box_count": boxes, "weight_total": "100", "unit_price": "20"},
		},
	})
	require.Equal(t, http.StatusCreated, status, r)
	return catalog{product: id(p), supplier: id(s), client: id(c)}
}

func TestAPI_FlujoRemisionPagoFactura(t *testing.T) {
	app := newTestAPI(t, nil)
	cat := seedCatalog(t, app, 10)

	status, rem := call(t, app, http.MethodPost, "/api/remissions", "ventas", map[string]interface{}{
		"client_id": cat.client,
		"lines": []map[string]interface{}{
			{"product_id": cat.product, "supplier_id": cat.supplier, "box_count": 4, "is_by_box": false, "weight_total": "40", "price_per_kilo": "25"},
			{"product_id": 999, "supplier_id": cat.supplier, "box_count": 1, "weight_total": "10", "price_per_kilo": "25"},
		},
	})
	require.Equal(t, http.StatusCreated, status, rem)
	assert.True(t, decimal.RequireFromString(rem["total_cost"].(string)).Equal(decimal.NewFromInt(1000)), rem["total_cost"])
	require.Len(t, rem["errors"], 1)
	assert.Equal(t, "PRODUCT_NOT_FOUND", rem["errors"].([]interface{})[0].(map[string]interface{})["code"])
	remID := id(rem)

	status, prod := call(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d", cat.product), "ventas", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 6, prod["current_stock"])

	status, body := call(t, app, http.MethodPost, fmt.Sprintf("/api/remissions/%d/invoice", remID), "cobranza", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "NOT_FULLY_PAID", body["code"])

	status, pay := call(t, app, http.MethodPost, "/api/payments", "cobranza", map[string]interface{}{
		"client_id": cat.client, "shipment_ids": []int64{remID}, "amount": "1000", "method": "03",
	})
	require.Equal(t, http.StatusCreated, status, pay)

	status, inv := call(t, app, http.MethodPost, fmt.Sprintf("/api/remissions/%d/invoice", remID), "cobranza", nil)
	require.Equal(t, http.StatusCreated, status, inv)
	assert.Equal(t, fmt.Sprintf("R-%d", remID), inv["folio"])
	assert.NotEmpty(t, inv["uuid"])

	status, body = call(t, app, http.MethodPost, fmt.Sprintf("/api/remissions/%d/invoice", remID), "cobranza", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_INVOICED", body["code"])

	status, body = call(t, app, http.MethodDelete, fmt.Sprintf("/api/remissions/%d", remID), "ventas", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_INVOICED", body["code"])

	status, got := call(t, app, http.MethodGet, fmt.Sprintf("/api/remissions/%d", remID), "ventas", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, got["is_paid"])
	assert.Equal(t, inv["folio"], got["cfdi_folio"])
}

func TestAPI_RemisionSinLineasValidas(t *testing.T) {
	app := newTestAPI(t, nil)
	cat := seedCatalog(t, app, 2)

	status, body := call(t, app, http.MethodPost, "/api/remissions", "ventas", map[string]interface{}{
		"client_id": cat.client,
		"lines": []map[string]interface{}{
			{"product_id": cat.product, "supplier_id": cat.supplier, "box_count": 3, "weight_total": "30", "price_per_kilo": "25"},
			{"product_id": cat.product, "supplier_id": cat.supplier, "box_count": 1, "is_by_box": true, "price_per_kilo": "25"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NO_VALID_LINES", body["code"])
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 2)
	assert.Equal(t, "INSUFFICIENT_STOCK", errs[0].(map[string]interface{})["code"])
	assert.Equal(t, "MISSING_WEIGHT_INPUT", errs[1].(map[string]interface{})["code"])

	_, prod := call(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d", cat.product), "ventas", nil)
	assert.EqualValues(t, 2, prod["current_stock"])
}

func TestAPI_AjusteSinStock(t *testing.T) {
	app := newTestAPI(t, nil)
	cat := seedCatalog(t, app, 5)

	status, body := call(t, app, http.MethodPost, "/api/inventory/adjustments", "almacen", map[string]interface{}{
		"product_id": cat.product, "direction": "OUT", "quantity": 6, "reason": "merma",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])

	status, body = call(t, app, http.MethodPost, "/api/inventory/adjustments", "almacen", map[string]interface{}{
		"product_id": cat.product, "direction": "SIDEWAYS", "quantity": 1, "reason": "merma",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])

	status, rec := call(t, app, http.MethodGet, "/api/inventory/reconciliation", "almacen", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, rec["consistent"])

	status, movs := call(t, app, http.MethodGet, fmt.Sprintf("/api/inventory/movements?product_id=%d", cat.product), "ventas", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, movs["items"], 1)
}

func TestAPI_Kardex(t *testing.T) {
	app := newTestAPI(t, nil)
	cat := seedCatalog(t, app, 5)

	resp := send(t, app, http.MethodGet, fmt.Sprintf("/api/inventory/kardex/%d.xlsx", cat.product), "almacen", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")), "xlsx es un zip")

	status, _ := call(t, app, http.MethodGet, "/api/inventory/kardex/abc.xlsx", "almacen", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, body := call(t, app, http.MethodGet, "/api/inventory/kardex/4242.xlsx", "almacen", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "PRODUCT_NOT_FOUND", body["code"])
}

func TestAPI_Roles(t *testing.T) {
	app := newTestAPI(t, nil)

	status, body := call(t, app, http.MethodPost, "/api/suppliers", "ventas", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = call(t, app, http.MethodPost, "/api/suppliers", "admin", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusCreated, status)

	status, body = call(t, app, http.MethodGet, "/api/payments?client_id=1", "almacen", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, app, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestAPI_NoEncontradosYIDsInvalidos(t *testing.T) {
	app := newTestAPI(t, nil)

	status, body := call(t, app, http.MethodGet, "/api/remissions/77", "ventas", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SHIPMENT_NOT_FOUND", body["code"])

	status, body = call(t, app, http.MethodGet, "/api/remissions/abc", "ventas", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ID", body["code"])

	status, body = call(t, app, http.MethodDelete, "/api/payments/allocations/9", "cobranza", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, app, http.MethodPost, "/api/remissions", "ventas", map[string]interface{}{"client_id": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestAPI_Health(t *testing.T) {
	status, body := call(t, newTestAPI(t, nil), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	down := newTestAPI(t, func(context.Context) error { return errors.New("sin conexión") })
	status, body = call(t, down, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "down", body["status"])
}
