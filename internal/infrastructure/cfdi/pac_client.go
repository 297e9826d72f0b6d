package cfdi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/domain"
)

var _ billing.Stamper = (*PACClient)(nil)

// PACConfig parámetros del proveedor de timbrado.
type PACConfig struct {
	BaseURL string
	User    string
	Token   string
	Rate    float64 // peticiones por segundo; 0 = sin límite
	Burst   int
}

// PACClient cliente JSON sobre HTTP del PAC. Throttling con x/time/rate: el PAC cobra
// y bloquea por ráfagas.
type PACClient struct {
	cfg        PACConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewPACClient construye el cliente. El timeout de cada llamada lo pone el contexto.
func NewPACClient(cfg PACConfig) *PACClient {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &PACClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

type stampRequest struct {
	XML    string `json:"xml"` // base64
	Series string `json:"series,omitempty"`
	Folio  string `json:"folio,omitempty"`
}

type stampResponse struct {
	UUID      string `json:"uuid"`
	Folio     string `json:"folio"`
	StampedAt string `json:"stamped_at"`
	XML       string `json:"xml"` // base64 del CFDI timbrado
}

type pacError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Stamp envía el comprobante al PAC. Los rechazos del PAC se devuelven como
// *domain.ExternalServiceError; si vence el contexto se devuelve el error del contexto.
func (c *PACClient) Stamp(ctx context.Context, doc *billing.TaxDocument) (*billing.StampResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.ExternalServiceError{Code: http.StatusTooManyRequests, Message: err.Error()}
	}

	body, err := json.Marshal(stampRequest{
		XML:    base64.StdEncoding.EncodeToString(doc.XML),
		Series: doc.Series,
		Folio:  doc.Folio,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/cfdi/stamp", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.User != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Token)
	} else if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &domain.ExternalServiceError{Code: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("leer respuesta del PAC: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var pe pacError
		if json.Unmarshal(raw, &pe) != nil || pe.Code == 0 {
			pe.Code = resp.StatusCode
		}
		if pe.Message == "" {
			pe.Message = strings.TrimSpace(string(raw))
		}
		return nil, &domain.ExternalServiceError{Code: pe.Code, Message: pe.Message}
	}

	var sr stampResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, &domain.ExternalServiceError{Code: http.StatusBadGateway, Message: "respuesta del PAC ilegible: " + err.Error()}
	}
	if sr.UUID == "" {
		return nil, &domain.ExternalServiceError{Code: http.StatusBadGateway, Message: "respuesta del PAC sin UUID"}
	}
	stampedAt := time.Now()
	if sr.StampedAt != "" {
		if t, err := time.Parse(time.RFC3339, sr.StampedAt); err == nil {
			stampedAt = t
		} else if t, err := time.ParseInLocation(dateLayout, sr.StampedAt, time.Local); err == nil {
			stampedAt = t
		}
	}
	artifact, err := base64.StdEncoding.DecodeString(sr.XML)
	if err != nil {
		return nil, &domain.ExternalServiceError{Code: http.StatusBadGateway, Message: "XML timbrado inválido"}
	}
	folio := sr.Folio
	if folio == "" {
		folio = internalFolio(doc)
	}
	return &billing.StampResult{Folio: folio, UUID: sr.UUID, StampedAt: stampedAt, Artifact: artifact}, nil
}
