// Package pos lee recibos del punto de venta por HTTP con paginación por cursor.
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

const (
	receiptsPath = "/receipts"
	timeLayout   = "2006-01-02T15:04:05.000Z"
	maxPages     = 1000
)

// Config parámetros del cliente.
type Config struct {
	BaseURL       string
	Token         string
	PageSize      int
	RatePerMinute int
	Timeout       time.Duration
}

// Client implementa sales.Feed.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewClient valida la configuración y arma el limitador (ráfaga de 1).
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.Configuration("POS_BASE_URL vacío")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, domain.Configuration("POS_TOKEN vacío")
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 250 {
		cfg.PageSize = 250
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 60
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
		log:      log,
	}, nil
}

type receiptsPage struct {
	Receipts []receiptJSON `json:"receipts"`
	Cursor   *string       `json:"cursor"`
}

type receiptJSON struct {
	ReceiptNumber string         `json:"receipt_number"`
	ReceiptType   string         `json:"receipt_type"`
	CreatedAt     string         `json:"created_at"`
	CancelledAt   *string        `json:"cancelled_at"`
	LineItems     []lineItemJSON `json:"line_items"`
	Payments      []paymentJSON  `json:"payments"`
}

type lineItemJSON struct {
	ItemID     string          `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalMoney decimal.Decimal `json:"total_money"`
}

type paymentJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Receipts recorre todas las páginas de la ventana [start, end) en UTC.
// Los recibos anulados se omiten; las devoluciones entran con cantidades y montos negativos.
func (c *Client) Receipts(ctx context.Context, start, end time.Time) ([]entity.Receipt, error) {
	params := url.Values{}
	params.Set("created_at_min", start.UTC().Format(timeLayout))
	params.Set("created_at_max", end.UTC().Format(timeLayout))
	params.Set("limit", strconv.Itoa(c.pageSize))

	var out []entity.Receipt
	for page := 0; page < maxPages; page++ {
		p, err := c.getPage(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, r := range p.Receipts {
			rec, ok, err := toReceipt(r)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, rec)
			}
		}
		c.log.Debug().Int("page", page).Int("receipts", len(p.Receipts)).Msg("página de recibos")
		if p.Cursor == nil || *p.Cursor == "" {
			return out, nil
		}
		params.Set("cursor", *p.Cursor)
	}
	return nil, fmt.Errorf("pos: más de %d páginas, reduzca la ventana", maxPages)
}

func (c *Client) getPage(ctx context.Context, params url.Values) (*receiptsPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+receiptsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: pos: %v", domain.ErrTransientStore, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<20))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: pos respondió %d", domain.ErrTransientStore, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.Configuration("pos rechazó el token (%d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("pos: error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p receiptsPage
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("pos: respuesta inválida: %w", err)
	}
	return &p, nil
}

func toReceipt(r receiptJSON) (entity.Receipt, bool, error) {
	if r.CancelledAt != nil && *r.CancelledAt != "" {
		return entity.Receipt{}, false, nil
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return entity.Receipt{}, false, fmt.Errorf("pos: recibo %s con fecha %q inválida", r.ReceiptNumber, r.CreatedAt)
	}
	sign := decimal.NewFromInt(1)
	if strings.EqualFold(r.ReceiptType, "REFUND") {
		sign = sign.Neg()
	}
	rec := entity.Receipt{ID: r.ReceiptNumber, CreatedAt: created.UTC()}
	if len(r.Payments) > 0 {
		rec.PaymentMethod = r.Payments[0].Name
		if rec.PaymentMethod == "" {
			rec.PaymentMethod = r.Payments[0].Type
		}
	}
	for _, li := range r.LineItems {
		rec.Lines = append(rec.Lines, entity.ReceiptLine{
			ItemID:   li.ItemID,
			ItemName: li.ItemName,
			Quantity: li.Quantity.Mul(sign),
			Amount:   li.TotalMoney.Mul(sign),
		})
	}
	return rec, true, nil
}
