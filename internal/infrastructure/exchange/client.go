package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/config"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize   = 100
	defaultRecvWindow = 5000
)

// Client reads the account's P2P order history. It implements
// application.OrderSource.
type Client struct {
	baseURL    string
	apiKey     string
	secretKey  []byte
	recvWindow int64
	pageSize   int
	httpClient *http.Client
	clock      func() time.Time
	logger     *slog.Logger
}

func NewClient(cfg config.ExchangeConfig, logger *slog.Logger) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		secretKey:  []byte(cfg.SecretKey),
		recvWindow: cfg.RecvWindow,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		clock:  time.Now,
		logger: logger,
	}
	if c.recvWindow <= 0 {
		c.recvWindow = defaultRecvWindow
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	return c
}

// Fetch returns completed orders created in the last opts.SinceDays days.
// An empty trade type fetches both directions.
func (c *Client) Fetch(ctx context.Context, opts application.FetchOptions) ([]*domain.Order, error) {
	tradeTypes := []domain.TradeType{opts.TradeType}
	if opts.TradeType == "" {
		tradeTypes = []domain.TradeType{domain.TradeSell, domain.TradeBuy}
	}

	now := c.clock()
	since := now.AddDate(0, 0, -opts.SinceDays)

	var orders []*domain.Order
	for _, tradeType := range tradeTypes {
		fetched, err := c.fetchTradeType(ctx, tradeType, since, now)
		if err != nil {
			return nil, err
		}
		orders = append(orders, fetched...)
	}
	return orders, nil
}

func (c *Client) fetchTradeType(ctx context.Context, tradeType domain.TradeType, since, until time.Time) ([]*domain.Order, error) {
	var orders []*domain.Order
	seen := 0

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("tradeType", string(tradeType))
		params.Set("startTimestamp", strconv.FormatInt(since.UnixMilli(), 10))
		params.Set("endTimestamp", strconv.FormatInt(until.UnixMilli(), 10))
		params.Set("page", strconv.Itoa(page))
		params.Set("rows", strconv.Itoa(c.pageSize))

		resp, err := c.orderHistory(ctx, params)
		if err != nil {
			return nil, err
		}

		for _, dto := range resp.Data {
			if dto.OrderStatus != statusCompleted {
				continue
			}
			order, err := toOrder(dto)
			if err != nil {
				c.logger.Warn("skipping malformed order",
					"order_number", dto.OrderNumber,
					"error", err)
				continue
			}
			orders = append(orders, order)
		}

		seen += len(resp.Data)
		if len(resp.Data) < c.pageSize || (resp.Total > 0 && seen >= resp.Total) {
			return orders, nil
		}
	}
}

func (c *Client) orderHistory(ctx context.Context, params url.Values) (*orderHistoryResponse, error) {
	params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	params.Set("timestamp", strconv.FormatInt(c.clock().UnixMilli(), 10))
	query := params.Encode()
	query += "&signature=" + c.sign(query)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+orderHistoryPath+"?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(body)
		}
		return nil, apiErr
	}

	var out orderHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}
	if out.Code != "" && out.Code != successCode {
		return nil, &APIError{Message: fmt.Sprintf("%s: %s", out.Code, out.Message), StatusCode: resp.StatusCode}
	}

	return &out, nil
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func toOrder(dto orderDTO) (*domain.Order, error) {
	number, err := domain.NewOrderNumber(dto.OrderNumber)
	if err != nil {
		return nil, err
	}

	fiat := domain.Currency(dto.Fiat)

	quantity, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", dto.Amount, err)
	}
	unitPrice, err := domain.NewMoneyFromString(dto.UnitPrice, fiat)
	if err != nil {
		return nil, err
	}
	total, err := domain.NewMoneyFromString(dto.TotalPrice, fiat)
	if err != nil {
		return nil, err
	}

	commission := decimal.Zero
	if dto.Commission != "" {
		commission, err = decimal.NewFromString(dto.Commission)
		if err != nil {
			return nil, fmt.Errorf("invalid commission %q: %w", dto.Commission, err)
		}
	}

	return domain.NewOrder(domain.OrderParams{
		Number:       number,
		TradeType:    domain.TradeType(dto.TradeType),
		Asset:        dto.Asset,
		Fiat:         fiat,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Total:        total,
		Commission:   commission,
		Counterparty: dto.CounterPartNickName,
		CreatedAt:    time.UnixMilli(dto.CreateTime).In(domain.InvoicingLocation),
	})
}
