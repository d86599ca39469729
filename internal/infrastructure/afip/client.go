package afip

import (
	"bytes"
	"context"
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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client talks to the electronic invoicing gateway that fronts the tax
// authority's WSFE service.
type Client struct {
	baseURL    string
	token      string
	issuer     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.InvoicingConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		issuer:  cfg.IssuerTaxID,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
		logger: logger,
	}
}

func (c *Client) LastVoucherNumber(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error) {
	query := url.Values{}
	query.Set("point_of_sale", strconv.Itoa(pointOfSale))
	query.Set("type", strconv.Itoa(int(invoiceType)))
	endpoint := fmt.Sprintf("%s/v1/vouchers/last?%s", c.baseURL, query.Encode())

	resp, err := sendRequest[any, lastVoucherResponse](c, ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	return resp.VoucherNumber, nil
}

// Submit requests a CAE for one voucher. A rejection is a response with
// Approved unset; only transport problems are errors.
func (c *Client) Submit(ctx context.Context, req application.SubmitRequest) (*application.SubmitResponse, error) {
	body, err := toVoucherRequest(req)
	if err != nil {
		return nil, application.NewInvalidInputError(err)
	}

	endpoint := fmt.Sprintf("%s/v1/vouchers", c.baseURL)
	resp, err := sendRequest[voucherRequest, voucherResponse](c, ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}

	for _, obs := range resp.Observations {
		c.logger.Warn("authority observation",
			"order_number", req.OrderNumber,
			"voucher_number", req.VoucherNumber,
			"observation", obs.String())
	}

	return fromVoucherResponse(resp)
}

func toVoucherRequest(req application.SubmitRequest) (voucherRequest, error) {
	currency, err := currencyCode(req.Currency)
	if err != nil {
		return voucherRequest{}, err
	}

	out := voucherRequest{
		PointOfSale:       req.PointOfSale,
		InvoiceType:       int(req.InvoiceType),
		Concept:           int(req.Concept),
		DocType:           docTypeFinalConsumer,
		DocNumber:         "0",
		VoucherFrom:       req.VoucherNumber,
		VoucherTo:         req.VoucherNumber,
		Date:              req.InvoiceDate.Format(dateLayout),
		Total:             req.Total,
		Net:               req.Net,
		Exempt:            decimal.Zero,
		Tax:               req.Tax,
		Currency:          currency,
		CurrencyRate:      decimal.NewFromInt(1),
		ExternalReference: req.OrderNumber,
	}

	if req.BuyerTaxID != "" {
		out.DocType = docTypeCUIT
		out.DocNumber = req.BuyerTaxID
	}

	if req.Concept.IncludesServices() {
		out.ServiceFrom = req.ServiceFrom.Format(dateLayout)
		out.ServiceTo = req.ServiceTo.Format(dateLayout)
		out.PaymentDue = req.PaymentDue.Format(dateLayout)
	}

	if req.InvoiceType != domain.InvoiceTypeC {
		rate := vatRate(req.Net, req.Tax)
		id, ok := vatIDs[rate.String()]
		if !ok {
			return voucherRequest{}, fmt.Errorf("no vat aliquot for rate %s%%", rate)
		}
		out.VAT = []vatLine{{ID: id, Base: req.Net, Amount: req.Tax}}
	}

	return out, nil
}

// vatIDs maps percentage rates to the authority's aliquot identifiers.
var vatIDs = map[string]int{
	"0":    3,
	"2.5":  9,
	"5":    8,
	"10.5": 4,
	"21":   5,
	"27":   6,
}

// vatRate recovers the percentage from the split amounts, rounded to the
// nearest half point so cent rounding does not matter.
func vatRate(net, tax decimal.Decimal) decimal.Decimal {
	if net.IsZero() {
		return decimal.Zero
	}
	half := decimal.NewFromFloat(0.5)
	pct := tax.Div(net).Mul(decimal.NewFromInt(100))
	return pct.Div(half).Round(0).Mul(half)
}

func currencyCode(c domain.Currency) (string, error) {
	switch c {
	case domain.ARS:
		return "PES", nil
	case domain.USD:
		return "DOL", nil
	default:
		return "", fmt.Errorf("currency %s cannot be invoiced", c)
	}
}

func fromVoucherResponse(resp *voucherResponse) (*application.SubmitResponse, error) {
	out := &application.SubmitResponse{
		Approved:          resp.Result == resultApproved,
		AuthorizationCode: resp.CAE,
		VoucherNumber:     resp.VoucherNumber,
	}

	if resp.CAEExpiration != "" {
		exp, err := time.ParseInLocation(dateLayout, resp.CAEExpiration, domain.InvoicingLocation)
		if err != nil {
			return nil, fmt.Errorf("error parsing cae expiration %q: %w", resp.CAEExpiration, err)
		}
		out.Expiration = exp
	}

	for _, m := range resp.Errors {
		out.Errors = append(out.Errors, m.String())
	}
	if !out.Approved {
		for _, m := range resp.Observations {
			out.Errors = append(out.Errors, m.String())
		}
	}

	return out, nil
}

func sendRequest[Req any, Resp any](c *Client, ctx context.Context, method, endpoint string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("X-Issuer-CUIT", c.issuer)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp application.GatewayErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Err == "" {
			return nil, &application.GatewayError{
				Code:       "unexpected_status",
				Message:    string(body),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, &application.GatewayError{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var out Resp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &out, nil
}
