package exchange

import "fmt"

const (
	orderHistoryPath = "/sapi/v1/c2c/orderMatch/listUserOrderHistory"

	statusCompleted = "COMPLETED"
	successCode     = "000000"
)

type orderHistoryResponse struct {
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Data    []orderDTO `json:"data"`
	Total   int        `json:"total"`
	Success bool       `json:"success"`
}

type orderDTO struct {
	OrderNumber         string `json:"orderNumber"`
	AdvNo               string `json:"advNo"`
	TradeType           string `json:"tradeType"`
	Asset               string `json:"asset"`
	Fiat                string `json:"fiat"`
	FiatSymbol          string `json:"fiatSymbol"`
	Amount              string `json:"amount"`
	TotalPrice          string `json:"totalPrice"`
	UnitPrice           string `json:"unitPrice"`
	OrderStatus         string `json:"orderStatus"`
	CreateTime          int64  `json:"createTime"`
	Commission          string `json:"commission"`
	CounterPartNickName string `json:"counterPartNickName"`
	AdvertisementRole   string `json:"advertisementRole"`
}

// APIError is a non-success answer from the exchange.
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"msg"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange error [%d]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429 || e.StatusCode == 418
}
