package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/shopspring/decimal"
)

const envPrefix = "INVOICER_"

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Database  DatabaseConfig  `koanf:"database"`
	Invoicing InvoicingConfig `koanf:"invoicing"`
	Exchange  ExchangeConfig  `koanf:"exchange"`
	Retry     RetryConfig     `koanf:"retry"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
}

type WorkerConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// InvoicingConfig holds the tax authority gateway credentials and the
// voucher series every invoice is issued under.
type InvoicingConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	Token       string        `koanf:"token" validate:"required"`
	IssuerTaxID string        `koanf:"issuer_tax_id" validate:"required"`
	PointOfSale int           `koanf:"point_of_sale" validate:"required,min=1"`
	InvoiceType int           `koanf:"invoice_type" validate:"required"`
	Concept     int           `koanf:"concept" validate:"required"`
	VATRate     string        `koanf:"vat_rate"`
	BuyerTaxID  string        `koanf:"buyer_tax_id"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

type ExchangeConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"required"`
	APIKey     string        `koanf:"api_key" validate:"required"`
	SecretKey  string        `koanf:"secret_key" validate:"required"`
	Timeout    time.Duration `koanf:"timeout" validate:"required"`
	RecvWindow int64         `koanf:"recv_window"`
	PageSize   int           `koanf:"page_size"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int32         `koanf:"max_retries"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if _, err := mainConfig.Invoicing.Spec(); err != nil {
		logger.Error("invoicing config is inconsistent", "error", err)
		return nil, err
	}

	if _, err := mainConfig.Invoicing.Issuer(); err != nil {
		logger.Error("issuer tax id is invalid", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Spec turns the configured series into the invoice template.
func (c InvoicingConfig) Spec() (domain.InvoiceSpec, error) {
	spec := domain.InvoiceSpec{
		PointOfSale: c.PointOfSale,
		InvoiceType: domain.InvoiceType(c.InvoiceType),
		Concept:     domain.Concept(c.Concept),
		VATRate:     decimal.Zero,
	}

	if c.VATRate != "" {
		rate, err := decimal.NewFromString(c.VATRate)
		if err != nil {
			return domain.InvoiceSpec{}, fmt.Errorf("invalid vat rate %q: %w", c.VATRate, err)
		}
		spec.VATRate = rate
	}

	if c.BuyerTaxID != "" {
		buyer, err := domain.NewTaxID(c.BuyerTaxID)
		if err != nil {
			return domain.InvoiceSpec{}, err
		}
		spec.Buyer = &buyer
	}

	if err := spec.Validate(); err != nil {
		return domain.InvoiceSpec{}, err
	}
	return spec, nil
}

// Issuer validates the configured issuer CUIT.
func (c InvoicingConfig) Issuer() (domain.TaxID, error) {
	return domain.NewTaxID(c.IssuerTaxID)
}
