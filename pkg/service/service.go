package service

import (
	"context"
	"time"

	apperrors "github.com/Ruscigno/MarketPulse/pkg/errors"
	"github.com/Ruscigno/MarketPulse/pkg/middleware"
	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher is the broker as the service layer sees it.
type Fetcher interface {
	Fetch(ctx context.Context, req model.MarketDataRequest) model.ApiResult[model.MarketDataResult]
}

// Service is the inbound RPC surface of the gateway.
type Service interface {
	FetchMarketData(ctx context.Context, req FetchRequest) (FetchResponse, error)
	CheckHealth(ctx context.Context) HealthResponse
}

// IdentifierDto is the wire shape of an instrument identifier.
type IdentifierDto struct {
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange,omitempty"`
	AssetType string `json:"assetType,omitempty"`
}

// RangeDto is the wire shape of an optional time range.
type RangeDto struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// FetchRequest defines the input for fetching market data.
type FetchRequest struct {
	Type             string            `json:"type"`
	Identifiers      []IdentifierDto   `json:"identifiers,omitempty"`
	Range            *RangeDto         `json:"range,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	PreferredVendors []string          `json:"preferredVendors,omitempty"`
}

// QuotePayload is the quote variant of the reply.
type QuotePayload struct {
	Symbol    string     `json:"symbol,omitempty"`
	Price     *float64   `json:"price,omitempty"`
	Open      *float64   `json:"open,omitempty"`
	High      *float64   `json:"high,omitempty"`
	Low       *float64   `json:"low,omitempty"`
	PrevClose *float64   `json:"prevClose,omitempty"`
	Volume    *int64     `json:"volume,omitempty"`
	Currency  *string    `json:"currency,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SeriesPayload is the OHLCV variant of the reply.
type SeriesPayload struct {
	Symbol      string           `json:"symbol,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Granularity string           `json:"granularity,omitempty"`
	Adjustment  string           `json:"adjustment,omitempty"`
	Partial     bool             `json:"partial"`
	Bars        []model.OhlcvBar `json:"bars"`
}

// FetchResponse defines the reply for a market data fetch. Exactly one
// of Quote and Series is set when Ok is true.
type FetchResponse struct {
	Ok         bool           `json:"ok"`
	Quote      *QuotePayload  `json:"quote,omitempty"`
	Series     *SeriesPayload `json:"series,omitempty"`
	Error      string         `json:"error,omitempty"`
	RetryAfter *time.Time     `json:"retryAfter,omitempty"`
	RequestID  string         `json:"requestId"`
	Vendor     string         `json:"vendor,omitempty"`
	Source     string         `json:"source,omitempty"`
}

type marketDataService struct {
	broker Fetcher
	logger *zap.Logger
	health *HealthChecker
}

// NewService creates the market data service on top of the broker.
func NewService(broker Fetcher, health *HealthChecker, logger *zap.Logger) Service {
	return &marketDataService{broker: broker, health: health, logger: logger}
}

// FetchMarketData translates the wire request into the broker's
// request model and renders the result back.
func (s *marketDataService) FetchMarketData(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	requestID := middleware.RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	dataType, err := model.ParseDataType(req.Type)
	if err != nil {
		return FetchResponse{}, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, err.Error())
	}

	mdReq := model.MarketDataRequest{
		Type:             dataType,
		Parameters:       req.Parameters,
		PreferredVendors: req.PreferredVendors,
	}
	for _, id := range req.Identifiers {
		mdReq.Identifiers = append(mdReq.Identifiers, model.Identifier{
			Symbol:    id.Symbol,
			Exchange:  id.Exchange,
			AssetType: id.AssetType,
		})
	}
	if req.Range != nil {
		mdReq.Range = model.TimeRange{Start: req.Range.Start, End: req.Range.End}
	}

	result := s.broker.Fetch(ctx, mdReq)
	response := FetchResponse{
		Ok:         result.Success,
		Error:      result.Error,
		RetryAfter: result.RetryAfter,
		RequestID:  requestID,
	}
	if result.Meta != nil {
		response.Source = result.Meta["source"]
	}
	if !result.Success {
		s.logger.Warn("Market data fetch failed",
			zap.String("request_id", requestID),
			zap.String("type", string(dataType)),
			zap.String("error", result.Error))
		return response, nil
	}

	response.Vendor = result.Data.Base().Vendor
	switch typed := result.Data.(type) {
	case *model.QuoteDto:
		response.Quote = &QuotePayload{
			Symbol:    typed.PrimaryIdentifier,
			Price:     typed.Price,
			Open:      typed.Open,
			High:      typed.High,
			Low:       typed.Low,
			PrevClose: typed.PrevClose,
			Volume:    typed.Volume,
			Currency:  typed.Currency,
			Timestamp: typed.Timestamp,
		}
	case *model.OhlcvSeriesDto:
		response.Series = &SeriesPayload{
			Symbol:      typed.PrimaryIdentifier,
			Currency:    typed.Currency,
			Granularity: typed.Granularity,
			Adjustment:  typed.Adjustment,
			Partial:     typed.Partial,
			Bars:        typed.Bars,
		}
	}
	return response, nil
}

// CheckHealth reports component health.
func (s *marketDataService) CheckHealth(ctx context.Context) HealthResponse {
	return s.health.Check(ctx)
}
