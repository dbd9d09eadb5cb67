package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayflow/service-reservation/internal/domain/catalog"
	"github.com/stayflow/service-reservation/internal/domain/pricing"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// CatalogClient reads rooms and offers from the hotel catalog service over
// HTTP. It implements both the catalog read contract and the offer source.
type CatalogClient struct {
	client        *http.Client
	baseURL       string
	internalToken string
	logger        *zap.Logger
}

// NewCatalogClient creates a new CatalogClient.
func NewCatalogClient(baseURL, internalToken string, logger *zap.Logger) *CatalogClient {
	return &CatalogClient{
		client:        &http.Client{Timeout: 5 * time.Second},
		baseURL:       baseURL,
		internalToken: internalToken,
		logger:        logger,
	}
}

// catalogEnvelope matches the catalog service's response wrapper.
type catalogEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// RoomByID looks up one room type by id.
func (c *CatalogClient) RoomByID(ctx context.Context, roomID uuid.UUID) (*catalog.Room, error) {
	var room catalog.Room
	path := fmt.Sprintf("/internal/v1/rooms/%s", roomID)
	if err := c.getJSON(ctx, path, &room); err != nil {
		return nil, err
	}
	if room.ID == uuid.Nil {
		return nil, domain.NewNotFoundError("Room", roomID.String())
	}
	return &room, nil
}

// ActiveOffers lists the offers covering a hotel room type at a check-in
// date. The catalog filters by validity window server-side; AppliesTo is
// re-checked here so a stale cache cannot discount the wrong stay.
func (c *CatalogClient) ActiveOffers(ctx context.Context, hotelID uuid.UUID, roomType string, checkIn time.Time) ([]pricing.Offer, error) {
	path := fmt.Sprintf("/internal/v1/hotels/%s/offers?room_type=%s&date=%s",
		hotelID, url.QueryEscape(roomType), checkIn.Format("2006-01-02"))

	var offers []pricing.Offer
	if err := c.getJSON(ctx, path, &offers); err != nil {
		return nil, err
	}

	applicable := offers[:0]
	for _, o := range offers {
		if o.AppliesTo(hotelID, roomType, checkIn) {
			applicable = append(applicable, o)
		}
	}
	return applicable, nil
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Internal-Token", c.internalToken)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError("CatalogResource", path)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(snippet))
		c.logger.Error("catalog returned error", zap.String("path", path), zap.Error(err))
		return err
	}

	var envelope catalogEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode catalog payload: %w", err)
	}
	return nil
}

var (
	_ catalog.Service     = (*CatalogClient)(nil)
	_ pricing.OfferSource = (*CatalogClient)(nil)
)
