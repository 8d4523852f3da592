package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/config"
	"github.com/arunvm123/showcatalog/catalog-service/model"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
)

// HTTPProductRepository talks to a hosted document store exposing a products collection over REST.
type HTTPProductRepository struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewHTTPProductRepository(baseURL, serviceToken string, logger *slog.Logger) *HTTPProductRepository {
	return &HTTPProductRepository{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		logger:       logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewHTTPProductRepositoryWithConfig creates a client with connection pooling
func NewHTTPProductRepositoryWithConfig(cfg *config.Remote, logger *slog.Logger) *HTTPProductRepository {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     time.Duration(cfg.IdleConnTimeout) * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProductRepository{
		baseURL:      cfg.BaseURL,
		serviceToken: cfg.ServiceToken,
		logger:       logger,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
			Transport: transport,
		},
	}
}

func (s *HTTPProductRepository) List(ctx context.Context) ([]model.Product, error) {
	return s.list(ctx, s.baseURL+"/products")
}

func (s *HTTPProductRepository) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return s.list(ctx, s.baseURL+"/products?category="+url.QueryEscape(category))
}

func (s *HTTPProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	resp, err := s.do(ctx, http.MethodGet, s.productURL(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var product model.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", repository.ErrUnavailable, err)
	}
	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("malformed product %s: %w", id, err)
	}

	return &product, nil
}

func (s *HTTPProductRepository) Create(ctx context.Context, input model.ProductInput) (model.Created, error) {
	body, err := json.Marshal(input.Normalize())
	if err != nil {
		return model.Created{}, fmt.Errorf("failed to encode product: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPost, s.baseURL+"/products", body)
	if err != nil {
		return model.Created{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusCreated, http.StatusOK); err != nil {
		return model.Created{}, err
	}

	var created model.Created
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return model.Created{}, fmt.Errorf("%w: failed to decode response: %w", repository.ErrUnavailable, err)
	}
	if created.ID == "" {
		return model.Created{}, fmt.Errorf("%w: source returned no product id", repository.ErrUnavailable)
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	return created, nil
}

func (s *HTTPProductRepository) Update(ctx context.Context, id string, input model.ProductInput) error {
	body, err := json.Marshal(input.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPut, s.productURL(id), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp, http.StatusOK, http.StatusNoContent)
}

func (s *HTTPProductRepository) Delete(ctx context.Context, id string) error {
	resp, err := s.do(ctx, http.MethodDelete, s.productURL(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp, http.StatusOK, http.StatusNoContent)
}

func (s *HTTPProductRepository) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp, http.StatusOK)
}

// Close drops idle pooled connections
func (s *HTTPProductRepository) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *HTTPProductRepository) productURL(id string) string {
	return s.baseURL + "/products/" + url.PathEscape(id)
}

func (s *HTTPProductRepository) list(ctx context.Context, endpoint string) ([]model.Product, error) {
	resp, err := s.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	// Decode records one by one so a single malformed document does not fail the listing
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", repository.ErrUnavailable, err)
	}

	products := make([]model.Product, 0, len(raw))
	for i, doc := range raw {
		var product model.Product
		if err := json.Unmarshal(doc, &product); err != nil {
			s.logger.Warn("skipping undecodable product document", "index", i, "error", err)
			continue
		}
		if err := product.Validate(); err != nil {
			s.logger.Warn("skipping malformed product document", "id", product.ID, "error", err)
			continue
		}
		products = append(products, product)
	}

	return products, nil
}

func (s *HTTPProductRepository) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.serviceToken != "" {
		req.Header.Set("X-Service-Auth", s.serviceToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", repository.ErrUnavailable, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode == code {
			return nil
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return repository.ErrNotFound
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%w: document store error (status %d): %s", repository.ErrUnavailable, resp.StatusCode, string(body))
}
