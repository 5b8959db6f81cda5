package office

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"taskdrive/internal/domain"
)

// Converter calls the external format-conversion service. It is used only
// by save-as flows where the target extension differs from the source.
type Converter struct {
	endpoint string
	secret   []byte
	httpc    *http.Client
	logger   *slog.Logger
}

// NewConverter creates a conversion gateway client. The endpoint is the
// conversion service URL; requests are signed with the same HMAC mechanism
// as session descriptors.
func NewConverter(endpoint string, secret []byte, logger *slog.Logger) *Converter {
	return &Converter{
		endpoint: endpoint,
		secret:   secret,
		httpc:    &http.Client{Timeout: 120 * time.Second},
		logger:   logger,
	}
}

// conversionRequest is the service's wire format.
type conversionRequest struct {
	Async      bool   `json:"async"`
	Filetype   string `json:"filetype"`
	Outputtype string `json:"outputtype"`
	Key        string `json:"key"`
	URL        string `json:"url"`
	Token      string `json:"token,omitempty"`
}

type conversionResponse struct {
	EndConvert bool   `json:"endConvert"`
	FileURL    string `json:"fileUrl"`
	Percent    int    `json:"percent"`
	Error      int    `json:"error"`
}

// Convert posts a synchronous conversion request and returns the URL of the
// converted output. A non-success HTTP status, a non-zero error field or a
// missing output URL is a hard failure; the caller must not write anything
// to storage in that case.
func (c *Converter) Convert(ctx context.Context, sourceURL, sourceExt, targetExt, key string) (string, error) {
	payload := conversionRequest{
		Async:      false,
		Filetype:   sourceExt,
		Outputtype: targetExt,
		Key:        key,
		URL:        sourceURL,
	}

	token, err := signPayload(c.secret, payload)
	if err != nil {
		return "", err
	}
	payload.Token = token

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal conversion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("conversion request failed", "endpoint", c.endpoint, "error", err)
		return "", fmt.Errorf("%w: conversion service unreachable", domain.ErrConversionFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("conversion service rejected request",
			"endpoint", c.endpoint,
			"status", resp.StatusCode,
		)
		return "", fmt.Errorf("%w: status %d", domain.ErrConversionFailed, resp.StatusCode)
	}

	var result conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: undecodable response", domain.ErrConversionFailed)
	}

	if result.Error != 0 {
		c.logger.Error("conversion service returned error",
			"error_code", result.Error,
			"source", sourceExt,
			"target", targetExt,
		)
		return "", fmt.Errorf("%w: service error %d", domain.ErrConversionFailed, result.Error)
	}
	if result.FileURL == "" {
		return "", fmt.Errorf("%w: no output url", domain.ErrConversionFailed)
	}

	c.logger.Info("document converted",
		"source", sourceExt,
		"target", targetExt,
		"key", key,
	)

	return result.FileURL, nil
}
