package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/llm/httpx"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// BatchEndpoint is the relative URL every batch request line targets.
const BatchEndpoint = "/v1/responses"

// DefaultCompletionWindow is the only window the Batch API accepts today.
const DefaultCompletionWindow = "24h"

// FindBatch scans at most findBatchPages pages of batchListLimit batches.
const (
	batchListLimit = 100
	findBatchPages = 5
)

type fileObject struct {
	ID string `json:"id"`
}

type batchObject struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	InputFileID  string            `json:"input_file_id"`
	OutputFileID string            `json:"output_file_id"`
	ErrorFileID  string            `json:"error_file_id"`
	Metadata     map[string]string `json:"metadata"`
}

func (b batchObject) info() driven.BatchInfo {
	return driven.BatchInfo{
		ID:           b.ID,
		Status:       b.Status,
		InputFileID:  b.InputFileID,
		OutputFileID: b.OutputFileID,
		ErrorFileID:  b.ErrorFileID,
	}
}

type batchList struct {
	Data    []batchObject `json:"data"`
	HasMore bool          `json:"has_more"`
	LastID  string        `json:"last_id"`
}

type createBatchRequest struct {
	InputFileID      string            `json:"input_file_id"`
	Endpoint         string            `json:"endpoint"`
	CompletionWindow string            `json:"completion_window"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CreateBatch uploads the requests as a JSON Lines file and starts a batch.
func (s *LLMService) CreateBatch(
	ctx context.Context,
	requests []driven.BatchRequest,
	endpoint, completionWindow string,
	metadata map[string]string,
) (driven.BatchHandle, error) {
	if len(requests) == 0 {
		return driven.BatchHandle{}, fmt.Errorf("%w: empty batch", domain.ErrInvalidInput)
	}
	if endpoint == "" {
		endpoint = BatchEndpoint
	}
	if completionWindow == "" {
		completionWindow = DefaultCompletionWindow
	}

	fileID, err := s.uploadBatchFile(ctx, requests)
	if err != nil {
		return driven.BatchHandle{}, err
	}

	var batch batchObject
	err = s.client.DoJSON(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    s.baseURL + "/batches",
		Body: createBatchRequest{
			InputFileID:      fileID,
			Endpoint:         endpoint,
			CompletionWindow: completionWindow,
			Metadata:         metadata,
		},
	}, &batch)
	if err != nil {
		return driven.BatchHandle{}, fmt.Errorf("openai: create batch: %w", err)
	}

	return driven.BatchHandle{BatchID: batch.ID, InputFileID: fileID}, nil
}

func (s *LLMService) uploadBatchFile(ctx context.Context, requests []driven.BatchRequest) (string, error) {
	var lines bytes.Buffer
	enc := json.NewEncoder(&lines)
	for _, r := range requests {
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("encode batch line %s: %w", r.CustomID, err)
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "batch"); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	fw, err := mw.CreateFormFile("file", "batch.jsonl")
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := fw.Write(lines.Bytes()); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	var file fileObject
	err = s.client.DoJSON(ctx, httpx.Request{
		Method:      http.MethodPost,
		URL:         s.baseURL + "/files",
		Body:        &body,
		ContentType: mw.FormDataContentType(),
	}, &file)
	if err != nil {
		return "", fmt.Errorf("openai: upload batch file: %w", err)
	}
	if file.ID == "" {
		return "", fmt.Errorf("%w: openai: upload returned no file id", domain.ErrMalformedResponse)
	}
	return file.ID, nil
}

// GetBatch returns the provider status of a batch.
func (s *LLMService) GetBatch(ctx context.Context, batchID string) (driven.BatchInfo, error) {
	var batch batchObject
	err := s.client.DoJSON(ctx, httpx.Request{
		Method: http.MethodGet,
		URL:    s.baseURL + "/batches/" + url.PathEscape(batchID),
	}, &batch)
	if err != nil {
		return driven.BatchInfo{}, fmt.Errorf("openai: get batch %s: %w", batchID, err)
	}

	return batch.info(), nil
}

// FindBatch lists batches newest first and returns the first whose metadata
// holds every entry of metadata.
func (s *LLMService) FindBatch(ctx context.Context, metadata map[string]string) (driven.BatchInfo, bool, error) {
	after := ""
	for page := 0; page < findBatchPages; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(batchListLimit))
		if after != "" {
			q.Set("after", after)
		}

		var list batchList
		err := s.client.DoJSON(ctx, httpx.Request{
			Method: http.MethodGet,
			URL:    s.baseURL + "/batches?" + q.Encode(),
		}, &list)
		if err != nil {
			return driven.BatchInfo{}, false, fmt.Errorf("openai: list batches: %w", err)
		}

		for _, b := range list.Data {
			if hasMetadata(b.Metadata, metadata) {
				return b.info(), true, nil
			}
		}
		if !list.HasMore || list.LastID == "" {
			break
		}
		after = list.LastID
	}
	return driven.BatchInfo{}, false, nil
}

func hasMetadata(have, want map[string]string) bool {
	for k, v := range want {
		if got, ok := have[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// GetFileContent downloads a file. An empty ID yields empty content.
func (s *LLMService) GetFileContent(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", nil
	}
	data, err := s.client.Do(ctx, httpx.Request{
		Method: http.MethodGet,
		URL:    s.baseURL + "/files/" + url.PathEscape(fileID) + "/content",
	})
	if err != nil {
		return "", fmt.Errorf("openai: get file %s: %w", fileID, err)
	}
	return string(data), nil
}

// Endpoint returns the relative URL request lines target.
func (s *LLMService) Endpoint() string {
	return BatchEndpoint
}
