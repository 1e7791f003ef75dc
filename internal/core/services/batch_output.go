package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// criticalSignatures mark provider errors that affect every request of a
// batch alike. Retrying such a batch can never succeed.
var criticalSignatures = []string{
	"invalid_request_error",
	"model_not_found",
	"unsupported_value",
	"unsupported_parameter",
}

// batchOutputLine is one JSON Lines envelope of a batch output or error file.
type batchOutputLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int             `json:"status_code"`
		Body       json.RawMessage `json:"body"`
	} `json:"response"`
	Error *batchLineError `json:"error"`
}

type batchLineError struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// responseBody covers both the responses and the chat completions shapes.
type responseBody struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *batchLineError `json:"error"`
}

// batchItemResult is the parsed outcome of one request line.
type batchItemResult struct {
	CustomID string
	Text     string
	Err      string
}

// parseBatchOutput decodes every non-blank line of a batch file. Lines that
// are not JSON are reported as failed items with an empty custom ID.
func parseBatchOutput(content string) []batchItemResult {
	var results []batchItemResult //nolint:prealloc // size unknown until scanned

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		results = append(results, parseBatchLine(line))
	}
	return results
}

func parseBatchLine(line string) batchItemResult {
	var env batchOutputLine
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return batchItemResult{Err: fmt.Sprintf("%v: %v", domain.ErrMalformedResponse, err)}
	}

	res := batchItemResult{CustomID: env.CustomID}
	if env.Error != nil {
		res.Err = env.Error.String()
		return res
	}
	if env.Response == nil {
		res.Err = "missing response"
		return res
	}

	var body responseBody
	if len(env.Response.Body) > 0 {
		if err := json.Unmarshal(env.Response.Body, &body); err != nil {
			res.Err = fmt.Sprintf("%v: %v", domain.ErrMalformedResponse, err)
			return res
		}
	}
	if env.Response.StatusCode != 200 {
		res.Err = fmt.Sprintf("status %d", env.Response.StatusCode)
		if body.Error != nil {
			res.Err += ": " + body.Error.String()
		}
		return res
	}

	res.Text = body.text()
	if strings.TrimSpace(res.Text) == "" {
		res.Err = "empty response text"
	}
	return res
}

func (b responseBody) text() string {
	if b.OutputText != "" {
		return b.OutputText
	}
	var sb strings.Builder
	for _, item := range b.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" || c.Type == "text" {
				sb.WriteString(c.Text)
			}
		}
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	if len(b.Choices) > 0 {
		return b.Choices[0].Message.Content
	}
	return ""
}

func (e *batchLineError) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{e.Type, e.Code, e.Message} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}

// hasCriticalSignature reports whether any text carries a critical error signature.
func hasCriticalSignature(texts ...string) bool {
	for _, text := range texts {
		for _, sig := range criticalSignatures {
			if strings.Contains(text, sig) {
				return true
			}
		}
	}
	return false
}

// batchCustomID builds the custom_id of one request line.
func batchCustomID(taskID, item string, step domain.BatchStep) string {
	return taskID + ":" + item + ":" + step.String()
}

// batchItemID recovers the item from a custom_id built by batchCustomID.
// Items may themselves contain colons.
func batchItemID(customID, taskID string, step domain.BatchStep) (string, bool) {
	prefix := taskID + ":"
	suffix := ":" + step.String()
	if !strings.HasPrefix(customID, prefix) || !strings.HasSuffix(customID, suffix) ||
		len(customID) < len(prefix)+len(suffix) {
		return "", false
	}
	item := customID[len(prefix) : len(customID)-len(suffix)]
	return item, item != ""
}

// Metadata keys attached to every submitted batch.
const (
	metaTaskID        = "task_id"
	metaStep          = "step"
	metaSubmissionKey = "submission_key"
)

// submissionKey identifies the provider batch of one task step.
func submissionKey(taskID string, step domain.BatchStep) string {
	return taskID + "/" + step.String()
}
