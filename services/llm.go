package services

import (
	"context"
	"fmt"

	"github.com/advisorly/api/services/digitalocean"
	"github.com/advisorly/api/utils"
)

// LanguageModel is the narrow LLM surface the domain services depend on.
// Completion returns free text; StructuredCompletion decodes a
// schema-constrained JSON response into target.
type LanguageModel interface {
	Completion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	StructuredCompletion(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema map[string]interface{}, target interface{}) error
}

// InferenceLanguageModel implements LanguageModel on top of the DigitalOcean
// inference client
type InferenceLanguageModel struct {
	client *digitalocean.InferenceClient
}

// NewInferenceLanguageModel wraps an inference client as a LanguageModel
func NewInferenceLanguageModel(client *digitalocean.InferenceClient) *InferenceLanguageModel {
	return &InferenceLanguageModel{client: client}
}

// Completion runs a plain single-turn completion
func (m *InferenceLanguageModel) Completion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.client.SimpleCompletion(ctx, systemPrompt, userPrompt)
}

// StructuredCompletion runs a completion with a JSON schema response format
// and decodes the result into target. Models occasionally wrap JSON in
// markdown fences, so the output goes through the tolerant extractor.
func (m *InferenceLanguageModel) StructuredCompletion(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema map[string]interface{}, target interface{}) error {
	raw, err := m.client.SimpleCompletion(ctx, systemPrompt, userPrompt,
		digitalocean.WithResponseFormatJSONSchema(schemaName, "", schema, true),
		digitalocean.WithInferenceTemperature(0.2),
	)
	if err != nil {
		return err
	}

	if err := utils.ExtractJSONTo(raw, target); err != nil {
		return fmt.Errorf("failed to parse structured model output: %w", err)
	}
	return nil
}
