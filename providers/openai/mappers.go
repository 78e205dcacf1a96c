package openai

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/schema"
	"github.com/withceleste/celeste-go/core/types"
)

// schemaDialect is the schema shape the OpenAI structured-output endpoints
// accept: no $ref, no top-level arrays, additionalProperties always false.
var schemaDialect = schema.Dialect{
	InlineRefs:         true,
	WrapTopLevelArrays: true,
	Strict:             true,
}

// Mappers returns the text-generation mapper chain in its declared order.
func Mappers() []params.Mapper {
	return []params.Mapper{
		maxTokensMapper{},
		params.FieldMapper{Name: types.ParamTemperature, Field: "temperature"},
		params.FieldMapper{Name: types.ParamTopP, Field: "top_p"},
		params.FieldMapper{Name: types.ParamSeed, Field: "seed"},
		params.FieldMapper{Name: types.ParamStop, Field: "stop"},
		systemPromptMapper{},
		outputSchemaMapper{},
		outputFormatMapper{},
	}
}

// nested returns the map stored under key, creating it when absent.
func nested(req params.Request, key string) map[string]any {
	if m, ok := req[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	req[key] = m
	return m
}

// maxTokensMapper maps max_tokens onto the field name each API surface uses.
type maxTokensMapper struct{}

func (maxTokensMapper) Parameter() types.Parameter { return types.ParamMaxTokens }

func (maxTokensMapper) Map(req params.Request, value any, m model.Model) error {
	if StrategyFor(m.ID) == StrategyChatCompletions {
		req["max_tokens"] = value
		return nil
	}
	req["max_output_tokens"] = value
	return nil
}

func (maxTokensMapper) ParseOutput(content any, _ any) (any, error) {
	return content, nil
}

// systemPromptMapper maps system_prompt to Responses "instructions", or to a
// leading system message on Chat Completions.
type systemPromptMapper struct{}

func (systemPromptMapper) Parameter() types.Parameter { return types.ParamSystemPrompt }

func (systemPromptMapper) Map(req params.Request, value any, m model.Model) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("system_prompt must be a string, got %T", value)
	}

	if StrategyFor(m.ID) != StrategyChatCompletions {
		req["instructions"] = text
		return nil
	}

	system := map[string]any{"role": "system", "content": text}
	if messages, ok := req["messages"].([]any); ok {
		req["messages"] = append([]any{system}, messages...)
	} else {
		req["messages"] = []any{system}
	}
	return nil
}

func (systemPromptMapper) ParseOutput(content any, _ any) (any, error) {
	return content, nil
}

// outputSchemaMapper maps output_schema onto the structured-output request
// field and decodes the response back through the same schema on the way out.
type outputSchemaMapper struct{}

func (outputSchemaMapper) Parameter() types.Parameter { return types.ParamOutputSchema }

func (outputSchemaMapper) Map(req params.Request, value any, m model.Model) error {
	desc, ok := value.(*schema.Descriptor)
	if !ok {
		return fmt.Errorf("output_schema must be a *schema.Descriptor, got %T", value)
	}

	normalized, err := schema.Normalize(desc, schemaDialect)
	if err != nil {
		return err
	}

	if StrategyFor(m.ID) == StrategyChatCompletions {
		req["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": normalized.Schema,
				"strict": true,
			},
		}
		return nil
	}

	nested(req, "text")["format"] = map[string]any{
		"type":   "json_schema",
		"name":   "response",
		"schema": normalized.Schema,
		"strict": true,
	}
	return nil
}

func (outputSchemaMapper) ParseOutput(content any, value any) (any, error) {
	desc, ok := value.(*schema.Descriptor)
	if !ok {
		return content, nil
	}
	normalized, err := schema.Normalize(desc, schemaDialect)
	if err != nil {
		return nil, err
	}
	return normalized.ParseContent(content)
}

// outputFormatMapper handles output_format. The request itself is untouched;
// the transform runs on the way out, converting HTML-bearing completions to
// Markdown when output_format=markdown was requested.
type outputFormatMapper struct{}

func (outputFormatMapper) Parameter() types.Parameter { return types.ParamOutputFormat }

func (outputFormatMapper) Map(params.Request, any, model.Model) error {
	return nil
}

func (outputFormatMapper) ParseOutput(content any, value any) (any, error) {
	format, ok := value.(string)
	if !ok || format != "markdown" {
		return content, nil
	}
	text, ok := content.(string)
	if !ok {
		return content, nil
	}

	markdown, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return nil, fmt.Errorf("converting output to markdown: %w", err)
	}
	return markdown, nil
}
