package openai

import "strings"

// Strategy selects which OpenAI API surface a model speaks. It is an explicit
// tagged variant: every model id resolves to exactly one strategy, and the
// adapter dispatches endpoint, request shape, and response parsing on it.
type Strategy int

const (
	// StrategyResponses targets POST /v1/responses (the current API surface).
	StrategyResponses Strategy = iota

	// StrategyChatCompletions targets POST /v1/chat/completions, used by the
	// gpt-3.5 and gpt-4 model families.
	StrategyChatCompletions
)

// StrategyFor resolves the strategy for a model id. It is a pure function:
// same id, same strategy, no configuration involved.
func StrategyFor(modelID string) Strategy {
	if strings.HasPrefix(modelID, "gpt-3.5") || strings.HasPrefix(modelID, "gpt-4") {
		return StrategyChatCompletions
	}
	return StrategyResponses
}

// endpoint returns the API path for this strategy.
func (s Strategy) endpoint() string {
	if s == StrategyChatCompletions {
		return "/v1/chat/completions"
	}
	return "/v1/responses"
}

func (s Strategy) String() string {
	if s == StrategyChatCompletions {
		return "chat_completions"
	}
	return "responses"
}
