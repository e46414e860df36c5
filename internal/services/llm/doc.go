// Package llm sends chat completions to OpenAI-compatible endpoints through
// go-openai.
//
// Complete takes a system and a user message and returns the assistant text.
// HTTP 408, 429 and 5xx responses, network timeouts and empty completions are
// retried with exponential backoff; other errors return immediately.
package llm
