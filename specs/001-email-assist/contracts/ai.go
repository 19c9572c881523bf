// Package contracts/ai defines the AI invoker.
// One request, one complete response. No streaming, no conversation state.
//
// Providers (closed set): grok, openai (any compatible endpoint), ollama,
// anthropic. Raw net/http, JSON request/response types per provider.
package contracts

// Invoker is consumed by the pipeline and the attachment harvester.

// Operations:
//
// Preflight:
//   Resolve the provider API key from the keyring. Local providers (ollama)
//   need none. Missing key -> CREDENTIALS_MISSING, before any mail access.
//
// Invoke(system, user, images):
//   Credentials are re-read from the keyring on every call.
//   grok / openai:  POST /v1/chat/completions, Bearer auth,
//                   images as image_url data URLs in a content part array.
//   ollama:         POST /api/chat, stream=false, options.num_predict,
//                   images as a base64 list on the user message.
//   anthropic:      POST /v1/messages, x-api-key + anthropic-version,
//                   images as base64 source blocks.
//   Returns: the assistant text, unmodified.
//
// Timeouts:
//   Hosted providers 120s, local providers 300s (configurable).
//
// Error handling:
//   Non-2xx               -> PROVIDER_ERROR with the provider's message.
//   Timeout               -> PROVIDER_ERROR "AI request timed out after ...".
//   Unreachable           -> PROVIDER_ERROR "could not reach AI provider".
//   Missing content field -> PROVIDER_ERROR "invalid response".
