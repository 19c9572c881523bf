// Package contracts/pipeline defines the orchestrator state machine.
package contracts

// Stages:
//
//   idle -> fetching -> [extracting -> analyzing] -> composing ->
//   invoking-ai -> sanitizing -> delivering -> idle
//
//   The bracketed stages run for Smart Shot only, and analyzing only when
//   the message has attachments. Any failure moves to failed; the result
//   reports the stage that failed.
//
// Before fetching:
//   1. Rate limit "ai-call" (20 calls / rolling 60s). Rejected -> RATE_LIMITED.
//   2. Credential preflight. Missing -> CREDENTIALS_MISSING.
//   3. Resolve templates by ID or name. Unknown -> NOT_FOUND.
//
// Smart Shot attachments:
//   Written to a per-run temp dir removed on every exit path.
//   Each file: extract -> rate limit "attachment-summary" -> AI bullet summary.
//   A failing file becomes "[Error: reason]" and never stops the run.
//
// Delivery:
//   Rate limit "create-reply", then CreateReply. Failure -> DELIVERY_FAILED
//   with the sanitized content kept in the result.
//
// AnalyzeFile(path, kind):
//   kind = summarize | extract | questions. Rate limit "analyze-file".
//   Extraction ceiling 50,000 chars. Images without OCR text go to the
//   vision model. The file is never deleted.
