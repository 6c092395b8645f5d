// Package ai defines the contract between the execution engine and external
// text-generation services: the Provider interface, the request and response
// models, and the structured ServiceError surfaced verbatim to users.
//
// The openai and groq subpackages implement the contract for
// OpenAI-compatible chat-completions endpoints.
package ai
