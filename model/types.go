// Package model defines the canonical, provider-agnostic message types the
// core agent runtime exchanges with callers and tools, plus the uniform
// streaming contract every model provider adapter must implement. The core
// never branches on provider identity; it consumes only the types in this
// package.
package model

import "encoding/json"

// Role identifies the speaker for a Message.
type Role string

const (
	// RoleSystem carries system/instruction content.
	RoleSystem Role = "system"
	// RoleUser carries end-user input and tool results.
	RoleUser Role = "user"
	// RoleAssistant carries model-generated content.
	RoleAssistant Role = "assistant"
	// RoleTool is reserved for providers that model tool results as a
	// distinct role rather than as user-role tool_result blocks. The core
	// itself only ever constructs RoleUser messages for tool results (see
	// §3 of the spec); RoleTool exists so provider adapters can round-trip
	// a provider's native role without lossy translation.
	RoleTool Role = "tool"
)

// ImageFormat identifies the on-wire encoding of an ImageBlock.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatWEBP ImageFormat = "webp"
)

// DocumentFormat identifies the on-wire encoding of a DocumentBlock.
type DocumentFormat string

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatTXT  DocumentFormat = "txt"
	DocumentFormatMD   DocumentFormat = "md"
	DocumentFormatCSV  DocumentFormat = "csv"
	DocumentFormatHTML DocumentFormat = "html"
)

// ToolResultStatus reports whether a tool_result block represents a
// successful or failed tool invocation.
type ToolResultStatus string

const (
	ToolResultStatusSuccess ToolResultStatus = "success"
	ToolResultStatusError   ToolResultStatus = "error"
)

type (
	// ContentBlock is a tagged variant carrying exactly one of Text, ToolUse,
	// ToolResult, Reasoning, Image, or Document. Constructing a ContentBlock
	// with more than one field populated is a caller error; the core only
	// ever reads the first populated field it recognizes.
	ContentBlock struct {
		Text       string          `json:"text,omitempty"`
		ToolUse    *ToolUse        `json:"tool_use,omitempty"`
		ToolResult *ToolResult     `json:"tool_result,omitempty"`
		Reasoning  *ReasoningBlock `json:"reasoning,omitempty"`
		Image      *ImageBlock     `json:"image,omitempty"`
		Document   *DocumentBlock  `json:"document,omitempty"`
	}

	// ToolUse declares a tool invocation requested by the assistant. Input is
	// a fully parsed JSON value, never a streaming fragment (spec §3).
	ToolUse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Input any    `json:"input"`
	}

	// ToolResult carries a tool's outcome back to the model. Content only
	// ever contains Text, Image, Document, or opaque JSON blobs encoded as
	// Text — never nested ToolUse or ToolResult blocks (spec §3 invariant).
	ToolResult struct {
		ID      string         `json:"id"`
		Status  ToolResultStatus `json:"status"`
		Content []ContentBlock `json:"content"`
	}

	// ReasoningBlock carries provider "thinking" content. Signature, when
	// present, is a provider-issued opaque token authenticating Text; it is
	// round-tripped verbatim and never interpreted by the core.
	ReasoningBlock struct {
		Text      string `json:"text"`
		Signature string `json:"signature,omitempty"`
	}

	// ImageBlock carries inline image bytes.
	ImageBlock struct {
		Format ImageFormat `json:"format"`
		Bytes  []byte      `json:"bytes"`
	}

	// DocumentBlock carries inline document bytes.
	DocumentBlock struct {
		Format DocumentFormat `json:"format"`
		Bytes  []byte         `json:"bytes"`
	}

	// Message is a single, immutable turn in a conversation. Once appended to
	// a Messages history it is never mutated, except by an explicit redact
	// operation that replaces content while preserving any external message
	// identifier (see session.Manager.RedactMessage).
	Message struct {
		Role    Role           `json:"role"`
		Content []ContentBlock `json:"content"`
	}

	// Messages is an ordered conversation history. It is well-formed iff,
	// whenever an assistant message contains N tool_use blocks, the
	// immediately following message is a user message containing exactly N
	// tool_result blocks with matching IDs, in any order (spec §3).
	Messages []Message
)

// TextBlock constructs a ContentBlock carrying plain text.
func TextBlock(text string) ContentBlock { return ContentBlock{Text: text} }

// ToolUseBlock constructs a ContentBlock declaring a tool invocation.
func ToolUseBlock(id, name string, input any) ContentBlock {
	return ContentBlock{ToolUse: &ToolUse{ID: id, Name: name, Input: input}}
}

// ToolResultBlock constructs a ContentBlock carrying a tool's result.
func ToolResultBlock(id string, status ToolResultStatus, content ...ContentBlock) ContentBlock {
	return ContentBlock{ToolResult: &ToolResult{ID: id, Status: status, Content: content}}
}

// ReasoningTextBlock constructs a ContentBlock carrying reasoning text.
func ReasoningTextBlock(text, signature string) ContentBlock {
	return ContentBlock{Reasoning: &ReasoningBlock{Text: text, Signature: signature}}
}

// IsText reports whether the block carries (only) text content.
func (c ContentBlock) IsText() bool { return c.ToolUse == nil && c.ToolResult == nil && c.Reasoning == nil && c.Image == nil && c.Document == nil }

// StopReason is a terminal tag on an assistant message explaining why
// generation ended. StopReasonToolUse is the only value that causes the
// event loop to recurse (spec §3, §4.3).
type StopReason string

const (
	StopReasonEndTurn             StopReason = "end_turn"
	StopReasonToolUse             StopReason = "tool_use"
	StopReasonMaxTokens           StopReason = "max_tokens"
	StopReasonStopSequence        StopReason = "stop_sequence"
	StopReasonGuardrailIntervened StopReason = "guardrail_intervened"
	StopReasonContentFiltered     StopReason = "content_filtered"
)

// Usage accumulates additively across cycles within one invocation (spec §3,
// invariant 6).
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the element-wise sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Metrics accumulates additively across cycles (spec §3).
type Metrics struct {
	LatencyMS int64 `json:"latency_ms"`
}

// Add returns the element-wise sum of m and other.
func (m Metrics) Add(other Metrics) Metrics {
	return Metrics{LatencyMS: m.LatencyMS + other.LatencyMS}
}

// ToolSpec is the model-facing description of a callable tool (spec §6).
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}
