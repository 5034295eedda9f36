// Package llm provides a chat-completion adapter built on the httpclient/rest
// client.
//
// The adapter works with any provider via the Dialect pattern, similar to how
// database/sql works with driver packages.
//
//   - Universal types: [CompletionRequest], [CompletionResponse], [Message], [Usage]
//   - [Dialect] maps universal types to and from a provider's HTTP format
//   - [Adapter] composes the REST client and a Dialect
//   - [RegisterDialect] / [GetDialect] select dialects by config name
//
// # Usage
//
//	import (
//	    "github.com/kbukum/dictation/llm"
//	    _ "github.com/kbukum/dictation/llm/openai" // registers "openai"
//	)
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    Model:   "gpt-4o-mini",
//	    APIKey:  key,
//	})
//
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hello!"}},
//	})
//
// Upstream failures are returned as *[APIError], carrying the status code and
// any message the dialect could extract from the error body.
package llm
