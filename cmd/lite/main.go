// Lite is a multi-vendor LLM chat backend.
//
// It stores chats, messages and provider settings in SQLite and talks to
// OpenAI, Anthropic, OpenRouter and OpenAI-compatible endpoints through one
// provider abstraction, streaming replies to clients as server-sent events.
//
// Usage:
//
//	# Start the HTTP API
//	lite serve --config lite.yaml
//
//	# List models of the default provider
//	lite models
//
//	# Send a message from the terminal
//	lite chat "Explain SSE in one sentence"
//
//	# Manage stored providers
//	lite providers list
//	lite providers add --name work --type anthropic --api-key sk-ant-...
//
//	# Check a configuration file
//	lite validate --config lite.yaml
package main

func main() {
	Execute()
}
