// Package chat runs conversation turns against a stored provider.
//
// A turn resolves the provider (explicit id or the default), loads the
// chat history, saves the user message and calls the provider registry.
// The assistant reply is saved only when the provider finishes cleanly,
// so a failed or abandoned stream leaves the user message as the last
// entry of the chat. Every successful reply also touches the model
// preference of the provider that produced it.
package chat
