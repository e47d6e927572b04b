// Package agent runs the tool-calling loop behind the gateway.
//
// It resolves the provider configuration, and each call to Runtime.Events
// drives one independent conversation: the model is streamed, requested tools
// are executed, and results are fed back until the model answers.
package agent
