// Package events defines raw filesystem notifications, the semantic change
// events the orchestrator reacts to, and the classifier mapping one to the
// other.
package events
