// Package core provides the foundational domain types, interfaces and
// execution contexts used by weatherteam. It defines the core abstractions
// for:
//
//   - Agents (units of autonomous / orchestrated conversational work)
//   - Sessions (stateful conversational containers with event history)
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - The pluggable SessionStore for state and history persistence
//
// The package intentionally keeps implementation concerns (persistence,
// runner orchestration, concrete agents, model providers) out of scope,
// exposing small interfaces to enable custom backends and extensions.
package core
