package core

// Agent defines the core interface that all agents in weatherteam must
// implement.
//
// Agents are the primary processing units. They receive input through a
// RunContext, process it, and emit events to communicate results and state
// changes back to the Runner. The interface supports both standalone agents
// and hierarchical multi-agent teams through the sub-agent management
// methods.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Manage their lifecycle through Start/Stop methods
type Agent interface {
	Name() string
	Description() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
}

// AgentInfo carries identifying details about an agent used in contexts &
// events. Name is the external identifier; Type categorizes the
// implementation (e.g. "model", "composite").
type AgentInfo struct{ Name, Type string }
