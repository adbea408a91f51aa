package tools

import (
	"fmt"
	"sync"

	"github.com/smithers-ai/smithers/internal/agent"
)

// Registry holds the agent's tool catalog by unique name. It implements
// the agent loop's ToolSource and is safe for concurrent use; tools are
// normally registered once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Fails if the name is already taken so wiring
// mistakes surface at startup rather than at call time.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Describe returns tool metadata in registration order.
func (r *Registry) Describe() []agent.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]agent.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		infos = append(infos, agent.ToolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return infos
}

// Resolve returns the executor for name, or an error wrapping
// agent.ErrUnknownTool.
func (r *Registry) Resolve(name string) (agent.Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", agent.ErrUnknownTool, name)
	}
	return tool, nil
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
