// Package planserialize turns an optimized fetch graph into the nested
// Sequence/Parallel/Fetch/Flatten plan tree and renders it as stable JSON
// (§6 wire shape) or as a pretty debug tree.
package planserialize

import "encoding/json"

// Plan is the root wire object: {"kind":"QueryPlan","node":<Node>}.
type Plan struct {
	Node Node
}

func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Node Node   `json:"node"`
	}{Kind: "QueryPlan", Node: p.Node})
}

// Node is the plan tree's sum type: Sequence, Parallel, Fetch, Flatten.
type Node interface {
	isNode()
	debug(w *debugWriter)
}

// Sequence runs its nodes one after another; later nodes may depend on
// data earlier ones fetched.
type Sequence struct {
	Nodes []Node
}

func (Sequence) isNode() {}

func (s Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Nodes []Node `json:"nodes"`
	}{"Sequence", s.Nodes})
}

// Parallel runs its nodes with no ordering constraint between them.
type Parallel struct {
	Nodes []Node
}

func (Parallel) isNode() {}

func (p Parallel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Nodes []Node `json:"nodes"`
	}{"Parallel", p.Nodes})
}

// Fetch is one subgraph request.
type Fetch struct {
	ServiceName    string
	OperationKind  string // "query" | "mutation" | "subscription"
	Operation      string // minified GraphQL source
	VariableUsages []string
	Requires       []RequiresNode
}

func (Fetch) isNode() {}

func (f Fetch) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind           string         `json:"kind"`
		ServiceName    string         `json:"serviceName"`
		OperationKind  string         `json:"operationKind"`
		Operation      string         `json:"operation"`
		VariableUsages []string       `json:"variableUsages,omitempty"`
		Requires       []RequiresNode `json:"requires,omitempty"`
	}{"Fetch", f.ServiceName, f.OperationKind, f.Operation, f.VariableUsages, f.Requires})
}

// Flatten wraps a Fetch (or further-nested node) whose result must be
// merged back in at Path, where list segments are materialized as the
// sentinel "List".
type Flatten struct {
	Path []string
	Node Node
}

func (Flatten) isNode() {}

func (f Flatten) MarshalJSON() ([]byte, error) {
	path := f.Path
	if path == nil {
		path = []string{}
	}
	return json.Marshal(struct {
		Kind string   `json:"kind"`
		Path []string `json:"path"`
		Node Node     `json:"node"`
	}{"Flatten", path, f.Node})
}

// RequiresNode is the sum type for entries of a Fetch's requires array:
// RequiresField or RequiresInlineFragment.
type RequiresNode interface {
	isRequiresNode()
}

// RequiresField is a plain field reference inside a requires selection.
type RequiresField struct {
	Name       string
	Alias      string
	Selections []RequiresNode
}

func (RequiresField) isRequiresNode() {}

func (f RequiresField) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string         `json:"kind"`
		Name       string         `json:"name"`
		Alias      string         `json:"alias,omitempty"`
		Selections []RequiresNode `json:"selections,omitempty"`
	}{"Field", f.Name, f.Alias, f.Selections})
}

// RequiresInlineFragment narrows a requires selection to a concrete type.
type RequiresInlineFragment struct {
	TypeCondition string
	Selections    []RequiresNode
}

func (RequiresInlineFragment) isRequiresNode() {}

func (f RequiresInlineFragment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind          string         `json:"kind"`
		TypeCondition string         `json:"typeCondition"`
		Selections    []RequiresNode `json:"selections"`
	}{"InlineFragment", f.TypeCondition, f.Selections})
}
