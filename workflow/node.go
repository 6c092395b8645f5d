package workflow

// NodeType identifies the role a node plays in the pipeline.
// The set is closed: every switch over NodeType in this package lists all
// three values explicitly, so adding a fourth type is a compile-visible
// change everywhere it matters.
type NodeType string

const (
	// NodeTypeInput carries the user-supplied prompt text.
	NodeTypeInput NodeType = "input"

	// NodeTypeGenerator holds the text-generation service configuration.
	NodeTypeGenerator NodeType = "generator"

	// NodeTypeOutput receives the generated text after a run.
	NodeTypeOutput NodeType = "output"
)

// Valid reports whether the type is one of the three known node types.
func (nodeType NodeType) Valid() bool {
	switch nodeType {
	case NodeTypeInput, NodeTypeGenerator, NodeTypeOutput:
		return true
	}
	return false
}

// Position is the node's location on the canvas. It is owned by the canvas
// collaborator; the core stores it but never interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Default generator configuration applied by AddNode.
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultEndpoint    = "https://api.openai.com/v1"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 256
)

// InputConfig is the configuration of an input node.
type InputConfig struct {
	// Text is the prompt sent to the generation service. Must be non-blank
	// for the workflow to be runnable.
	Text string `json:"text"`

	// SourceURL optionally records the web page the text was imported from.
	SourceURL string `json:"source_url,omitempty"`
}

// GeneratorConfig is the configuration of a generator node.
// Endpoint is the base URL of an OpenAI-compatible service; clients append
// the chat-completions path to it.
type GeneratorConfig struct {
	Model       string  `json:"model"`
	Endpoint    string  `json:"endpoint"`
	APIKey      string  `json:"api_key"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// OutputConfig is the configuration of an output node.
type OutputConfig struct {
	// Result is the generated text written by the execution engine.
	// It is nil until a run succeeds and is cleared back to nil only by an
	// explicit Store.ResetResults, never implicitly.
	Result *string `json:"result"`
}

// Node is a typed unit in the workflow graph. Exactly one of the three
// config fields is non-nil, matching Type.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`

	Input     *InputConfig     `json:"input,omitempty"`
	Generator *GeneratorConfig `json:"generator,omitempty"`
	Output    *OutputConfig    `json:"output,omitempty"`
}

// newNode constructs a node of the given type with its type-appropriate
// default configuration.
func newNode(id string, nodeType NodeType, position Position) Node {
	node := Node{
		ID:       id,
		Type:     nodeType,
		Position: position,
	}

	switch nodeType {
	case NodeTypeInput:
		node.Input = &InputConfig{}
	case NodeTypeGenerator:
		node.Generator = &GeneratorConfig{
			Model:       DefaultModel,
			Endpoint:    DefaultEndpoint,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		}
	case NodeTypeOutput:
		node.Output = &OutputConfig{}
	}

	return node
}

// clone returns a deep copy of the node so that snapshots and accessor
// results are independent of later store mutations.
func (node Node) clone() Node {
	copied := node

	switch node.Type {
	case NodeTypeInput:
		if node.Input != nil {
			inputCopy := *node.Input
			copied.Input = &inputCopy
		}
	case NodeTypeGenerator:
		if node.Generator != nil {
			generatorCopy := *node.Generator
			copied.Generator = &generatorCopy
		}
	case NodeTypeOutput:
		if node.Output != nil {
			outputCopy := *node.Output
			copied.Output = &outputCopy
			if node.Output.Result != nil {
				resultCopy := *node.Output.Result
				copied.Output.Result = &resultCopy
			}
		}
	}

	return copied
}

// ConfigPatch is a shallow merge applied to a node's configuration.
// Only non-nil fields are written, and only the fields matching the node's
// type take effect.
type ConfigPatch struct {
	// Input node fields.
	Text      *string `json:"text,omitempty"`
	SourceURL *string `json:"source_url,omitempty"`

	// Generator node fields.
	Model       *string  `json:"model,omitempty"`
	Endpoint    *string  `json:"endpoint,omitempty"`
	APIKey      *string  `json:"api_key,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`

	// Output node fields. Result is written by the execution engine during
	// a run; the HTTP surface strips it from collaborator requests.
	Result *string `json:"result,omitempty"`
}

// apply merges the patch into the node's config in place.
func (patch ConfigPatch) apply(node *Node) {
	switch node.Type {
	case NodeTypeInput:
		if patch.Text != nil {
			node.Input.Text = *patch.Text
		}
		if patch.SourceURL != nil {
			node.Input.SourceURL = *patch.SourceURL
		}
	case NodeTypeGenerator:
		if patch.Model != nil {
			node.Generator.Model = *patch.Model
		}
		if patch.Endpoint != nil {
			node.Generator.Endpoint = *patch.Endpoint
		}
		if patch.APIKey != nil {
			node.Generator.APIKey = *patch.APIKey
		}
		if patch.Temperature != nil {
			node.Generator.Temperature = *patch.Temperature
		}
		if patch.MaxTokens != nil {
			node.Generator.MaxTokens = *patch.MaxTokens
		}
	case NodeTypeOutput:
		if patch.Result != nil {
			resultCopy := *patch.Result
			node.Output.Result = &resultCopy
		}
	}
}
