package workflow

import (
	"fmt"
	"strings"
)

// MaxTokensLimit is the upper bound accepted for a generator's max_tokens.
const MaxTokensLimit = 4000

// Validate decides whether the whole graph is runnable. It returns the empty
// slice for a runnable graph, otherwise every reason found, so the caller can
// report all problems at once instead of fixing them one by one.
//
// A graph is runnable when:
//  1. exactly one input node exists,
//  2. at least one generator node exists,
//  3. at least one output node exists,
//  4. a directed path input -> generator -> output exists using the edges
//     actually present (node existence alone is not enough),
//  5. every generator on that path has a non-empty API key and model, an
//     endpoint with an HTTP scheme, temperature in [0,1] and max_tokens in
//     [1,MaxTokensLimit],
//  6. the input node's text is non-blank.
//
// Validate is pure and operates on a snapshot; the execution engine treats
// any non-empty result as a hard gate before the network call.
func Validate(graph Graph) []string {
	reasons := make([]string, 0)

	inputs := graph.NodesOfType(NodeTypeInput)
	generators := graph.NodesOfType(NodeTypeGenerator)
	outputs := graph.NodesOfType(NodeTypeOutput)

	switch {
	case len(inputs) == 0:
		reasons = append(reasons, "missing INPUT node")
	case len(inputs) > 1:
		reasons = append(reasons, "workflow must contain exactly one INPUT node")
	}
	if len(generators) == 0 {
		reasons = append(reasons, "missing GENERATOR node")
	}
	if len(outputs) == 0 {
		reasons = append(reasons, "missing OUTPUT node")
	}

	if len(inputs) == 1 {
		if strings.TrimSpace(inputs[0].Input.Text) == "" {
			reasons = append(reasons, "INPUT text is required")
		}
	}

	// Connectivity and per-generator config checks only make sense once the
	// node census is satisfied.
	if len(inputs) != 1 || len(generators) == 0 || len(outputs) == 0 {
		return reasons
	}

	pathGenerators := PathGenerators(graph, inputs[0].ID)
	if len(pathGenerators) == 0 {
		reasons = append(reasons, "nodes are not connected: INPUT → GENERATOR → OUTPUT")
		return reasons
	}

	for _, generator := range pathGenerators {
		reasons = append(reasons, validateGeneratorConfig(generator)...)
	}

	return reasons
}

// PathGenerators returns the generator nodes that sit on a complete
// input -> generator -> output path: they are fed by the input node and feed
// at least one output node.
func PathGenerators(graph Graph, inputID string) []Node {
	generators := make([]Node, 0)

	for _, targetID := range graph.Targets(inputID) {
		target, exists := graph.NodeByID(targetID)
		if !exists || target.Type != NodeTypeGenerator {
			continue
		}

		for _, downstreamID := range graph.Targets(target.ID) {
			downstream, downstreamExists := graph.NodeByID(downstreamID)
			if downstreamExists && downstream.Type == NodeTypeOutput {
				generators = append(generators, target)
				break
			}
		}
	}

	return generators
}

// ReachableOutputs returns the IDs of every output node fed by the given
// generator. The run writes its result into each of them.
func ReachableOutputs(graph Graph, generatorID string) []string {
	outputIDs := make([]string, 0)

	for _, targetID := range graph.Targets(generatorID) {
		target, exists := graph.NodeByID(targetID)
		if exists && target.Type == NodeTypeOutput {
			outputIDs = append(outputIDs, target.ID)
		}
	}

	return outputIDs
}

// validateGeneratorConfig accumulates every config problem of one generator.
func validateGeneratorConfig(generator Node) []string {
	config := generator.Generator
	reasons := make([]string, 0)

	if config.APIKey == "" {
		reasons = append(reasons, fmt.Sprintf("%s: API key is required", generator.ID))
	}
	if config.Model == "" {
		reasons = append(reasons, fmt.Sprintf("%s: model is required", generator.ID))
	}
	if !strings.HasPrefix(config.Endpoint, "http://") && !strings.HasPrefix(config.Endpoint, "https://") {
		reasons = append(reasons, fmt.Sprintf("%s: endpoint must start with http:// or https://", generator.ID))
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		reasons = append(reasons, fmt.Sprintf("%s: temperature must be between 0 and 1", generator.ID))
	}
	if config.MaxTokens < 1 || config.MaxTokens > MaxTokensLimit {
		reasons = append(reasons, fmt.Sprintf("%s: max tokens must be between 1 and %d", generator.ID, MaxTokensLimit))
	}

	return reasons
}
