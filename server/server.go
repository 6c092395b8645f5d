// Package server exposes the workflow store and execution engine over HTTP.
// It is the boundary the canvas collaborator talks to: node and edge events
// arrive here and are translated into store operations, and the run button
// maps to a single POST.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/flowdeck/flowdeck/engine"
	"github.com/flowdeck/flowdeck/providers/ai"
	"github.com/flowdeck/flowdeck/providers/ai/groq"
	"github.com/flowdeck/flowdeck/providers/source/webpage"
	"github.com/flowdeck/flowdeck/workflow"
)

// ModelListerFactory builds a model-listing client for the given endpoint
// and credential. The default targets Groq's OpenAI-compatible models
// endpoint.
type ModelListerFactory func(endpoint, apiKey string) ai.ModelLister

func defaultModelListerFactory(endpoint, apiKey string) ai.ModelLister {
	client := groq.New()
	client.WithAPIKey(apiKey)
	client.WithBaseURL(endpoint)
	return client
}

// Server wires the HTTP routes to a store and an engine.
type Server struct {
	store         *workflow.Store
	runner        *engine.Engine
	fetcher       *webpage.Fetcher
	listerFactory ModelListerFactory
	app           *fiber.App
}

// New creates a Server over the given store and engine and registers all
// routes.
func New(store *workflow.Store, runner *engine.Engine) *Server {
	server := &Server{
		store:         store,
		runner:        runner,
		fetcher:       webpage.NewFetcher(),
		listerFactory: defaultModelListerFactory,
		app:           fiber.New(),
	}
	server.routes()
	return server
}

// WithFetcher replaces the page fetcher used by the import route.
func (server *Server) WithFetcher(fetcher *webpage.Fetcher) *Server {
	if fetcher != nil {
		server.fetcher = fetcher
	}
	return server
}

// WithModelListerFactory replaces the model listing client factory.
func (server *Server) WithModelListerFactory(factory ModelListerFactory) *Server {
	if factory != nil {
		server.listerFactory = factory
	}
	return server
}

// App returns the underlying fiber application, used by tests via app.Test.
func (server *Server) App() *fiber.App {
	return server.app
}

// Listen starts serving on the given address and blocks.
func (server *Server) Listen(address string) error {
	return server.app.Listen(address)
}

type createNodeRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type createEdgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type movePositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type importRequest struct {
	URL string `json:"url"`
}

func (server *Server) routes() {
	app := server.app

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/workflow/nodes", func(c fiber.Ctx) error {
		var body createNodeRequest
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		nodeType := workflow.NodeType(body.Type)
		if !nodeType.Valid() {
			return c.Status(400).JSON(fiber.Map{"error": "unknown node type: " + body.Type})
		}
		id := server.store.AddNode(nodeType, workflow.Position{X: body.X, Y: body.Y})
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Delete("/workflow/nodes/:id", func(c fiber.Ctx) error {
		server.store.RemoveNode(c.Params("id"))
		return c.SendStatus(204)
	})

	app.Patch("/workflow/nodes/:id/config", func(c fiber.Ctx) error {
		var patch workflow.ConfigPatch
		if err := c.Bind().JSON(&patch); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		// The result field is owned by the engine; collaborators cannot
		// write it.
		patch.Result = nil

		err := server.store.UpdateConfig(c.Params("id"), patch)
		if errors.Is(err, workflow.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Patch("/workflow/nodes/:id/position", func(c fiber.Ctx) error {
		var body movePositionRequest
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		server.store.MovePosition(c.Params("id"), workflow.Position{X: body.X, Y: body.Y})
		return c.SendStatus(204)
	})

	app.Post("/workflow/nodes/:id/import", func(c fiber.Ctx) error {
		var body importRequest
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		node, ok := server.store.Node(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if node.Type != workflow.NodeTypeInput {
			return c.Status(422).JSON(fiber.Map{"error": "only INPUT nodes accept imported text"})
		}

		page, err := server.fetcher.Fetch(c.Context(), body.URL)
		if err != nil {
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}

		if err := server.store.UpdateConfig(node.ID, workflow.ConfigPatch{
			Text:      &page.Markdown,
			SourceURL: &page.URL,
		}); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"url": page.URL, "characters": len(page.Markdown)})
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/workflow/edges", func(c fiber.Ctx) error {
		var body createEdgeRequest
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, rejection := server.store.AddEdge(body.Source, body.Target)
		if rejection != nil {
			return c.Status(422).JSON(fiber.Map{"error": rejection.Reason})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Delete("/workflow/edges/:id", func(c fiber.Ctx) error {
		server.store.RemoveEdge(c.Params("id"))
		return c.SendStatus(204)
	})

	// ── Workflow ──────────────────────────────────────────────────────
	app.Get("/workflow", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"nodes": server.store.Nodes(),
			"edges": server.store.Edges(),
		})
	})

	app.Post("/workflow/reset-results", func(c fiber.Ctx) error {
		server.store.ResetResults()
		return c.SendStatus(204)
	})

	app.Post("/workflow/run", func(c fiber.Ctx) error {
		runID, err := server.runner.Run(c.Context())
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		var runError *engine.RunError
		if errors.As(err, &runError) {
			return c.Status(422).JSON(fiber.Map{"error": runError.Message, "run_id": runID})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "succeeded", "run_id": runID})
	})

	// ── Models ────────────────────────────────────────────────────────
	app.Get("/models", func(c fiber.Ctx) error {
		apiKey := c.Query("api_key")
		if apiKey == "" {
			return c.Status(400).JSON(fiber.Map{"error": "api_key is required"})
		}
		lister := server.listerFactory(c.Query("endpoint"), apiKey)
		models, err := lister.ListModels(c.Context())
		if err != nil {
			return c.Status(502).JSON(fiber.Map{"error": listModelsMessage(err)})
		}
		return c.JSON(fiber.Map{"models": models})
	})
}

// listModelsMessage prefers the service's structured error text.
func listModelsMessage(err error) string {
	var serviceError *ai.ServiceError
	if errors.As(err, &serviceError) && serviceError.Message != "" {
		return serviceError.Message
	}
	return err.Error()
}
