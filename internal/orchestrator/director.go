package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runix-ai/runix/internal/agent"
	"github.com/runix-ai/runix/internal/llm"
	"github.com/runix-ai/runix/internal/model"
)

// chemKeywords triggers the optional chemistry stage on a case-insensitive
// substring match against the query.
var chemKeywords = []string{"smiles", "molecule", "kinase", "chem"}

// synthesisBundleLimit caps the serialized specialist bundle handed to the
// synthesis stage.
const synthesisBundleLimit = 4000

func needsChemistry(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range chemKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// runDirector executes the composite strategy: the specialist stages run
// concurrently on the same input and all must finish before synthesis (the
// join barrier). A chemistry stage runs between the join and synthesis when
// the query matches chemKeywords. Only the synthesis stage streams answer
// deltas; specialist output reaches the client through tool events and the
// synthesized answer.
func (o *Orchestrator) runDirector(ctx context.Context, unit *agent.Unit, query, apiKey string, streaming bool, emit EmitFunc) (string, []model.ToolStep, error) {
	outputs := make([]string, len(unit.Specialists))
	steps := make([]model.ToolStep, len(unit.Specialists))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range unit.Specialists {
		g.Go(func() error {
			spec, ok := o.registry.Resolve(name)
			if !ok {
				return fmt.Errorf("orchestrator: specialist %s unavailable", name)
			}
			out, step, err := o.runStage(gctx, spec, query, apiKey, emit)
			if err != nil {
				return fmt.Errorf("orchestrator: specialist %s: %w", name, err)
			}
			outputs[i] = out
			steps[i] = step
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	trace := steps
	bundle := make(map[string]string, len(unit.Specialists)+1)
	for i, name := range unit.Specialists {
		bundle[strings.ToLower(name)] = outputs[i]
	}

	if needsChemistry(query) {
		if chem, ok := o.registry.Resolve(agent.Alchemist); ok {
			out, step, err := o.runStage(ctx, chem, query, apiKey, emit)
			if err != nil {
				return "", nil, fmt.Errorf("orchestrator: specialist %s: %w", agent.Alchemist, err)
			}
			bundle[strings.ToLower(agent.Alchemist)] = out
			trace = append(trace, step)
		}
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return "", nil, fmt.Errorf("orchestrator: bundle findings: %w", err)
	}
	if len(payload) > synthesisBundleLimit {
		payload = payload[:synthesisBundleLimit]
	}

	req := llm.Request{
		Model:        unit.Model,
		Instructions: unit.Instructions,
		Input:        "Research query:\n" + query + "\n\nSpecialist findings (JSON):\n" + string(payload),
		APIKey:       apiKey,
	}
	args := map[string]any{"model": unit.Model, "stages": len(bundle)}
	emit(Event{Type: EventToolCall, Tool: "synthesize", Args: args})

	start := time.Now()
	var answer string
	if streaming {
		answer, err = o.llm.Stream(ctx, req, func(d string) {
			emit(Event{Type: EventDelta, Delta: d})
		})
	} else {
		answer, err = o.llm.Complete(ctx, req)
	}
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return "", nil, fmt.Errorf("orchestrator: synthesis: %w", err)
	}

	emit(Event{Type: EventToolResult, Tool: "synthesize", DurationMS: elapsed})
	trace = append(trace, model.ToolStep{Tool: "synthesize", Args: args, DurationMS: elapsed})
	return answer, trace, nil
}

// runStage performs one non-streaming specialist invocation, bracketed by
// tool events.
func (o *Orchestrator) runStage(ctx context.Context, unit *agent.Unit, query, apiKey string, emit EmitFunc) (string, model.ToolStep, error) {
	tool := strings.ToLower(unit.Name)
	args := map[string]any{"model": unit.Model}
	emit(Event{Type: EventToolCall, Tool: tool, Args: args})

	start := time.Now()
	out, err := o.llm.Complete(ctx, llm.Request{
		Model:        unit.Model,
		Instructions: unit.Instructions,
		Input:        query,
		APIKey:       apiKey,
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return "", model.ToolStep{}, err
	}

	emit(Event{Type: EventToolResult, Tool: tool, DurationMS: elapsed})
	return out, model.ToolStep{Tool: tool, Args: args, DurationMS: elapsed}, nil
}
