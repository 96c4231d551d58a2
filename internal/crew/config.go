// Package crew runs the multi-agent analysis: each agent turns the shared
// context into a prompt, and tasks run in declaration order.
package crew

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/agents.yaml config/tasks.yaml
var configFS embed.FS

// Agent is a role the model is asked to play
type Agent struct {
	Name      string `yaml:"-"`
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
	MaxIter   int    `yaml:"max_iter"`
}

// Task is one step of the crew. Context names earlier tasks whose output
// is handed to this one.
type Task struct {
	Name           string   `yaml:"-"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	Agent          string   `yaml:"agent"`
	Context        []string `yaml:"context"`
}

// Config is the parsed agent and task definitions
type Config struct {
	Agents map[string]Agent
	Tasks  []Task // In execution order
}

// DefaultConfig loads the built-in definitions
func DefaultConfig() (*Config, error) {
	agents, err := configFS.ReadFile("config/agents.yaml")
	if err != nil {
		return nil, fmt.Errorf("read agents: %w", err)
	}
	tasks, err := configFS.ReadFile("config/tasks.yaml")
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	return LoadConfig(agents, tasks)
}

// LoadConfig parses agent and task YAML. Tasks keep their document order,
// and every context reference must point at an earlier task.
func LoadConfig(agentsYAML, tasksYAML []byte) (*Config, error) {
	cfg := &Config{Agents: make(map[string]Agent)}

	err := decodeOrdered(agentsYAML, func(name string, node *yaml.Node) error {
		var a Agent
		if err := node.Decode(&a); err != nil {
			return err
		}
		if a.Role == "" {
			return fmt.Errorf("agent %s has no role", name)
		}
		a.Name = name
		cfg.Agents[name] = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse agents: %w", err)
	}

	seen := make(map[string]bool)
	err = decodeOrdered(tasksYAML, func(name string, node *yaml.Node) error {
		var t Task
		if err := node.Decode(&t); err != nil {
			return err
		}
		if _, ok := cfg.Agents[t.Agent]; !ok {
			return fmt.Errorf("task %s uses unknown agent %q", name, t.Agent)
		}
		for _, dep := range t.Context {
			if !seen[dep] {
				return fmt.Errorf("task %s depends on %q, which is not defined before it", name, dep)
			}
		}
		t.Name = name
		seen[name] = true
		cfg.Tasks = append(cfg.Tasks, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	if len(cfg.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks defined")
	}

	return cfg, nil
}

// decodeOrdered walks a top-level YAML mapping in document order
func decodeOrdered(data []byte, fn func(name string, node *yaml.Node) error) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", root.Line)
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate key %q", root.Content[i].Line, name)
		}
		seen[name] = true
		if err := fn(name, root.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Inputs fill the placeholders in task descriptions
type Inputs struct {
	Content             string
	InputType           string // url, text
	ConfidenceThreshold float64
	DetailedAnalysis    bool
	ContentQuality      float64 // Heuristic text quality in 0..1, zero when unknown
}

// SystemPrompt describes who the agent is
func (a Agent) SystemPrompt() string {
	return fmt.Sprintf("You are the %s.\n\n%s\nYour goal: %s",
		a.Role, strings.TrimSpace(a.Backstory), a.Goal)
}

// Prompt renders the task for its agent, appending the outputs of the
// tasks it depends on
func (t Task) Prompt(in Inputs, outputs map[string]string) string {
	r := strings.NewReplacer(
		"{content}", in.Content,
		"{input_type}", in.InputType,
		"{confidence_threshold}", strconv.FormatFloat(in.ConfidenceThreshold, 'f', -1, 64),
		"{detailed_analysis}", strconv.FormatBool(in.DetailedAnalysis),
	)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Replace(t.Description)))
	b.WriteString("\n\nExpected output:\n")
	b.WriteString(strings.TrimSpace(t.ExpectedOutput))

	for _, dep := range t.Context {
		fmt.Fprintf(&b, "\n\n## Result of %s\n%s", dep, strings.TrimSpace(outputs[dep]))
	}
	return b.String()
}
