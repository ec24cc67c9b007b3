package datamodel

import (
	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/graph"
)

// Priority ranks tasks and requirements, P0 being the most important.
type Priority int

const (
	P0 Priority = iota
	P1
	P2
	P3
)

// Determinism describes how closely outputs are expected to match.
type Determinism string

const (
	Deterministic Determinism = "deterministic"  // exact match
	SemanticMatch Determinism = "semantic_match" // same meaning, free wording
	Flexible      Determinism = "flexible"       // judged by the requirements
)

// Source records whether data came from a person or a model.
type Source string

const (
	Human     Source = "human"
	Synthetic Source = "synthetic"
)

// Rating is a 1 to 5 star score with an optional explanation.
type Rating struct {
	Rating  int    `json:"rating"`
	Reason  string `json:"reason,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Kinds.
var (
	ProjectKind         = entity.NewKind("Project", func() *Project { return &Project{} }, entity.WithSchema(projectSchema))
	TaskKind            = entity.NewKind("Task", newTask, entity.WithSchema(taskSchema))
	TaskRequirementKind = entity.NewKind("TaskRequirement", newTaskRequirement, entity.WithSchema(taskRequirementSchema))
	TaskRunKind         = entity.NewKind("TaskRun", func() *TaskRun { return &TaskRun{} }, entity.WithSchema(taskRunSchema))
	TaskOutputKind      = entity.NewKind("TaskOutput", func() *TaskOutput { return &TaskOutput{} }, entity.WithSchema(taskOutputSchema))
)

// Registry relates every kind in this package.
var Registry = graph.MustNewRegistry(
	graph.ParentOf(ProjectKind, graph.Rel("tasks", TaskKind)),
	graph.ParentOf(TaskKind, graph.Rel("requirements", TaskRequirementKind), graph.Rel("runs", TaskRunKind)),
	graph.ParentOf(TaskRunKind, graph.Rel("outputs", TaskOutputKind)),
	graph.ParentOf(TaskRequirementKind),
	graph.ParentOf(TaskOutputKind),
)

// Project is the root of a tree of tasks.
type Project struct {
	entity.Base
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (p *Project) Kind() *entity.Kind  { return ProjectKind }
func (p *Project) DisplayName() string { return p.Name }

// Tasks loads the project's tasks.
func (p *Project) Tasks() ([]*Task, error) {
	return graph.ChildrenAs[*Task](Registry, p, "tasks")
}

// Task is a unit of work given to a person or model.
// The JSON schemas, when set, constrain run inputs and outputs.
type Task struct {
	entity.Base
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	Priority         Priority    `json:"priority"`
	Determinism      Determinism `json:"determinism"`
	Instruction      string      `json:"instruction"`
	InputJSONSchema  string      `json:"input_json_schema,omitempty"`
	OutputJSONSchema string      `json:"output_json_schema,omitempty"`
}

func newTask() *Task {
	return &Task{Priority: P2, Determinism: Flexible}
}

func (t *Task) Kind() *entity.Kind  { return TaskKind }
func (t *Task) DisplayName() string { return t.Name }

// Project resolves the owning project.
func (t *Task) Project() (*Project, error) {
	return graph.ParentAs[*Project](Registry, t)
}

// Requirements loads the task's requirements.
func (t *Task) Requirements() ([]*TaskRequirement, error) {
	return graph.ChildrenAs[*TaskRequirement](Registry, t, "requirements")
}

// Runs loads the task's runs.
func (t *Task) Runs() ([]*TaskRun, error) {
	return graph.ChildrenAs[*TaskRun](Registry, t, "runs")
}

// TaskRequirement is one criterion a task's outputs are rated against.
type TaskRequirement struct {
	entity.Base
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Instruction string   `json:"instruction"`
	Priority    Priority `json:"priority"`
}

func newTaskRequirement() *TaskRequirement {
	return &TaskRequirement{Priority: P2}
}

func (r *TaskRequirement) Kind() *entity.Kind  { return TaskRequirementKind }
func (r *TaskRequirement) DisplayName() string { return r.Name }

// Task resolves the owning task.
func (r *TaskRequirement) Task() (*Task, error) {
	return graph.ParentAs[*Task](Registry, r)
}

// TaskRun is one input given to a task. Structured inputs are JSON text.
type TaskRun struct {
	entity.Base
	Input            string            `json:"input"`
	Source           Source            `json:"source"`
	SourceProperties map[string]string `json:"source_properties,omitempty"`
}

func (r *TaskRun) Kind() *entity.Kind { return TaskRunKind }

// Task resolves the owning task.
func (r *TaskRun) Task() (*Task, error) {
	return graph.ParentAs[*Task](Registry, r)
}

// Outputs loads the run's outputs.
func (r *TaskRun) Outputs() ([]*TaskOutput, error) {
	return graph.ChildrenAs[*TaskOutput](Registry, r, "outputs")
}

// TaskOutput is one answer to a run, with optional ratings.
// RequirementRatings is keyed by requirement id.
type TaskOutput struct {
	entity.Base
	Output             string            `json:"output"`
	Source             Source            `json:"source"`
	SourceProperties   map[string]string `json:"source_properties,omitempty"`
	Rating             *Rating           `json:"rating,omitempty"`
	RequirementRatings map[string]Rating `json:"requirement_ratings,omitempty"`
	FixedOutput        string            `json:"fixed_output,omitempty"`
}

func (o *TaskOutput) Kind() *entity.Kind { return TaskOutputKind }

// Run resolves the owning run.
func (o *TaskOutput) Run() (*TaskRun, error) {
	return graph.ParentAs[*TaskRun](Registry, o)
}

// LoadProject loads the project document at path.
func LoadProject(path string) (*Project, error) {
	return entity.LoadAs[*Project](ProjectKind, path)
}

// LoadTask loads the task document at path.
func LoadTask(path string) (*Task, error) {
	return entity.LoadAs[*Task](TaskKind, path)
}

// LoadTaskRun loads the run document at path.
func LoadTaskRun(path string) (*TaskRun, error) {
	return entity.LoadAs[*TaskRun](TaskRunKind, path)
}

// LoadTaskOutput loads the output document at path.
func LoadTaskOutput(path string) (*TaskOutput, error) {
	return entity.LoadAs[*TaskOutput](TaskOutputKind, path)
}
