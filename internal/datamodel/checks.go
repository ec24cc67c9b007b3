package datamodel

import (
	"sort"

	"github.com/roach88/kilnfs/internal/schema"
)

// requiredSourceProperties lists the source_properties keys each source
// must provide.
var requiredSourceProperties = map[Source][]string{
	Human:     {"creator"},
	Synthetic: {"adapter_name", "model_name", "model_provider", "prompt_builder_name"},
}

// InputSchema compiles the task's input JSON schema.
// It returns nil when the task has none.
func (t *Task) InputSchema() (*schema.Schema, error) {
	if t.InputJSONSchema == "" {
		return nil, nil
	}
	return schema.FromJSONSchema(t.Name+".input", t.InputJSONSchema)
}

// OutputSchema compiles the task's output JSON schema.
// It returns nil when the task has none.
func (t *Task) OutputSchema() (*schema.Schema, error) {
	if t.OutputJSONSchema == "" {
		return nil, nil
	}
	return schema.FromJSONSchema(t.Name+".output", t.OutputJSONSchema)
}

// Check verifies both JSON schemas are object schemas that compile.
func (t *Task) Check() schema.Violations {
	var vs schema.Violations
	if _, err := t.InputSchema(); err != nil {
		vs = append(vs, schema.At(schema.Loc{schema.Key("input_json_schema")}, "%v", err))
	}
	if _, err := t.OutputSchema(); err != nil {
		vs = append(vs, schema.At(schema.Loc{schema.Key("output_json_schema")}, "%v", err))
	}
	return vs
}

// Check verifies the source properties and, once the owning task is
// resolvable, that the input satisfies the task's input schema.
func (r *TaskRun) Check() schema.Violations {
	vs := checkSourceProperties(r.Source, r.SourceProperties)

	task, err := r.Task()
	if err != nil {
		return append(vs, schema.At(nil, "cannot resolve task: %v", err))
	}
	if task == nil {
		return vs
	}
	s, err := task.InputSchema()
	if err != nil || s == nil {
		return vs
	}
	return append(vs, s.CheckJSONText(r.Input).Prefix(schema.Key("input"))...)
}

// Check verifies the source properties and, once the owning task is
// resolvable, the output against the task's output schema and every
// requirement rating key against the task's requirement ids.
func (o *TaskOutput) Check() schema.Violations {
	vs := checkSourceProperties(o.Source, o.SourceProperties)

	task, err := o.task()
	if err != nil {
		return append(vs, schema.At(nil, "cannot resolve task: %v", err))
	}
	if task == nil {
		return vs
	}

	if s, err := task.OutputSchema(); err == nil && s != nil {
		vs = append(vs, s.CheckJSONText(o.Output).Prefix(schema.Key("output"))...)
	}

	if len(o.RequirementRatings) == 0 {
		return vs
	}
	reqs, err := task.Requirements()
	if err != nil {
		return append(vs, schema.At(schema.Loc{schema.Key("requirement_ratings")}, "cannot load requirements: %v", err))
	}
	valid := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		valid[req.ID] = true
	}
	for _, key := range sortedKeys(o.RequirementRatings) {
		if !valid[key] {
			vs = append(vs, schema.At(schema.Loc{schema.Key("requirement_ratings"), schema.Key(key)},
				"%q is not a requirement id of task %q", key, task.ID))
		}
	}
	return vs
}

// task resolves the grandparent task, or nil while the chain is incomplete.
func (o *TaskOutput) task() (*Task, error) {
	run, err := o.Run()
	if err != nil || run == nil {
		return nil, err
	}
	return run.Task()
}

func checkSourceProperties(src Source, props map[string]string) schema.Violations {
	var vs schema.Violations
	var missing []string
	for _, key := range requiredSourceProperties[src] {
		v, ok := props[key]
		switch {
		case !ok:
			missing = append(missing, key)
		case v == "":
			vs = append(vs, schema.At(schema.Loc{schema.Key("source_properties"), schema.Key(key)},
				"must not be empty for %s sources", src))
		}
	}
	if len(missing) > 0 {
		vs = append(vs, schema.At(schema.Loc{schema.Key("source_properties")},
			"%s sources must include %v", src, missing))
	}
	return vs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
