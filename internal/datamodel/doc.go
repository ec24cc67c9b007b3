// Package datamodel declares the concrete kinds stored by kiln and the
// relationships between them:
//
//	Project
//	└── tasks: Task
//	    ├── requirements: TaskRequirement
//	    └── runs: TaskRun
//	        └── outputs: TaskOutput
//
// Field constraints are CUE schemas attached to each kind. Rules that
// look across entities, such as a run's input matching its task's input
// schema, are Check methods that consult the in-memory or on-disk parent.
package datamodel
