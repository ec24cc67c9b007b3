package datamodel

import "github.com/roach88/kilnfs/internal/schema"

// prelude holds definitions shared by every kind schema.
const prelude = `
import (
	"strings"
	"time"
)

created_at?: time.Time

#Name:        string & strings.MinRunes(1) & strings.MaxRunes(120) & =~"^[A-Za-z0-9 _-]+$"
#Priority:    int & >=0 & <=3
#Determinism: "deterministic" | "semantic_match" | "flexible"
#Source:      "human" | "synthetic"

#Rating: {
	rating!:  int & >=1 & <=5
	reason?:  string & strings.MaxRunes(750)
	comment?: string
}
`

func compile(name, fields string) *schema.Schema {
	return schema.MustCompile(name, prelude+fields)
}

var (
	projectSchema = compile("project", `
name!:        #Name
description?: string
`)

	taskSchema = compile("task", `
name!:               #Name
description?:        string
priority?:           #Priority
determinism?:        #Determinism
instruction!:        string & strings.MinRunes(1)
input_json_schema?:  string
output_json_schema?: string
`)

	taskRequirementSchema = compile("task_requirement", `
name!:        #Name
description?: string
instruction!: string & strings.MinRunes(1)
priority?:    #Priority
`)

	taskRunSchema = compile("task_run", `
input!:             string
source!:            #Source
source_properties?: {[string]: string}
`)

	taskOutputSchema = compile("task_output", `
output!:              string
source!:              #Source
source_properties?:   {[string]: string}
rating?:              #Rating
requirement_ratings?: {[string]: #Rating}
fixed_output?:        string
`)
)
