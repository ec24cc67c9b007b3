package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/schema"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	require.NoError(t, formatter.Error("E001", "project not found", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "project not found", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Error("E002", "cannot decode", nil))
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "cannot decode")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	require.NoError(t, formatter.Error("E002", "cannot decode", map[string]string{"file": "task.kiln"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestFail_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantExit int
		wantCode string
	}{
		{"not found", &entity.NotFoundError{Kind: "Task", Path: "x"}, ExitCommandError, "E001"},
		{"schema version", &entity.SchemaVersionError{Kind: "Task", Version: 3, Max: 1}, ExitCommandError, "E004"},
		{"decode wrapping validation", &entity.DecodeError{Kind: "Task", Err: &entity.ValidationError{Kind: "Task"}}, ExitCommandError, "E002"},
		{"plain", errors.New("boom"), ExitCommandError, ErrCodeGeneric},
		{"validation", &entity.ValidationError{Kind: "Task", Violations: schema.Violations{
			{Loc: schema.Loc{schema.Key("name")}, Message: "too short", Code: schema.CodeConstraint},
		}}, ExitFailure, "E006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail(tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestFail_TextViolations(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(&entity.ValidationError{Kind: "Project", Violations: schema.Violations{
		{Loc: schema.Loc{schema.Key("tasks"), schema.Index(0), schema.Key("name")}, Message: "invalid", Code: schema.CodeConstraint},
		{Message: "cannot resolve task", Code: schema.CodeRule},
	}})
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ Project failed validation")
	assert.Contains(t, buf.String(), "E201 tasks[0].name: invalid")
	assert.Contains(t, buf.String(), "E202 (document): cannot resolve task")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("other")))

	wrapped := WrapExitError(ExitCommandError, "E001", errors.New("missing"))
	assert.Equal(t, "E001: missing", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "missing")
}
