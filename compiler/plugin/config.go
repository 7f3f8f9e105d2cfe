package plugin

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// configRoot is the definition every plugin config schema must declare.
const configRoot = "#Config"

// ValidateConfig checks a raw config payload against a plugin's CUE schema.
// The schema source must define a #Config definition; the payload is unified
// with it and validated for concreteness. A nil payload is validated as an
// empty struct, so schemas whose fields all carry defaults or are optional
// accept missing config.
//
// Validation failures return a *ConfigError carrying one FieldError per CUE
// error, with nested field paths rendered in dotted form ("routes[0].path").
func ValidateConfig(pluginName, schema string, payload any) error {
	if schema == "" {
		return nil
	}
	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(schema)
	if err := schemaValue.Err(); err != nil {
		return fmt.Errorf("pgforge: plugin %q: compile config schema: %w", pluginName, err)
	}
	root := schemaValue.LookupPath(cue.ParsePath(configRoot))
	if err := root.Err(); err != nil {
		return fmt.Errorf("pgforge: plugin %q: config schema has no %s definition: %w", pluginName, configRoot, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	unified := root.Unify(ctx.Encode(payload))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ConfigError{Plugin: pluginName, Fields: fieldErrors(err)}
	}
	return nil
}

// DecodeConfig validates a payload against the schema and decodes the
// unified value (schema defaults applied) into T.
func DecodeConfig[T any](pluginName, schema string, payload any) (*T, error) {
	if err := ValidateConfig(pluginName, schema, payload); err != nil {
		return nil, err
	}
	var out T
	if schema == "" {
		return &out, nil
	}
	ctx := cuecontext.New()
	root := ctx.CompileString(schema).LookupPath(cue.ParsePath(configRoot))
	if payload == nil {
		payload = map[string]any{}
	}
	if err := root.Unify(ctx.Encode(payload)).Decode(&out); err != nil {
		return nil, &ConfigError{Plugin: pluginName, Fields: fieldErrors(err)}
	}
	return &out, nil
}

// fieldErrors flattens a CUE error into per-field messages with dotted paths.
func fieldErrors(err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE often repeats the path inside the message; strip it once.
		if path != "" {
			if trimmed, ok := strings.CutPrefix(msg, path+":"); ok {
				msg = strings.TrimSpace(trimmed)
			}
		}
		out = append(out, FieldError{Path: path, Message: msg})
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	return out
}

// formatPath joins CUE path elements into "a.b[2].c" form.
func formatPath(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		if isIndex(p) {
			b.WriteString("[" + p + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
