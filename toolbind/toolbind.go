// Package toolbind turns typed Go functions and structured schemas into
// invocable tool descriptors a backend can advertise and call.
package toolbind

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
)

// Descriptor is one invocable tool: the wire-facing schema plus the bound
// handler. Parameters is a JSON-schema object of the shape every backend's
// function-tool field expects.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]any

	handler func(ctx context.Context, args content.Args) (any, error)
	aliases map[string]string
}

// Invoke calls the bound function with arguments reconstructed from a
// tool-call's ordered argument mapping.
func (d Descriptor) Invoke(ctx context.Context, args content.Args) (any, error) {
	if d.handler == nil {
		return nil, fault.Internal("tool " + d.Name + " has no handler")
	}
	if len(d.aliases) > 0 {
		renamed := make(content.Args, len(args))
		for i, a := range args {
			if orig, ok := d.aliases[a.Key]; ok {
				a.Key = orig
			}
			renamed[i] = a
		}
		args = renamed
	}
	return d.handler(ctx, args)
}

// reservedParams are parameter names the wire protocols claim for their own
// envelope fields. A colliding parameter is published under an underscore
// alias and mapped back on invoke.
var reservedParams = map[string]bool{
	"function":     true,
	"arguments":    true,
	"tool_call_id": true,
}

// Bind reflects fn into a tool descriptor. fn must have one of the shapes
//
//	func(In) (Out, error)
//	func(context.Context, In) (Out, error)
//
// where In is a struct. Every exported field of In must carry a `desc` tag
// documenting the parameter and must have an inferable JSON type; anything
// missing is a SchemaError at bind time, not at call time.
func Bind(name, description string, fn any) (Descriptor, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return Descriptor{}, &fault.SchemaError{Tool: name, Reason: "not a function"}
	}

	fnType := fnVal.Type()
	takesCtx, inType, err := bindableInput(name, fnType)
	if err != nil {
		return Descriptor{}, err
	}
	if err := bindableOutput(name, fnType); err != nil {
		return Descriptor{}, err
	}

	params, aliases, err := schemaForStruct(name, inType, true)
	if err != nil {
		return Descriptor{}, err
	}

	handler := func(ctx context.Context, args content.Args) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fault.Wrap(err, "tool "+name+": encode arguments")
		}
		in := reflect.New(inType)
		if err := json.Unmarshal(raw, in.Interface()); err != nil {
			return nil, fault.Wrap(err, "tool "+name+": decode arguments")
		}

		var callArgs []reflect.Value
		if takesCtx {
			callArgs = []reflect.Value{reflect.ValueOf(ctx), in.Elem()}
		} else {
			callArgs = []reflect.Value{in.Elem()}
		}

		out := fnVal.Call(callArgs)
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
		if len(out) == 1 {
			return nil, nil
		}
		return out[0].Interface(), nil
	}

	return Descriptor{
		Name:        name,
		Description: description,
		Parameters:  params,
		handler:     handler,
		aliases:     aliases,
	}, nil
}

// MustBind is Bind that panics on error, for static tool tables.
func MustBind(name, description string, fn any) Descriptor {
	d, err := Bind(name, description, fn)
	if err != nil {
		panic(err)
	}
	return d
}

// FromSchema builds a descriptor from an explicit JSON-schema parameter
// object, copying field name/type/description triples as given.
func FromSchema(name, description string, parameters map[string]any, handler func(ctx context.Context, args content.Args) (any, error)) Descriptor {
	if parameters == nil {
		parameters = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
	return Descriptor{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		handler:     handler,
	}
}

func bindableInput(name string, fnType reflect.Type) (takesCtx bool, in reflect.Type, err error) {
	ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()

	switch fnType.NumIn() {
	case 1:
		in = fnType.In(0)
	case 2:
		if !fnType.In(0).Implements(ctxType) {
			return false, nil, &fault.SchemaError{Tool: name, Reason: "first parameter of a two-argument tool must be context.Context"}
		}
		takesCtx = true
		in = fnType.In(1)
	default:
		return false, nil, &fault.SchemaError{Tool: name, Reason: "tool function must take (In) or (ctx, In)"}
	}

	if in.Kind() != reflect.Struct {
		return false, nil, &fault.SchemaError{Tool: name, Reason: "tool input must be a struct, got " + in.Kind().String()}
	}
	return takesCtx, in, nil
}

func bindableOutput(name string, fnType reflect.Type) error {
	errType := reflect.TypeOf((*error)(nil)).Elem()
	n := fnType.NumOut()
	if n == 0 || n > 2 || !fnType.Out(n-1).Implements(errType) {
		return &fault.SchemaError{Tool: name, Reason: "tool function must return (Out, error) or error"}
	}
	return nil
}

// schemaForStruct builds the JSON-schema object for a tool input struct.
// top marks the argument struct itself: only there are field descriptions
// mandatory and reserved names aliased, since only the top-level keys share
// a namespace with the wire envelope.
func schemaForStruct(tool string, t reflect.Type, top bool) (map[string]any, map[string]string, error) {
	properties := map[string]any{}
	var required []string
	aliases := map[string]string{}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, omitempty := jsonFieldName(f)
		if name == "-" {
			continue
		}

		if top && reservedParams[name] {
			aliased := name + "_"
			aliases[aliased] = name
			name = aliased
		}

		fieldSchema, err := schemaForType(tool, name, f.Type)
		if err != nil {
			return nil, nil, err
		}

		desc := f.Tag.Get("desc")
		if desc == "" && top {
			return nil, nil, &fault.SchemaError{Tool: tool, Param: name, Reason: "parameter has no description"}
		}
		if desc != "" {
			fieldSchema["description"] = desc
		}

		properties[name] = fieldSchema
		if f.Type.Kind() != reflect.Pointer && !omitempty {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	if len(aliases) == 0 {
		aliases = nil
	}
	return schema, aliases, nil
}

func schemaForType(tool, param string, t reflect.Type) (map[string]any, error) {
	switch t.Kind() {
	case reflect.Pointer:
		return schemaForType(tool, param, t.Elem())
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.Slice, reflect.Array:
		items, err := schemaForType(tool, param, t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, &fault.SchemaError{Tool: tool, Param: param, Reason: "map parameters must have string keys"}
		}
		return map[string]any{"type": "object"}, nil
	case reflect.Struct:
		nested, _, err := schemaForStruct(tool, t, false)
		return nested, err
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return map[string]any{}, nil
		}
		return nil, &fault.SchemaError{Tool: tool, Param: param, Reason: "type cannot be inferred for interface " + t.String()}
	default:
		return nil, &fault.SchemaError{Tool: tool, Param: param, Reason: "type cannot be inferred for " + t.String()}
	}
}

func jsonFieldName(f reflect.StructField) (name string, omitempty bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(f.Name[:1]) + f.Name[1:], false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = strings.ToLower(f.Name[:1]) + f.Name[1:]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}
