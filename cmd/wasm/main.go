//go:build js && wasm

// Package main provides WASM bindings for the form engine.
// This lets the browser builder compute derived fields, validate input and
// keep saved forms in localStorage with the same code the CLI uses.
package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/dlovans/formwright/pkg/builder"
	"github.com/dlovans/formwright/pkg/derive"
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/lint"
	"github.com/dlovans/formwright/pkg/preview"
	"github.com/dlovans/formwright/pkg/render"
	"github.com/dlovans/formwright/pkg/route"
	"github.com/dlovans/formwright/pkg/storage"
	"github.com/dlovans/formwright/pkg/store"
	"github.com/dlovans/formwright/pkg/validate"
)

var (
	engine  = derive.New(derive.WithLogger(zap.NewNop()))
	state   = store.New()
	editor  = builder.New(state)
	session = preview.New(state, preview.WithEngine(engine))
	gateway *storage.Gateway
)

func main() {
	if kv, err := storage.NewLocalStorageKV(); err == nil {
		gateway = storage.NewGateway(kv)
	} else {
		js.Global().Get("console").Call("warn", err.Error())
	}

	// Stateless helpers
	js.Global().Set("FormDerive", js.FuncOf(formDerive))
	js.Global().Set("FormValidate", js.FuncOf(formValidate))
	js.Global().Set("FormLint", js.FuncOf(formLint))
	js.Global().Set("FormRoute", js.FuncOf(formRoute))
	js.Global().Set("FormToggleOption", js.FuncOf(formToggleOption))

	// Builder backed by the shared store
	js.Global().Set("FormBuilderGet", js.FuncOf(formBuilderGet))
	js.Global().Set("FormBuilderLoad", js.FuncOf(formBuilderLoad))
	js.Global().Set("FormBuilderSetName", js.FuncOf(formBuilderSetName))
	js.Global().Set("FormBuilderAdd", js.FuncOf(formBuilderAdd))
	js.Global().Set("FormBuilderUpdate", js.FuncOf(formBuilderUpdate))
	js.Global().Set("FormBuilderDelete", js.FuncOf(formBuilderDelete))
	js.Global().Set("FormBuilderMove", js.FuncOf(formBuilderMove))
	js.Global().Set("FormBuilderReset", js.FuncOf(formBuilderReset))
	js.Global().Set("FormBuilderSave", js.FuncOf(formBuilderSave))

	// Live preview backed by the shared store
	js.Global().Set("FormPreviewOpen", js.FuncOf(formPreviewOpen))
	js.Global().Set("FormPreviewOpenBuilder", js.FuncOf(formPreviewOpenBuilder))
	js.Global().Set("FormPreviewReset", js.FuncOf(formPreviewReset))
	js.Global().Set("FormPreviewOpenSaved", js.FuncOf(formPreviewOpenSaved))
	js.Global().Set("FormPreviewSet", js.FuncOf(formPreviewSet))
	js.Global().Set("FormPreviewSubmit", js.FuncOf(formPreviewSubmit))
	js.Global().Set("FormOnChange", js.FuncOf(formOnChange))

	// Saved forms
	js.Global().Set("FormSave", js.FuncOf(formSave))
	js.Global().Set("FormList", js.FuncOf(formList))

	// Keep the Go runtime alive
	select {}
}

// formDerive is the JS-callable wrapper for one derive pass.
// Usage: FormDerive(fieldsJson, valuesJson) -> { result: {id: value} , error?: string }
func formDerive(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormDerive requires 2 arguments: fieldsJson, valuesJson")
	}
	var fields []form.Field
	if err := json.Unmarshal([]byte(args[0].String()), &fields); err != nil {
		return makeError("invalid fields: " + err.Error())
	}
	var values form.Values
	if err := json.Unmarshal([]byte(args[1].String()), &values); err != nil {
		return makeError("invalid values: " + err.Error())
	}
	return makeResult(engine.Compute(fields, values))
}

// Usage: FormValidate(fieldJson, value) -> { result: string[] }
func formValidate(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormValidate requires 2 arguments: fieldJson, value")
	}
	var f form.Field
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return makeError("invalid field: " + err.Error())
	}
	msgs := validate.Field(args[1].String(), f)
	if msgs == nil {
		msgs = []string{}
	}
	return makeResult(msgs)
}

// Usage: FormLint(schemaJson) -> { result: {valid, issues} }
func formLint(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormLint requires 1 argument: schemaJson")
	}
	result, err := lint.Run(args[0].String())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(result)
}

// Usage: FormRoute(path) -> { result: {view, schemaId, path, redirect} }
func formRoute(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormRoute requires 1 argument: path")
	}
	r := route.Resolve(args[0].String())
	return makeResult(map[string]any{
		"view":     string(r.View),
		"schemaId": r.SchemaID,
		"path":     route.Path(r),
		"redirect": r.Redirect,
	})
}

// Usage: FormToggleOption(value, option) -> { result: string }
func formToggleOption(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormToggleOption requires 2 arguments: value, option")
	}
	return makeResult(render.ToggleOption(args[0].String(), args[1].String()))
}

// Usage: FormPreviewOpen(fieldsJson) -> { result: {id: value} }
func formPreviewOpen(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormPreviewOpen requires 1 argument: fieldsJson")
	}
	var fields []form.Field
	if err := json.Unmarshal([]byte(args[0].String()), &fields); err != nil {
		return makeError("invalid fields: " + err.Error())
	}
	session.Open(fields)
	return makeResult(session.Values())
}

// Usage: FormBuilderGet() -> { result: schema }
func formBuilderGet(this js.Value, args []js.Value) any {
	return makeResult(editor.Schema())
}

// Usage: FormBuilderLoad(schemaJson) -> { result: schema }
func formBuilderLoad(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormBuilderLoad requires 1 argument: schemaJson")
	}
	var s form.Schema
	if err := json.Unmarshal([]byte(args[0].String()), &s); err != nil {
		return makeError("invalid schema: " + err.Error())
	}
	if err := editor.Load(s); err != nil {
		return makeError(err.Error())
	}
	return makeResult(editor.Schema())
}

// Usage: FormBuilderSetName(name) -> { result: schema }
func formBuilderSetName(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormBuilderSetName requires 1 argument: name")
	}
	editor.Rename(args[0].String())
	return makeResult(editor.Schema())
}

// Usage: FormBuilderAdd(fieldJson) -> { result: id }
func formBuilderAdd(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormBuilderAdd requires 1 argument: fieldJson")
	}
	var f form.Field
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return makeError("invalid field: " + err.Error())
	}
	id, err := editor.Add(f)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(id)
}

// Usage: FormBuilderUpdate(fieldJson) -> { result: schema }
func formBuilderUpdate(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormBuilderUpdate requires 1 argument: fieldJson")
	}
	var f form.Field
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return makeError("invalid field: " + err.Error())
	}
	if err := editor.Update(f); err != nil {
		return makeError(err.Error())
	}
	return makeResult(editor.Schema())
}

// Usage: FormBuilderDelete(id) -> { result: schema }
func formBuilderDelete(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormBuilderDelete requires 1 argument: id")
	}
	if err := editor.Delete(args[0].String()); err != nil {
		return makeError(err.Error())
	}
	return makeResult(editor.Schema())
}

// Usage: FormBuilderMove(from, to) -> { result: schema }
func formBuilderMove(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormBuilderMove requires 2 arguments: from, to")
	}
	if err := editor.Move(args[0].Int(), args[1].Int()); err != nil {
		return makeError(err.Error())
	}
	return makeResult(editor.Schema())
}

// Usage: FormBuilderReset() -> { result: schema }
func formBuilderReset(this js.Value, args []js.Value) any {
	editor.Reset()
	return makeResult(editor.Schema())
}

// Usage: FormBuilderSave() -> { result: record }
func formBuilderSave(this js.Value, args []js.Value) any {
	if gateway == nil {
		return makeError("localStorage is not available")
	}
	s, err := editor.Ready()
	if err != nil {
		return makeError(err.Error())
	}
	rec, err := gateway.Save(context.Background(), s.Name, s.Fields)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(rec)
}

// Usage: FormPreviewOpenBuilder() -> { result: {fields, values} }
func formPreviewOpenBuilder(this js.Value, args []js.Value) any {
	session.OpenBuilder()
	return makeResult(map[string]any{
		"fields": session.Fields(),
		"values": session.Values(),
	})
}

// Usage: FormPreviewReset() -> { result: true }
func formPreviewReset(this js.Value, args []js.Value) any {
	session.Reset()
	return makeResult(true)
}

// Usage: FormPreviewOpenSaved(id) -> { result: {found, values} }
func formPreviewOpenSaved(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("FormPreviewOpenSaved requires 1 argument: id")
	}
	if gateway == nil {
		return makeError("localStorage is not available")
	}
	found, err := session.OpenSaved(context.Background(), gateway, args[0].String())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]any{
		"found":  found,
		"fields": session.Fields(),
		"values": session.Values(),
	})
}

// Usage: FormPreviewSet(id, value) -> { result: {values, errors} }
func formPreviewSet(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormPreviewSet requires 2 arguments: id, value")
	}
	if err := session.Set(args[0].String(), args[1].String()); err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]any{
		"values": session.Values(),
		"errors": session.Errors(),
	})
}

// Usage: FormPreviewSubmit() -> { result: {accepted, fieldId?, message?, values?} }
func formPreviewSubmit(this js.Value, args []js.Value) any {
	res := session.Submit()
	if !res.Accepted {
		return makeResult(map[string]any{
			"accepted": false,
			"fieldId":  res.Violation.FieldID,
			"message":  res.Violation.Message,
		})
	}
	return makeResult(map[string]any{
		"accepted": true,
		"values":   res.Values,
	})
}

// FormOnChange(callback) registers callback(region, op) for every store
// change and returns an unsubscribe function.
func formOnChange(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return makeError("FormOnChange requires a callback")
	}
	cb := args[0]
	cancel := state.Subscribe(func(c store.Change) {
		cb.Invoke(c.Region.String(), c.Op)
	})
	var unsubscribe js.Func
	unsubscribe = js.FuncOf(func(this js.Value, args []js.Value) any {
		cancel()
		unsubscribe.Release()
		return nil
	})
	return unsubscribe
}

// Usage: FormSave(name, fieldsJson) -> { result: record }
func formSave(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormSave requires 2 arguments: name, fieldsJson")
	}
	if gateway == nil {
		return makeError("localStorage is not available")
	}
	var fields []form.Field
	if err := json.Unmarshal([]byte(args[1].String()), &fields); err != nil {
		return makeError("invalid fields: " + err.Error())
	}
	for _, f := range fields {
		if err := f.Check(); err != nil {
			return makeError(err.Error())
		}
	}
	rec, err := gateway.Save(context.Background(), args[0].String(), fields)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(rec)
}

// Usage: FormList() -> { result: record[] }
func formList(this js.Value, args []js.Value) any {
	if gateway == nil {
		return makeError("localStorage is not available")
	}
	records, err := gateway.List(context.Background())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(records)
}

// makeError creates a JS-friendly error response
func makeError(msg string) map[string]any {
	return map[string]any{
		"error": msg,
	}
}

// makeResult converts v to plain JS values through JSON, since js.ValueOf
// only accepts maps, slices and primitives.
func makeResult(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return makeError(err.Error())
	}
	var result any
	if err := json.Unmarshal(b, &result); err != nil {
		return map[string]any{
			"result": string(b),
		}
	}
	return map[string]any{
		"result": result,
	}
}
