//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/engine"
	"tiny-dp-go/internal/runner"
)

var (
	startFnOnce  sync.Once
	evaluationMu sync.Mutex
	currentStop  context.CancelFunc
	onSnapshot   js.Value
)

func main() {
	registerCallbacks()
	// Prevent the program from exiting.
	select {}
}

func registerCallbacks() {
	startFnOnce.Do(func() {
		js.Global().Set("tinydpRegisterSnapshotHandler", js.FuncOf(registerSnapshotHandler))
		js.Global().Set("tinydpStartEvaluation", js.FuncOf(startEvaluation))
		js.Global().Set("tinydpStopEvaluation", js.FuncOf(stopEvaluation))
	})
}

func registerSnapshotHandler(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 || args[0].Type() != js.TypeFunction {
		fmt.Println("registerSnapshotHandler requires a function argument")
		return nil
	}
	onSnapshot = args[0]
	return nil
}

// startEvaluation takes a JSON evaluation request and streams one snapshot
// per sweep to the registered handler. It returns an error string, or null.
func startEvaluation(this js.Value, args []js.Value) interface{} {
	if onSnapshot.IsUndefined() || onSnapshot.IsNull() {
		return "snapshot handler not registered"
	}
	var request runner.Request
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		if err := json.Unmarshal([]byte(args[0].String()), &request); err != nil {
			return fmt.Sprintf("invalid request: %v", err)
		}
	}
	defaults, err := runner.FromConfig(config.Defaults())
	if err != nil {
		return err.Error()
	}
	settings, err := request.Apply(defaults)
	if err != nil {
		return err.Error()
	}
	ev, err := runner.Prepare(settings, nil)
	if err != nil {
		return err.Error()
	}
	tags := ev.Grid().Render()

	evaluationMu.Lock()
	if currentStop != nil {
		currentStop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	currentStop = cancel
	evaluationMu.Unlock()

	go func() {
		_, _ = runner.Execute(ctx, ev, func(snapshot engine.Snapshot) {
			onSnapshot.Invoke(snapshotToJS(snapshot, tags))
		})
	}()
	return nil
}

func stopEvaluation(this js.Value, args []js.Value) interface{} {
	evaluationMu.Lock()
	if currentStop != nil {
		currentStop()
		currentStop = nil
	}
	evaluationMu.Unlock()
	return nil
}

func snapshotToJS(snapshot engine.Snapshot, tags []string) js.Value {
	values := make([]interface{}, len(snapshot.Values))
	for i, row := range snapshot.Values {
		rowCopy := make([]interface{}, len(row))
		for j, v := range row {
			rowCopy[j] = v
		}
		values[i] = rowCopy
	}
	layout := make([]interface{}, len(tags))
	for i, line := range tags {
		layout[i] = line
	}
	payload := map[string]interface{}{
		"sweep":  snapshot.Sweep,
		"delta":  snapshot.Delta,
		"values": values,
		"layout": layout,
		"status": snapshot.Status,
	}
	if snapshot.Error != "" {
		payload["error"] = snapshot.Error
	}
	return js.ValueOf(payload)
}
