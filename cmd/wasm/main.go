//go:build js && wasm
// +build js,wasm

package main

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/salami/pkg/salami/metrics"
	"github.com/himanishpuri/salami/pkg/salami/segmentation"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorDegenerate
	ErrorProcessing
)

// toFloats copies a JS Array or typed array of numbers.
func toFloats(v js.Value, name string) ([]float64, error) {
	if v.Type() != js.TypeObject {
		return nil, fmt.Errorf("%s must be an Array or Float64Array", name)
	}
	n := v.Length()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		el := v.Index(i)
		if el.Type() != js.TypeNumber {
			return nil, fmt.Errorf("%s element %d is not a number", name, i)
		}
		out[i] = el.Float()
	}
	return out, nil
}

func toTracks(v js.Value, name string) ([][]float64, error) {
	if v.Type() != js.TypeObject {
		return nil, fmt.Errorf("%s must be an Array of arrays", name)
	}
	n := v.Length()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		track, err := toFloats(v.Index(i), fmt.Sprintf("%s[%d]", name, i))
		if err != nil {
			return nil, err
		}
		out[i] = track
	}
	return out, nil
}

func scoreResponse(s metrics.Score, err error) js.Value {
	if err != nil {
		code := ErrorProcessing
		switch {
		case errors.Is(err, metrics.ErrDegenerateInput):
			code = ErrorDegenerate
		case errors.Is(err, metrics.ErrInvalidTolerance), errors.Is(err, metrics.ErrLengthMismatch):
			code = ErrorInvalidArgs
		}
		return makeErrorResponse(code, err.Error())
	}

	data := js.Global().Get("Object").New()
	data.Set("precision", s.Precision)
	data.Set("recall", s.Recall)
	data.Set("fMeasure", s.FMeasure)
	data.Set("harmonicF1", s.HarmonicF1())
	data.Set("estimateHits", s.EstimateHits)
	data.Set("truthHits", s.TruthHits)
	data.Set("estimates", s.Estimates)
	data.Set("truths", s.Truths)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

// Scores one track's estimated boundaries.
// Args: truth, estimate, tolerance. Returns {error: number, data: object | string}
func salamiHitRate(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: truth, estimate, tolerance")
	}
	truth, err := toFloats(args[0], "truth")
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	estimate, err := toFloats(args[1], "estimate")
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	if args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "tolerance must be a number")
	}
	return scoreResponse(metrics.HitRate(truth, estimate, args[2].Float()))
}

// Scores many tracks with pooled hit counts.
// Args: truthTracks, estimateTracks, tolerance.
func salamiHitRateBatch(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: truthTracks, estimateTracks, tolerance")
	}
	truth, err := toTracks(args[0], "truthTracks")
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	estimate, err := toTracks(args[1], "estimateTracks")
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	if args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "tolerance must be a number")
	}
	return scoreResponse(metrics.HitRateBatch(truth, estimate, args[2].Float()))
}

// Estimates boundaries in mono samples with the novelty baseline.
// Args: samples, sampleRate. Returns {error: number, data: number[] | string}
func salamiSegment(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 arguments: samples, sampleRate")
	}
	samples, err := toFloats(args[0], "samples")
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	if args[1].Type() != js.TypeNumber || args[1].Int() <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a positive number")
	}

	bounds, err := segmentation.Estimate(samples, args[1].Int(), segmentation.DefaultParams())
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Segmentation failed: %v", err))
	}

	arr := js.Global().Get("Array").New()
	for i, b := range bounds {
		arr.SetIndex(i, b)
	}
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", arr)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")

	done := make(chan struct{})

	js.Global().Set("salamiHitRate", js.FuncOf(salamiHitRate))
	js.Global().Set("salamiHitRateBatch", js.FuncOf(salamiHitRateBatch))
	js.Global().Set("salamiSegment", js.FuncOf(salamiSegment))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	}

	if !console.IsUndefined() {
		console.Call("log", "SALAMI WASM module loaded")
	}

	<-done
}
