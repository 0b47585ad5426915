package dag

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
)

// executeNode runs a single step instance: decode its arguments against the
// current evaluation context, apply timeout and retry policy, invoke the
// handler, and publish the output.
func (e *Executor) executeNode(ctx context.Context, node *Node) error {
	logger := ctxlog.FromContext(ctx).With("step", node.ID)
	logger.Info("▶️ Starting step")

	handler, ok := e.registry.Runner(node.Step.RunnerType)
	if !ok {
		return fmt.Errorf("unknown runner type '%s' (registered: %v)", node.Step.RunnerType, e.registry.RunnerTypes())
	}

	var inputStruct any
	if handler.NewInput != nil {
		inputStruct = handler.NewInput()
		if node.Step.Arguments != nil {
			evalCtx := e.buildEvalContext(ctx, node)
			if diags := gohcl.DecodeBody(node.Step.Arguments, evalCtx, inputStruct); diags.HasErrors() {
				return fmt.Errorf("decoding arguments for %s: %w", node.ID, diags)
			}
		}
	}

	run := func() (cty.Value, error) {
		runCtx := ctx
		if node.Timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, node.Timeout)
			defer cancel()
		}
		return callHandler(runCtx, handler.Fn, inputStruct)
	}

	output, err := e.runWithRetry(ctx, node, run)
	if err != nil {
		return err
	}

	node.Output = output
	logger.Info("✅ Finished step")
	return nil
}

// runWithRetry applies the step's retry policy around the handler call.
func (e *Executor) runWithRetry(ctx context.Context, node *Node, run func() (cty.Value, error)) (cty.Value, error) {
	retry := node.Step.Retry
	if retry == nil {
		return run()
	}

	delay, err := retry.DelayDuration()
	if err != nil {
		return cty.NilVal, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = delay
	policy.MaxElapsedTime = 0 // bounded by attempts, not wall clock

	logger := ctxlog.FromContext(ctx).With("step", node.ID)
	attempt := 0
	var output cty.Value
	operation := func() error {
		attempt++
		var runErr error
		output, runErr = run()
		if runErr != nil && attempt < retry.Attempts {
			logger.Warn("Step attempt failed, retrying.", "attempt", attempt, "attempts", retry.Attempts, "error", runErr)
		}
		return runErr
	}

	err = backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retry.Attempts-1)), ctx))
	if err != nil {
		return cty.NilVal, fmt.Errorf("after %d attempt(s): %w", attempt, err)
	}
	return output, nil
}

// callHandler invokes a registered handler reflectively and converts its
// output struct to a cty object.
func callHandler(ctx context.Context, fn any, input any) (cty.Value, error) {
	fnVal := reflect.ValueOf(fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx)}
	if input != nil {
		callArgs = append(callArgs, reflect.ValueOf(input))
	} else {
		callArgs = append(callArgs, reflect.Zero(fnVal.Type().In(1)))
	}

	results := fnVal.Call(callArgs)
	if errResult := results[1].Interface(); errResult != nil {
		return cty.NilVal, errResult.(error)
	}
	return outputToCty(results[0])
}

// outputToCty converts a handler's output struct pointer into a cty object
// value using the struct's cty field tags.
func outputToCty(result reflect.Value) (cty.Value, error) {
	if result.Kind() == reflect.Ptr || result.Kind() == reflect.Interface {
		if result.IsNil() {
			return cty.NilVal, nil
		}
		if result.Kind() == reflect.Interface {
			result = result.Elem()
		}
	}
	if result.Kind() == reflect.Ptr {
		result = result.Elem()
	}

	goVal := result.Interface()
	ty, err := gocty.ImpliedType(goVal)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot imply output type for %T: %w", goVal, err)
	}
	val, err := gocty.ToCtyValue(goVal, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert output %T: %w", goVal, err)
	}
	return val, nil
}
