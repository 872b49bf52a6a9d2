package filter

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dop251/goja"

	"github.com/itsmostafa/icdtree/internal/table"
)

// jsPredicate runs a compiled JavaScript expression in one reused runtime.
// It is not safe for concurrent use.
type jsPredicate struct {
	vm      *goja.Runtime
	program *goja.Program
	timeout time.Duration
}

func newJSPredicate(expr string, timeout time.Duration) (*jsPredicate, error) {
	program, err := goja.Compile("filter", expr, false)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	vm := goja.New()
	if err := setupHelpers(vm); err != nil {
		return nil, err
	}

	return &jsPredicate{vm: vm, program: program, timeout: timeout}, nil
}

// setupHelpers adds a small regex helper, matches(pattern, text).
func setupHelpers(vm *goja.Runtime) error {
	matches := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("matches requires 2 arguments: pattern, text"))
		}
		re, err := regexp.Compile(call.Arguments[0].String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(re.MatchString(call.Arguments[1].String()))
	}
	if err := vm.Set("matches", matches); err != nil {
		return fmt.Errorf("failed to set matches: %w", err)
	}
	return nil
}

func (p *jsPredicate) Match(row *table.Enriched) (bool, error) {
	for name, value := range vars(row) {
		if err := p.vm.Set(name, value); err != nil {
			return false, fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	timer := time.AfterFunc(p.timeout, func() {
		p.vm.Interrupt("filter timed out")
	})
	val, err := p.vm.RunProgram(p.program)
	timer.Stop()
	p.vm.ClearInterrupt()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return false, fmt.Errorf("execution interrupted: %v", interrupted.Value())
		}
		return false, fmt.Errorf("execution error: %w", err)
	}
	return val.ToBoolean(), nil
}
