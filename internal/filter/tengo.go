package filter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"

	"github.com/itsmostafa/icdtree/internal/table"
)

// resultVar receives the value of the user expression.
const resultVar = "__keep"

// tengoPredicate evaluates a compiled Tengo expression. It is not safe for
// concurrent use.
type tengoPredicate struct {
	compiled *tengo.Compiled
	timeout  time.Duration
}

func newTengoPredicate(expr string, timeout time.Duration) (*tengoPredicate, error) {
	script := tengo.NewScript([]byte(resultVar + " := (" + expr + ")"))
	script.SetMaxAllocs(100000)

	// Every variable must exist before compiling; values are replaced per row.
	for name, value := range vars(&table.Enriched{}) {
		if err := script.Add(name, value); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return &tengoPredicate{compiled: compiled, timeout: timeout}, nil
}

func (p *tengoPredicate) Match(row *table.Enriched) (bool, error) {
	for name, value := range vars(row) {
		if err := p.compiled.Set(name, value); err != nil {
			return false, fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.compiled.RunContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, fmt.Errorf("execution timed out after %s", p.timeout)
		}
		return false, fmt.Errorf("runtime error: %w", err)
	}
	return p.compiled.Get(resultVar).Bool(), nil
}
