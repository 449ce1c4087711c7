package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Transaction runs operations in order. When one fails, the compensations
// registered for the operations that already succeeded run in reverse.
type Transaction struct {
	operations    []Operation
	compensations map[int]Compensation
	logger        *zap.Logger
}

type Operation struct {
	Name string
	Fn   func(context.Context) error
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{
		compensations: make(map[int]Compensation),
		logger:        logger,
	}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{name, fn})
}

// AddCompensation undoes the most recently added operation.
func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	t.compensations[len(t.operations)-1] = Compensation{name, fn}
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) {
	for i := failedAtIndex - 1; i >= 0; i-- {
		comp, ok := t.compensations[i]
		if !ok {
			continue
		}
		if err := comp.Fn(ctx); err != nil {
			t.logger.Error("compensation failed, data may be inconsistent",
				zap.String("compensation", comp.Name),
				zap.Error(err))
		}
	}
}
