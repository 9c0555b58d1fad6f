package services

import (
	"context"
	"fmt"

	"budgetboard/internal/amqp"
	"budgetboard/internal/core"
	blog "budgetboard/internal/log"
	"budgetboard/internal/storage"
)

// ChangePublisher is satisfied by *amqp.Client.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Invalidator drops derived data after a write.
type Invalidator interface {
	Invalidate()
}

// Board orchestrates writes across SQLite, the report caches and AMQP.
// Reads go straight to the repository.
type Board struct {
	store     *storage.SQLiteRepository
	publisher ChangePublisher
	caches    Invalidator
}

// NewBoard wires the write path. publisher and caches may be nil.
func NewBoard(store *storage.SQLiteRepository, publisher ChangePublisher, caches Invalidator) *Board {
	return &Board{store: store, publisher: publisher, caches: caches}
}

func (b *Board) Store() *storage.SQLiteRepository { return b.store }

// written runs after every successful write: the caches are dropped first so
// the next read is fresh, then the change is announced.
func (b *Board) written(ctx context.Context, entity, action string, id, budgetID int64) {
	if b.caches != nil {
		b.caches.Invalidate()
	}

	op := blog.OpUpdate
	switch action {
	case amqp.ActionCreated:
		op = blog.OpCreate
	case amqp.ActionDeleted:
		op = blog.OpDelete
	}
	logger := blog.FromContext(ctx)
	blog.NewStructuredLogger(logger).LogWrite(ctx, entity, op, id)

	if b.publisher == nil {
		return
	}
	msg := amqp.NewChangeMessage(entity, action, id, budgetID)
	if err := b.publisher.PublishChange(ctx, msg); err != nil {
		// The record is already committed.
		logger.WarnContext(ctx, "Failed to publish change message",
			blog.FieldEntity, entity, blog.FieldID, id, blog.FieldError, err)
	}
}

func (b *Board) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	out, err := b.store.CreateProject(ctx, p)
	if err != nil {
		return core.Project{}, err
	}
	b.written(ctx, amqp.EntityProject, amqp.ActionCreated, out.ID, 0)
	return out, nil
}

func (b *Board) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	out, err := b.store.UpdateProject(ctx, p)
	if err != nil {
		return core.Project{}, err
	}
	b.written(ctx, amqp.EntityProject, amqp.ActionUpdated, out.ID, 0)
	return out, nil
}

func (b *Board) DeleteProject(ctx context.Context, id int64) error {
	if err := b.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	b.written(ctx, amqp.EntityProject, amqp.ActionDeleted, id, 0)
	return nil
}

func (b *Board) CreateManager(ctx context.Context, m core.Manager) (core.Manager, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Manager{}, err
	}
	out, err := b.store.CreateManager(ctx, m)
	if err != nil {
		return core.Manager{}, err
	}
	b.written(ctx, amqp.EntityManager, amqp.ActionCreated, out.ID, 0)
	return out, nil
}

func (b *Board) UpdateManager(ctx context.Context, m core.Manager) (core.Manager, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Manager{}, err
	}
	out, err := b.store.UpdateManager(ctx, m)
	if err != nil {
		return core.Manager{}, err
	}
	b.written(ctx, amqp.EntityManager, amqp.ActionUpdated, out.ID, 0)
	return out, nil
}

func (b *Board) DeleteManager(ctx context.Context, id int64) error {
	if err := b.store.DeleteManager(ctx, id); err != nil {
		return err
	}
	b.written(ctx, amqp.EntityManager, amqp.ActionDeleted, id, 0)
	return nil
}

func (b *Board) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	out, err := b.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	b.written(ctx, amqp.EntityCategory, amqp.ActionCreated, out.ID, 0)
	return out, nil
}

func (b *Board) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	out, err := b.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	b.written(ctx, amqp.EntityCategory, amqp.ActionUpdated, out.ID, 0)
	return out, nil
}

func (b *Board) DeleteCategory(ctx context.Context, id int64) error {
	if err := b.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	b.written(ctx, amqp.EntityCategory, amqp.ActionDeleted, id, 0)
	return nil
}

func (b *Board) CreateBudget(ctx context.Context, bu core.Budget) (core.BudgetView, error) {
	bu.Normalize()
	if err := bu.Validate(); err != nil {
		return core.BudgetView{}, err
	}
	out, err := b.store.CreateBudget(ctx, bu)
	if err != nil {
		return core.BudgetView{}, err
	}
	b.written(ctx, amqp.EntityBudget, amqp.ActionCreated, out.ID, out.ID)
	return out, nil
}

func (b *Board) UpdateBudget(ctx context.Context, bu core.Budget) (core.BudgetView, error) {
	bu.Normalize()
	if err := bu.Validate(); err != nil {
		return core.BudgetView{}, err
	}
	out, err := b.store.UpdateBudget(ctx, bu)
	if err != nil {
		return core.BudgetView{}, err
	}
	b.written(ctx, amqp.EntityBudget, amqp.ActionUpdated, out.ID, out.ID)
	return out, nil
}

func (b *Board) DeleteBudget(ctx context.Context, id int64) error {
	if err := b.store.DeleteBudget(ctx, id); err != nil {
		return err
	}
	// The alerts went with the budget; there is nothing left to check.
	b.written(ctx, amqp.EntityBudget, amqp.ActionDeleted, id, 0)
	return nil
}

func (b *Board) CreateExpense(ctx context.Context, e core.Expense) (core.ExpenseView, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.ExpenseView{}, err
	}
	out, err := b.store.CreateExpense(ctx, e)
	if err != nil {
		return core.ExpenseView{}, err
	}
	b.written(ctx, amqp.EntityExpense, amqp.ActionCreated, out.ID, out.BudgetID)
	return out, nil
}

// UpdateExpense also announces the previous budget when the expense moved,
// so both budgets get re-checked.
func (b *Board) UpdateExpense(ctx context.Context, e core.Expense) (core.ExpenseView, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.ExpenseView{}, err
	}
	prev, err := b.store.GetExpense(ctx, e.ID)
	if err != nil {
		return core.ExpenseView{}, err
	}
	out, err := b.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.ExpenseView{}, err
	}
	b.written(ctx, amqp.EntityExpense, amqp.ActionUpdated, out.ID, out.BudgetID)
	if prev.BudgetID != out.BudgetID {
		b.written(ctx, amqp.EntityBudget, amqp.ActionUpdated, prev.BudgetID, prev.BudgetID)
	}
	return out, nil
}

func (b *Board) DeleteExpense(ctx context.Context, id int64) error {
	prev, err := b.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := b.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	b.written(ctx, amqp.EntityExpense, amqp.ActionDeleted, id, prev.BudgetID)
	return nil
}

// Close releases the repository and the publisher when it can be closed.
func (b *Board) Close() error {
	var errs []error

	if closer, ok := b.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close board: %v", errs)
	}
	return nil
}
