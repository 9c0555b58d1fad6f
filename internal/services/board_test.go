package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"budgetboard/internal/amqp"
	"budgetboard/internal/core"
	"budgetboard/internal/storage"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ChangeMessage
	err  error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) messages() []*amqp.ChangeMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.ChangeMessage(nil), p.msgs...)
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	store, err := storage.NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	project  core.Project
	category core.Category
	budget   core.BudgetView
}

func seedBoard(t *testing.T, b *Board, total int64) fixture {
	t.Helper()
	ctx := context.Background()
	p, err := b.CreateProject(ctx, core.Project{Name: "Website"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	c, err := b.CreateCategory(ctx, core.Category{Name: "Ads"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	bu, err := b.CreateBudget(ctx, core.Budget{
		Name: "Launch", TotalAmount: core.Money{Cents: total}, ProjectID: p.ID, CategoryID: c.ID,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	return fixture{project: p, category: c, budget: bu}
}

func TestBoardWriteAnnouncesChange(t *testing.T) {
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	board := NewBoard(newTestStore(t), pub, inv)

	p, err := board.CreateProject(context.Background(), core.Project{Name: "  Alpha  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "Alpha" {
		t.Errorf("name should be trimmed, got %q", p.Name)
	}

	msgs := pub.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Entity != amqp.EntityProject || msgs[0].Action != amqp.ActionCreated || msgs[0].ID != p.ID {
		t.Errorf("unexpected message %+v", msgs[0])
	}
	if inv.n != 1 {
		t.Errorf("expected caches invalidated once, got %d", inv.n)
	}
}

func TestBoardRejectsInvalidInput(t *testing.T) {
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	board := NewBoard(newTestStore(t), pub, inv)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty project name", func() error {
			_, err := board.CreateProject(ctx, core.Project{Name: "   "})
			return err
		}},
		{"bad category color", func() error {
			_, err := board.CreateCategory(ctx, core.Category{Name: "x", Color: "red"})
			return err
		}},
		{"budget without amount", func() error {
			_, err := board.CreateBudget(ctx, core.Budget{Name: "x", ProjectID: 1, CategoryID: 1})
			return err
		}},
		{"expense without date", func() error {
			_, err := board.CreateExpense(ctx, core.Expense{
				Amount: core.Money{Cents: 100}, Description: "x", BudgetID: 1, CategoryID: 1,
			})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if len(pub.messages()) != 0 || inv.n != 0 {
		t.Errorf("rejected writes must not publish or invalidate")
	}
}

func TestBoardPublishFailureKeepsWrite(t *testing.T) {
	pub := &recordingPublisher{err: amqp.ErrCircuitOpen}
	store := newTestStore(t)
	board := NewBoard(store, pub, nil)

	m, err := board.CreateManager(context.Background(), core.Manager{Name: "Dana"})
	if err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
	if _, err := store.GetManager(context.Background(), m.ID); err != nil {
		t.Fatalf("manager should be stored: %v", err)
	}
}

func TestBoardExpenseMessagesCarryBudget(t *testing.T) {
	pub := &recordingPublisher{}
	board := NewBoard(newTestStore(t), pub, nil)
	ctx := context.Background()
	fx := seedBoard(t, board, 100000)

	other, err := board.CreateBudget(ctx, core.Budget{
		Name: "Follow-up", TotalAmount: core.Money{Cents: 5000}, ProjectID: fx.project.ID, CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	e, err := board.CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 1500}, Description: "Banner", Date: core.NewDate(2025, 3, 1),
		BudgetID: fx.budget.ID, CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	e.BudgetID = other.ID
	if _, err := board.UpdateExpense(ctx, e.Expense); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if err := board.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}

	msgs := pub.messages()
	// project, category, two budgets, then the expense writes
	tail := msgs[4:]
	want := []struct {
		entity, action string
		budgetID       int64
	}{
		{amqp.EntityExpense, amqp.ActionCreated, fx.budget.ID},
		{amqp.EntityExpense, amqp.ActionUpdated, other.ID},
		{amqp.EntityBudget, amqp.ActionUpdated, fx.budget.ID},
		{amqp.EntityExpense, amqp.ActionDeleted, other.ID},
	}
	if len(tail) != len(want) {
		t.Fatalf("expected %d expense messages, got %d", len(want), len(tail))
	}
	for i, w := range want {
		if tail[i].Entity != w.entity || tail[i].Action != w.action || tail[i].BudgetID != w.budgetID {
			t.Errorf("message %d = %+v, want %+v", i, tail[i], w)
		}
	}
}

func TestBoardDeleteMissing(t *testing.T) {
	pub := &recordingPublisher{}
	board := NewBoard(newTestStore(t), pub, nil)

	if err := board.DeleteExpense(context.Background(), 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := board.DeleteCategory(context.Background(), 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(pub.messages()) != 0 {
		t.Errorf("failed deletes must not publish")
	}
}
