package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestActorContext(t *testing.T) {
	t.Run("ActorFromContext reports missing actor", func(t *testing.T) {
		if _, ok := ActorFromContext(context.Background()); ok {
			t.Error("expected no actor")
		}
	})

	t.Run("ActorFromContext returns actor when set", func(t *testing.T) {
		expected := Actor{ID: uuid.New(), Role: RoleSeller}
		ctx := NewContextWithActor(context.Background(), expected)

		actor, ok := ActorFromContext(ctx)
		if !ok {
			t.Fatal("expected actor, got none")
		}
		if actor != expected {
			t.Errorf("expected %+v, got %+v", expected, actor)
		}
	})

	t.Run("UserIDFromContext returns uuid.Nil when no actor", func(t *testing.T) {
		if id := UserIDFromContext(context.Background()); id != uuid.Nil {
			t.Errorf("expected uuid.Nil, got %v", id)
		}
	})

	t.Run("UserIDFromContext returns ID when actor set", func(t *testing.T) {
		expected := Actor{ID: uuid.New(), Role: RoleUser}
		ctx := NewContextWithActor(context.Background(), expected)

		if id := UserIDFromContext(ctx); id != expected.ID {
			t.Errorf("expected %v, got %v", expected.ID, id)
		}
	})

	t.Run("MustActor panics when no actor", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic")
			}
		}()
		MustActor(context.Background())
	})
}

func TestRequestIDContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	ctx := NewContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("expected %q, got %q", "req-123", got)
	}
}
