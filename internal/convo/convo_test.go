package convo

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGatewayResolve(t *testing.T) {
	t.Run("caller-supplied ID is used as-is", func(t *testing.T) {
		g := NewGateway(NewMemoryStore())

		id, err := g.Resolve(context.Background(), "conv_existing", "agt_1", "vis_1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if id != "conv_existing" {
			t.Errorf("Resolve() = %q, want caller's ID back", id)
		}
	})

	t.Run("dangling ID creates no row", func(t *testing.T) {
		store := NewMemoryStore()
		g := NewGateway(store)

		id, _ := g.Resolve(context.Background(), "conv_dangling", "agt_1", "vis_1")
		if store.Conversation(id) != nil {
			t.Error("Resolve() created a row for a caller-supplied ID")
		}
	})

	t.Run("missing ID creates a conversation", func(t *testing.T) {
		store := NewMemoryStore()
		g := NewGateway(store)

		id, err := g.Resolve(context.Background(), "", "agt_1", "vis_1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !strings.HasPrefix(id, "conv_") {
			t.Errorf("Resolve() = %q, want conv_ prefix", id)
		}

		c := store.Conversation(id)
		if c == nil {
			t.Fatal("conversation row not created")
		}
		if c.AgentID != "agt_1" || c.VisitorID != "vis_1" {
			t.Errorf("conversation = %+v, want agent agt_1 / visitor vis_1", c)
		}
	})
}

func TestGatewayCheckCap(t *testing.T) {
	t.Run("under cap passes", func(t *testing.T) {
		g := NewGateway(NewMemoryStore(), WithMessageCap(3))
		ctx := context.Background()

		id, _ := g.Resolve(ctx, "", "agt_1", "vis_1")
		g.Append(ctx, id, "one", false)
		g.Append(ctx, id, "two", true)

		if err := g.CheckCap(ctx, id); err != nil {
			t.Errorf("CheckCap() error = %v, want nil under cap", err)
		}
	})

	t.Run("at cap rejects", func(t *testing.T) {
		g := NewGateway(NewMemoryStore(), WithMessageCap(2))
		ctx := context.Background()

		id, _ := g.Resolve(ctx, "", "agt_1", "vis_1")
		g.Append(ctx, id, "one", false)
		g.Append(ctx, id, "two", true)

		err := g.CheckCap(ctx, id)
		if !errors.Is(err, ErrConversationFull) {
			t.Errorf("CheckCap() error = %v, want ErrConversationFull", err)
		}
	})

	t.Run("default cap is 50", func(t *testing.T) {
		g := NewGateway(NewMemoryStore())
		ctx := context.Background()

		id, _ := g.Resolve(ctx, "", "agt_1", "vis_1")
		for i := 0; i < 50; i++ {
			if _, err := g.Append(ctx, id, "m", i%2 == 1); err != nil {
				t.Fatalf("Append(%d) error = %v", i, err)
			}
		}

		if err := g.CheckCap(ctx, id); !errors.Is(err, ErrConversationFull) {
			t.Errorf("CheckCap() after 50 messages = %v, want ErrConversationFull", err)
		}
	})
}

func TestGatewayAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty content", func(t *testing.T) {
		g := NewGateway(NewMemoryStore())
		if _, err := g.Append(ctx, "conv_x", "   ", false); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("Append() error = %v, want ErrEmptyContent", err)
		}
	})

	t.Run("rejects oversized visitor content", func(t *testing.T) {
		g := NewGateway(NewMemoryStore(), WithMaxContentLength(10))
		if _, err := g.Append(ctx, "conv_x", strings.Repeat("a", 11), false); !errors.Is(err, ErrContentTooLong) {
			t.Errorf("Append() error = %v, want ErrContentTooLong", err)
		}
	})

	t.Run("bot content is not length-bounded", func(t *testing.T) {
		g := NewGateway(NewMemoryStore(), WithMaxContentLength(10))
		if _, err := g.Append(ctx, "conv_x", strings.Repeat("a", 100), true); err != nil {
			t.Errorf("Append() error = %v for bot content, want nil", err)
		}
	})

	t.Run("messages persist in order", func(t *testing.T) {
		store := NewMemoryStore()
		g := NewGateway(store)

		id, _ := g.Resolve(ctx, "", "agt_1", "vis_1")
		g.Append(ctx, id, "hello", false)
		g.Append(ctx, id, "hi there", true)

		msgs, err := g.History(ctx, id)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("len(msgs) = %d, want 2", len(msgs))
		}
		if msgs[0].Content != "hello" || msgs[0].FromBot {
			t.Errorf("msgs[0] = %+v, want visitor hello", msgs[0])
		}
		if msgs[1].Content != "hi there" || !msgs[1].FromBot {
			t.Errorf("msgs[1] = %+v, want bot reply", msgs[1])
		}
	})
}

func TestNewID(t *testing.T) {
	a := NewID("conv")
	b := NewID("conv")
	if a == b {
		t.Error("NewID() produced duplicate IDs")
	}
	if !strings.HasPrefix(a, "conv_") {
		t.Errorf("NewID() = %q, want conv_ prefix", a)
	}
}
