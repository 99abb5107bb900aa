package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// scriptedProvider fails or succeeds per call according to its script.
type scriptedProvider struct {
	name    string
	calls   int
	failAll bool
	output  string
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	p.calls++
	if p.failAll {
		return "", errors.New(p.name + " is down")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.output, nil
}

func newTestCascade(t *testing.T, cfg CascadeConfig, ps ...Provider) *Cascade {
	t.Helper()
	c, err := NewCascade(ps, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCascade failed: %v", err)
	}
	return c
}

func TestCascadeRequiresProviders(t *testing.T) {
	if _, err := NewCascade(nil, CascadeConfig{}, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty provider list")
	}
}

func TestCascadeFirstProviderWins(t *testing.T) {
	a := &scriptedProvider{name: "A", output: "from A"}
	b := &scriptedProvider{name: "B", output: "from B"}
	c := newTestCascade(t, CascadeConfig{}, a, b)

	content, used, err := c.Generate(context.Background(), GenerateRequest{Purpose: "draft", Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if content != "from A" || used != "A" {
		t.Errorf("got (%q, %q), want output from A", content, used)
	}
	if b.calls != 0 {
		t.Errorf("B was called %d times, want 0", b.calls)
	}
}

func TestCascadeAdvancesPastFailure(t *testing.T) {
	a := &scriptedProvider{name: "A", failAll: true}
	b := &scriptedProvider{name: "B", output: "from B"}
	c := newTestCascade(t, CascadeConfig{}, a, b)

	content, used, err := c.Generate(context.Background(), GenerateRequest{Purpose: "draft", Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if used != "B" || content != "from B" {
		t.Errorf("got (%q, %q), want fallback to B", content, used)
	}
	if a.calls != 1 {
		t.Errorf("A was called %d times, want exactly 1 (no same-provider retry)", a.calls)
	}
}

func TestCascadeExhaustion(t *testing.T) {
	a := &scriptedProvider{name: "A", failAll: true}
	b := &scriptedProvider{name: "B", failAll: true}
	c := newTestCascade(t, CascadeConfig{}, a, b)

	_, _, err := c.Generate(context.Background(), GenerateRequest{Purpose: "evaluate", Prompt: "p"})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}
}

func TestCascadeBreakerOpensAndSkips(t *testing.T) {
	a := &scriptedProvider{name: "A", failAll: true}
	b := &scriptedProvider{name: "B", output: "ok"}
	c := newTestCascade(t, CascadeConfig{BreakerThreshold: 2, BreakerCooldown: time.Hour}, a, b)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := c.Generate(ctx, GenerateRequest{Purpose: "draft", Prompt: "p"}); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	// Two failures open A's circuit; the third call must skip it.
	if a.calls != 2 {
		t.Errorf("A was called %d times, want 2 (circuit open afterwards)", a.calls)
	}
	if b.calls != 3 {
		t.Errorf("B was called %d times, want 3", b.calls)
	}
}

func TestCascadeRateLimitAdvances(t *testing.T) {
	a := &scriptedProvider{name: "A", output: "from A"}
	b := &scriptedProvider{name: "B", output: "from B"}
	c := newTestCascade(t, CascadeConfig{RatePerMinute: 1}, a, b)

	ctx := context.Background()
	if _, used, err := c.Generate(ctx, GenerateRequest{Prompt: "p"}); err != nil || used != "A" {
		t.Fatalf("first call: used=%q err=%v", used, err)
	}
	// A's bucket is drained; the cascade must fall through to B.
	if _, used, err := c.Generate(ctx, GenerateRequest{Prompt: "p"}); err != nil || used != "B" {
		t.Fatalf("second call: used=%q err=%v, want B", used, err)
	}
	if a.calls != 1 {
		t.Errorf("A was called %d times, want 1", a.calls)
	}
}

func TestCascadeStopsOnDeadParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &scriptedProvider{name: "A", failAll: true}
	b := &scriptedProvider{name: "B", output: "ok"}
	c := newTestCascade(t, CascadeConfig{}, a, b)

	_, _, err := c.Generate(ctx, GenerateRequest{Prompt: "p"})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}
	if b.calls != 0 {
		t.Errorf("B attempted %d times after parent context death, want 0", b.calls)
	}
}
