package hero

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"career-copilot/internal/ai"
	"career-copilot/internal/model"
)

type fakeProvider struct {
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Complete(context.Context, []ai.Message, ai.Options) (ai.Response, error) {
	f.calls++
	if f.err != nil {
		return ai.Response{}, f.err
	}
	return ai.Response{Content: f.content, Model: "fake", Usage: ai.Usage{PromptTokens: 3, CompletionTokens: 7}}, nil
}

func (f *fakeProvider) Stream(context.Context, []ai.Message, ai.Options) (<-chan ai.StreamChunk, error) {
	ch := make(chan ai.StreamChunk)
	close(ch)
	return ch, nil
}

type usageSink struct {
	records []model.AIUsage
}

func (u *usageSink) RecordAIUsage(_ context.Context, usage model.AIUsage) error {
	u.records = append(u.records, usage)
	return nil
}

func TestBuildStaticContexts(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{content: "should not be called"}
	b := NewBuilder(provider, NewCache(time.Hour), nil)

	msg := b.Build(context.Background(), "u1", Context{Type: ContextStaleApps, StaleCount: 4})
	if msg.Source != "static" || !strings.Contains(msg.Text, "4 candidaturas") {
		t.Fatalf("unexpected stale message: %+v", msg)
	}
	if provider.calls != 0 {
		t.Fatal("static context must not call the provider")
	}
}

func TestBuildAIContextCachesResult(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{content: "Parabéns pela proposta!"}
	sink := &usageSink{}
	b := NewBuilder(provider, NewCache(time.Hour), sink)
	hc := Context{Type: ContextProposalReceived, Company: "Acme", Title: "Dev"}

	first := b.Build(context.Background(), "u1", hc)
	if first.Source != "ai" || first.Text != "Parabéns pela proposta!" {
		t.Fatalf("unexpected first message: %+v", first)
	}
	second := b.Build(context.Background(), "u1", hc)
	if second.Text != first.Text {
		t.Fatalf("expected cached text, got %q", second.Text)
	}
	if provider.calls != 1 {
		t.Fatalf("expected single provider call, got %d", provider.calls)
	}
	if len(sink.records) != 1 || sink.records[0].Feature != "hero_message" {
		t.Fatalf("expected one usage record, got %+v", sink.records)
	}

	// 不同公司不命中同一缓存键。
	b.Build(context.Background(), "u1", Context{Type: ContextProposalReceived, Company: "Other"})
	if provider.calls != 2 {
		t.Fatalf("expected cache keyed by company, got %d calls", provider.calls)
	}
}

func TestBuildCacheExpires(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{content: "oi"}
	cache := NewCache(time.Hour)
	current := testNow
	cache.now = func() time.Time { return current }
	b := NewBuilder(provider, cache, nil)
	hc := Context{Type: ContextInterviewSoon, Company: "Acme"}

	b.Build(context.Background(), "u1", hc)
	current = current.Add(2 * time.Hour)
	b.Build(context.Background(), "u1", hc)
	if provider.calls != 2 {
		t.Fatalf("expected regeneration after TTL, got %d calls", provider.calls)
	}
}

func TestBuildFallsBackOnProviderError(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("upstream down")}
	sink := &usageSink{}
	b := NewBuilder(provider, NewCache(time.Hour), sink)

	msg := b.Build(context.Background(), "u1", Context{Type: ContextNeedsFollowup, Company: "Acme", DaysSinceUpdate: 9})
	if msg.Source != "static" {
		t.Fatalf("expected static fallback, got %+v", msg)
	}
	if !strings.Contains(msg.Text, "Acme") || !strings.Contains(msg.Text, "9 dias") {
		t.Fatalf("expected metadata in fallback text, got %q", msg.Text)
	}
	if len(sink.records) != 0 {
		t.Fatal("failed calls must not be recorded as usage")
	}
}

func TestBuildActiveSummaryRotatesTips(t *testing.T) {
	t.Parallel()

	b := NewBuilder(&fakeProvider{}, NewCache(time.Hour), nil)
	hc := Context{Type: ContextActiveSummary, TotalApps: 5, ActiveApps: 2}

	b.now = func() time.Time { return testNow }
	within := b.Build(context.Background(), "u1", hc)
	b.now = func() time.Time { return testNow.Add(time.Hour) }
	sameWindow := b.Build(context.Background(), "u1", hc)
	if within.Text != sameWindow.Text {
		t.Fatal("expected identical tip within the same 6h window")
	}
	if within.Source != "tip" || !strings.Contains(within.Text, "5 candidaturas (2 ativas)") {
		t.Fatalf("unexpected summary message: %+v", within)
	}

	if TipFor(testNow) == TipFor(testNow.Add(tipWindow)) {
		t.Fatal("expected a different tip in the next window")
	}
}
