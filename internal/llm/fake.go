package llm

import (
	"context"
	"sync"
)

// FakeClient replays scripted replies for offline runs and tests. Once the
// script is exhausted it keeps returning Default.
type FakeClient struct {
	Default string

	mu      sync.Mutex
	replies []FakeReply
	prompts []string
}

// FakeReply is one scripted response.
type FakeReply struct {
	Text string
	Err  error
}

// DefaultFakeContract is what FakeClient answers when nothing is scripted.
const DefaultFakeContract = "Here is your contract:\n" +
	`{"note":{"type":"object","properties":{"message":{"position":0,"type":"string","description":"Body of the note","maxLength":63}},` +
	`"indices":[{"name":"message","properties":[{"message":"asc"}]}],"required":["message"],"additionalProperties":false,` +
	`"description":"A short note"}}`

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{Default: DefaultFakeContract, replies: replies}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.replies) == 0 {
		return f.Default, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.Text, r.Err
}

// Prompts returns every prompt received so far.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
