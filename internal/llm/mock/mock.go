// Package mock provides a scripted CompletionProvider for tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider answers prompts from scripted response queues. Because the
// reconciliation passes run concurrently, responses are keyed by a substring
// of the prompt rather than by call order.
type Provider struct {
	mu sync.Mutex
	// Scripts maps a prompt substring to a queue of responses. The first
	// matching script wins; each call pops one response, the last response
	// is repeated once the queue is drained.
	Scripts map[string][]string
	// Fallback is returned when no script matches.
	Fallback string
	// Err, when set, is returned by every call.
	Err error

	calls   int
	prompts []string
}

// Complete pops the next scripted response for the prompt.
func (p *Provider) Complete(_ context.Context, _ string, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.prompts = append(p.prompts, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	for key, queue := range p.Scripts {
		if len(queue) == 0 || !strings.Contains(prompt, key) {
			continue
		}
		response := queue[0]
		if len(queue) > 1 {
			p.Scripts[key] = queue[1:]
		}
		return response, nil
	}
	if p.Fallback != "" {
		return p.Fallback, nil
	}
	return "", fmt.Errorf("mock provider: no script for prompt %q", prompt)
}

// Calls returns how many completions were requested.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Prompts returns all prompts seen so far.
func (p *Provider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}
