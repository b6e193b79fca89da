package llmclient

import "context"

// Fake is an in-memory Client for tests. Responses is consumed in FIFO
// order by Generate and Chat; once exhausted, Default is returned.
type Fake struct {
	Responses []string
	Default   string
	Available bool

	GeneratePrompts []string
	ChatCalls       [][]Message
}

// NewFake constructs a Fake that always answers with Default until
// Responses is queued via Enqueue.
func NewFake(defaultResponse string) *Fake {
	return &Fake{Default: defaultResponse, Available: true}
}

// Enqueue appends responses to be returned in order by subsequent calls.
func (f *Fake) Enqueue(responses ...string) {
	f.Responses = append(f.Responses, responses...)
}

func (f *Fake) next() string {
	if len(f.Responses) == 0 {
		return f.Default
	}
	r := f.Responses[0]
	f.Responses = f.Responses[1:]
	return r
}

func (f *Fake) Generate(_ context.Context, prompt, _ string, _ float64) (string, error) {
	f.GeneratePrompts = append(f.GeneratePrompts, prompt)
	return f.next(), nil
}

func (f *Fake) Chat(_ context.Context, messages []Message, _ string, _ float64) (string, error) {
	f.ChatCalls = append(f.ChatCalls, messages)
	return f.next(), nil
}

func (f *Fake) Embeddings(_ context.Context, _ string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func (f *Fake) IsAvailable(_ context.Context) bool {
	return f.Available
}

var _ Client = (*Fake)(nil)
