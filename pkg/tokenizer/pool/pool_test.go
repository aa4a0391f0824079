package pool

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textflux/pkg/faults"
	"textflux/pkg/tokenizer"
)

const testDef = `{
	"model": {
		"type": "BPE",
		"vocab": {"h": 0, "i": 1, "hi": 2},
		"merges": ["h i"]
	},
	"added_tokens": [{"id": 3, "content": "<s>", "special": true}]
}`

func testArtifacts() *tokenizer.Artifacts {
	return &tokenizer.Artifacts{Name: "test", Definition: []byte(testDef)}
}

func TestPool_CountMatchesSequential(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	inputs := make([]string, 100)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("hi <s> line %d", i)
	}

	got, err := p.Count(context.Background(), testArtifacts(), inputs, false)
	require.NoError(t, err)
	require.Len(t, got, len(inputs))

	tok, err := tokenizer.New([]byte(testDef), nil)
	require.NoError(t, err)
	for i, in := range inputs {
		assert.Equal(t, tok.Count(in, false), got[i], "input %d", i)
	}
}

func TestPool_EmptyInputs(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	got, err := p.Count(context.Background(), testArtifacts(), nil, false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPool_MoreSlicesThanWorkersStillOrdered(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	// hi=1 token, hi hi=2, hi hi hi=3... identity pretok keeps the
	// whole line one word, so pad with the added token instead.
	inputs := []string{"hi", "<s>", "hi<s>", "<s>hi<s>", "hi"}
	got, err := p.Count(context.Background(), testArtifacts(), inputs, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 3, 1}, got)
}

func TestPool_DefaultSizeIsCPUs(t *testing.T) {
	p := New(0)
	defer p.Shutdown()
	assert.Greater(t, p.Size(), 0)
}

func TestPool_ShutdownRejectsNewWork(t *testing.T) {
	p := New(1)
	p.Shutdown()

	_, err := p.Count(context.Background(), testArtifacts(), []string{"hi"}, false)
	assert.True(t, faults.Is(err, faults.KindPoolShuttingDown))
}

func TestPool_ShutdownIdempotent(t *testing.T) {
	p := New(1)
	p.Shutdown()
	p.Shutdown()
	assert.Equal(t, 0, p.Size())
}

func TestPool_CancelledWhileWaitingForWorker(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	// Hold the only worker so the next job has to queue.
	w, err := p.acquire(context.Background())
	require.NoError(t, err)
	defer p.release(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Count(ctx, testArtifacts(), []string{"hi", "hi"}, false)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindPoolJobCancelled))
}

func TestPool_BadDefinitionRejectsJob(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	bad := &tokenizer.Artifacts{Name: "bad", Definition: []byte("{nope")}
	_, err := p.Count(context.Background(), bad, []string{"hi"}, false)
	assert.Error(t, err)
	// Parse failures are ordinary errors, not fatal: the worker survives.
	assert.Equal(t, 1, p.Size())
}

func TestGet_RecreatedAfterShutdown(t *testing.T) {
	first := Get()
	assert.Same(t, first, Get())

	first.Shutdown()
	second := Get()
	assert.NotSame(t, first, second)
	assert.Greater(t, second.Size(), 0)
	second.Shutdown()
}
