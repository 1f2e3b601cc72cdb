package analysis

import (
	"context"

	"github.com/RyanBlaney/sonido-deck/transcode"
)

// Pending is an analysis running on its own goroutine
type Pending struct {
	done   chan struct{}
	result *AnalysisResult
	err    error
}

// Wait blocks until the analysis finishes or ctx ends.
// Giving up does not stop the worker; its result is discarded.
func (p *Pending) Wait(ctx context.Context) (*AnalysisResult, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the result is available
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Async runs the synchronous analyzer off the caller's goroutine
type Async struct {
	analyzer *Analyzer
}

// NewAsync wraps analyzer
func NewAsync(analyzer *Analyzer) *Async {
	return &Async{analyzer: analyzer}
}

// Analyzer returns the wrapped analyzer
func (as *Async) Analyzer() *Analyzer {
	return as.analyzer
}

func (as *Async) start(fn func() (*AnalysisResult, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.result, p.err = fn()
	}()
	return p
}

// Submit starts analyzing signal
func (as *Async) Submit(signal *transcode.AudioSignal) *Pending {
	return as.start(func() (*AnalysisResult, error) {
		return as.analyzer.Analyze(signal)
	})
}

// SubmitFile starts loading and analyzing path. ctx bounds the decode only.
func (as *Async) SubmitFile(ctx context.Context, path string) *Pending {
	return as.start(func() (*AnalysisResult, error) {
		return as.analyzer.AnalyzeFile(ctx, path)
	})
}

// SubmitBytes starts loading and analyzing an in-memory file
func (as *Async) SubmitBytes(ctx context.Context, data []byte, ext string) *Pending {
	return as.start(func() (*AnalysisResult, error) {
		return as.analyzer.AnalyzeBytes(ctx, data, ext)
	})
}

// AnalyzeFileAsync analyzes path on a separate goroutine and waits for it under ctx
func (as *Async) AnalyzeFileAsync(ctx context.Context, path string) (*AnalysisResult, error) {
	return as.SubmitFile(context.WithoutCancel(ctx), path).Wait(ctx)
}

// AnalyzeBytesAsync is AnalyzeFileAsync for in-memory files
func (as *Async) AnalyzeBytesAsync(ctx context.Context, data []byte, ext string) (*AnalysisResult, error) {
	return as.SubmitBytes(context.WithoutCancel(ctx), data, ext).Wait(ctx)
}
