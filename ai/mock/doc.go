// Package mock holds deterministic stand-ins for the ai interfaces so the
// pipeline, query engine and HTTP layer can be tested without a model server.
//
// MockEmbedder hashes text into unit vectors, MockGenerator replies with a
// fixed string and records prompts, and MockTranscriber returns canned
// segments. Each accepts a func field to script failures:
//
//	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(
//	    func(ctx context.Context, text string) ([]float32, error) {
//	        return nil, errors.New("connection refused")
//	    })
package mock
