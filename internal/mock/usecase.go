package mock

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

// UploadPipeline implements port.UploadPipeline for tests.
type UploadPipeline struct {
	Out    *port.UploadOutput
	Err    error
	In     port.UploadInput
	Called bool
}

func (m *UploadPipeline) Run(ctx context.Context, in port.UploadInput) (*port.UploadOutput, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

// Committer implements port.Committer for tests.
type Committer struct {
	Out    *port.CommitOutput
	Err    error
	In     port.CommitInput
	Called bool
}

func (m *Committer) Commit(ctx context.Context, in port.CommitInput) (*port.CommitOutput, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}
