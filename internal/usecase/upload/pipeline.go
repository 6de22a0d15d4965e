package upload

import (
	"context"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/fhuszti/skillswap-media-ms/internal/validation"
	"golang.org/x/sync/errgroup"
)

type PipelineOptions struct {
	UploadConcurrency int
}

type Pipeline struct {
	profiles    port.ProfileResolver
	ingestor    port.Ingestor
	assets      port.AssetService
	committer   port.Committer
	concurrency int
}

// compile-time check: *Pipeline must satisfy port.UploadPipeline
var _ port.UploadPipeline = (*Pipeline)(nil)

func NewPipeline(profiles port.ProfileResolver, ingestor port.Ingestor, assets port.AssetService, committer port.Committer, opts PipelineOptions) *Pipeline {
	if opts.UploadConcurrency < 1 {
		opts.UploadConcurrency = 1
	}
	return &Pipeline{
		profiles:    profiles,
		ingestor:    ingestor,
		assets:      assets,
		committer:   committer,
		concurrency: opts.UploadConcurrency,
	}
}

// Run ingests, uploads and commits one request. Every staged file is tracked by
// in.Tracker from the moment it is acquired, so any early return leaves the
// release to the tracker's owner.
func (p *Pipeline) Run(ctx context.Context, in port.UploadInput) (*port.UploadOutput, error) {
	profile, err := p.profiles.Resolve(in.Profile)
	if err != nil {
		logger.Errorf(ctx, "❌  no upload profile %q: %v", in.Profile, err)
		return nil, err
	}

	res, err := p.ingestor.Ingest(ctx, in.Source, in.ContentLength, profile, in.Tracker)
	if err != nil {
		return nil, err
	}

	if errs := validation.ValidateFields(res.Values, profile.FormFields); errs != nil {
		return nil, &FormError{Fields: errs}
	}

	refs, err := p.uploadAll(ctx, res.Files)
	if err != nil {
		return nil, err
	}

	out, err := p.committer.Commit(ctx, port.CommitInput{
		Profile: profile,
		OwnerID: in.OwnerID,
		ActorID: in.ActorID,
		Assets:  refs,
		Fields:  res.Values,
	})
	if err != nil {
		p.discard(ctx, refs)
		return nil, err
	}

	for _, f := range res.Files {
		f.State = model.StateCommitted
		in.Tracker.Release(ctx, f)
	}

	return &port.UploadOutput{Profile: profile, Assets: refs, Entity: out.Entity}, nil
}

// uploadAll uploads every file concurrently. Either all refs come back or none:
// refs produced before a failure are deleted again.
func (p *Pipeline) uploadAll(ctx context.Context, files []*model.StagedFile) ([]model.AssetRef, error) {
	refs := make([]*model.AssetRef, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range files {
		g.Go(func() error {
			ref, err := p.assets.Upload(gctx, f)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var done []model.AssetRef
		for _, r := range refs {
			if r != nil {
				done = append(done, *r)
			}
		}
		p.discard(ctx, done)
		return nil, err
	}

	out := make([]model.AssetRef, len(refs))
	for i, r := range refs {
		out[i] = *r
	}
	return out, nil
}

// discard removes assets that will never be referenced, even if the client went away.
func (p *Pipeline) discard(ctx context.Context, refs []model.AssetRef) {
	if len(refs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range refs {
		logger.Infof(ctx, "discarding uncommitted asset %s/%s", r.Provider, r.ProviderID)
		p.assets.Delete(ctx, r)
	}
}
