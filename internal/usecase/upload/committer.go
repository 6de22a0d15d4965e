package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/fhuszti/skillswap-media-ms/internal/uuid"
)

const eventAssetCommitted = "asset.committed"

type CommitterOptions struct {
	MaxAttempts int
	NewID       uuid.Gen
	Now         func() time.Time
}

type Committer struct {
	docs        port.DocumentRepository
	activities  port.ActivityRepository
	dispatcher  port.TaskDispatcher
	events      port.EventPublisher
	maxAttempts int
	newID       uuid.Gen
	now         func() time.Time
}

// compile-time check: *Committer must satisfy port.Committer
var _ port.Committer = (*Committer)(nil)

func NewCommitter(docs port.DocumentRepository, activities port.ActivityRepository, dispatcher port.TaskDispatcher, events port.EventPublisher, opts CommitterOptions) *Committer {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewUUID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Committer{
		docs:        docs,
		activities:  activities,
		dispatcher:  dispatcher,
		events:      events,
		maxAttempts: opts.MaxAttempts,
		newID:       opts.NewID,
		now:         opts.Now,
	}
}

type written struct {
	entity   *model.Document
	previous *model.AssetRef
	oldURL   string
}

// Commit writes the assets onto their owning entity in one document write, then
// records the activity, schedules deletion of the replaced asset and announces the
// change. Only the entity write can fail the commit.
func (c *Committer) Commit(ctx context.Context, in port.CommitInput) (*port.CommitOutput, error) {
	if len(in.Assets) == 0 {
		return nil, errors.New("commit: no assets")
	}

	var (
		w   *written
		err error
	)
	switch in.Profile.Mode {
	case model.CommitReplace:
		w, err = c.replace(ctx, in)
	case model.CommitCreate:
		w, err = c.create(ctx, in)
	default:
		err = fmt.Errorf("commit: unsupported mode %q", in.Profile.Mode)
	}
	if err != nil {
		return nil, err
	}

	c.recordActivity(ctx, in, w)
	if w.previous != nil {
		if err := c.dispatcher.EnqueueDeleteAsset(ctx, *w.previous); err != nil {
			logger.Warnf(ctx, "⚠️  could not schedule deletion of %s/%s: %v", w.previous.Provider, w.previous.ProviderID, err)
		}
	}
	c.publish(ctx, in, w)

	return &port.CommitOutput{Entity: w.entity, Previous: w.previous}, nil
}

func (c *Committer) replace(ctx context.Context, in port.CommitInput) (*written, error) {
	p := in.Profile
	ref := in.Assets[0]

	for attempt := 1; ; attempt++ {
		doc, err := c.docs.Get(ctx, p.Collection, in.OwnerID)
		if err != nil {
			return nil, storeErr(err)
		}

		w := &written{oldURL: doc.String(p.OwnerPath)}
		if prev, ok := doc.AssetAt(p.AssetPath); ok && prev.ProviderID != ref.ProviderID {
			w.previous = prev
		}

		next := doc.Clone()
		next.Set(p.OwnerPath, ref.CanonicalURL)
		for name, path := range p.VariantPaths {
			next.Set(path, ref.VariantURL(name))
		}
		next.Set(p.AssetPath, ref)
		next.Set("updatedAt", c.now().UTC().Format(time.RFC3339))

		err = c.docs.Replace(ctx, next)
		switch {
		case err == nil:
			w.entity = next
			return w, nil
		case errors.Is(err, port.ErrVersionConflict) && attempt < c.maxAttempts:
			logger.Debugf(ctx, "%s #%s changed underneath us, retrying (%d/%d)", p.Collection, in.OwnerID, attempt, c.maxAttempts)
		case errors.Is(err, port.ErrVersionConflict):
			return nil, fmt.Errorf("%w: %s #%s", ErrConcurrentModification, p.Collection, in.OwnerID)
		default:
			return nil, storeErr(err)
		}
	}
}

func (c *Committer) create(ctx context.Context, in port.CommitInput) (*written, error) {
	p := in.Profile

	if p.ParentField != "" {
		if _, err := c.docs.Get(ctx, p.ParentCollection, in.OwnerID); err != nil {
			return nil, storeErr(err)
		}
	}

	doc := model.NewDocument(p.Collection, c.newID().String())
	doc.Set(p.AuthorField, in.ActorID)
	if p.ParentField != "" {
		doc.Set(p.ParentField, in.OwnerID)
	}

	if p.IsArray() {
		urls := make([]string, 0, len(in.Assets))
		for _, a := range in.Assets {
			urls = append(urls, a.CanonicalURL)
		}
		doc.Set(p.OwnerPath, urls)
		doc.Set(p.AssetPath, in.Assets)
	} else {
		ref := in.Assets[0]
		doc.Set(p.OwnerPath, ref.CanonicalURL)
		for name, path := range p.VariantPaths {
			doc.Set(path, ref.VariantURL(name))
		}
		doc.Set(p.AssetPath, ref)
	}

	for name := range p.FormFields {
		if v, ok := in.Fields[name]; ok {
			doc.Set(name, v)
		}
	}
	ts := c.now().UTC().Format(time.RFC3339)
	doc.Set("createdAt", ts)
	doc.Set("updatedAt", ts)

	if err := c.docs.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &written{entity: doc}, nil
}

// recordActivity writes exactly one activity per commit. Failures are logged only.
func (c *Committer) recordActivity(ctx context.Context, in port.CommitInput, w *written) {
	p := in.Profile
	msg := p.ActivityMessage
	if msg == "" {
		msg = p.ActivityType
	}

	meta := model.ActivityMetadata{
		Action:   p.ActivityType,
		OldAsset: w.oldURL,
		NewAsset: in.Assets[0].CanonicalURL,
	}
	if len(in.Assets) > 1 {
		meta.Count = len(in.Assets)
	}

	a := &model.Activity{
		ID:            c.newID(),
		UserID:        in.ActorID,
		Type:          p.ActivityType,
		Message:       msg,
		ReferenceID:   w.entity.ID,
		ReferenceType: p.Collection,
		Metadata:      meta,
		CreatedAt:     c.now(),
	}
	if err := c.activities.Create(ctx, a); err != nil {
		logger.Warnf(ctx, "⚠️  could not record %q activity for %s #%s: %v", p.ActivityType, p.Collection, w.entity.ID, err)
	}
}

func (c *Committer) publish(ctx context.Context, in port.CommitInput, w *written) {
	p := in.Profile
	ev := model.AssetEvent{
		Type:       eventAssetCommitted,
		Profile:    p.Name,
		Collection: p.Collection,
		EntityID:   w.entity.ID,
		ActorID:    in.ActorID,
		Assets:     in.Assets,
	}
	if p.ParentField != "" {
		ev.ParentCollection = p.ParentCollection
		ev.ParentID = in.OwnerID
	}
	if err := c.events.PublishAssetCommitted(ctx, ev); err != nil {
		logger.Warnf(ctx, "⚠️  could not publish %s for %s #%s: %v", ev.Type, p.Collection, w.entity.ID, err)
	}
}

func storeErr(err error) error {
	if errors.Is(err, port.ErrNotFound) {
		return ErrOwnerNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
