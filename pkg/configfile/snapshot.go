package configfile

import (
	"context"
	"fmt"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/activity"
	"github.com/goliatone/go-morphon/pkg/state"
)

// SaveSnapshot stores the encoded document under ref. meta.ETag, when set,
// must match the stored one for stores that check it.
func (f *File) SaveSnapshot(ctx context.Context, store state.Store[[]byte], ref state.Ref, meta state.Meta) (state.Meta, error) {
	if store == nil {
		return state.Meta{}, fmt.Errorf("configfile: snapshot store is nil")
	}
	data, err := f.Encode()
	if err != nil {
		return state.Meta{}, err
	}
	saved, err := store.Save(ctx, ref, data, meta)
	if err != nil {
		return state.Meta{}, &morphon.Error{Op: "save", Key: ref.Domain + "/" + ref.Name, Err: err}
	}
	f.emitSnapshot(activity.VerbSaved, ref, saved)
	return saved, nil
}

// LoadSnapshot replaces the document with the snapshot stored under ref.
// It reports false, leaving the document untouched, when nothing is stored.
func (f *File) LoadSnapshot(ctx context.Context, store state.Store[[]byte], ref state.Ref) (state.Meta, bool, error) {
	if store == nil {
		return state.Meta{}, false, fmt.Errorf("configfile: snapshot store is nil")
	}
	data, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		return state.Meta{}, false, err
	}
	if err := f.Decode(data); err != nil {
		return state.Meta{}, false, err
	}
	f.emitSnapshot(activity.VerbLoaded, ref, meta)
	return meta, true, nil
}

// Mutate loads the snapshot under ref into a scratch document, applies fn to
// it and saves the result, all through state.Mutate. The File takes the
// mutated content only when the save succeeds.
func (f *File) Mutate(ctx context.Context, store state.Store[[]byte], ref state.Ref, meta state.Meta, fn func(*File) error) (state.Meta, error) {
	if fn == nil {
		return state.Meta{}, fmt.Errorf("configfile: mutator is nil")
	}
	scratch := &File{cfg: f.cfg, sections: morphon.NewMap(), name: f.name}
	scratch.cfg.emitter = nil

	_, saved, err := state.Mutate(ctx, store, ref, meta, func(payload *[]byte) error {
		if len(*payload) > 0 {
			if err := scratch.Decode(*payload); err != nil {
				return err
			}
		}
		if err := fn(scratch); err != nil {
			return err
		}
		data, err := scratch.Encode()
		if err != nil {
			return err
		}
		*payload = data
		return nil
	})
	if err != nil {
		return state.Meta{}, err
	}
	f.sections = scratch.sections
	f.emitSnapshot(activity.VerbSaved, ref, saved)
	return saved, nil
}

func (f *File) emitSnapshot(verb string, ref state.Ref, meta state.Meta) {
	emitter := f.cfg.emitter
	if !emitter.Enabled() {
		return
	}
	event := activity.BuildConfigEvent(verb, activity.ConfigEventInput{
		ActorID:  f.cfg.actorID,
		Document: ref.Domain + "/" + ref.Name,
		Metadata: map[string]any{
			"snapshot_id": meta.SnapshotID,
			"etag":        meta.ETag,
		},
	})
	if err := emitter.Emit(context.Background(), event); err != nil {
		f.cfg.logger.LogDiagnostic(morphon.Diagnostic{Op: "activity", Path: event.ObjectID, Index: -1, Err: err})
	}
}
