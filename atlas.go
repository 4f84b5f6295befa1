package tarfn

import (
	"time"

	"github.com/polydawn/refmt/obj/atlas"
)

var Atlas = atlas.MustBuild(
	atlas.BuildEntry(Event{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Log{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Result{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ManifestEntry{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ErrorInfo{}).StructMap().Autogenerate().Complete(),
	timeAtlasEntry,
)

// Times serialize as RFC3339 strings, in UTC.
var timeAtlasEntry = atlas.BuildEntry(time.Time{}).Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(
		func(x time.Time) (string, error) {
			return x.UTC().Format(time.RFC3339Nano), nil
		})).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(
		func(x string) (time.Time, error) {
			return time.Parse(time.RFC3339Nano, x)
		})).
	Complete()
