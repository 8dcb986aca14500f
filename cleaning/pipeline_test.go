package cleaning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func scenario() *FeatureCollection {
	return &FeatureCollection{
		Name: "parcels",
		CRS:  "urn:ogc:def:crs:EPSG::28992",
		Features: []Feature{
			feature(0, 1, square(0, 0, 1)),
			feature(1, 2, square(0, 0, 1)),
			feature(2, 3, square(0.001, 0.001, 1)),
			feature(3, 4, multiSquare(0, 0)),
		},
	}
}

func TestPipelineScenario(t *testing.T) {
	input := scenario()

	out, logs := New(DefaultOptions()).Run(input)

	assert.Equal(t, []string{"1", "4"}, fids(out.Features))
	assert.Equal(t, []string{
		"Removing polygon fid `2` - duplicate of polygon fid `1`",
		"Removing polygon fid `3` - nearly identical to polygon fid `1` with tolerance 0.007",
	}, messages(logs))
	assert.Equal(t, "parcels", out.Name)
	assert.Equal(t, "urn:ogc:def:crs:EPSG::28992", out.CRS)

	// The input is left untouched.
	assert.Len(t, input.Features, 4)
}

func TestPipelineStats(t *testing.T) {
	fc := scenario()
	fc.Features = append(fc.Features, feature(4, 5, bowtie()))

	result := New(DefaultOptions()).Clean(fc)

	assert.Equal(t, Stats{
		Input:        5,
		Output:       3,
		Invalid:      1,
		Repaired:     1,
		ExactRemoved: 1,
		NearRemoved:  1,
	}, result.Stats)
	require.Len(t, result.Logs, 4)
	assert.Equal(t, StageValidate, result.Logs[0].Stage)
	assert.Equal(t, StageValidate, result.Logs[1].Stage)
	assert.Equal(t, StageDedupExact, result.Logs[2].Stage)
	assert.Equal(t, StageDedupNear, result.Logs[3].Stage)
}

func TestPipelineRepairsBeforeDeduplicating(t *testing.T) {
	// Two identical bowties are repaired to identical multipolygons, then
	// one is removed as an exact duplicate.
	fc := &FeatureCollection{Features: []Feature{feature(0, 1, bowtie()), feature(1, 2, bowtie())}}

	out, logs := New(DefaultOptions()).Run(fc)

	require.Len(t, out.Features, 1)
	_, isMulti := out.Features[0].Geometry.(*geom.MultiPolygon)
	assert.True(t, isMulti)
	require.Len(t, logs, 5)
	assert.Equal(t, "Removing polygon fid `2` - duplicate of polygon fid `1`", logs[4].Message)
}

func TestPipelineIsIdempotent(t *testing.T) {
	fc := scenario()
	fc.Features = append(fc.Features, feature(4, 5, bowtie()))
	pipeline := New(DefaultOptions())

	first, firstLogs := pipeline.Run(fc)
	again, againLogs := pipeline.Run(fc)
	assert.Equal(t, first, again)
	assert.Equal(t, firstLogs, againLogs)

	second, secondLogs := pipeline.Run(first)
	assert.Empty(t, secondLogs)
	assert.Equal(t, first, second)
}

func TestPipelineConcurrentRuns(t *testing.T) {
	input := func() *FeatureCollection {
		fc := scenario()
		fc.Features = append(fc.Features, feature(4, 5, bowtie()))
		return fc
	}
	want, wantLogs := New(DefaultOptions()).Run(input())

	shared := New(DefaultOptions())
	sharedInput := input()

	const runs = 16
	outs := make([]*FeatureCollection, runs)
	logs := make([][]LogEntry, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				outs[i], logs[i] = shared.Run(sharedInput)
				return
			}
			outs[i], logs[i] = New(DefaultOptions()).Run(input())
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		assert.Equal(t, want, outs[i], "run %d", i)
		assert.Equal(t, wantLogs, logs[i], "run %d", i)
	}
	assert.Len(t, sharedInput.Features, 5)
}

func TestPipelineEmptyCollection(t *testing.T) {
	out, logs := New(DefaultOptions()).Run(&FeatureCollection{Name: "empty", CRS: "EPSG:4326"})

	assert.Empty(t, out.Features)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
	assert.Equal(t, "empty", out.Name)
}

func TestCheckGeometry(t *testing.T) {
	fc := &FeatureCollection{Features: []Feature{
		feature(0, 1, square(0, 0, 1)),
		feature(1, 2, bowtie()),
		{Index: 2},
	}}

	reports := CheckGeometry(fc)

	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Ref)
	assert.Equal(t, "2", reports[0].FID)
	assert.Contains(t, reports[0].ErrorMessage, "Self-intersection")
	// Checking does not repair.
	assert.IsType(t, &geom.Polygon{}, fc.Features[1].Geometry)
}

func TestFeatureCollectionClone(t *testing.T) {
	fc := scenario()
	clone := fc.Clone()

	clone.Features[0].Properties["fid"] = "changed"
	clone.Features = clone.Features[:1]

	assert.Len(t, fc.Features, 4)
	assert.Equal(t, "1", fc.Features[0].FID())
}
