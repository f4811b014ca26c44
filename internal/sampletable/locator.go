// Package sampletable recovers the absolute file offset and byte length
// of every sample in a track from its stsc/stco/stsz atoms (spec §3, §4.F).
package sampletable

import (
	"fmt"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
)

// Sample is one (sample_id, absolute_offset, size) triple. SampleID is
// 0-based here (the spec's "sample_id" is conceptually 1-based in prose
// but every formula in §3/§4.F is defined relative to "earlier samples in
// the same chunk", which a 0-based index expresses just as well and is
// the more idiomatic Go slice index).
type Sample struct {
	ID     int
	Offset int64
	Size   int64
}

// Locate computes the full sample list for a track subtree (spec §4.F).
// It builds the sample_id -> (chunk_id, is_first_in_chunk) map by
// expanding stsc's runs with independent counters for the chunk and
// sample indices, rather than reusing one loop variable across both
// loops — spec §9's design note calls out the teacher's reference
// expansion as prone to a double-increment on chunk boundaries, and
// instructs implementations to "rely purely on summing allocated sample
// counts to stay well-defined".
func Locate(trak *qtatom.Atom) ([]Sample, error) {
	stblAtom := qtatom.FindOne(trak, "stbl")
	if stblAtom == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "stbl", -1, "track missing stbl")
	}
	stcoAtom := qtatom.FindOne(stblAtom, "stco")
	stszAtom := qtatom.FindOne(stblAtom, "stsz")
	stscAtom := qtatom.FindOne(stblAtom, "stsc")
	if stcoAtom == nil || stszAtom == nil || stscAtom == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "stbl", -1, "missing stco, stsz or stsc")
	}

	stco, ok := stcoAtom.Leaf.(*qtatom.Stco)
	if !ok {
		return nil, qerr.New(qerr.KindMalformedAtom, "stco", -1, "leaf decode missing")
	}
	stsz, ok := stszAtom.Leaf.(*qtatom.Stsz)
	if !ok {
		return nil, qerr.New(qerr.KindMalformedAtom, "stsz", -1, "leaf decode missing")
	}
	stsc, ok := stscAtom.Leaf.(*qtatom.Stsc)
	if !ok {
		return nil, qerr.New(qerr.KindMalformedAtom, "stsc", -1, "leaf decode missing")
	}

	numSamples, sizeOf := sampleCounter(stsz)

	chunkOfSample, firstInChunk, err := expandSampleToChunk(stsc, len(stco.ChunkOffsets), numSamples)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, numSamples)
	running := int64(0)
	for id := 0; id < numSamples; id++ {
		if firstInChunk[id] {
			running = 0
		}
		chunkID := chunkOfSample[id] // 1-based
		if chunkID < 1 || chunkID > len(stco.ChunkOffsets) {
			return nil, qerr.New(qerr.KindMalformedAtom, "stsc", -1, "sample references a chunk id out of range")
		}
		size := int64(sizeOf(id))
		offset := int64(stco.ChunkOffsets[chunkID-1]) + running
		samples[id] = Sample{ID: id, Offset: offset, Size: size}
		running += size
	}

	return samples, nil
}

// sampleCounter returns the authoritative total sample count and a
// size-by-index accessor, honoring stsz's "fixed size for every sample"
// shortcut (spec §4.F step 2). Either branch yields stsz's own
// number_of_entries field as the count — the fixed-size case still
// declares it, it just omits the per-sample size table.
func sampleCounter(stsz *qtatom.Stsz) (int, func(i int) uint32) {
	if stsz.SampleSize != 0 {
		return int(stsz.Count), func(int) uint32 { return stsz.SampleSize }
	}
	return len(stsz.SampleSizes), func(i int) uint32 { return stsz.SampleSizes[i] }
}

// expandSampleToChunk builds sample_id -> (chunk_id, is_first_in_chunk)
// by expanding stsc's runs (spec §4.F step 3). first_chunk_i applies up
// to but not including first_chunk_{i+1}, or "end of chunks" for the
// last entry. The result is cross-validated against stsz's authoritative
// numSamples rather than trusting the stsc-derived total on its own.
func expandSampleToChunk(stsc *qtatom.Stsc, numChunks int, numSamples int) ([]int, []bool, error) {
	if len(stsc.Entries) == 0 {
		return nil, nil, qerr.New(qerr.KindMalformedAtom, "stsc", -1, "empty sample-to-chunk table")
	}

	chunkOfSample := make([]int, 0, numSamples)
	firstInChunk := make([]bool, 0, numSamples)

	for i, entry := range stsc.Entries {
		firstChunk := int(entry.FirstChunk)
		var nextFirstChunk int
		if i+1 < len(stsc.Entries) {
			nextFirstChunk = int(stsc.Entries[i+1].FirstChunk)
		} else {
			nextFirstChunk = numChunks + 1
		}
		for chunkID := firstChunk; chunkID < nextFirstChunk; chunkID++ {
			for j := uint32(0); j < entry.SamplesPerChunk; j++ {
				chunkOfSample = append(chunkOfSample, chunkID)
				firstInChunk = append(firstInChunk, j == 0)
			}
		}
	}

	if len(chunkOfSample) != numSamples {
		return nil, nil, qerr.New(qerr.KindMalformedAtom, "stsc", -1, fmt.Sprintf("sample-to-chunk table covers %d samples, stsz declares %d", len(chunkOfSample), numSamples))
	}
	return chunkOfSample, firstInChunk, nil
}
