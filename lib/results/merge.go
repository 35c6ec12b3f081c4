package results

import (
	"fmt"
	"path/filepath"

	"github.com/ValentinKolb/kvperf/lib/model"
)

// Merge combines several collections.
//
// Without intersect the result is the concatenation of all sources in
// order; duplicates are kept. With intersect only inputs present in every
// source survive, represented by their first occurrence in the first source
// and ordered as in the first source.
func Merge(sources []*TestResults, intersect bool) *TestResults {
	merged := New()
	if len(sources) == 0 {
		return merged
	}

	if !intersect {
		for _, src := range sources {
			merged.results = append(merged.results, src.results...)
		}
		return merged
	}

	others := make([]map[model.TestInputs]struct{}, 0, len(sources)-1)
	for _, src := range sources[1:] {
		others = append(others, src.Keys())
	}

	emitted := make(map[model.TestInputs]struct{})
	for _, res := range sources[0].results {
		if _, done := emitted[res.Inputs]; done {
			continue
		}
		inAll := true
		for _, keys := range others {
			if _, ok := keys[res.Inputs]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			emitted[res.Inputs] = struct{}{}
			merged.Add(res)
		}
	}
	return merged
}

// ExpandFilespecs resolves glob patterns to file names. Every filespec must
// match at least one file; matches of one pattern are sorted.
func ExpandFilespecs(filespecs []string) ([]string, error) {
	var files []string
	for _, spec := range filespecs {
		matches, err := filepath.Glob(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid filespec %q: %w", spec, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("filespec %q matched no files", spec)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// MergeFiles reads every file matched by filespecs and merges them, one
// source per file.
func MergeFiles(filespecs []string, intersect bool) (*TestResults, error) {
	files, err := ExpandFilespecs(filespecs)
	if err != nil {
		return nil, err
	}

	sources := make([]*TestResults, 0, len(files))
	for _, file := range files {
		src, err := ReadFile(file, nil)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	merged := Merge(sources, intersect)
	Logger.Infof("merged %d files into %d results (intersect=%v)", len(files), merged.Len(), intersect)
	return merged, nil
}
