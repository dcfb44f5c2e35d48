package schema

import (
	"fmt"
	"strings"
	"time"
)

// ProjectsCollection is the top-level registry of project namespaces.
const ProjectsCollection = "projects"

// RawTranscriptsCollection carries the optional retention index.
const RawTranscriptsCollection = "raw_transcripts"

// DefaultRawTranscriptsTTL is the retention applied when the TTL index is enabled (90 days).
const DefaultRawTranscriptsTTL = 7776000 * time.Second

const maxProjectNameLen = 64

// IndexSpec declares an ascending single-field index.
type IndexSpec struct {
	Field       string        `json:"field"`
	Unique      bool          `json:"unique,omitempty"`
	ExpireAfter time.Duration `json:"expireAfter,omitempty"`
}

// Name returns the index name the server assigns by default ("<field>_1").
func (s IndexSpec) Name() string { return s.Field + "_1" }

// Equivalent reports whether two specs describe the same index definition.
func (s IndexSpec) Equivalent(o IndexSpec) bool {
	return s.Field == o.Field && s.Unique == o.Unique && s.ExpireAfter == o.ExpireAfter
}

// CollectionSpec is a collection together with the indexes it must carry.
type CollectionSpec struct {
	Name    string      `json:"name"`
	Stage   string      `json:"stage"`
	Indexes []IndexSpec `json:"indexes"`
}

// Stage is one of the processing stages a project namespace is split into.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageCleaned   Stage = "cleaned"
	StageProcessed Stage = "processed"
)

// StageBase labels top-level collections that belong to no project.
const StageBase = "base"

// Stages returns the stages in provisioning order.
func Stages() []Stage {
	return []Stage{StageRaw, StageCleaned, StageProcessed}
}

// Indexes returns the common timestamp indexes followed by the stage-specific ones.
func (s Stage) Indexes() []IndexSpec {
	idx := []IndexSpec{{Field: "created_at"}, {Field: "updated_at"}}
	switch s {
	case StageRaw:
		idx = append(idx, IndexSpec{Field: "source_id", Unique: true}, IndexSpec{Field: "cleaned"})
	case StageCleaned:
		idx = append(idx, IndexSpec{Field: "raw_id"}, IndexSpec{Field: "processed"})
	case StageProcessed:
		idx = append(idx, IndexSpec{Field: "cleaned_id"})
	}
	return idx
}

// CollectionName returns "{project}_{stage}".
func CollectionName(project string, stage Stage) string {
	return project + "_" + string(stage)
}

// Options tunes the base schema.
type Options struct {
	// RawTranscriptsTTL enables the retention index on raw_transcripts when > 0.
	RawTranscriptsTTL time.Duration
}

// BaseCollections returns the top-level collections created by InitializeBaseSchema.
func BaseCollections(opts Options) []CollectionSpec {
	specs := []CollectionSpec{{
		Name:  ProjectsCollection,
		Stage: StageBase,
		Indexes: []IndexSpec{
			{Field: "name", Unique: true},
			{Field: "created_at"},
		},
	}}
	if opts.RawTranscriptsTTL > 0 {
		specs = append(specs, CollectionSpec{
			Name:    RawTranscriptsCollection,
			Stage:   StageBase,
			Indexes: []IndexSpec{{Field: "created_at", ExpireAfter: opts.RawTranscriptsTTL}},
		})
	}
	return specs
}

// ProjectCollections returns the raw/cleaned/processed triple for project.
func ProjectCollections(project string) ([]CollectionSpec, error) {
	if err := ValidateProjectName(project); err != nil {
		return nil, err
	}
	specs := make([]CollectionSpec, 0, len(Stages()))
	for _, st := range Stages() {
		specs = append(specs, CollectionSpec{
			Name:    CollectionName(project, st),
			Stage:   string(st),
			Indexes: st.Indexes(),
		})
	}
	return specs, nil
}

// Plan lists every collection the base schema and the given projects declare,
// without touching a database.
func Plan(projects []string, opts Options) ([]CollectionSpec, error) {
	out := BaseCollections(opts)
	for _, p := range projects {
		specs, err := ProjectCollections(p)
		if err != nil {
			return nil, err
		}
		out = append(out, specs...)
	}
	return out, nil
}

// ValidateProjectName rejects names that would produce malformed or reserved
// collection names.
func ValidateProjectName(name string) error {
	if name == "" || strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidProjectName)
	}
	if len(name) > maxProjectNameLen {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidProjectName, name, maxProjectNameLen)
	}
	if strings.HasPrefix(name, "system.") {
		return fmt.Errorf("%w: %q uses the reserved system. prefix", ErrInvalidProjectName, name)
	}
	for i, r := range name {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if i == 0 && !alnum {
			return fmt.Errorf("%w: %q must start with a letter or digit", ErrInvalidProjectName, name)
		}
		if !alnum && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidProjectName, name, r)
		}
	}
	return nil
}
