package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProjectName(t *testing.T) {
	valid := []string{"acme", "Acme2", "a", "data-harvester", "yt_2024.q1", strings.Repeat("x", 64)}
	for _, name := range valid {
		assert.NoError(t, ValidateProjectName(name), name)
	}

	invalid := []string{"", "   ", "_acme", "-acme", "ac me", "ac$me", "a\x00b", "system.users", "acme/raw", strings.Repeat("x", 65)}
	for _, name := range invalid {
		err := ValidateProjectName(name)
		require.Error(t, err, "%q", name)
		assert.True(t, errors.Is(err, ErrInvalidProjectName), "%q: %v", name, err)
	}
}

func TestStageIndexTable(t *testing.T) {
	fields := func(specs []IndexSpec) []string {
		out := make([]string, 0, len(specs))
		for _, s := range specs {
			out = append(out, s.Field)
		}
		return out
	}

	assert.Equal(t, []string{"created_at", "updated_at", "source_id", "cleaned"}, fields(StageRaw.Indexes()))
	assert.Equal(t, []string{"created_at", "updated_at", "raw_id", "processed"}, fields(StageCleaned.Indexes()))
	assert.Equal(t, []string{"created_at", "updated_at", "cleaned_id"}, fields(StageProcessed.Indexes()))

	for _, st := range Stages() {
		for _, s := range st.Indexes() {
			assert.Equal(t, s.Field == "source_id", s.Unique, "%s.%s uniqueness", st, s.Field)
		}
	}
}

func TestProjectCollectionsNames(t *testing.T) {
	specs, err := ProjectCollections("acme")
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "acme_raw", specs[0].Name)
	assert.Equal(t, "acme_cleaned", specs[1].Name)
	assert.Equal(t, "acme_processed", specs[2].Name)

	_, err = ProjectCollections("")
	assert.ErrorIs(t, err, ErrInvalidProjectName)
}

func TestBaseCollectionsTTLIsOptIn(t *testing.T) {
	specs := BaseCollections(Options{})
	require.Len(t, specs, 1)
	assert.Equal(t, ProjectsCollection, specs[0].Name)
	assert.Equal(t, []IndexSpec{{Field: "name", Unique: true}, {Field: "created_at"}}, specs[0].Indexes)

	specs = BaseCollections(Options{RawTranscriptsTTL: DefaultRawTranscriptsTTL})
	require.Len(t, specs, 2)
	assert.Equal(t, RawTranscriptsCollection, specs[1].Name)
	assert.Equal(t, DefaultRawTranscriptsTTL, specs[1].Indexes[0].ExpireAfter)
	assert.Equal(t, float64(7776000), DefaultRawTranscriptsTTL.Seconds())
}

func TestPlan(t *testing.T) {
	specs, err := Plan([]string{"acme", "globex"}, Options{})
	require.NoError(t, err)
	require.Len(t, specs, 7)
	assert.Equal(t, "projects", specs[0].Name)
	assert.Equal(t, "globex_processed", specs[6].Name)

	_, err = Plan([]string{"acme", "bad name"}, Options{})
	assert.ErrorIs(t, err, ErrInvalidProjectName)
}

func TestIndexSpecName(t *testing.T) {
	assert.Equal(t, "source_id_1", IndexSpec{Field: "source_id", Unique: true}.Name())
}
