package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
)

func validProps() Props {
	return Props{
		ExternalID:    "urn:asset:weather",
		ParticipantID: "participant-1",
		AssetType:     TypeDataset,
		Title:         "Weather observations",
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New(validProps())

	assert.Equal(t, DefaultVersion, a.Version)
	assert.Equal(t, StatusDraft, a.Status)
	assert.Equal(t, "", a.DescriptionOrEmpty())
	assert.NoError(t, Validate(a))
}

func TestValidate_CollectsViolations(t *testing.T) {
	a := New(Props{AssetType: "MODEL", Version: "v1"})

	err := Validate(a)

	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidationFailed, appErr.Kind)
	paths := make([]string, 0, len(appErr.Violations))
	for _, v := range appErr.Violations {
		paths = append(paths, v.Path)
	}
	assert.ElementsMatch(t, []string{"/externalId", "/participantId", "/title", "/assetType", "/version"}, paths)
}

func TestValidate_Semver(t *testing.T) {
	cases := map[string]bool{
		"1.0.0":         true,
		"0.12.3-beta.1": true,
		"2.0.0+build.7": true,
		"1.0":           false,
		"01.0.0":        false,
		"latest":        false,
	}
	for version, ok := range cases {
		p := validProps()
		p.Version = version
		err := Validate(New(p))
		if ok {
			assert.NoError(t, err, version)
		} else {
			assert.Error(t, err, version)
		}
	}
}

func TestClone_CopiesDescription(t *testing.T) {
	desc := "hourly"
	p := validProps()
	p.Description = &desc
	a := New(p)

	c := a.Clone()
	*c.Description = "daily"

	assert.Equal(t, "hourly", a.DescriptionOrEmpty())
}
