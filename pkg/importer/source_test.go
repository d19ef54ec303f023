package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
)

func TestParseSource_FullRow(t *testing.T) {
	csvData := `pl_name,hostname,sy_dist,pl_masse,pl_rade,pl_orbper,pl_eqt,density,discoverymethod,disc_year
Kepler-10b,Kepler-10,56.9,3.3,1.47,0.84,2169,1.04,Transit,2011
`
	src, err := ParseSource(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, src.Rows, 1)
	assert.Zero(t, src.SkippedRows)

	row := src.Rows[0]
	assert.Equal(t, "Kepler-10b", row.PlName)
	assert.Equal(t, "Kepler-10", row.Hostname)
	require.NotNil(t, row.SyDist)
	assert.InDelta(t, 56.9, *row.SyDist, 1e-9)
	require.NotNil(t, row.PlMasse)
	assert.InDelta(t, 3.3, *row.PlMasse, 1e-9)
	require.NotNil(t, row.Density)
	assert.InDelta(t, 1.04, *row.Density, 1e-9)
	require.NotNil(t, row.DiscoveryMethod)
	assert.Equal(t, "Transit", *row.DiscoveryMethod)
	require.NotNil(t, row.DiscYear)
	assert.Equal(t, int32(2011), *row.DiscYear)
}

func TestParseSource_EmptyCellsBecomeNil(t *testing.T) {
	csvData := `pl_name,hostname,sy_dist,pl_masse,pl_rade,discoverymethod,disc_year
GJ 1214b,GJ 1214,,,,,
`
	src, err := ParseSource(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, src.Rows, 1)

	row := src.Rows[0]
	assert.Nil(t, row.SyDist)
	assert.Nil(t, row.PlMasse)
	assert.Nil(t, row.PlRade)
	assert.Nil(t, row.DiscoveryMethod)
	assert.Nil(t, row.DiscYear)
}

func TestParseSource_DerivesDensityWhenColumnAbsent(t *testing.T) {
	csvData := `pl_name,hostname,pl_masse,pl_rade
Kepler-10b,Kepler-10,3.3,1.47
Kepler-10c,Kepler-10,7.4,
`
	src, err := ParseSource(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, src.Rows, 2)

	// mass / radius^3
	require.NotNil(t, src.Rows[0].Density)
	assert.InDelta(t, 3.3/(1.47*1.47*1.47), *src.Rows[0].Density, 1e-9)

	// no radius, no derived density
	assert.Nil(t, src.Rows[1].Density)
}

func TestParseSource_FloatYears(t *testing.T) {
	csvData := `pl_name,hostname,disc_year
Kepler-10b,Kepler-10,2011.0
`
	src, err := ParseSource(strings.NewReader(csvData))
	require.NoError(t, err)
	require.NotNil(t, src.Rows[0].DiscYear)
	assert.Equal(t, int32(2011), *src.Rows[0].DiscYear)
}

func TestParseSource_StageFlags(t *testing.T) {
	csvData := `pl_name,hostname,in_stage1,in_stage1c,in_stage2,in_stage2c
Kepler-10b,Kepler-10,True,false,1,
`
	src, err := ParseSource(strings.NewReader(csvData))
	require.NoError(t, err)

	row := src.Rows[0]
	assert.True(t, row.InStage1)
	assert.False(t, row.InStage1c)
	assert.True(t, row.InStage2)
	assert.False(t, row.InStage2c)
}

func TestParseSource_SkipsRowsMissingKeys(t *testing.T) {
	csvData := `pl_name,hostname,pl_masse
Kepler-10b,Kepler-10,3.3
,Kepler-10,1.0
Kepler-11b,,2.0
`
	src, err := ParseSource(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Len(t, src.Rows, 1)
	assert.Equal(t, 2, src.SkippedRows)
	assert.Len(t, src.Skipped, 2)
}

func TestParseSource_MissingRequiredColumn(t *testing.T) {
	csvData := `pl_name,pl_masse
Kepler-10b,3.3
`
	_, err := ParseSource(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hostname")
}

func TestParseSource_EmptyDataset(t *testing.T) {
	_, err := ParseSource(strings.NewReader(""))
	assert.ErrorIs(t, err, apperrors.ErrEmptySource)

	_, err = ParseSource(strings.NewReader("pl_name,hostname\n"))
	assert.ErrorIs(t, err, apperrors.ErrEmptySource)
}

func TestParseSource_BadNumericCell(t *testing.T) {
	csvData := `pl_name,hostname,pl_masse
Kepler-10b,Kepler-10,heavy
`
	_, err := ParseSource(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pl_masse")
}
