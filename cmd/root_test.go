package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterlab/boundary-cli/internal/config"
	"github.com/waterlab/boundary-cli/internal/model"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"load", "match", "rank", "resolve", "combine", "report", "pipeline", "migrate", "status"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestInitStoreSQLite(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
}

func TestInitStoreUnknownDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "oracle"}}
	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestRunMatchAgainstSeededStore(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
		},
		Match: config.MatchConfig{ProximityBufferMeters: 1000},
	}
	ctx := context.Background()

	st, err := initStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	require.NoError(t, st.ReplaceContributors(ctx, model.SourceSDWIS, []model.Contributor{
		{
			ContributorID:  "sdwis.TX0010001",
			SourceSystem:   model.SourceSDWIS,
			SourceSystemID: "TX0010001",
			MasterKey:      "TX0010001",
			PWSID:          "TX0010001",
			Name:           "AUSTIN MUNICIPAL WATER",
			State:          "TX",
		},
	}))
	require.NoError(t, st.ReplaceContributors(ctx, model.SourceTIGER, []model.Contributor{
		{
			ContributorID:  "tiger.4805000",
			SourceSystem:   model.SourceTIGER,
			SourceSystemID: "4805000",
			MasterKey:      model.UnknownMasterKey("tiger.4805000"),
			Name:           "AUSTIN",
			State:          "TX",
		},
	}))

	n, err := runMatch(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pairs, err := st.Matches(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "TX0010001", pairs[0].MasterKey)
	assert.Equal(t, "tiger.4805000", pairs[0].CandidateID)
}
