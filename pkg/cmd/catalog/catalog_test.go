package catalog

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podracer/pkg/config"
	"podracer/pkg/testsupport/fakebackend"
)

func TestListCatalog(t *testing.T) {
	fb := fakebackend.New(t)
	config.BackendURL = fb.URL()
	config.HTTPTimeout = time.Second
	config.TrackNames = []string{"Circuit"}
	config.RacerNames = nil

	var out bytes.Buffer
	require.NoError(t, listCatalog(context.Background(), &out))
	assert.Contains(t, out.String(), "Circuit")
	assert.Contains(t, out.String(), "Track 2")
	assert.Contains(t, out.String(), "Racer 2")
	assert.Equal(t, 1, fb.Calls(fakebackend.Tracks))
}

func TestListCatalogBackendDown(t *testing.T) {
	fb := fakebackend.New(t)
	fb.FailNext(fakebackend.Cars, 500)
	config.BackendURL = fb.URL()
	config.RetryMax = 0

	err := listCatalog(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load tracks and racers")
}
