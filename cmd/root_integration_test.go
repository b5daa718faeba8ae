//go:build integration

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcqdrant "github.com/testcontainers/testcontainers-go/modules/qdrant"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestCommandsAgainstQdrant(t *testing.T) {
	ctx := context.Background()

	container, err := tcqdrant.Run(ctx,
		"qdrant/qdrant:v1.12.0",
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/readyz").
				WithPort("6333/tcp").
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.GRPCEndpoint(ctx)
	require.NoError(t, err)
	useStore(t, "http://"+endpoint)

	const collection = "sign_vectors_cmd"

	dir := t.TempDir()
	labels := []string{"A", "B", "A", "C", "A"}
	for i, label := range labels {
		path := filepath.Join(dir, fmt.Sprintf("%02d.json", i))
		body := fmt.Sprintf(`{"vector": [%d, 1, 0], "label": %q}`, i+1, label)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	// The first clear finds nothing to delete.
	out, err := execute(t, "clear", collection)
	require.NoError(t, err)
	assert.Contains(t, out, "did not exist")

	out, err = execute(t, dir, collection)
	require.NoError(t, err)
	assert.NotContains(t, out, "Deleted existing collection")
	assert.Contains(t, out, "Successfully uploaded 5 vectors")

	// A page size below the point count makes the label tally span pages.
	out, err = execute(t, "verify", "--labels", "--page-size", "2", collection)
	require.NoError(t, err)
	assert.Contains(t, out, "Dimension: 3D")
	assert.Contains(t, out, "Cosine")
	assert.Regexp(t, `A\s+3\n`, out)
	assert.Regexp(t, `B\s+1\n`, out)
	assert.Regexp(t, `C\s+1\n`, out)
	assert.Contains(t, out, "Total points in collection: 5")

	out, err = execute(t, dir, collection)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted existing collection: "+collection)

	out, err = execute(t, "clear", collection)
	require.NoError(t, err)
	assert.Contains(t, out, "Collection deleted")

	_, err = execute(t, "verify", collection)
	require.ErrorContains(t, err, "does not exist")
}
