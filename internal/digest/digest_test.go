package digest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/digest"
)

func TestParse(t *testing.T) {
	alg, err := digest.Parse("")
	require.NoError(t, err)
	assert.Equal(t, digest.XXH3, alg)

	alg, err = digest.Parse("sha256")
	require.NoError(t, err)
	assert.Equal(t, digest.SHA256, alg)

	_, err = digest.Parse("md5")
	assert.Error(t, err)
}

func TestSumIsIndependentOfChunkSize(t *testing.T) {
	mem := afero.NewMemMapFs()
	content := strings.Repeat("fossil-", 10_000)
	require.NoError(t, afero.WriteFile(mem, "/f", []byte(content), 0o644))

	for _, alg := range []digest.Algorithm{digest.XXH3, digest.SHA256} {
		want := alg.Bytes([]byte(content))
		for _, chunk := range []int{1, 7, 128, 64 * 1024} {
			c := digest.NewComputer(mem, alg)
			c.ChunkSize = chunk
			got, err := c.Sum("/f")
			require.NoError(t, err)
			assert.Equal(t, want, got, "alg=%s chunk=%d", alg, chunk)
			assert.Len(t, got, alg.HexLen())
			assert.True(t, alg.Valid(got))
		}
	}
}

func TestKnownSHA256(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/hello", []byte("hello"), 0o644))

	got, err := digest.NewComputer(mem, digest.SHA256).Sum("/hello")
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)
}

func TestSumMissingFile(t *testing.T) {
	_, err := digest.NewComputer(afero.NewMemMapFs(), digest.XXH3).Sum("/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSumAllKeepsOrder(t *testing.T) {
	mem := afero.NewMemMapFs()
	paths := []string{"/a", "/b", "/c", "/d"}
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(mem, p, []byte("content of "+p), 0o644))
	}
	c := digest.NewComputer(mem, digest.XXH3)

	sums, err := c.SumAll(context.Background(), paths, 3)
	require.NoError(t, err)
	require.Len(t, sums, len(paths))
	for i, p := range paths {
		assert.Equal(t, digest.XXH3.Bytes([]byte("content of "+p)), sums[i])
	}
}

func TestSumAllFailsOnMissing(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/a", []byte("a"), 0o644))

	_, err := digest.NewComputer(mem, digest.XXH3).SumAll(context.Background(), []string{"/a", "/gone"}, 2)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSumAllCancelled(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/a", []byte("a"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := digest.NewComputer(mem, digest.XXH3).SumAll(ctx, []string{"/a"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
