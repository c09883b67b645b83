package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FieldLines returns n lines of the form {"json_field": i}.
func FieldLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"json_field": %d}`, i)
	}
	return lines
}

// StoreTestSuite runs a standard test suite against any Store implementation.
func StoreTestSuite(t *testing.T, newStore func() (Store, func())) {
	populated := func(t *testing.T, n int) (Store, func()) {
		t.Helper()
		store, cleanup := newStore()
		appended, err := store.Append(context.Background(), FieldLines(n))
		require.NoError(t, err)
		require.Equal(t, n, appended)
		return store, cleanup
	}

	fieldValues := func(t *testing.T, entries []Entry) []float64 {
		t.Helper()
		out := make([]float64, 0, len(entries))
		for _, e := range entries {
			obj, ok := e.Interface().(map[string]any)
			require.True(t, ok, "entry %s is not an object", e)
			out = append(out, obj["json_field"].(float64))
		}
		return out
	}

	t.Run("AppendAndQueryAll", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		result, err := store.Query(context.Background(), All())
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2}, fieldValues(t, result))
		assert.Equal(t, 3, store.Len())
	})

	t.Run("AppendSkipsInvalidLines", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		lines := []string{
			`{"json_field": 1}`,
			`{"bad_json_field , spam}`,
			`{"another_field": "foo"}`,
			``,
		}
		n, err := store.Append(context.Background(), lines)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, store.Len())

		want, err := NewEntry(map[string]any{"another_field": "foo"})
		require.NoError(t, err)
		result, err := store.Query(context.Background(), Last(1))
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.True(t, want.Equal(result[0]), "got %s", result[0])
	})

	t.Run("QueryFirstN", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		result, err := store.Query(context.Background(), First(1))
		require.NoError(t, err)
		assert.Equal(t, []float64{0}, fieldValues(t, result))
	})

	t.Run("QueryLastN", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		result, err := store.Query(context.Background(), Last(2))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, fieldValues(t, result))
	})

	t.Run("QueryClampsOversizedCount", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		for _, w := range []Window{First(5), Last(5)} {
			result, err := store.Query(context.Background(), w)
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 1, 2}, fieldValues(t, result))
		}
	})

	t.Run("QueryZeroCountReturnsNone", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		result, err := store.Query(context.Background(), First(0).WithFlush())
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 3, store.Len(), "zero-count query must not flush")
	})

	t.Run("QueryEmptyReturnsNone", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		for _, w := range []Window{All(), First(3), Last(3), All().WithFlush()} {
			result, err := store.Query(context.Background(), w)
			require.NoError(t, err)
			assert.Nil(t, result)
		}
	})

	t.Run("QueryFlush", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		result, err := store.Query(context.Background(), All().WithFlush())
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2}, fieldValues(t, result))
		assert.Equal(t, 0, store.Len())
	})

	t.Run("QueryWindowFlushClearsEverything", func(t *testing.T) {
		store, cleanup := populated(t, 3)
		defer cleanup()

		result, err := store.Query(context.Background(), Last(1).WithFlush())
		require.NoError(t, err)
		assert.Equal(t, []float64{2}, fieldValues(t, result))
		assert.Equal(t, 0, store.Len())
	})

	t.Run("SnapshotIsIndependent", func(t *testing.T) {
		store, cleanup := populated(t, 2)
		defer cleanup()

		result, err := store.Query(context.Background(), All())
		require.NoError(t, err)

		_, err = store.Append(context.Background(), FieldLines(1))
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("ConcurrentAppend", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		const perWriter = 1000
		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, line := range FieldLines(perWriter) {
					if _, err := store.Append(context.Background(), []string{line}); err != nil {
						t.Errorf("Append failed: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 2*perWriter, store.Len())

		result, err := store.Query(context.Background(), All())
		require.NoError(t, err)
		counts := make(map[float64]int)
		for _, v := range fieldValues(t, result) {
			counts[v]++
		}
		assert.Len(t, counts, perWriter)
		for v, c := range counts {
			assert.Equal(t, 2, c, "json_field %v", v)
		}
	})

	t.Run("FlushDuringAppendLosesNothing", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		const total = 2000
		done := make(chan struct{})
		go func() {
			defer close(done)
			for _, line := range FieldLines(total) {
				store.Append(context.Background(), []string{line})
			}
		}()

		seen := 0
		for {
			select {
			case <-done:
				result, err := store.Query(context.Background(), All().WithFlush())
				require.NoError(t, err)
				seen += len(result)
				assert.Equal(t, total, seen)
				return
			default:
				result, err := store.Query(context.Background(), All().WithFlush())
				require.NoError(t, err)
				seen += len(result)
			}
		}
	})

	t.Run("Stats", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Append(context.Background(), []string{`{"a":1}`, `nope`, `[1,2]`})
		require.NoError(t, err)
		_, err = store.Query(context.Background(), All().WithFlush())
		require.NoError(t, err)

		stats := store.Stats()
		assert.Equal(t, 0, stats.Entries)
		assert.Equal(t, int64(2), stats.TotalAppended)
		assert.Equal(t, int64(1), stats.TotalRejected)
		assert.Equal(t, int64(2), stats.TotalFlushed)
	})

	t.Run("Closed", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		require.NoError(t, store.Close())

		_, err := store.Append(context.Background(), FieldLines(1))
		assert.ErrorIs(t, err, ErrStorageClosed)

		_, err = store.Query(context.Background(), All())
		assert.ErrorIs(t, err, ErrStorageClosed)
	})
}
