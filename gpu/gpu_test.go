package gpu

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/perfgraph/geom"
)

func TestLayoutSizes(t *testing.T) {
	// These must match the structs declared in common.v1.wgsl.
	assert.Equal(t, 16, LinePointSize)
	assert.Equal(t, 128, ViewSize)
	assert.Equal(t, 32, DrawInfoSize)
	assert.Equal(t, 16, GridInfoSize)
	assert.Equal(t, 32, RectInfoSize)
}

func TestPackMat2x3(t *testing.T) {
	m := geom.Offset(3, 4).Scale(2, 5)
	p := PackMat2x3(m)
	assert.Equal(t, Mat{2, 0, 6, 0, 0, 5, 20, 0}, p)
	assert.Equal(t, float32(m.MulX(1)), p.MulX(1))
	assert.Equal(t, float32(m.MulY(1)), p.MulY(1))
	x, y := p.Apply(1, 1)
	assert.Equal(t, float32(8), x)
	assert.Equal(t, float32(25), y)
}

func TestBytesRoundTrip(t *testing.T) {
	lines := []LinePoint{EmptyLinePoint, {FineMin: 1, FineMax: 2, CourseMin: 0, CourseMax: 3}}
	b := ToBytes(lines)
	require.Len(t, b, 2*LinePointSize)
	back := FromBytes[LinePoint](b)
	assert.Equal(t, lines, back)
	assert.True(t, back[0].Empty())
	assert.False(t, back[1].Empty())

	v := View{HighlightedSampleX: 7}
	vb := Bytes(&v)
	assert.Len(t, vb, ViewSize)
	assert.Equal(t, uint32(7), FromBytes[uint32](vb)[28])

	assert.Nil(t, ToBytes[float32](nil))
	assert.Nil(t, FromBytes[LinePoint](make([]byte, 3)))
}

func TestProgramFile(t *testing.T) {
	assert.Equal(t, "samples_to_lines.v1.wgsl", SamplesToLines.File())
	assert.Equal(t, "process_lines@v1", ProcessLines.String())
	assert.Equal(t, Common, Programs[0])
}

func TestWorkgroups(t *testing.T) {
	for _, tc := range []struct {
		n, want int
	}{
		{0, 0},
		{1, 1},
		{256, 1},
		{257, 2},
		{500, 2},
	} {
		assert.Equal(t, tc.want, Workgroups(tc.n), "n=%d", tc.n)
	}
}

func TestSharedInitializesOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewShared(func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	})
	assert.False(t, s.Resolved())

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Get(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.True(t, s.Resolved())
}

func TestSharedCachesFailure(t *testing.T) {
	var calls atomic.Int32
	s := NewShared(func(context.Context) (string, error) {
		calls.Add(1)
		return "", ErrUnavailable
	})
	for range 3 {
		_, err := s.Get(context.Background())
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestSharedGetCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := NewShared(func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Get(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
