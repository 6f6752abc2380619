package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualClock_Step(t *testing.T) {
	tests := []struct {
		name    string
		opts    []StepOption
		want    time.Time
		wantErr error
	}{
		{"default increment", nil, start.Add(time.Minute), nil},
		{"by increment", []StepOption{By(5 * time.Second)}, start.Add(5 * time.Second), nil},
		{"to target", []StepOption{To(start.Add(time.Hour))}, start.Add(time.Hour), nil},
		{"both", []StepOption{To(start.Add(time.Hour)), By(time.Second)}, start, ErrAmbiguousStep},
		{"twice by", []StepOption{By(time.Second), By(time.Second)}, start, ErrAmbiguousStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewVirtual(start, time.Minute)
			err := c.Step(tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, tt.want.Equal(c.Time()), "got %s want %s", c.Time(), tt.want)
		})
	}
}

func TestVirtualClock_HooksRunInAttachmentOrder(t *testing.T) {
	c := NewVirtual(start, time.Minute)

	var calls []string
	c.Attach(func(time.Time) { calls = append(calls, "first") }, EveryTick())
	c.Attach(func(time.Time) { calls = append(calls, "second") }, EveryTick())
	c.Attach(func(time.Time) { calls = append(calls, "timed") }, At(start.Add(2*time.Minute)))

	require.NoError(t, c.Step())
	assert.Equal(t, []string{"first", "second"}, calls)

	calls = nil
	require.NoError(t, c.Step())
	assert.Equal(t, []string{"first", "second", "timed"}, calls)

	calls = nil
	require.NoError(t, c.Step())
	assert.Equal(t, []string{"first", "second"}, calls, "time hooks fire once")
}

func TestVirtualClock_ResetRearmsTimeHooks(t *testing.T) {
	c := NewVirtual(start, time.Minute)

	fired := 0
	c.Attach(func(time.Time) { fired++ }, At(start.Add(time.Minute)))

	require.NoError(t, c.Step())
	require.NoError(t, c.Step())
	assert.Equal(t, 1, fired)

	require.NoError(t, c.Reset())
	assert.True(t, start.Equal(c.Time()))
	assert.Equal(t, 1, fired, "not due right after reset")

	require.NoError(t, c.Step())
	assert.Equal(t, 2, fired)
}

func TestVirtualClock_HookSeesNewTime(t *testing.T) {
	c := NewVirtual(start, time.Minute)

	var seen time.Time
	c.Attach(func(now time.Time) { seen = now }, EveryTick())

	require.NoError(t, c.Step(By(time.Hour)))
	assert.True(t, seen.Equal(start.Add(time.Hour)))
}

func TestVirtualClock_Detach(t *testing.T) {
	c := NewVirtual(start, time.Minute)

	fired := 0
	id := c.Attach(func(time.Time) { fired++ }, EveryTick())

	assert.True(t, c.Detach(id))
	assert.False(t, c.Detach(id))
	require.NoError(t, c.Step())
	assert.Zero(t, fired)
}

func TestVirtualClock_ReentrantStep(t *testing.T) {
	c := NewVirtual(start, time.Minute)

	var inner error
	c.Attach(func(time.Time) { inner = c.Step() }, EveryTick())

	require.NoError(t, c.Step())
	assert.ErrorIs(t, inner, ErrReentrantStep)
	assert.True(t, start.Add(time.Minute).Equal(c.Time()))
}

func TestVirtualClock_Stop(t *testing.T) {
	c := NewVirtual(start, time.Minute)
	require.NoError(t, c.Step())

	c.Stop()
	assert.True(t, c.Stopped())
	assert.ErrorIs(t, c.Step(), ErrStopped)
	assert.ErrorIs(t, c.Reset(), ErrStopped)
	assert.True(t, start.Add(time.Minute).Equal(c.Time()))
}

func TestWallClock_Unsupported(t *testing.T) {
	c := NewWall()

	assert.ErrorIs(t, c.Step(), ErrUnsupportedOperation)
	assert.ErrorIs(t, c.Reset(), ErrUnsupportedOperation)
	assert.WithinDuration(t, time.Now(), c.Time(), time.Second)

	c.Stop()
	frozen := c.Time()
	time.Sleep(2 * time.Millisecond)
	assert.True(t, frozen.Equal(c.Time()))
}

func TestClock_Align(t *testing.T) {
	ts := start.Add(90 * time.Second)

	assert.True(t, start.Add(time.Minute).Equal(AlignDown(ts, time.Minute)))
	assert.True(t, start.Add(2*time.Minute).Equal(AlignUp(ts, time.Minute)))
	assert.True(t, start.Add(2*time.Minute).Equal(AlignUp(start.Add(time.Minute), time.Minute)),
		"a boundary aligns up to the next one")

	block := AlignDown(ts, 100*time.Minute)
	assert.Zero(t, block.UnixNano()%int64(100*time.Minute), "blocks align to the epoch")
	assert.False(t, block.After(ts))
}

func TestClockScope(t *testing.T) {
	c := NewVirtual(start, time.Minute)

	ctx, scope, err := Enter(context.Background(), c)
	require.NoError(t, err)
	assert.Same(t, c, FromContext(ctx, zap.NewNop()))

	_, _, err = Enter(ctx, NewVirtual(start, time.Minute))
	assert.ErrorIs(t, err, ErrScopeActive)

	scope.Exit()
	assert.True(t, c.Stopped())

	_, _, err = Enter(ctx, NewVirtual(start, time.Minute))
	assert.NoError(t, err, "a stopped scope can be replaced")
}

func TestClockScope_FallbackWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	c := FromContext(context.Background(), zap.New(core))

	_, ok := c.(*Wall)
	assert.True(t, ok)
	assert.Equal(t, 1, logs.Len())
}
