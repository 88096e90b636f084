package dispatch_test

import (
	"context"
	"errors"
	"leadintake/internal/dispatch"
	"leadintake/pkg/domain"
	"leadintake/pkg/serrors"
	"leadintake/pkg/sink"
	mocksink "leadintake/pkg/sink/mock"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/mock/gomock"
)

func newSink(ctrl *gomock.Controller, name string) *mocksink.MockSink {
	s := mocksink.NewMockSink(ctrl)
	s.EXPECT().Name().Return(name).AnyTimes()

	return s
}

func newDispatcher(t *testing.T, opts dispatch.Options, sinks ...sink.Sink) dispatch.Dispatcher {
	t.Helper()

	d, err := dispatch.New(dispatch.Deps{Sinks: sinks}, opts)
	require.NoError(t, err)

	return d
}

func sample() domain.Submission {
	return domain.Submission{Name: "Ann", Company: "Acme", Email: "ann@acme.com"}
}

func TestDispatcher_Dispatch_allSucceed(t *testing.T) {
	ctrl := gomock.NewController(t)
	mail := newSink(ctrl, sink.Mail)
	notion := newSink(ctrl, sink.Notion)

	sub := sample()
	mail.EXPECT().Deliver(gomock.Any(), sub).Return("msg-1", nil)
	notion.EXPECT().Deliver(gomock.Any(), sub).Return("page-1", nil)

	out := newDispatcher(t, dispatch.Options{}, mail, notion).Dispatch(context.Background(), sub)

	require.Equal(t, domain.AllSucceeded, out.Status())
	require.Equal(t, []domain.DispatchResult{
		{Sink: sink.Mail, Reference: "msg-1"},
		{Sink: sink.Notion, Reference: "page-1"},
	}, out.Results)
}

func TestDispatcher_Dispatch_partialFailureKeepsOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	mail := newSink(ctrl, sink.Mail)
	notion := newSink(ctrl, sink.Notion)

	// the first sink finishes last; results still follow configuration order
	mail.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Submission) (string, error) {
			time.Sleep(50 * time.Millisecond)

			return "", serrors.With(serrors.ErrDelivery, "535 authentication failed")
		})
	notion.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return("page-1", nil)

	out := newDispatcher(t, dispatch.Options{}, mail, notion).Dispatch(context.Background(), sample())

	require.Equal(t, domain.SomeFailed, out.Status())
	require.Len(t, out.Results, 2)
	require.Equal(t, sink.Mail, out.Results[0].Sink)
	require.ErrorIs(t, out.Results[0].Err, serrors.ErrDelivery)
	require.Equal(t, "535 authentication failed", out.Results[0].Reason())
	require.Empty(t, out.Results[0].Reference)
	require.True(t, out.Results[1].OK())
	require.Equal(t, "page-1", out.Results[1].Reference)
}

func TestDispatcher_Dispatch_runsConcurrently(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newSink(ctrl, "a")
	b := newSink(ctrl, "b")

	// each sink waits for the other one to start
	startedA, startedB := make(chan struct{}), make(chan struct{})
	a.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Submission) (string, error) {
			close(startedA)
			<-startedB

			return "a", nil
		})
	b.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Submission) (string, error) {
			close(startedB)
			<-startedA

			return "b", nil
		})

	out := newDispatcher(t, dispatch.Options{SinkTimeout: 5 * time.Second}, a, b).
		Dispatch(context.Background(), sample())
	require.True(t, out.OK())
}

func TestDispatcher_Dispatch_timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := newSink(ctrl, sink.Notion)
	stuck := newSink(ctrl, "stuck")
	fast := newSink(ctrl, sink.Mail)

	slow.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.Submission) (string, error) {
			<-ctx.Done()

			return "", ctx.Err()
		})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stuck.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Submission) (string, error) {
			<-release // ignores its context

			return "late", nil
		})
	fast.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return("msg", nil)

	start := time.Now()
	out := newDispatcher(t, dispatch.Options{SinkTimeout: 50 * time.Millisecond}, slow, stuck, fast).
		Dispatch(context.Background(), sample())
	require.Less(t, time.Since(start), 2*time.Second)

	require.ErrorIs(t, out.Results[0].Err, serrors.ErrTimeout)
	require.Equal(t, "timed out after 50ms", out.Results[0].Reason())
	require.ErrorIs(t, out.Results[1].Err, serrors.ErrTimeout)
	require.True(t, out.Results[2].OK())
}

func TestDispatcher_Dispatch_panicIsIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	bad := newSink(ctrl, "bad")
	good := newSink(ctrl, "good")

	bad.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Submission) (string, error) {
			panic("boom")
		})
	good.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return("ok", nil)

	out := newDispatcher(t, dispatch.Options{}, bad, good).Dispatch(context.Background(), sample())

	require.ErrorIs(t, out.Results[0].Err, serrors.ErrInternal)
	require.Contains(t, out.Results[0].Reason(), "boom")
	require.True(t, out.Results[1].OK())
}

func TestDispatcher_Dispatch_callerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newSink(ctrl, sink.Mail)

	ctx, cancel := context.WithCancel(context.Background())
	s.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.Submission) (string, error) {
			cancel()
			<-ctx.Done()

			return "", errors.New("aborted")
		})

	out := newDispatcher(t, dispatch.Options{}, s).Dispatch(ctx, sample())
	require.False(t, out.OK())
}

func TestDispatcher_Sinks(t *testing.T) {
	ctrl := gomock.NewController(t)

	d := newDispatcher(t, dispatch.Options{}, newSink(ctrl, sink.Notion), newSink(ctrl, sink.Mail))
	require.Equal(t, []string{sink.Notion, sink.Mail}, d.Sinks())

	out := newDispatcher(t, dispatch.Options{}).Dispatch(context.Background(), sample())
	require.Empty(t, out.Results)
	require.True(t, out.OK())
}

func TestDispatcher_Dispatch_recordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	ok := newSink(ctrl, sink.Mail)
	failing := newSink(ctrl, sink.Notion)
	ok.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return("msg", nil)
	failing.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return("", errors.New("503"))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	d, err := dispatch.New(dispatch.Deps{
		Sinks:         []sink.Sink{ok, failing},
		MeterProvider: mp,
	}, dispatch.Options{})
	require.NoError(t, err)
	d.Dispatch(context.Background(), sample())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	var histogramSeen bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "leadintake_dispatch_total":
				sum, isSum := m.Data.(metricdata.Sum[int64])
				require.True(t, isSum)
				for _, dp := range sum.DataPoints {
					name, _ := dp.Attributes.Value(attribute.Key("sink"))
					result, _ := dp.Attributes.Value(attribute.Key("result"))
					counts[name.AsString()+"/"+result.AsString()] += dp.Value
				}
			case "leadintake_dispatch_duration_seconds":
				histogramSeen = true
			}
		}
	}

	require.Equal(t, map[string]int64{"mail/success": 1, "notion/failure": 1}, counts)
	require.True(t, histogramSeen)
}
