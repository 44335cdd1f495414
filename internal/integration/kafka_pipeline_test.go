//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/epw-merge/internal/adapter/epwfile"
	"github.com/couchcryptid/epw-merge/internal/adapter/kafka"
	"github.com/couchcryptid/epw-merge/internal/adapter/output"
	"github.com/couchcryptid/epw-merge/internal/adapter/thermal"
	"github.com/couchcryptid/epw-merge/internal/domain"
	"github.com/couchcryptid/epw-merge/internal/observability"
	"github.com/couchcryptid/epw-merge/internal/pipeline"
	"github.com/couchcryptid/epw-merge/internal/testutil/epwgen"
)

const testTopic = "test-epw-datasets"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("epwmerge-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// publishedMessage holds a deserialized announcement read from the topic.
type publishedMessage struct {
	Event   domain.DatasetPublished
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from announcement topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.DatasetPublished
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal announcement")

	return publishedMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestNotifierRoundTrip verifies the adapter alone delivers one keyed message.
func TestNotifierRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	n := kafka.NewNotifier([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = n.Close() })

	published := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	require.NoError(t, n.NotifyPublished(ctx, domain.DatasetPublished{
		ID:          "run-1",
		Parquet:     "/data/merged/data.parquet",
		Rows:        8760,
		Sources:     []string{"a.epw"},
		PublishedAt: published,
	}))

	got := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "run-1", got.Key)
	assert.Equal(t, kafka.EventTypePublished, got.Headers["event_type"])
	assert.Equal(t, published.Format(time.RFC3339), got.Headers["published_at"])
	assert.Equal(t, 8760, got.Event.Rows)
	assert.Equal(t, []string{"a.epw"}, got.Event.Sources)
}

// TestPipelineAnnouncesDataset runs a full merge and checks the announcement
// matches what was written to disk.
func TestPipelineAnnouncesDataset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	require.NoError(t, epwgen.WriteFile(filepath.Join(dir, "alpha.epw"), epwgen.Options{Seed: 1}))
	require.NoError(t, epwgen.WriteFile(filepath.Join(dir, "beta.epw"), epwgen.Options{Seed: 2, Leap: true}))

	sources, err := epwfile.Discover([]string{dir})
	require.NoError(t, err)
	paths, err := output.DerivePaths([]string{dir}, "")
	require.NoError(t, err)

	n := kafka.NewNotifier([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = n.Close() })

	logger := discardLogger()
	p := pipeline.New(epwfile.NewReader(logger), thermal.NewLoader(), output.NewWriter(logger), logger,
		observability.NewMetricsForTesting(), pipeline.WithNotifier(n))

	report, err := p.Run(ctx, sources, paths, domain.Options{LimitUTCI: true, EmitTabularCopy: true})
	require.NoError(t, err)
	require.Equal(t, 8760+8784, report.Published.Rows)

	got := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, kafka.EventTypePublished, got.Headers["event_type"])
	assert.NotEmpty(t, got.Key)
	assert.Equal(t, got.Key, got.Event.ID)
	assert.Equal(t, paths.Parquet, got.Event.Parquet)
	assert.Equal(t, paths.CSV, got.Event.CSV)
	assert.Equal(t, 8760+8784, got.Event.Rows)
	assert.Equal(t, []string{"alpha.epw", "beta.epw"}, got.Event.Sources)
	assert.Equal(t, report.ComfortColumns, got.Event.ComfortColumns)
	assert.True(t, got.Event.LimitUTCI)
	assert.False(t, got.Event.Strict)
}
