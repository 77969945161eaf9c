//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	medallistsCSV = `medal_type,name,gender,country_code,discipline,event,birth_date
Gold Medal,Swimmer One,Male,USA,Swimming,Men's 4x100m Freestyle Relay,2000-01-01
Gold Medal,Swimmer Two,Male,USA,Swimming,Men's 4x100m Freestyle Relay,1998-06-15
Gold Medal,Swimmer Three,Female,USA,Swimming,Women's 800m Freestyle,1997-02-17
Silver Medal,Diver One,Female,CHN,Diving,Women's 3m Springboard,2001-02-02
Bronze Medal,Player One,Male,FRA,Water Polo,Men,1995-09-09
Gold Medal,Archer One,Female,KOR,Archery,Women's Team,2003-03-03
`
	totalsCSV = `country_code,country,Gold Medal,Silver Medal,Bronze Medal,Total
USA,United States,40,44,42,126
CHN,China,40,27,24,91
FRA,France,16,26,22,64
KOR,Korea,13,9,10,32
`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeInputs writes both CSV files to a temp directory.
func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medallists.csv"), []byte(medallistsCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medals_total.csv"), []byte(totalsCSV), 0o600))
	return dir
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("medal-flow-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
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
