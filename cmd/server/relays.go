package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"tokenregistry/internal/node"
	"tokenregistry/internal/platform/config"
	"tokenregistry/internal/platform/kafka"
	"tokenregistry/internal/platform/metrics"
	platformredis "tokenregistry/internal/platform/redis"
	"tokenregistry/internal/relay"
)

// relays owns the relayers of a node and the Kafka clients behind them.
type relays struct {
	relayers []*relay.Relayer
	clients  []*kgo.Client
}

func (r *relays) close() {
	for _, c := range r.clients {
		c.Close()
	}
}

// route is one direction of the bridge: messages leaving from on their way to
// the bridge inbox of to.
type route struct {
	name  string
	topic string
	from  *node.Side
	to    *node.Side
}

// newRelays builds one relayer per direction, reading the source chain outbox
// directly. With Kafka configured each direction is split in two: a publisher
// copies the outbox to a topic and a deliverer feeds the topic to the
// destination bridge. With Postgres configured every outbound message is also
// archived.
func newRelays(ctx context.Context, cfg config.Server, net *node.Network, db *sql.DB, redisClient *platformredis.Client, m *metrics.Metrics, log *slog.Logger) (*relays, error) {
	var checkpoint relay.Checkpoint = relay.NewMemoryCheckpoint()
	if redisClient != nil {
		checkpoint = relay.NewRedisCheckpoint(redisClient)
	}
	opts := []relay.Option{
		relay.WithLogger(log),
		relay.WithMetrics(m),
		relay.WithBatchSize(cfg.Relay.BatchSize),
		relay.WithInterval(cfg.Relay.PollInterval),
		relay.WithMaxBackoff(cfg.Relay.MaxBackoff),
	}
	routes := []route{
		{name: node.RouteDeposits, topic: cfg.Kafka.DepositTopic, from: net.Root, to: net.Child},
		{name: node.RouteWithdrawals, topic: cfg.Kafka.WithdrawTopic, from: net.Child, to: net.Root},
	}

	out := &relays{}
	var producer *kgo.Client
	if len(cfg.Kafka.Brokers) > 0 {
		var err error
		if producer, err = kafka.NewClient(cfg.Kafka); err != nil {
			return nil, err
		}
		out.clients = append(out.clients, producer)
		if err := kafka.EnsureTopics(ctx, producer, cfg.Kafka.DepositTopic, cfg.Kafka.WithdrawTopic); err != nil {
			out.close()
			return nil, err
		}
		log.Info("kafka transport enabled", "brokers", cfg.Kafka.Brokers)
	}

	for _, rt := range routes {
		source := relay.NewChainSource(rt.from.Chain)
		var outbound relay.FanOut
		if db != nil {
			outbound = append(outbound, relay.NewArchive(db, rt.from.Chain.ChainID().Uint64()))
		}

		if producer == nil {
			r, err := relay.New(rt.name, source, append(relay.FanOut{rt.to.Bridge}, outbound...), checkpoint, opts...)
			if err != nil {
				out.close()
				return nil, err
			}
			out.relayers = append(out.relayers, r)
			continue
		}

		publisher, err := relay.New(rt.name+".publish", source,
			append(relay.FanOut{relay.NewKafkaSink(producer, rt.topic)}, outbound...), checkpoint, opts...)
		if err != nil {
			out.close()
			return nil, err
		}
		consumer, err := kafka.NewClient(cfg.Kafka,
			kgo.ConsumeTopics(rt.topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		)
		if err != nil {
			out.close()
			return nil, fmt.Errorf("%s consumer: %w", rt.name, err)
		}
		out.clients = append(out.clients, consumer)
		deliverer, err := relay.New(rt.name, relay.NewKafkaSource(consumer), rt.to.Bridge, checkpoint, opts...)
		if err != nil {
			out.close()
			return nil, err
		}
		out.relayers = append(out.relayers, publisher, deliverer)
	}
	return out, nil
}
