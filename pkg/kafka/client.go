// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"linkai-core-go/internal/config"
	"linkai-core-go/pkg/database"
	"linkai-core-go/pkg/log"
	"linkai-core-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// EventProcessor 定义了能够落库用量事件的服务接口，
// 使消费者与具体的事件记录实现解耦。
type EventProcessor interface {
	Process(ctx context.Context, event tasks.UsageEvent) error
}

var (
	producer   *kafka.Writer
	brokerAddr string
)

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	brokerAddr = cfg.Brokers
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Ping 探测 broker 连通性，供健康检查使用。
func Ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokerAddr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// ProduceUsageEvent 发送一个用量事件到 Kafka。
// 本服务自身产生的事件（例如搜索日志）也可以走这条异步路径。
func ProduceUsageEvent(event tasks.UsageEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = producer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.TenantID.String()),
			Value: eventBytes,
		},
	)
	return err
}

// eventAttemptKey 生成事件处理失败计数的 Redis key。
func eventAttemptKey(event tasks.UsageEvent) string {
	return fmt.Sprintf("kafka:attempts:%s:%s:%d", event.TenantID, event.EventType, event.OccurredAt.UnixNano())
}

// StartConsumer 启动一个 Kafka 消费者来处理用量事件。
// 事件最终通过与同步事件路径相同的分区保障落库。
func StartConsumer(cfg config.KafkaConfig, processor EventProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "linkai-core-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break // 退出循环，可能需要重启策略
		}

		var event tasks.UsageEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		if err := processor.Process(context.Background(), event); err != nil {
			log.Errorf("处理用量事件失败: tenant=%s, type=%s, err=%v", event.TenantID, event.EventType, err)
			// 使用 Redis 计数失败次数，达到阈值后提交 offset 终止重试
			attemptsKey := eventAttemptKey(event)
			attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
			if incErr == nil {
				_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			}
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			if attempts >= 3 {
				log.Errorf("用量事件多次失败(>=3)，提交 offset 终止重试: tenant=%s, type=%s", event.TenantID, event.EventType)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
			// attempts < 3 时，不提交 offset 让 Kafka 自动重试
		} else {
			// 清理失败计数
			_ = database.RDB.Del(context.Background(), eventAttemptKey(event)).Err()
			// 事件处理成功后，手动提交 offset
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 消费者失败: %v", err)
	}
}
