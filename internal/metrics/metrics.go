// Package metrics 定义业务指标
// 指标注册在默认 registry 上，由 /metrics 统一暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	charactersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_characters_created_total",
		Help: "Total number of characters created.",
	})

	worldsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_worlds_created_total",
		Help: "Total number of worlds created.",
	})

	validationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_validation_failures_total",
			Help: "Total number of rejected composer submissions by entity.",
		},
		[]string{"entity"},
	)

	imageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_image_requests_total",
			Help: "Total number of image generation calls by kind and status.",
		},
		[]string{"kind", "status"},
	)

	messagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_messages_appended_total",
			Help: "Total number of messages appended to stories by role.",
		},
		[]string{"role"},
	)

	repliesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_replies_dropped_total",
			Help: "Total number of delayed replies that were not applied, by reason.",
		},
		[]string{"reason"},
	)

	pendingReplies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storyforge_pending_replies",
		Help: "Number of delayed replies currently scheduled.",
	})

	notificationsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_notifications_total",
			Help: "Total number of notifications queued by severity.",
		},
		[]string{"severity"},
	)

	logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_logins_total",
			Help: "Total number of mocked logins by provider.",
		},
		[]string{"provider"},
	)
)

// CharacterCreated 记录角色创建
func CharacterCreated() { charactersCreated.Inc() }

// WorldCreated 记录世界创建
func WorldCreated() { worldsCreated.Inc() }

// ValidationFailed 记录被拒绝的提交
func ValidationFailed(entity string) { validationFailures.WithLabelValues(entity).Inc() }

// ImageRequest 记录一次图片生成调用
func ImageRequest(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	imageRequests.WithLabelValues(kind, status).Inc()
}

// MessageAppended 记录消息追加
func MessageAppended(role string) { messagesAppended.WithLabelValues(role).Inc() }

// ReplyScheduled 记录新安排的延迟回复
func ReplyScheduled() { pendingReplies.Inc() }

// ReplySettled 延迟回复结束（完成或丢弃）
func ReplySettled() { pendingReplies.Dec() }

// ReplyDropped 记录被丢弃的回复
func ReplyDropped(reason string) { repliesDropped.WithLabelValues(reason).Inc() }

// NotificationPushed 记录通知
func NotificationPushed(severity string) { notificationsPushed.WithLabelValues(severity).Inc() }

// Login 记录登录
func Login(provider string) { logins.WithLabelValues(provider).Inc() }
