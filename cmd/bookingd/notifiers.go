package main

import (
	"fmt"

	"bookingd/internal/config"
	"bookingd/internal/domain"
	"bookingd/internal/events"
	"bookingd/internal/logging"
	"bookingd/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildNotifier assembles the configured sinks behind a per-user rate limit.
func buildNotifier(cfg *config.Config, bus *events.EventBus, redisClient *redis.Client, logger *zerolog.Logger) (domain.Notifier, error) {
	notifyLogger := logging.Component(logger, "notify")
	logSink := notify.NewLogNotifier(notifyLogger)

	sinks := make(notify.Multi, 0, len(cfg.Notifications.Sinks))
	for _, name := range cfg.Notifications.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, logSink)
		case config.SinkEvents:
			sinks = append(sinks, notify.NewEventBusNotifier(bus))
		case config.SinkRedis:
			if redisClient == nil {
				notifyLogger.Warn().Msg("redis sink configured but redis is unavailable, using log")
				sinks = append(sinks, logSink)
				continue
			}
			sinks = append(sinks, notify.NewFailover(
				notify.NewRedisNotifier(redisClient, cfg.Notifications.RedisKey),
				logSink, 0, notifyLogger,
			))
		case config.SinkTelegram:
			bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
			if err != nil {
				return nil, fmt.Errorf("init telegram bot: %w", err)
			}
			bot.Debug = cfg.Telegram.Debug
			notifyLogger.Info().Str("bot", bot.Self.UserName).Msg("telegram sink connected")
			sinks = append(sinks, notify.NewFailover(
				notify.NewTelegramNotifier(bot, cfg.Telegram.ChatID),
				logSink, 0, notifyLogger,
			))
		default:
			return nil, fmt.Errorf("unknown notification sink: %s", name)
		}
	}

	return notify.NewThrottled(sinks, cfg.Notifications.RateLimit.RPS, cfg.Notifications.RateLimit.Burst), nil
}
