package main

import (
	"context"
	"fmt"
	"time"

	awsclients "order-notifications/internal/common/aws"
	"order-notifications/internal/common/camunda"
	"order-notifications/internal/common/config"
	"order-notifications/internal/common/database"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/models"
	"order-notifications/internal/notification/history"
	"order-notifications/internal/notification/preferences"
	"order-notifications/internal/notification/render"
	"order-notifications/internal/notification/sender"

	"golang.org/x/text/language"
)

// backends holds the optional storage connections, opened only when a
// component is configured to use them.
type backends struct {
	redis    *database.RedisClient
	postgres *database.PostgresClient
	es       *database.ElasticsearchClient
}

func (b *backends) Close() {
	if b.redis != nil {
		b.redis.Close()
	}
	if b.postgres != nil {
		b.postgres.Close()
	}
}

// backendRetry is the connect backoff for the storage backends.
var backendRetry = camunda.RetryConfig{
	MaxRetries: 15,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

func openBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	if config.UsesRedis(cfg) {
		err := camunda.Retry(ctx, backendRetry, log, "Redis connection", func(ctx context.Context) error {
			client, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				client.Close()
				return err
			}
			b.redis = client
			return nil
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
	}

	if config.UsesPostgres(cfg) {
		err := camunda.Retry(ctx, backendRetry, log, "PostgreSQL connection", func(ctx context.Context) error {
			client, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				client.Close()
				return err
			}
			b.postgres = client
			return nil
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		if err := b.postgres.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		log.Info("PostgreSQL connected successfully", nil)
	}

	if cfg.Notifications.History.Mirror {
		err := camunda.Retry(ctx, backendRetry, log, "Elasticsearch connection", func(ctx context.Context) error {
			client, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				return err
			}
			b.es = client
			return nil
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		if err := b.es.EnsureHistoryIndex(ctx, cfg.Database.Elasticsearch.HistoryIndex); err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
	}

	return b, nil
}

func buildRenderer(cfg *config.Config, log logger.Logger) *render.Renderer {
	tag, err := language.Parse(cfg.Notifications.Locale)
	if err != nil {
		log.Warn("invalid locale, using default", map[string]interface{}{
			"locale": cfg.Notifications.Locale,
			"error":  err.Error(),
		})
		tag = render.DefaultLocale
	}
	return render.New(render.WithLocale(tag), render.WithDateLayout(cfg.Notifications.DateLayout))
}

func buildPreferenceStore(cfg *config.Config, b *backends) (preferences.Store, error) {
	switch cfg.Notifications.Preferences.Backend {
	case config.BackendMemory:
		return preferences.NewMemoryStore(), nil
	case config.BackendRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("preference store: redis is not connected")
		}
		return preferences.NewRedisStore(b.redis.Client), nil
	case config.BackendPostgres:
		if b.postgres == nil {
			return nil, fmt.Errorf("preference store: postgres is not connected")
		}
		return preferences.NewPostgresStore(b.postgres.DB), nil
	default:
		return nil, fmt.Errorf("preference store: unknown backend %q", cfg.Notifications.Preferences.Backend)
	}
}

func buildHistoryLog(cfg *config.Config, b *backends, log logger.Logger) (history.Log, error) {
	hc := cfg.Notifications.History

	var l history.Log
	switch hc.Backend {
	case config.BackendMemory:
		l = history.NewMemoryLog(hc.Capacity)
	case config.BackendRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("history log: redis is not connected")
		}
		l = history.NewRedisLog(b.redis.Client, hc.Key, hc.Capacity)
	default:
		return nil, fmt.Errorf("history log: unknown backend %q", hc.Backend)
	}

	if hc.Mirror {
		if b.es == nil {
			return nil, fmt.Errorf("history log: elasticsearch is not connected")
		}
		l = history.NewIndexedLog(l, b.es.Client, cfg.Database.Elasticsearch.HistoryIndex, log)
	}
	return l, nil
}

// buildSenders creates one rate-limited sender per channel. AWS
// configuration is loaded at most once.
func buildSenders(ctx context.Context, cfg *config.Config, log logger.Logger) (map[models.Channel]sender.Sender, error) {
	var (
		awsLoaded bool
		ses       *awsclients.SESClient
		sns       *awsclients.SNSClient
	)
	loadAWS := func() error {
		if awsLoaded {
			return nil
		}
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		ses = awsclients.NewSESClientFromConfig(awsCfg)
		sns = awsclients.NewSNSClientFromConfig(awsCfg)
		awsLoaded = true
		return nil
	}

	build := func(ch models.Channel, cc config.ChannelConfig) (sender.Sender, error) {
		timeout := config.GetDuration(cc.RequestTimeout)

		var s sender.Sender
		switch cc.Transport {
		case config.TransportLog:
			s = sender.NewLogSender(log)
		case config.TransportSES:
			if err := loadAWS(); err != nil {
				return nil, err
			}
			s = sender.NewSESSender(ses, cc.FromEmail, timeout)
		case config.TransportSNS:
			if err := loadAWS(); err != nil {
				return nil, err
			}
			s = sender.NewSNSSender(sns, cc.SenderID, timeout)
		case config.TransportSMTP:
			smtp := cfg.Integrations.SMTP
			from := cc.FromEmail
			if from == "" {
				from = smtp.DefaultFrom
			}
			s = sender.NewSMTPSender(sender.SMTPConfig{
				Host:     smtp.Host,
				Port:     smtp.Port,
				Username: smtp.Username,
				Password: smtp.Password,
				From:     from,
				UseTLS:   smtp.UseTLS,
			}, timeout)
		default:
			return nil, fmt.Errorf("%s: unknown transport %q", ch, cc.Transport)
		}

		log.Info("channel sender configured", map[string]interface{}{
			"channel":         ch,
			"transport":       cc.Transport,
			"rate_per_second": cc.RatePerSecond,
		})
		return sender.NewRateLimited(s, cc.RatePerSecond, cc.Burst), nil
	}

	email, err := build(models.ChannelEmail, cfg.Notifications.Email)
	if err != nil {
		return nil, err
	}
	sms, err := build(models.ChannelSMS, cfg.Notifications.SMS)
	if err != nil {
		return nil, err
	}
	return map[models.Channel]sender.Sender{
		models.ChannelEmail: email,
		models.ChannelSMS:   sms,
	}, nil
}
