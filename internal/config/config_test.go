package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, BrokerAMQP, cfg.Events.Broker)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, 3, cfg.SaveRetries)
	assert.True(t, cfg.Development())
}

func TestFromViperRequiresSecret(t *testing.T) {
	_, err := FromViper(newViper(nil))
	require.Error(t, err)
}

func TestFromViperRejectsUnknownBroker(t *testing.T) {
	_, err := FromViper(newViper(map[string]any{"JWT_SECRET": "x", "EVENTS_BROKER": "nats"}))
	require.Error(t, err)
}

func TestFromViperSplitsLists(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"JWT_SECRET":    "x",
		"EVENTS_BROKER": "Kafka",
		"KAFKA_BROKERS": "k1:9092, k2:9092,",
		"CORS_ORIGINS":  "https://a.example, https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, BrokerKafka, cfg.Events.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Len(t, cfg.CORSOrigins, 2)
}
