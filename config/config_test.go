package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	LoadConfig()

	assert.Equal(t, 10*time.Minute, AppConfig.OfferWindow)
	assert.Equal(t, 30.0, AppConfig.DefaultCommissionPercent)

	// Idempotency keys, auth hashes and the task queue each get their own DB.
	dbs := map[int]bool{AppConfig.RedisCacheDB: true, AppConfig.RedisAuthDB: true, AppConfig.RedisQueueDB: true}
	assert.Len(t, dbs, 3)
}
