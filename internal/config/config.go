package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	PolicyRestart = "restart"
	PolicyReject  = "reject"

	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379" validate:"min=1000,max=65535"`

	PresenceBackend string `env:"PRESENCE_BACKEND" envDefault:"redis" validate:"oneof=redis memory"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`

	RoomName            string        `env:"ROOM_NAME"             envDefault:"lobby"   validate:"required"`
	ClockInitialSeconds int           `env:"CLOCK_INITIAL_SECONDS" envDefault:"10"      validate:"min=1"`
	BidIncrementSeconds int           `env:"BID_INCREMENT_SECONDS" envDefault:"5"       validate:"min=1"`
	ReportInterval      time.Duration `env:"REPORT_INTERVAL"       envDefault:"500ms"   validate:"min=10ms"`
	ExpiredBidPolicy    string        `env:"EXPIRED_BID_POLICY"    envDefault:"restart" validate:"oneof=restart reject"`

	WsSendBuffer int           `env:"WS_SEND_BUFFER" envDefault:"256"  validate:"min=1"`
	WsReadLimit  int64         `env:"WS_READ_LIMIT"  envDefault:"4096" validate:"min=128"`
	WsPongWait   time.Duration `env:"WS_PONG_WAIT"   envDefault:"12s"`
	WsPingPeriod time.Duration `env:"WS_PING_PERIOD" envDefault:"3s"   validate:"ltfield=WsPongWait"`
	HubQueueSize int           `env:"HUB_QUEUE_SIZE" envDefault:"1024" validate:"min=1"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
