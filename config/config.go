package config

type GinConfig struct {
	Addr             string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins     []string `yaml:"allowOrigins" mapstructure:"allowOrigins"`
	AllowMethods     []string `yaml:"allowMethods" mapstructure:"allowMethods"`
	AllowHeaders     []string `yaml:"allowHeaders" mapstructure:"allowHeaders"`
	ExposeHeaders    []string `yaml:"exposeHeaders" mapstructure:"exposeHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials" mapstructure:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge" mapstructure:"maxAge"` // 单位: 秒
	EnablePprof      bool     `yaml:"enablePprof" mapstructure:"enablePprof"`
}

func (GinConfig) Key() string {
	return "gin"
}

type MySQLConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

func (MySQLConfig) Key() string {
	return "mysql"
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

type JudgeConfig struct {
	BaseURL        string `yaml:"baseURL" mapstructure:"baseURL"`
	AuthToken      string `yaml:"authToken" mapstructure:"authToken"`
	PollIntervalMs int    `yaml:"pollIntervalMs" mapstructure:"pollIntervalMs"` // 默认 1000
	MaxWaitMs      int    `yaml:"maxWaitMs" mapstructure:"maxWaitMs"`           // 默认 60000
	RequestTimeout int    `yaml:"requestTimeout" mapstructure:"requestTimeout"` // 单次 HTTP 超时, 单位: 毫秒
}

func (JudgeConfig) Key() string {
	return "judge"
}

type PresenceConfig struct {
	TTLSeconds         int `yaml:"ttlSeconds" mapstructure:"ttlSeconds"`                 // 默认 300
	HealthCheckTimeout int `yaml:"healthCheckTimeout" mapstructure:"healthCheckTimeout"` // 启动时探活超时, 单位: 毫秒
}

func (PresenceConfig) Key() string {
	return "presence"
}

type ChannelConfig struct {
	RingSize         int `yaml:"ringSize" mapstructure:"ringSize"`                 // 默认 100
	SubscriberBuffer int `yaml:"subscriberBuffer" mapstructure:"subscriberBuffer"` // 默认 16
}

func (ChannelConfig) Key() string {
	return "channel"
}

type WSTicketConfig struct {
	SigningKey        string `yaml:"signingKey" mapstructure:"signingKey"`
	ExpirationSeconds int    `yaml:"expirationSeconds" mapstructure:"expirationSeconds"` // 默认 30
}

func (WSTicketConfig) Key() string {
	return "wsTicket"
}
