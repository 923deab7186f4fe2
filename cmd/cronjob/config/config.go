package config

type BaseCronJobConfig struct {
	CronExpr string `yaml:"cronExpr" mapstructure:"cronExpr"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // 单位: 毫秒
}

type PresenceReaperConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`
}

func (PresenceReaperConfig) Key() string {
	return "presenceReaper"
}

type MessageTrimmerConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`

	RetentionDays int `yaml:"retentionDays" mapstructure:"retentionDays"` // 持久化消息保留天数
}

func (MessageTrimmerConfig) Key() string {
	return "messageTrimmer"
}
