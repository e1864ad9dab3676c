package option

type AppConfig struct {
	Core  `json:"" yaml:",inline" mapstructure:",squash"`
	Check `json:"" yaml:",inline" mapstructure:",squash"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Core: DefaultCore(),
	}
}
