package config

// EventsConfig is what the booking event consumer needs.  It is loaded on
// its own so the consumer starts without database settings.
type EventsConfig struct {
    Env       string
    LogLevel  string
    RabbitURL string
    LogDir    string
}

// IsProd reports whether the consumer runs in production mode.
func (c EventsConfig) IsProd() bool { return Config{Env: c.Env}.IsProd() }

// LoadEventsConfig reads APP_ENV, LOG_LEVEL, RABBITMQ_URL and EVENT_LOG_DIR
// with the same defaults as Load.
func LoadEventsConfig() EventsConfig {
    v := newViper()
    for _, k := range []string{"APP_ENV", "LOG_LEVEL", "RABBITMQ_URL", "EVENT_LOG_DIR"} {
        v.SetDefault(k, defaults[k])
    }
    return EventsConfig{
        Env:       v.GetString("APP_ENV"),
        LogLevel:  v.GetString("LOG_LEVEL"),
        RabbitURL: v.GetString("RABBITMQ_URL"),
        LogDir:    v.GetString("EVENT_LOG_DIR"),
    }
}
