package config

// MetricsConfig controls telemetry export settings.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Port         string `yaml:"port"`
	OtlpEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	OtlpInsecure bool   `yaml:"otlp_insecure"`
}

func defaultMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:      true,
		Port:         defaultMetricsPort,
		ServiceName:  defaultServiceName,
		OtlpInsecure: true,
	}
}

func (m *MetricsConfig) applyEnv() {
	m.Enabled = boolEnvOrDefault(envMetricsOn, m.Enabled)
	m.Port = envOrDefault(envMetricsPort, m.Port)
	m.OtlpEndpoint = envOrDefault(envOtelEndpoint, m.OtlpEndpoint)
	m.ServiceName = envOrDefault(envOtelService, m.ServiceName)
	m.OtlpInsecure = boolEnvOrDefault(envOtelInsecure, m.OtlpInsecure)
}
