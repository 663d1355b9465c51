package config

type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
	// Format is "json" or "console"
	Format string `yaml:"format"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// TaskQueue is the list key follow-up jobs are pushed to
	TaskQueue string `yaml:"task_queue"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}
