package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port       string        `mapstructure:"port"`
	StaticDir  string        `mapstructure:"static_dir"`
	UsersFile  string        `mapstructure:"users_file"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	PprofAddr  string        `mapstructure:"pprof_addr"`

	Gateway  GatewayConfig  `mapstructure:"gateway"`
	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Events   EventsConfig   `mapstructure:"events"`
	Courses  []CourseConfig `mapstructure:"courses"`
}

// ChatClient definition chat_client YAML structure
type ChatClient struct {
	ServerURL       string        `mapstructure:"server_url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	BottomThreshold int           `mapstructure:"bottom_threshold"`
	ReloadAfterEdit bool          `mapstructure:"reload_after_edit"`
	UserID          string        `mapstructure:"user_id"`
	DisplayName     string        `mapstructure:"display_name"`
	ViewportLines   int           `mapstructure:"viewport_lines"`
}

// GatewayConfig selects the auth and identity behaviour of the message gateway
type GatewayConfig struct {
	RequireAuth        bool   `mapstructure:"require_auth"`
	IdentityMode       string `mapstructure:"identity_mode"` // session | shared | anonymous
	PersistPreferences bool   `mapstructure:"persist_preferences"`
	DefaultCourse      string `mapstructure:"default_course"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr          string   `mapstructure:"addr"`
	MasterName    string   `mapstructure:"master_name"`
	SentinelAddrs []string `mapstructure:"sentinel_addrs"`
	Password      string   `mapstructure:"password"`
	RedisDB       int      `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	URI           string `mapstructure:"uri"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
	TimeoutMS     int    `mapstructure:"timeout_ms"`
}

// EventsConfig definition message event sink
type EventsConfig struct {
	Driver        string   `mapstructure:"driver"` // none | redis | amqp | kafka
	URL           string   `mapstructure:"url"`
	Exchange      string   `mapstructure:"exchange"`
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryCount    int      `mapstructure:"retry_count"`
	RetryInterval int      `mapstructure:"retry_interval"`
}

// CourseConfig definition one course and its lecturer
type CourseConfig struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Lecturer    string `mapstructure:"lecturer"`
	Email       string `mapstructure:"email"`
	Phone       string `mapstructure:"phone"`
	OfficeHours string `mapstructure:"office_hours"`
}

// ChatDefaults default values of the chat_service YAML
var ChatDefaults = map[string]any{
	"port":                        "3000",
	"users_file":                  "config/users.json",
	"session_ttl":                 time.Hour,
	"jwt_secret":                  "secure_secret_key",
	"gateway.require_auth":        true,
	"gateway.identity_mode":       "session",
	"gateway.persist_preferences": true,
	"gateway.default_course":      "mathematik",
	"mongo.database":              "chat_app",
	"mongo.retry_count":           3,
	"mongo.retry_interval":        2,
	"mongo.timeout_ms":            5000,
	"redis.addr":                  "localhost:6379",
	"redis.master_name":           "mymaster",
	"events.driver":               "none",
	"events.exchange":             "chat.messages",
	"events.topic":                "chat-messages",
	"events.retry_count":          3,
	"events.retry_interval":       2,
}

// ChatClientDefaults default values of the chat_client YAML
var ChatClientDefaults = map[string]any{
	"server_url":        "http://localhost:3000",
	"refresh_interval":  5 * time.Second,
	"bottom_threshold":  5,
	"reload_after_edit": true,
	"viewport_lines":    20,
}
