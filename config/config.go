package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// PlaceholderAPIKey 未配置 API Key 时使用的占位值，请求时才会失败
const PlaceholderAPIKey = "sk-placeholder"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Relay    RelayConfig    `yaml:"relay"`
	Auth     AuthConfig     `yaml:"auth"`
	Data     DataConfig     `yaml:"data"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL        string        `yaml:"api_url"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	MaxTokens     int           `yaml:"max_tokens"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"` // 单次对话请求（含流式输出）的总时长上限
	RequireAPIKey bool          `yaml:"require_api_key"` // true 时缺少 API Key 启动即失败
}

// RelayConfig 对话转发配置
type RelayConfig struct {
	DefaultProfile string                   `yaml:"default_profile"`
	IdleTimeout    time.Duration            `yaml:"idle_timeout"` // 上游超过该时间无增量则中止
	Profiles       map[string]ProfileConfig `yaml:"profiles"`
}

// ProfileConfig 一种系统提示词配置
type ProfileConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	ExtractMRD   bool   `yaml:"extract_mrd"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // 为空时不校验 token
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		LLM: LLMConfig{
			APIURL:      "https://api.deepseek.com",
			Model:       "deepseek-chat",
			MaxTokens:   2000,
			Temperature: 0.7,
			Timeout:     5 * time.Minute,
		},
		Relay: RelayConfig{
			DefaultProfile: ProfileMRD,
			IdleTimeout:    60 * time.Second,
			Profiles: map[string]ProfileConfig{
				ProfileGuide: {SystemPrompt: GuidePrompt},
				ProfileMRD:   {SystemPrompt: MRDPrompt, ExtractMRD: true},
			},
		},
		Data: DataConfig{
			Dir: "./data",
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("解析配置文件失败: path=%s, err=%v", configPath, err)
		}
	}

	applyEnv(config)

	if config.LLM.APIKey == "" && !config.LLM.RequireAPIKey {
		klog.Warningf("未配置 LLM API Key，使用占位值，对话请求将在调用时失败")
		config.LLM.APIKey = PlaceholderAPIKey
	}

	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("DEEPSEEK_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}
	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}

// Validate 启动前检查配置
func (c *Config) Validate() error {
	if c.LLM.RequireAPIKey && (c.LLM.APIKey == "" || c.LLM.APIKey == PlaceholderAPIKey) {
		return errors.New("llm api key is required")
	}
	if len(c.Relay.Profiles) == 0 {
		return errors.New("at least one relay profile is required")
	}
	if _, ok := c.Relay.Profiles[c.Relay.DefaultProfile]; !ok {
		return fmt.Errorf("default relay profile %q is not defined", c.Relay.DefaultProfile)
	}
	for name, p := range c.Relay.Profiles {
		if p.SystemPrompt == "" {
			return fmt.Errorf("relay profile %q has empty system prompt", name)
		}
	}
	return nil
}

// ProfileNames 按名称排序的 profile 列表
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Relay.Profiles))
	for name := range c.Relay.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
