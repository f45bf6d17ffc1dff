// config.go

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	PvP      PvPConfig      `mapstructure:"pvp"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	InfoTTL  time.Duration `mapstructure:"info_ttl"`
}

// AuthConfig 令牌配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// PvPConfig 对战系统配置
type PvPConfig struct {
	// 超过该时长没有行动的对战会被取消，0 表示不自动取消
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	IdleCheckInterval time.Duration `mapstructure:"idle_check_interval"`
	RandomSeed        int64         `mapstructure:"random_seed"`
	Ranking           RankingConfig `mapstructure:"ranking"`
	Rewards           RewardsConfig `mapstructure:"rewards"`
}

// RankingConfig 积分配置
type RankingConfig struct {
	InitialRating   int           `mapstructure:"initial_rating"`
	KFactor         int           `mapstructure:"k_factor"`
	MaxRatingChange int           `mapstructure:"max_rating_change"`
	MinBattles      int           `mapstructure:"min_battles"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	SeasonDays      int           `mapstructure:"season_days"`
	HistoryLimit    int           `mapstructure:"history_limit"`
}

// RewardsConfig 奖励配置
type RewardsConfig struct {
	WinCoins        int     `mapstructure:"win_coins"`
	WinExp          int     `mapstructure:"win_exp"`
	LoseExp         int     `mapstructure:"lose_exp"`
	StreakThreshold int     `mapstructure:"streak_threshold"`
	StreakStep      float64 `mapstructure:"streak_step"`
	MaxMultiplier   float64 `mapstructure:"max_multiplier"`
	StreakWindow    int     `mapstructure:"streak_window"`
	HistoryLimit    int     `mapstructure:"history_limit"`
}

// defaults 所有配置项的默认值
var defaults = map[string]interface{}{
	"server.port":                8080,
	"server.debug":               false,
	"server.log_level":           "info",
	"server.requests_per_minute": 120,
	"server.shutdown_timeout":    5 * time.Second,

	"database.enabled":  false,
	"database.host":     "localhost",
	"database.port":     5432,
	"database.user":     "postgres",
	"database.password": "",
	"database.dbname":   "pixelstorm",
	"database.sslmode":  "disable",

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,
	"redis.info_ttl": 5 * time.Minute,

	"auth.jwt_secret": "",
	"auth.token_ttl":  24 * time.Hour,

	"pvp.idle_timeout":        time.Duration(0),
	"pvp.idle_check_interval": 10 * time.Second,
	"pvp.random_seed":         int64(0),

	"pvp.ranking.initial_rating":    1000,
	"pvp.ranking.k_factor":          32,
	"pvp.ranking.max_rating_change": 50,
	"pvp.ranking.min_battles":       5,
	"pvp.ranking.cache_ttl":         time.Minute,
	"pvp.ranking.season_days":       30,
	"pvp.ranking.history_limit":     100,

	"pvp.rewards.win_coins":        50,
	"pvp.rewards.win_exp":          20,
	"pvp.rewards.lose_exp":         5,
	"pvp.rewards.streak_threshold": 3,
	"pvp.rewards.streak_step":      0.2,
	"pvp.rewards.max_multiplier":   3.0,
	"pvp.rewards.streak_window":    10,
	"pvp.rewards.history_limit":    100,
}

// newViper 创建带默认值和环境变量覆盖的 viper 实例
func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("PVP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return cfg, nil
}

// Default 返回只包含默认值（及环境变量覆盖）的配置
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// 默认值表是静态的，解析失败属于编码错误
		panic(err)
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}
	return &cfg, nil
}

// Validate 检查会导致运行期错误的取值，所有问题合并返回
func (c *Config) Validate() error {
	var errs []error
	positive := func(key string, value float64) {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%s 必须大于0，当前为 %v", key, value))
		}
	}

	r := c.PvP.Ranking
	positive("pvp.ranking.k_factor", float64(r.KFactor))
	positive("pvp.ranking.max_rating_change", float64(r.MaxRatingChange))
	positive("pvp.ranking.season_days", float64(r.SeasonDays))
	positive("pvp.ranking.history_limit", float64(r.HistoryLimit))

	w := c.PvP.Rewards
	positive("pvp.rewards.max_multiplier", w.MaxMultiplier)
	positive("pvp.rewards.streak_window", float64(w.StreakWindow))
	positive("pvp.rewards.history_limit", float64(w.HistoryLimit))

	return errors.Join(errs...)
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SeasonLength 赛季时长
func (c *RankingConfig) SeasonLength() time.Duration {
	return time.Duration(c.SeasonDays) * 24 * time.Hour
}
