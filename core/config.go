package core

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	dbConfig struct {
		Engine     string // sqlite | postgres
		Name       string // file path for sqlite, database name for postgres
		Host       string
		Port       int
		User       string
		Password   string
		DisableTLS bool
	}

	serverConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	apiConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	syncConfig struct {
		MaxAge       time.Duration // 0: only the update-on-load rule applies
		PollInterval time.Duration // 0: no periodic refresh
		CustomDate   string        // YYYY-MM-DD, overrides "today"
	}

	offlineConfig struct {
		Backend      string // sql | memory | redis
		CachePrefix  string
		Version      int
		OriginURL    string
		OfflinePage  string
		Assets       []string
		Data         []string
		RedisAddr    string
		RedisDB      int
		MemorySizeMB int
	}

	eclassroomConfig struct {
		WebserviceURL string
		NormalURL     string
	}

	logConfig struct {
		File       string
		MaxSizeMB  int
		MaxBackups int
	}

	Config struct {
		viper *viper.Viper

		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
		WorkDir          string

		Database   dbConfig
		Server     serverConfig
		API        apiConfig
		Sync       syncConfig
		Offline    offlineConfig
		EClassroom eclassroomConfig
		Log        logConfig
	}
)

func (c dbConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file,
// the optional config file pointed at by <ENV>_CONFIG_FILE and the environment (<ENV>_ prefix).
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Urnik")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "z8#q1m!b7v$k2p(x9w@r4t&y6u*i0o^e")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.name", "urnik.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("api.baseURL", "https://api.gimvicurnik.filips.si")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("sync.maxAge", time.Duration(0))
	v.SetDefault("sync.pollInterval", time.Duration(0))
	v.SetDefault("sync.customDate", "")

	v.SetDefault("offline.backend", "sql")
	v.SetDefault("offline.cachePrefix", "urnik")
	v.SetDefault("offline.version", 1)
	v.SetDefault("offline.originURL", "")
	v.SetDefault("offline.offlinePage", "") // the API origin has no page to fall back to
	v.SetDefault("offline.assets", []string{})
	v.SetDefault("offline.data", []string{
		"/list/classes", "/list/teachers", "/list/classrooms",
		"/timetable", "/timetable/classrooms/empty", "/documents", "/notifications",
	})
	v.SetDefault("offline.memorySizeMB", 32)
	v.SetDefault("offline.redisAddr", "localhost:6379")
	v.SetDefault("offline.redisDB", 0)

	v.SetDefault("eclassroom.webserviceURL", "https://ucilnica.gimvic.org/webservice/pluginfile.php")
	v.SetDefault("eclassroom.normalURL", "https://ucilnica.gimvic.org/pluginfile.php")

	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 10)
	v.SetDefault("log.maxBackups", 3)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err = os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", file)
		}
	}

	conf := &Config{viper: v, Env: env, WorkDir: wd}
	conf.load()
	return conf, nil
}

func (c *Config) load() {
	v := c.viper
	c.Build = v.GetString("build")
	c.Debug = v.GetBool("debug")
	c.TestMode = v.GetBool("testMode")
	c.AppName = v.GetString("appName")
	c.SecretKey = v.GetString("secretKey")
	c.DefaultFromEmail = v.GetString("defaultFromEmail")
	c.SendgridApiKey = v.GetString("sendgridApiKey")
	c.RollbarToken = v.GetString("rollbarToken")

	c.Database = dbConfig{
		Engine:     strings.ToLower(v.GetString("database.engine")),
		Name:       v.GetString("database.name"),
		Host:       v.GetString("database.host"),
		Port:       v.GetInt("database.port"),
		User:       v.GetString("database.user"),
		Password:   v.GetString("database.password"),
		DisableTLS: v.GetBool("database.disableTLS"),
	}
	c.Server = serverConfig{
		Host:            v.GetString("server.host"),
		DebugHost:       v.GetString("server.debugHost"),
		ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		DisableReqLogs:  v.GetBool("server.disableReqLogs"),
	}
	c.API = apiConfig{
		BaseURL: strings.TrimRight(v.GetString("api.baseURL"), "/"),
		Timeout: v.GetDuration("api.timeout"),
	}
	c.Sync = syncConfig{
		MaxAge:       v.GetDuration("sync.maxAge"),
		PollInterval: v.GetDuration("sync.pollInterval"),
		CustomDate:   v.GetString("sync.customDate"),
	}
	c.Offline = offlineConfig{
		Backend:      strings.ToLower(v.GetString("offline.backend")),
		CachePrefix:  v.GetString("offline.cachePrefix"),
		Version:      v.GetInt("offline.version"),
		OriginURL:    strings.TrimRight(v.GetString("offline.originURL"), "/"),
		OfflinePage:  v.GetString("offline.offlinePage"),
		Assets:       v.GetStringSlice("offline.assets"),
		Data:         v.GetStringSlice("offline.data"),
		RedisAddr:    v.GetString("offline.redisAddr"),
		RedisDB:      v.GetInt("offline.redisDB"),
		MemorySizeMB: v.GetInt("offline.memorySizeMB"),
	}
	if c.Offline.OriginURL == "" {
		c.Offline.OriginURL = c.API.BaseURL
	}
	c.EClassroom = eclassroomConfig{
		WebserviceURL: v.GetString("eclassroom.webserviceURL"),
		NormalURL:     v.GetString("eclassroom.normalURL"),
	}
	c.Log = logConfig{
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.maxSizeMB"),
		MaxBackups: v.GetInt("log.maxBackups"),
	}
}

// Watch logs the changes of the config file. The services keep the values read at startup:
// a change applies on restart. It is a noop when no config file is used.
func (c *Config) Watch(logger Logger) {
	file := c.viper.ConfigFileUsed()
	if file == "" {
		return
	}
	c.viper.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		logger.Warn("config file changed, restart to apply: " + ev.Name)
	})
	c.viper.WatchConfig()
}

// NewTestConfig returns a Config suitable for tests (in-memory caches, no network defaults).
func NewTestConfig() *Config {
	v := viper.New()
	conf := &Config{
		viper:            v,
		Env:              "TEST",
		Build:            "test",
		Debug:            true,
		TestMode:         true,
		AppName:          "Urnik",
		SecretKey:        "test-secret-key",
		DefaultFromEmail: "noreply@localhost",
		Database:         dbConfig{Engine: "sqlite", Name: ":memory:"},
		Server:           serverConfig{Host: ":0", ShutdownTimeout: time.Second, DisableReqLogs: true},
		API:              apiConfig{BaseURL: "http://api.test", Timeout: 5 * time.Second},
		Offline: offlineConfig{
			Backend:      "memory",
			CachePrefix:  "urnik",
			Version:      1,
			OriginURL:    "http://api.test",
			MemorySizeMB: 8,
		},
		EClassroom: eclassroomConfig{
			WebserviceURL: "https://ucilnica.test/webservice/pluginfile.php",
			NormalURL:     "https://ucilnica.test/pluginfile.php",
		},
	}
	return conf
}
