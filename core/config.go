package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env            string
	Debug          bool
	Strict         bool // programmer errors panic instead of returning
	TestMode       bool
	AppName        string
	Build          string
	RollbarToken   string
	ServerHost     string
	MeetingBaseURL string
	MeetingFail    bool // every meeting call fails; for rehearsing outages
	Seed           bool
	Timer          struct {
		Focus time.Duration
		Break time.Duration
	}
}

// NewConfig reads the configuration from the environment (and config/.env.<env> if it exists).
func NewConfig() *Config {
	v := viper.New()

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	env = strings.ToUpper(env)

	host, _ := os.Hostname()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Masomo Portal")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverHost", host)
	v.SetDefault("meetingBaseURL", "https://meet.google.com")
	v.SetDefault("meetingFail", false)
	v.SetDefault("seed", true)
	v.SetDefault("timerFocus", 25*time.Minute)
	v.SetDefault("timerBreak", 5*time.Minute)
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if root, err := Getwd(); err == nil {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:            env,
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		AppName:        v.GetString("appName"),
		Build:          v.GetString("build"),
		RollbarToken:   v.GetString("rollbarToken"),
		ServerHost:     v.GetString("serverHost"),
		MeetingBaseURL: strings.TrimRight(v.GetString("meetingBaseURL"), "/"),
		MeetingFail:    v.GetBool("meetingFail"),
		Seed:           v.GetBool("seed"),
	}
	v.SetDefault("strict", conf.Debug)
	conf.Strict = v.GetBool("strict")
	conf.Timer.Focus = v.GetDuration("timerFocus")
	conf.Timer.Break = v.GetDuration("timerBreak")
	return conf
}
