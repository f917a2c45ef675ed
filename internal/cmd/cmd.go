package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/clambin/go-common/charmer"
	"github.com/clambin/homeshift/internal/cmd/config"
	"github.com/clambin/homeshift/internal/cmd/eval"
	"github.com/clambin/homeshift/internal/cmd/run"
	"github.com/clambin/homeshift/internal/events"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "homeshift",
		Short: "Decides the day mode of your households",
	}
)

var arguments = charmer.Arguments{
	"debug":         {Default: false, Help: "Log debug messages"},
	"log.format":    {Default: "text", Help: "Log format (text or json)"},
	"addr":          {Default: ":8080", Help: "Address of the API, /health and /metrics endpoints"},
	"hass.url":      {Default: "http://homeassistant:8123", Help: "Home Assistant URL"},
	"hass.token":    {Default: "", Help: "Home Assistant long-lived access token"},
	"hass.timeout":  {Default: 10 * time.Second, Help: "Timeout of a Home Assistant call"},
	"store.path":    {Default: "", Help: "Path of the settings database (empty: settings aren't saved)"},
	"mqtt.broker":   {Default: "", Help: "MQTT broker (empty: MQTT disabled)"},
	"mqtt.clientID": {Default: "homeshift", Help: "MQTT client ID"},
	"mqtt.username": {Default: "", Help: "MQTT username"},
	"mqtt.password": {Default: "", Help: "MQTT password"},
	"mqtt.prefix":   {Default: "homeshift", Help: "MQTT topic prefix"},
	"kafka.topic":   {Default: events.DefaultTopic, Help: "Kafka topic for mode changes"},
	"slack.token":   {Default: "", Help: "Slack token (empty: Slack disabled)"},
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	if err := charmer.SetPersistentFlags(&RootCmd, viper.GetViper(), arguments); err != nil {
		panic("failed to set flags: " + err.Error())
	}

	RootCmd.AddCommand(&run.Cmd, &eval.Cmd, &config.Cmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "err", err)
	}

	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/homeshift/")
		viper.AddConfigPath("$HOME/.homeshift")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("HOMESHIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Error("failed to read config file", "err", err)
		os.Exit(1)
	}
}
