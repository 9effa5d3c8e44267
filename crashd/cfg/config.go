package cfg

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Config interface {
	Port() uint
	Host() string
	SpoolDir() string
	RabbitServer() string
	RabbitQueue() string
	RabbitPostExchange() string
	RabbitPostType() string
	ElasticUrl() string
	Memcache() []string
	RedisAddress() string
	RedisPassword() string
	LogLevel() string
	BlacklistSignatures() []string
}

var GlobalConfigMutex sync.Mutex
var GlobalConfig Config
var GlobalConfigPath string

func FromJson(pathTo string) (Config, error) {
	file, err := os.Open(pathTo)
	if err != nil {
		log.WithError(err).Error("Get config failed")
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var jconf JsonConfig
	err = decoder.Decode(&jconf)
	if err != nil {
		log.WithError(err).Error("Error at cfg parsing")
		return nil, err
	}

	if len(jconf.SpoolPathName) == 0 {
		return nil, errors.New("spool_pathname can't is empty")
	}

	return &jconf, nil
}
