package cfg

type ServerCfg struct {
	Host string `json:"host"`
	Port uint   `json:"port"`
}

type RabbitCfg struct {
	Server   string `json:"server"`
	Queue    string `json:"queue"`
	Exchange string `json:"post-exchange"`
	Type     string `json:"post-type"`
}

type RedisCfg struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type CacheCfg struct {
	Memcached []string `json:"memcache"`
	Redis     RedisCfg `json:"redis"`
}

type LogCfg struct {
	Level string `json:"level"`
}

type JsonConfig struct {
	Server          *ServerCfg `json:"server"`
	SpoolPathName   string     `json:"spool_pathname"`
	Rabbit          *RabbitCfg `json:"rabbit_cfg"`
	Cache           *CacheCfg  `json:"cache"`
	Elastic         string     `json:"elastic"`
	Log             *LogCfg    `json:"log"`
	BListSignatures []string   `json:"blacklist_signatures"`
}

func (cfg *JsonConfig) Host() string {
	return cfg.Server.Host
}

func (cfg *JsonConfig) Port() uint {
	return cfg.Server.Port
}

func (cfg *JsonConfig) SpoolDir() string {
	return cfg.SpoolPathName
}

func (cfg *JsonConfig) RabbitServer() string {
	return cfg.Rabbit.Server
}

func (cfg *JsonConfig) RabbitQueue() string {
	return cfg.Rabbit.Queue
}

func (cfg *JsonConfig) RabbitPostExchange() string {
	return cfg.Rabbit.Exchange
}

func (cfg *JsonConfig) RabbitPostType() string {
	return cfg.Rabbit.Type
}

func (cfg *JsonConfig) ElasticUrl() string {
	return cfg.Elastic
}

func (cfg *JsonConfig) Memcache() []string {
	return cfg.Cache.Memcached
}

func (cfg *JsonConfig) RedisAddress() string {
	return cfg.Cache.Redis.Address
}

func (cfg *JsonConfig) RedisPassword() string {
	return cfg.Cache.Redis.Password
}

func (cfg *JsonConfig) LogLevel() string {
	return cfg.Log.Level
}

func (cfg *JsonConfig) BlacklistSignatures() []string {
	return cfg.BListSignatures
}
