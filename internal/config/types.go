package config

type Config struct {
	Target struct {
		Domain string `yaml:"domain"`
	} `yaml:"target"`

	// Resolvers to send queries to, as ip or ip:port. Empty means use the
	// system resolver list from /etc/resolv.conf.
	Resolvers []string `yaml:"resolvers"`

	Query struct {
		TimeoutMS int `yaml:"timeout_ms"`
		Retries   int `yaml:"retries"`
	} `yaml:"query"`

	RateLimit struct {
		Global int `yaml:"global"`
	} `yaml:"rate_limit"`

	Crawl struct {
		DeadlineSec int `yaml:"deadline_sec"`
		MaxInflight int `yaml:"max_inflight"`
		Workers     int `yaml:"workers"`
	} `yaml:"crawl"`

	Output struct {
		Format    string `yaml:"format"`
		File      string `yaml:"file"`
		Gzip      bool   `yaml:"gzip"`
		Relations string `yaml:"relations"`
	} `yaml:"output"`

	// Runtime configuration (not from YAML)
	Verbose bool
}
