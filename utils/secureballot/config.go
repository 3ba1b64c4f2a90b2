package main

import (
	"fmt"
	"os"
	"path"

	"github.com/dlintw/goconf"
	"github.com/phayes/errors"
)

type Config struct {
	configFilePath string
	database       struct {
		host               string
		port               int
		user               string
		password           string
		dbname             string
		sslmode            string
		maxIdleConnections int
	}
	keySize    int
	shareCount int
	threshold  int
}

var ErrConfigNotFound = errors.New("could not find config file. Try using the --config=\"<path-to-config-file>\" option to specify a config file")

// NewConfig reads the ini config file. The config file must be owned by and
// only readable by the user running this tool.
func NewConfig(filepath string) (*Config, error) {
	config := Config{
		configFilePath: filepath,
	}

	c, err := goconf.ReadConfigFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	// Paths referenced in the config file are relative to its location.
	if err := os.Chdir(path.Dir(filepath)); err != nil {
		return nil, err
	}

	config.database.host, err = c.GetString("key-db", "host")
	if err != nil {
		return nil, err
	}
	config.database.port, err = c.GetInt("key-db", "port")
	if err != nil {
		return nil, err
	}
	config.database.user, err = c.GetString("key-db", "user")
	if err != nil {
		return nil, err
	}
	config.database.password, err = c.GetString("key-db", "password")
	if err != nil {
		return nil, err
	}
	config.database.dbname, err = c.GetString("key-db", "dbname")
	if err != nil {
		return nil, err
	}
	config.database.sslmode, err = c.GetString("key-db", "sslmode")
	if err != nil {
		return nil, err
	}
	// A missing max_idle_connections translates to -1 (driver default)
	if c.HasOption("key-db", "max_idle_connections") {
		config.database.maxIdleConnections, err = c.GetInt("key-db", "max_idle_connections")
		if err != nil {
			return nil, err
		}
	} else {
		config.database.maxIdleConnections = -1
	}

	if c.HasOption("election", "key-size") {
		config.keySize, err = c.GetInt("election", "key-size")
		if err != nil {
			return nil, err
		}
	}
	if c.HasOption("election", "share-count") {
		config.shareCount, err = c.GetInt("election", "share-count")
		if err != nil {
			return nil, err
		}
	}
	if c.HasOption("election", "threshold") {
		config.threshold, err = c.GetInt("election", "threshold")
		if err != nil {
			return nil, err
		}
	}

	return &config, nil
}

func (config *Config) databaseConnectionString() (connection string) {
	if config.database.host != "" {
		connection = fmt.Sprint(connection, "host=", config.database.host, " ")
	}
	if config.database.port != 0 {
		connection = fmt.Sprint(connection, "port=", config.database.port, " ")
	}
	if config.database.user != "" {
		connection = fmt.Sprint(connection, "user=", config.database.user, " ")
	}
	if config.database.password != "" {
		connection = fmt.Sprint(connection, "password=", config.database.password, " ")
	}
	if config.database.dbname != "" {
		connection = fmt.Sprint(connection, "dbname=", config.database.dbname, " ")
	}
	if config.database.sslmode != "" {
		connection = fmt.Sprint(connection, "sslmode=", config.database.sslmode)
	}
	return
}
